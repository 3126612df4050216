// Package align computes minimum edit alignments between phoneme strings.
package align

// OpKind identifies an edit operation.
type OpKind int

const (
	// Replace substitutes target[Src] with user[Dst].
	Replace OpKind = iota + 1
	// Delete drops target[Src]; Dst is where it would have appeared in user.
	Delete
	// Insert adds user[Dst]; Src is only the insertion point in target.
	Insert
)

// String implements fmt.Stringer.
func (k OpKind) String() string {
	switch k {
	case Replace:
		return "replace"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	default:
		return "unknown"
	}
}

// EditOp is one step of an alignment. Indices are rune offsets.
type EditOp struct {
	Kind OpKind
	Src  int
	Dst  int
}

// Align returns a minimum-cost sequence of operations turning target into
// user, with unit cost for every insert, delete and replace. Matches are not
// reported. Operations are ordered by position.
//
// Among equal-cost alignments the trace walks back from the end of both
// strings preferring a match, then replace, then delete, then insert, so a
// given pair of inputs always yields the same operations.
func Align(target, user string) []EditOp {
	a := []rune(target)
	b := []rune(user)
	dist := table(a, b)

	var ops []EditOp
	i, j := len(a), len(b)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1] && dist[i][j] == dist[i-1][j-1]:
			i--
			j--
		case i > 0 && j > 0 && dist[i][j] == dist[i-1][j-1]+1:
			i--
			j--
			ops = append(ops, EditOp{Kind: Replace, Src: i, Dst: j})
		case i > 0 && dist[i][j] == dist[i-1][j]+1:
			i--
			ops = append(ops, EditOp{Kind: Delete, Src: i, Dst: j})
		default:
			j--
			ops = append(ops, EditOp{Kind: Insert, Src: i, Dst: j})
		}
	}
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

// table fills the full Levenshtein matrix; dist[i][j] is the distance
// between a[:i] and b[:j].
func table(a, b []rune) [][]int {
	dist := make([][]int, len(a)+1)
	for i := range dist {
		dist[i] = make([]int, len(b)+1)
		dist[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		dist[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := dist[i-1][j] + 1
			ins := dist[i][j-1] + 1
			sub := dist[i-1][j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			dist[i][j] = m
		}
	}
	return dist
}

// ErrorIndices collects the target positions touched by replace and delete
// operations. Inserts have no target character and are ignored.
func ErrorIndices(ops []EditOp) map[int]struct{} {
	errs := make(map[int]struct{}, len(ops))
	for _, op := range ops {
		if op.Kind == Replace || op.Kind == Delete {
			errs[op.Src] = struct{}{}
		}
	}
	return errs
}

// Distance is the edit distance represented by ops.
func Distance(ops []EditOp) int {
	return len(ops)
}
