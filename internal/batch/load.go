// Package batch scores many recorded attempts from a tab-separated file.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Item is one line of a batch file.
type Item struct {
	Line     int
	Text     string
	Phonemes string
}

// LoadItems reads items from path, or from stdin when path is "-".
func LoadItems(path string) ([]Item, error) {
	if path == "-" {
		return ReadItems(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only input.
			_ = cerr
		}
	}()
	return ReadItems(file)
}

// ReadItems parses "text<TAB>phonemes" lines. Blank lines and lines starting
// with '#' are skipped.
func ReadItems(r io.Reader) ([]Item, error) {
	var items []Item
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		text, phonemes, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("line %d: expected text<TAB>phonemes", lineNo)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("line %d: empty text", lineNo)
		}
		items = append(items, Item{Line: lineNo, Text: text, Phonemes: strings.TrimSpace(phonemes)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("batch file is empty")
	}
	return items, nil
}
