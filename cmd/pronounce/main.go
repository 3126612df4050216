// Package main provides the CLI entrypoint for pronounce.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/pronounce/internal/analyzer"
	"github.com/verte-zerg/pronounce/internal/config"
	"github.com/verte-zerg/pronounce/internal/model"
	"github.com/verte-zerg/pronounce/internal/oracle"
	"github.com/verte-zerg/pronounce/internal/phoneme"
	"github.com/verte-zerg/pronounce/internal/scoring"
	"github.com/verte-zerg/pronounce/internal/stats"
	"github.com/verte-zerg/pronounce/internal/statsui"
	"github.com/verte-zerg/pronounce/internal/store"
	"github.com/verte-zerg/pronounce/internal/tui"
)

const (
	defaultWeakTop     = 10
	defaultWeakWindow  = 20
	defaultCurveWindow = 10
	defaultLogLevel    = "info"
)

var (
	oracleVoice             string
	oracleEspeak            string
	oracleFFmpeg            string
	oracleRecognizerURL     string
	oracleRecognizerTimeout time.Duration
	logLevel                string

	scoreText     string
	scorePhonemes string
	scoreAudio    string
	scoreNoSave   bool
	scoreJSON     bool

	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool

	weakTop    int
	weakWindow int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pronounce",
		Short:         "Phoneme-level pronunciation scoring",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(newLogger(level))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&oracleVoice, "voice", oracle.DefaultVoice, "espeak voice used for target phonemes")
	flags.StringVar(&oracleEspeak, "espeak", oracle.DefaultEspeakBin, "espeak-ng binary")
	flags.StringVar(&oracleFFmpeg, "ffmpeg", oracle.DefaultFFmpegBin, "ffmpeg binary")
	flags.StringVar(&oracleRecognizerURL, "recognizer-url", "", "phoneme recognition endpoint")
	flags.DurationVar(&oracleRecognizerTimeout, "recognizer-timeout", oracle.DefaultRecognizerTimeout, "recognition request timeout")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newWeakCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadConfig reads the config file and fills every oracle flag the user did
// not set explicitly.
func loadConfig(cmd *cobra.Command) (config.FileConfig, model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "voice", &oracleVoice, fileCfg.Scoring.Voice)
	applyStringConfig(cmd, "espeak", &oracleEspeak, fileCfg.Oracle.Espeak)
	applyStringConfig(cmd, "ffmpeg", &oracleFFmpeg, fileCfg.Oracle.FFmpeg)
	applyStringConfig(cmd, "recognizer-url", &oracleRecognizerURL, fileCfg.Oracle.RecognizerURL)
	applyDurationConfig(cmd, "recognizer-timeout", &oracleRecognizerTimeout, fileCfg.Oracle.RecognizerTimeout)
	if applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Server.LogLevel) {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return config.FileConfig{}, model.Config{}, fmt.Errorf("invalid server.log-level: %w", err)
		}
		slog.SetDefault(newLogger(level))
	}

	cfg := model.Config{
		Voice:             oracleVoice,
		EspeakBin:         oracleEspeak,
		FFmpegBin:         oracleFFmpeg,
		RecognizerURL:     oracleRecognizerURL,
		RecognizerTimeout: oracleRecognizerTimeout,
		Substitutions:     fileCfg.Substitutions(),
	}
	if err := validateConfig(cfg); err != nil {
		return config.FileConfig{}, model.Config{}, err
	}
	return fileCfg, cfg, nil
}

func buildScorer(cfg model.Config) (*scoring.Scorer, error) {
	table := phoneme.DefaultTable
	if len(cfg.Substitutions) > 0 {
		rules := make([]phoneme.Rule, 0, len(cfg.Substitutions))
		for _, s := range cfg.Substitutions {
			rules = append(rules, phoneme.Rule{From: s.From, To: s.To})
		}
		extended, err := table.Extend(rules)
		if err != nil {
			return nil, fmt.Errorf("invalid scoring.substitution: %w", err)
		}
		table = extended
	}
	if !oracle.Available(cfg.EspeakBin) {
		return nil, fmt.Errorf("%s not found on PATH (install espeak-ng or set --espeak)", cfg.EspeakBin)
	}
	scorer := scoring.NewScorer(oracle.NewEspeak(cfg.EspeakBin, cfg.Voice))
	scorer.Table = table
	return scorer, nil
}

// buildAnalyzer wires the oracles. Audio support is only required when
// needAudio is set.
func buildAnalyzer(cfg model.Config, st analyzer.Recorder, needAudio bool) (*analyzer.Analyzer, error) {
	scorer, err := buildScorer(cfg)
	if err != nil {
		return nil, err
	}
	var pre oracle.Preprocessor
	var rec oracle.Recognizer
	if needAudio {
		if cfg.RecognizerURL == "" {
			return nil, fmt.Errorf("--recognizer-url is required for audio analysis")
		}
		if !oracle.Available(cfg.FFmpegBin) {
			return nil, fmt.Errorf("%s not found on PATH (install ffmpeg or set --ffmpeg)", cfg.FFmpegBin)
		}
		pre = oracle.NewFFmpeg(cfg.FFmpegBin)
		rec = oracle.NewHTTPRecognizer(cfg.RecognizerURL, cfg.RecognizerTimeout)
	}
	return analyzer.New(pre, rec, scorer, st, cfg.Voice), nil
}

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one attempt from phonemes or audio",
		Args:  cobra.NoArgs,
		RunE:  runScoreCmd,
	}
	cmd.Flags().StringVar(&scoreText, "text", "", "target sentence")
	cmd.Flags().StringVar(&scorePhonemes, "phonemes", "", "recognized IPA phonemes")
	cmd.Flags().StringVar(&scoreAudio, "audio", "", "audio file to recognize")
	cmd.Flags().BoolVar(&scoreNoSave, "no-save", false, "do not record the attempt")
	cmd.Flags().BoolVar(&scoreJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("text")
	cmd.MarkFlagsMutuallyExclusive("phonemes", "audio")
	cmd.MarkFlagsOneRequired("phonemes", "audio")
	return cmd
}

func runScoreCmd(cmd *cobra.Command, _ []string) error {
	_, cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var recorder analyzer.Recorder
	if !scoreNoSave {
		st, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()
		recorder = st
	}

	a, err := buildAnalyzer(cfg, recorder, scoreAudio != "")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var report scoring.SessionReport
	if scoreAudio != "" {
		report, err = a.Analyze(ctx, scoreAudio, scoreText)
	} else {
		report, err = a.Score(ctx, scoreText, scorePhonemes)
	}
	if err != nil {
		return err
	}
	return printReport(cmd, report)
}

func printReport(cmd *cobra.Command, report scoring.SessionReport) error {
	out := cmd.OutOrStdout()
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if width, ok := terminalWidth(out); ok {
		if _, err := fmt.Fprintln(out, tui.RenderReport(report, width)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return stats.RenderSessionReport(out, report)
}

func terminalWidth(w any) (int, bool) {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil {
		return 0, true
	}
	return width, true
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse attempt history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N attempts")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := parseStatsConfig(voiceFilter(cmd), statsSince, statsLast, statsCurveWindow)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()
	width, interactive := terminalWidth(out)
	if statsPlain || !interactive {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build stats: %w", err)
		}
		if err := stats.RenderSummary(out, report.Attempts); err != nil {
			return err
		}
		if err := stats.RenderCurves(out, report.Attempts, cfg.CurveWindow, stats.PlotWidthFor(width), false); err != nil {
			return err
		}
		return stats.RenderWordTable(out, report.WordAggsAll)
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

// voiceFilter limits history to --voice only when the flag was given.
func voiceFilter(cmd *cobra.Command) string {
	if cmd.Flags().Changed("voice") {
		return oracleVoice
	}
	return ""
}

func parseStatsConfig(voice, since string, last, window int) (model.StatsConfig, error) {
	var sinceTime *time.Time
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if last < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if window < 1 {
		return model.StatsConfig{}, fmt.Errorf("--curve-window must be >= 1")
	}
	return model.StatsConfig{
		Voice:       voice,
		Since:       sinceTime,
		Last:        last,
		CurveWindow: window,
	}, nil
}

func newWeakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weak",
		Short: "List the weakest words from recent attempts",
		Args:  cobra.NoArgs,
		RunE:  runWeakCmd,
	}
	cmd.Flags().IntVar(&weakTop, "top", defaultWeakTop, "number of words to show")
	cmd.Flags().IntVar(&weakWindow, "window", defaultWeakWindow, "number of recent attempts to consider")
	return cmd
}

func runWeakCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "top", &weakTop, fileCfg.Stats.WeakTop)
	applyIntConfig(cmd, "window", &weakWindow, fileCfg.Stats.WeakWindow)
	if weakTop < 0 {
		return fmt.Errorf("--top must be >= 0")
	}
	if weakWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	aggs, err := st.GetWeakWords(cmd.Context(), weakWindow, voiceFilter(cmd))
	if err != nil {
		return fmt.Errorf("failed to load weak words: %w", err)
	}
	if len(aggs) == 0 {
		logErrln("no attempts recorded yet; try: pronounce score --text ... --phonemes ...")
		return nil
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderWordTable(out, stats.SelectWeakWords(aggs, weakTop)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if top := stats.TopWordsByFrequency(aggs, 5); len(top) > 0 {
		if _, err := fmt.Fprintf(out, "Most practised: %s\n", strings.Join(top, ", ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// applyStringConfig copies value into target unless the flag was set. It
// reports whether the config value was applied.
func applyStringConfig(cmd *cobra.Command, name string, target, value *string) bool {
	if value == nil || cmd.Flags().Changed(name) {
		return false
	}
	*target = *value
	return true
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target, value *time.Duration) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pronounce configuration
# Uncomment a value to enable it. CLI flags override config values.

[scoring]
# voice = %q                # espeak voice for target phonemes
# Extra substitutions run after the built-in table, in order.
# [[scoring.substitution]]
# from = "ɚ"
# to = "r"

[oracle]
# espeak = %q
# ffmpeg = %q
# recognizer-url = "http://localhost:9000/recognize"
# recognizer-timeout = %q

[server]
# addr = %q
# max-upload-mb = %d
# log-level = %q
# allowed-origins = ["*"]      # CORS origins for browser clients

[stats]
# weak-top = %d
# weak-window = %d
`,
		oracle.DefaultVoice,
		oracle.DefaultEspeakBin,
		oracle.DefaultFFmpegBin,
		oracle.DefaultRecognizerTimeout.String(),
		defaultAddr,
		defaultMaxUploadMB,
		defaultLogLevel,
		defaultWeakTop,
		defaultWeakWindow,
	)
}

func validateConfig(cfg model.Config) error {
	if strings.TrimSpace(cfg.Voice) == "" {
		return fmt.Errorf("--voice must not be empty")
	}
	if strings.TrimSpace(cfg.EspeakBin) == "" {
		return fmt.Errorf("--espeak must not be empty")
	}
	if strings.TrimSpace(cfg.FFmpegBin) == "" {
		return fmt.Errorf("--ffmpeg must not be empty")
	}
	if cfg.RecognizerTimeout <= 0 {
		return fmt.Errorf("--recognizer-timeout must be > 0")
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
