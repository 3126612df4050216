// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/pronounce/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Scoring ScoringConfig `toml:"scoring"`
	Oracle  OracleConfig  `toml:"oracle"`
	Server  ServerConfig  `toml:"server"`
	Stats   StatsConfig   `toml:"stats"`
}

// ScoringConfig maps phonemization and normalization settings.
type ScoringConfig struct {
	Voice        *string             `toml:"voice"`
	Substitution []SubstitutionEntry `toml:"substitution"`
}

// SubstitutionEntry is one [[scoring.substitution]] table.
type SubstitutionEntry struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// OracleConfig maps external tool and service settings.
type OracleConfig struct {
	Espeak            *string        `toml:"espeak"`
	FFmpeg            *string        `toml:"ffmpeg"`
	RecognizerURL     *string        `toml:"recognizer-url"`
	RecognizerTimeout *time.Duration `toml:"recognizer-timeout"`
}

// ServerConfig maps HTTP service settings.
type ServerConfig struct {
	Addr        *string `toml:"addr"`
	MaxUploadMB *int    `toml:"max-upload-mb"`
	LogLevel    *string `toml:"log-level"`

	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins *[]string `toml:"allowed-origins"`
}

// StatsConfig maps history settings.
type StatsConfig struct {
	WeakTop    *int `toml:"weak-top"`
	WeakWindow *int `toml:"weak-window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Substitutions converts configured substitution tables to model values.
func (c FileConfig) Substitutions() []model.Substitution {
	if len(c.Scoring.Substitution) == 0 {
		return nil
	}
	out := make([]model.Substitution, 0, len(c.Scoring.Substitution))
	for _, s := range c.Scoring.Substitution {
		out = append(out, model.Substitution{From: s.From, To: s.To})
	}
	return out
}
