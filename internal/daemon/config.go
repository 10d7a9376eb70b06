// Package daemon manages the lingopal daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lingopal/lingopal/internal/app/engagement"
	"github.com/lingopal/lingopal/internal/domain"
)

// Config holds all daemon configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Engine    EngineConfig    `toml:"engine"`
	Notices   NoticesConfig   `toml:"notices"`
	Logging   LoggingConfig   `toml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// EngineConfig tunes rewards and the reader's pet.
type EngineConfig struct {
	ReadingXP       int64  `toml:"reading_xp"`
	ReadingCoins    int64  `toml:"reading_coins"`
	XPPerWord       int64  `toml:"xp_per_word"`
	QuestionXP      int64  `toml:"question_xp"`
	QuestionCoins   int64  `toml:"question_coins"`
	StreakBaseXP    int64  `toml:"streak_base_xp"`
	StreakBaseCoins int64  `toml:"streak_base_coins"`
	EvolutionDelay  string `toml:"evolution_delay"` // e.g. "3s"; empty waits for an explicit ack
	PetTrack        string `toml:"pet_track"`
	PetName         string `toml:"pet_name"`
}

// NoticesConfig limits parent notifications.
type NoticesConfig struct {
	MaxPerDay  int    `toml:"max_per_day"`
	QuietStart string `toml:"quiet_start"`
	QuietEnd   string `toml:"quiet_end"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// TelemetryConfig controls the metrics endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	eng := engagement.DefaultConfig()
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7878,
		},
		Engine: EngineConfig{
			ReadingXP:       eng.ReadingXP,
			ReadingCoins:    eng.ReadingCoins,
			XPPerWord:       eng.XPPerWord,
			QuestionXP:      eng.QuestionXP,
			QuestionCoins:   eng.QuestionCoins,
			StreakBaseXP:    eng.StreakBaseXP,
			StreakBaseCoins: eng.StreakBaseCoins,
			PetTrack:        string(eng.PetTrack),
			PetName:         eng.PetName,
		},
		Notices: NoticesConfig{
			MaxPerDay:  eng.Notices.MaxPerDay,
			QuietStart: eng.Notices.QuietStart,
			QuietEnd:   eng.Notices.QuietEnd,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Engagement converts the [engine] and [notices] sections into the
// engine's own config.
func (c Config) Engagement() engagement.Config {
	return engagement.Config{
		ReadingXP:       c.Engine.ReadingXP,
		ReadingCoins:    c.Engine.ReadingCoins,
		XPPerWord:       c.Engine.XPPerWord,
		QuestionXP:      c.Engine.QuestionXP,
		QuestionCoins:   c.Engine.QuestionCoins,
		StreakBaseXP:    c.Engine.StreakBaseXP,
		StreakBaseCoins: c.Engine.StreakBaseCoins,
		EvolutionDelay:  parseDuration(c.Engine.EvolutionDelay, 0),
		PetTrack:        domain.TrackID(c.Engine.PetTrack),
		PetName:         c.Engine.PetName,
		Notices: engagement.NoticePolicy{
			MaxPerDay:  c.Notices.MaxPerDay,
			QuietStart: c.Notices.QuietStart,
			QuietEnd:   c.Notices.QuietEnd,
		},
	}
}

// LoadConfig reads config from $LINGOPAL_HOME/config.toml, falling back to
// defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(lingopalHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet, use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to $LINGOPAL_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(lingopalHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// lingopalHome returns the lingopal data directory.
func lingopalHome() string {
	if env := os.Getenv("LINGOPAL_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lingopal")
}

// Home is exported for use by other packages.
func Home() string {
	return lingopalHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
