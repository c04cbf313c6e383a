package nucleus

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config tunes a session. The zero value is fully usable; any field left at
// zero takes its default.
type Config struct {
	// FuzzyLimit is the default result cap for fuzzy_search.
	FuzzyLimit int `toml:"fuzzy_limit"`

	// SynthDepth bounds the extractor backward search.
	SynthDepth int `toml:"synth_depth"`

	// DeadlineSeconds bounds each Execute call. Zero means no deadline.
	DeadlineSeconds int `toml:"deadline_seconds"`

	// SampleSeed pins the handle sample operation for reproducible runs.
	// Zero leaves sampling random.
	SampleSeed int64 `toml:"sample_seed"`

	// AutoCheckpoint snapshots the handle table after every successful turn.
	AutoCheckpoint bool `toml:"auto_checkpoint"`

	// LogLevel sets the hclog level ("debug", "info", "warn", "error").
	// Empty means no engine logging.
	LogLevel string `toml:"log_level"`
}

// LoadConfig reads a TOML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config %q: %w", path, err)
	}
	return DecodeConfig(string(data))
}

// DecodeConfig parses TOML config text.
func DecodeConfig(text string) (Config, error) {
	var cfg Config
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, fmt.Errorf("config does not parse: %w", err)
	}
	return cfg, nil
}
