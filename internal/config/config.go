package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appName = "waveplug"

	DefaultCueGaps     = 1
	DefaultChunkSize   = 4096
	DefaultJobs        = 4
	DefaultMinMetaSize = 1000
	DefaultVendor      = appName

	maxChunkSize = 1 << 20
	maxJobs      = 64
)

type Config struct {
	Cue   CueConfig   `koanf:"cue"`
	Input InputConfig `koanf:"input"`
	FLAC  FLACConfig  `koanf:"flac"`
	State StateConfig `koanf:"state"`
}

// CueConfig holds CUE sheet settings.
type CueConfig struct {
	Gaps *int `koanf:"gaps"` // 0 skip, 1 previous track (default), 2 previous track and first track from 0
}

// InputConfig holds input reading settings.
type InputConfig struct {
	ChunkSize int `koanf:"chunk_size"` // bytes per filter call (default: 4096)
	Jobs      int `koanf:"jobs"`       // inputs parsed in parallel (1-64, default: 4)
}

// FLACConfig holds FLAC tag writing settings.
type FLACConfig struct {
	MinMetaSize *int   `koanf:"min_meta_size"` // padding target in bytes (default: 1000)
	Vendor      string `koanf:"vendor"`        // vendor string of written comments
}

// StateConfig holds persistence settings.
type StateConfig struct {
	Path string `koanf:"path"` // database file, empty for the XDG data dir
}

// Load reads the default config files, then extra. Default files that do
// not exist are skipped; extra files must exist.
func Load(extra ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}
	for _, path := range extra {
		path = expandPath(path)
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.State.Path != "" {
		cfg.State.Path = expandPath(cfg.State.Path)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/waveplug/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./waveplug.toml (pwd, highest priority)
		appName + ".toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// CueGaps returns the configured gap policy number. ok is false when the
// value is outside 0..2; the default is returned in that case too.
func (c *Config) CueGaps() (gaps int, ok bool) {
	if c.Cue.Gaps == nil {
		return DefaultCueGaps, true
	}
	if g := *c.Cue.Gaps; g >= 0 && g <= 2 {
		return g, true
	}
	return DefaultCueGaps, false
}

// GetInputConfig returns the input configuration with defaults applied.
func (c *Config) GetInputConfig() InputConfig {
	cfg := c.Input
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > maxChunkSize {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Jobs <= 0 || cfg.Jobs > maxJobs {
		cfg.Jobs = DefaultJobs
	}
	return cfg
}

// GetFLACConfig returns the FLAC configuration with defaults applied.
func (c *Config) GetFLACConfig() FLACConfig {
	cfg := c.FLAC
	if cfg.MinMetaSize == nil || *cfg.MinMetaSize < 0 {
		size := DefaultMinMetaSize
		cfg.MinMetaSize = &size
	}
	if cfg.Vendor == "" {
		cfg.Vendor = DefaultVendor
	}
	return cfg
}

// MinMetaSize returns the padding target for written FLAC metadata.
func (c *Config) MinMetaSize() int {
	return *c.GetFLACConfig().MinMetaSize
}
