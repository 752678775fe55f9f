//nolint:goconst // test cases intentionally repeat strings for readability
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde expands to home", "~/waveplug.db", filepath.Join(home, "waveplug.db")},
		{"absolute path unchanged", "/var/lib/waveplug.db", "/var/lib/waveplug.db"},
		{"relative path unchanged", "data/waveplug.db", "data/waveplug.db"},
		{"empty string unchanged", "", ""},
		{"tilde only", "~", home},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) != 2 {
		t.Fatalf("getConfigPaths() returned %d paths, want 2", len(paths))
	}
	if filepath.Base(filepath.Dir(paths[0])) != appName {
		t.Errorf("first config path = %q, want it under a %q directory", paths[0], appName)
	}
	if paths[1] != "waveplug.toml" {
		t.Errorf("last config path = %q, want %q", paths[1], "waveplug.toml")
	}
}

func TestCueGaps(t *testing.T) {
	tests := []struct {
		name   string
		gaps   *int
		want   int
		wantOK bool
	}{
		{"unset", nil, DefaultCueGaps, true},
		{"skip", intPtr(0), 0, true},
		{"prev", intPtr(1), 1, true},
		{"prev1", intPtr(2), 2, true},
		{"too large", intPtr(3), DefaultCueGaps, false},
		{"negative", intPtr(-1), DefaultCueGaps, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Cue: CueConfig{Gaps: tt.gaps}}
			got, ok := cfg.CueGaps()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CueGaps() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGetInputConfig_Defaults(t *testing.T) {
	cfg := &Config{}

	got := cfg.GetInputConfig()

	if got.ChunkSize != DefaultChunkSize {
		t.Errorf("ChunkSize = %d, want %d", got.ChunkSize, DefaultChunkSize)
	}
	if got.Jobs != DefaultJobs {
		t.Errorf("Jobs = %d, want %d", got.Jobs, DefaultJobs)
	}
}

func TestGetInputConfig_InvalidValues(t *testing.T) {
	cfg := &Config{Input: InputConfig{ChunkSize: maxChunkSize + 1, Jobs: 1000}}

	got := cfg.GetInputConfig()

	if got.ChunkSize != DefaultChunkSize {
		t.Errorf("ChunkSize = %d, want %d", got.ChunkSize, DefaultChunkSize)
	}
	if got.Jobs != DefaultJobs {
		t.Errorf("Jobs = %d, want %d", got.Jobs, DefaultJobs)
	}
}

func TestGetFLACConfig(t *testing.T) {
	cfg := &Config{}
	if got := cfg.MinMetaSize(); got != DefaultMinMetaSize {
		t.Errorf("MinMetaSize() = %d, want %d", got, DefaultMinMetaSize)
	}
	if got := cfg.GetFLACConfig().Vendor; got != DefaultVendor {
		t.Errorf("Vendor = %q, want %q", got, DefaultVendor)
	}

	cfg.FLAC.MinMetaSize = intPtr(0)
	if got := cfg.MinMetaSize(); got != 0 {
		t.Errorf("MinMetaSize() = %d, want 0", got)
	}

	cfg.FLAC.MinMetaSize = intPtr(-5)
	if got := cfg.MinMetaSize(); got != DefaultMinMetaSize {
		t.Errorf("MinMetaSize() = %d, want %d", got, DefaultMinMetaSize)
	}
}

// inTempDir runs the test from an empty temporary working directory.
func inTempDir(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(originalWd)
	})
	return tmpDir
}

func TestLoad_LocalConfig(t *testing.T) {
	inTempDir(t)

	configContent := `
[cue]
gaps = 0

[input]
chunk_size = 16
jobs = 2

[flac]
min_meta_size = 2048
vendor = "tester"

[state]
path = "~/queues.db"
`
	if err := os.WriteFile("waveplug.toml", []byte(configContent), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if gaps, ok := cfg.CueGaps(); gaps != 0 || !ok {
		t.Errorf("CueGaps() = (%d, %v), want (0, true)", gaps, ok)
	}
	in := cfg.GetInputConfig()
	if in.ChunkSize != 16 || in.Jobs != 2 {
		t.Errorf("Input = %+v, want chunk_size 16, jobs 2", in)
	}
	if cfg.MinMetaSize() != 2048 {
		t.Errorf("MinMetaSize() = %d, want 2048", cfg.MinMetaSize())
	}
	if cfg.FLAC.Vendor != "tester" {
		t.Errorf("Vendor = %q, want %q", cfg.FLAC.Vendor, "tester")
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "queues.db"); cfg.State.Path != want {
		t.Errorf("State.Path = %q, want %q", cfg.State.Path, want)
	}
}

func TestLoad_ExtraFileWins(t *testing.T) {
	dir := inTempDir(t)

	if err := os.WriteFile("waveplug.toml", []byte("[cue]\ngaps = 0\n"), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
	extra := filepath.Join(dir, "extra.toml")
	if err := os.WriteFile(extra, []byte("[cue]\ngaps = 2\n"), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load(extra)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if gaps, _ := cfg.CueGaps(); gaps != 2 {
		t.Errorf("CueGaps() = %d, want 2", gaps)
	}
}

func TestLoad_MissingExtraFile(t *testing.T) {
	dir := inTempDir(t)

	_, err := Load(filepath.Join(dir, "missing.toml"))
	if !os.IsNotExist(err) {
		t.Errorf("Load(missing) error = %v, want not-exist error", err)
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	inTempDir(t)

	if err := os.WriteFile("waveplug.toml", []byte("invalid = [[["), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	_, err := Load()
	if err == nil {
		t.Error("Load() expected error for invalid TOML, got nil")
	}
}
