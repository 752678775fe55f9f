// Package plugin wires the input filters to their collaborators and picks
// one for a given input.
package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/waveplug/internal/codec"
	"github.com/llehouerou/waveplug/internal/config"
	"github.com/llehouerou/waveplug/internal/cue"
	"github.com/llehouerou/waveplug/internal/dirinput"
	"github.com/llehouerou/waveplug/internal/filter"
	"github.com/llehouerou/waveplug/internal/flac"
	"github.com/llehouerou/waveplug/internal/m3u"
	"github.com/llehouerou/waveplug/internal/queue"
)

// Module names.
const (
	NameM3U        = "m3u"
	NameCue        = "cue"
	NameDir        = "dir"
	NameFLACDecode = "flac.decode"
)

// ErrUnknownInput is returned by ForPath when no filter handles the input.
var ErrUnknownInput = errors.New("no filter for input")

var extensions = map[string]string{
	".m3u":  NameM3U,
	".m3u8": NameM3U,
	".cue":  NameCue,
	".flac": NameFLACDecode,
}

// Env holds what the filters need from the host.
type Env struct {
	Sink   queue.Sink
	Log    zerolog.Logger
	Config *config.Config
}

// Module maps filter names to openers.
type Module struct {
	openers map[string]filter.Opener
}

// New builds the registry. Entries produced by playlist filters go to env.Sink.
func New(env Env) *Module {
	cfg := env.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	g, ok := cfg.CueGaps()
	gaps := cue.GapPolicy(g)
	if !ok {
		env.Log.Warn().
			Int("cue_gaps", *cfg.Cue.Gaps).
			Str("using", gaps.String()).
			Msg("invalid cue gap policy in config")
	}

	return &Module{
		openers: map[string]filter.Opener{
			NameM3U:        m3u.Open(env.Sink, env.Log),
			NameCue:        cue.Open(env.Sink, env.Log, gaps),
			NameDir:        dirinput.Open(env.Sink, env.Log),
			NameFLACDecode: codec.Open(flac.NewCodec, env.Log),
		},
	}
}

// Lookup returns the opener registered under name, or nil.
func (m *Module) Lookup(name string) filter.Opener {
	return m.openers[name]
}

// Names lists the registered filters in order.
func (m *Module) Names() []string {
	names := make([]string, 0, len(m.openers))
	for name := range m.openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForPath picks the filter for path: directories are expanded, files are
// chosen by extension. A path without an extension that cannot be stat'ed
// is reported as a *dirinput.FSError.
func (m *Module) ForPath(path string) (string, filter.Opener, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return NameDir, m.openers[NameDir], nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if err != nil && ext == "" {
		return "", nil, &dirinput.FSError{Path: path, Err: err}
	}
	name, ok := extensions[ext]
	if !ok {
		return "", nil, fmt.Errorf("%w %s (filters: %s)", ErrUnknownInput, path, strings.Join(m.Names(), ", "))
	}
	return name, m.openers[name], nil
}

// IsPlaylist reports whether the named filter produces queue entries.
func IsPlaylist(name string) bool {
	return name == NameM3U || name == NameCue || name == NameDir
}
