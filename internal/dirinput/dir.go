// Package dirinput expands a directory into one queue entry per child.
package dirinput

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/llehouerou/waveplug/internal/filter"
	"github.com/llehouerou/waveplug/internal/queue"
)

// FSError reports a directory that could not be listed.
type FSError struct {
	Path string
	Err  error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("dir: %s: %v", e.Path, e.Err)
}

func (e *FSError) Unwrap() error { return e.Err }

// readBatch bounds how many directory entries are read at once.
const readBatch = 256

// Expand adds one URL-only entry per directory child, in the order the
// operating system lists them. Subdirectories are listed, not descended.
// It returns the number of entries added.
func Expand(dir string, sink queue.Sink) (int, error) {
	f, err := os.Open(dir)
	if err != nil {
		return 0, &FSError{Path: dir, Err: err}
	}
	defer f.Close()

	count := 0
	for {
		ents, err := f.ReadDir(readBatch)
		for _, ent := range ents {
			sink.Add(queue.Entry{URL: filepath.Join(dir, ent.Name())})
			count++
		}
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, &FSError{Path: dir, Err: err}
		}
	}
}

// Filter expands the track's input directory on its first call.
type Filter struct {
	sink queue.Sink
	log  zerolog.Logger
}

var _ filter.Filter = (*Filter)(nil)

// Open returns an opener producing directory filters.
func Open(sink queue.Sink, log zerolog.Logger) filter.Opener {
	return func(t *filter.Track) (filter.Filter, error) {
		return &Filter{
			sink: sink,
			log:  log.With().Str("module", "dir").Str("input", t.Input).Logger(),
		}, nil
	}
}

func (f *Filter) Process(t *filter.Track) filter.Status {
	if t.Flags.Has(filter.Stop) {
		return filter.Done
	}
	t.Data = nil

	n, err := Expand(t.Input, f.sink)
	if err != nil {
		f.log.Error().Err(err).Msg("cannot list directory")
		return filter.Error
	}
	f.log.Debug().Int("entries", n).Msg("directory expanded")
	return filter.Done
}

func (f *Filter) Close() error { return nil }
