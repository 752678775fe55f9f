package cue

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/llehouerou/waveplug/internal/filter"
	"github.com/llehouerou/waveplug/internal/queue"
)

// Filter adapts a Reader to the filter contract.
type Filter struct {
	r   *Reader
	log zerolog.Logger
}

// Verify Filter implements filter.Filter at compile time.
var _ filter.Filter = (*Filter)(nil)

// Open returns an opener producing CUE filters that emit into sink.
// The track's input_trackno value, when set, selects a single track.
func Open(sink queue.Sink, log zerolog.Logger, gaps GapPolicy) filter.Opener {
	return func(t *filter.Track) (filter.Filter, error) {
		opts := Options{Gaps: gaps}
		if n, ok := t.Value(filter.ValueTrackNo); ok && n > 0 {
			opts.Track = int(n)
		}
		l := log.With().Str("module", "cue").Str("input", t.Input).Logger()
		return &Filter{r: NewReader(t.Input, sink, l, opts), log: l}, nil
	}
}

// Process feeds the new input to the reader.
func (f *Filter) Process(t *filter.Track) filter.Status {
	if t.Flags.Has(filter.Stop) {
		return filter.Done
	}

	var data []byte
	if t.Flags.Has(filter.Fwd) {
		data = t.Data
		t.Data = nil
	}

	done, err := f.r.Feed(data, t.Flags.Has(filter.Last))
	if err != nil {
		ev := f.log.Error().Err(err)
		var se *SyntaxError
		if errors.As(err, &se) {
			ev = ev.Int("line", se.Line)
		}
		ev.Msg("cue parse failed")
		return filter.Error
	}
	if done {
		return filter.Done
	}
	return filter.More
}

// Close releases the reader. Tracks not yet emitted are dropped.
func (f *Filter) Close() error {
	return nil
}
