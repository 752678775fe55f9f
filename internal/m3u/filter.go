package m3u

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

var _ filter.Filter = (*Filter)(nil)

// Open returns an opener producing M3U filters that emit into sink.
func Open(sink queue.Sink, log zerolog.Logger) filter.Opener {
	return func(t *filter.Track) (filter.Filter, error) {
		l := log.With().Str("module", "m3u").Str("input", t.Input).Logger()
		return &Filter{r: NewReader(t.Input, sink, l), log: l}, nil
	}
}

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
		ev.Msg("m3u parse failed")
		return filter.Error
	}
	if done {
		return filter.Done
	}
	return filter.More
}

func (f *Filter) Close() error { return nil }
