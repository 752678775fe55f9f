// Package m3u turns an M3U playlist into queue entries.
package m3u

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/waveplug/internal/meta"
	"github.com/llehouerou/waveplug/internal/queue"
	"github.com/llehouerou/waveplug/internal/resolve"
)

// Reader builds one entry per playlist filename.
type Reader struct {
	path string
	sink queue.Sink
	log  zerolog.Logger

	lex      Lexer
	metas    meta.List
	duration time.Duration
	done     bool
}

// NewReader creates a reader for the playlist at path.
func NewReader(path string, sink queue.Sink, log zerolog.Logger) *Reader {
	return &Reader{path: path, sink: sink, log: log}
}

// Feed consumes the next chunk of the playlist. It returns true once the
// playlist has ended.
func (r *Reader) Feed(data []byte, final bool) (done bool, err error) {
	for !r.done {
		tok, n, err := r.lex.Next(data, final)
		data = data[n:]
		if err != nil {
			r.done = true
			return true, err
		}

		switch tok.Kind {
		case KindMore:
			r.metas.Own()
			return false, nil
		case KindDone:
			if r.metas.Len() != 0 || r.duration != 0 {
				r.log.Debug().Str("input", r.path).Msg("metadata without a filename discarded")
			}
			r.reset()
			r.done = true
		case KindDuration:
			if tok.Seconds >= 0 {
				r.duration = time.Duration(tok.Seconds) * time.Second
			}
		case KindArtist:
			r.metas.Push(meta.Artist, tok.Val)
		case KindTitle:
			r.metas.Push(meta.Title, tok.Val)
		case KindFilename:
			r.emit(tok.Val)
		}
	}
	return true, nil
}

func (r *Reader) emit(name string) {
	e := queue.Entry{
		URL:      resolve.Path(r.path, name),
		Meta:     r.metas.Pairs(),
		Duration: r.duration,
	}
	r.log.Debug().Str("input", r.path).Str("url", e.URL).Dur("duration", e.Duration).Msg("m3u entry")
	r.sink.Add(e)
	r.reset()
}

func (r *Reader) reset() {
	r.metas.Reset()
	r.duration = 0
}
