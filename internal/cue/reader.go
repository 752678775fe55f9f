// Package cue splits a CUE sheet into one queue entry per track.
package cue

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/waveplug/internal/meta"
	"github.com/llehouerou/waveplug/internal/queue"
	"github.com/llehouerou/waveplug/internal/resolve"
)

// Options configure a Reader.
type Options struct {
	Gaps GapPolicy
	// Track selects a single 1-based track; 0 emits every track.
	Track int
}

// slot is a track whose start is known and whose end may not be yet.
type slot struct {
	url     string
	from    int64 // frames
	to      int64 // frames
	bounded bool
	meta    []meta.Pair
}

// remNames maps the REM fields we keep to metadata names.
var remNames = map[string]string{
	"genre":   meta.Genre,
	"date":    meta.Date,
	"comment": meta.Comment,
}

// Reader turns CUE tokens into queue entries.
type Reader struct {
	path   string
	sink   queue.Sink
	log    zerolog.Logger
	gaps   GapPolicy
	target int

	lex      Lexer
	building slot
	pending  *slot
	metas    meta.List

	albumLen    int
	albumSealed bool
	started     int

	remName string
	skipRem bool
	stopped bool
}

// NewReader creates a reader for the CUE sheet at path. Entries go to sink.
func NewReader(path string, sink queue.Sink, log zerolog.Logger, opts Options) *Reader {
	if !opts.Gaps.Valid() {
		opts.Gaps = DefaultGapPolicy
	}
	if opts.Track < 0 {
		opts.Track = 0
	}
	return &Reader{
		path:   path,
		sink:   sink,
		log:    log,
		gaps:   opts.Gaps,
		target: opts.Track,
	}
}

// Feed consumes the next chunk of the sheet. final marks the last chunk.
// done is true once the reader needs no more input, either because the
// sheet ended or because the selected track was found.
func (r *Reader) Feed(data []byte, final bool) (done bool, err error) {
	for !r.stopped {
		tok, n, err := r.lex.Next(data, final)
		data = data[n:]
		if err != nil {
			r.fail()
			return true, err
		}

		switch tok.Kind {
		case KindMore:
			r.metas.Own()
			return false, nil
		case KindDone:
			r.finish()
			return true, nil
		}

		if err := r.apply(tok); err != nil {
			r.fail()
			return true, err
		}
	}
	r.finish()
	return true, nil
}

func (r *Reader) apply(tok Token) error {
	switch tok.Kind {
	case KindAlbumTitle:
		r.metas.Push(meta.Album, tok.Val)

	case KindAlbumPerformer:
		r.metas.Push(meta.AlbumArtist, tok.Val)

	case KindTrackNumber:
		r.sealAlbum()
		r.metas.Push(meta.TrackNumber, tok.Val)

	case KindTrackTitle:
		r.sealAlbum()
		r.metas.Push(meta.Title, tok.Val)

	case KindTrackPerformer:
		r.sealAlbum()
		r.metas.Push(meta.Artist, tok.Val)

	case KindRemName:
		name, ok := remNames[strings.ToLower(tok.Val)]
		r.remName = name
		r.skipRem = !ok

	case KindRemValue:
		if r.skipRem {
			r.skipRem = false
			return nil
		}
		r.metas.Push(r.remName, tok.Val)

	case KindFile:
		r.flushFile()
		r.building = slot{url: resolve.Path(r.path, tok.Val)}

	case KindIndex00:
		if r.gaps == GapSkip && r.pending != nil && !r.pending.bounded {
			r.pending.to = tok.Frames
			r.pending.bounded = true
		}

	case KindIndexN:
		if tok.Index != 1 {
			return nil
		}
		if r.building.url == "" {
			return &SyntaxError{Line: tok.Line, Msg: "INDEX before FILE"}
		}
		r.boundary(tok.Frames)
	}
	return nil
}

// sealAlbum freezes the album-level prefix of the metadata list.
func (r *Reader) sealAlbum() {
	if !r.albumSealed {
		r.albumLen = r.metas.Len()
		r.albumSealed = true
	}
}

// boundary handles INDEX 01: it closes the pending track and starts a new one.
func (r *Reader) boundary(ts int64) {
	if p := r.pending; p != nil {
		if !p.bounded {
			p.to = ts
			p.bounded = true
		}
		switch {
		case r.target == 0:
			r.emit()
		case r.started == r.target:
			r.stopped = true
			return
		default:
			r.pending = nil
		}
	}

	r.building.from = ts
	if r.gaps == GapPrev1 && r.started == 0 {
		r.building.from = 0
	}

	next := r.building
	next.meta = r.metas.Pairs()
	r.pending = &next
	r.building = slot{url: next.url}
	r.metas.Truncate(r.albumLen)
	r.started++
}

// flushFile ends the pending track at the end of its file.
func (r *Reader) flushFile() {
	if r.pending == nil {
		return
	}
	switch {
	case r.target == 0:
		r.emit()
	case r.started == r.target:
		r.emit()
		r.stopped = true
	default:
		r.pending = nil
	}
}

// fail stops the reader without emitting the pending track.
func (r *Reader) fail() {
	r.stopped = true
	r.pending = nil
}

func (r *Reader) finish() {
	r.stopped = true
	if r.pending == nil {
		return
	}
	if r.target == 0 || r.started == r.target {
		r.emit()
		return
	}
	r.pending = nil
}

func (r *Reader) emit() {
	p := r.pending
	r.pending = nil
	if p.url == "" {
		return
	}

	e := queue.Entry{
		URL:       p.url,
		Meta:      p.meta,
		From:      framesToDuration(p.from),
		Finalized: true,
	}
	if p.bounded {
		e.To = framesToDuration(p.to)
		if p.to >= p.from {
			e.Duration = framesToDuration(p.to - p.from)
		} else {
			r.log.Warn().
				Str("input", r.path).
				Str("url", p.url).
				Msg("track ends before it starts")
		}
	}

	r.log.Debug().
		Str("input", r.path).
		Str("url", e.URL).
		Str("from", fmtFrames(p.from)).
		Dur("duration", e.Duration).
		Msg("cue track")
	r.sink.Add(e)
}

// framesToDuration converts CUE frames to milliseconds precision.
func framesToDuration(frames int64) time.Duration {
	return time.Duration(frames*1000/FramesPerSecond) * time.Millisecond
}

func fmtFrames(frames int64) string {
	ff := frames % FramesPerSecond
	secs := frames / FramesPerSecond
	return fmt.Sprintf("%02d:%02d:%02d", secs/60, secs%60, ff)
}
