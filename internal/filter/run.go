package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the number of input bytes handed to a filter per call.
const DefaultChunkSize = 4096

// ErrFilter is returned by Run when a filter reports Error.
var ErrFilter = errors.New("filter failed")

// Run drives f the way the pipeline host does: it reads r in chunks of
// chunkSize bytes, reusing the same buffer for every chunk, and calls
// Process until the filter is done. out is called for every Data status.
//
// Cancelling ctx sets the Stop flag on the next call.
func Run(ctx context.Context, f Filter, t *Track, r io.Reader, chunkSize int, out func(*Track) error) error {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	buf := make([]byte, chunkSize)
	eof := false
	feed := true

	for {
		if ctx.Err() != nil {
			t.Flags |= Stop
		}

		if feed && !eof && !t.Flags.Has(Stop) {
			n, err := io.ReadFull(r, buf)
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				eof = true
			case err != nil:
				return fmt.Errorf("read %s: %w", t.Input, err)
			}
			t.Data = buf[:n]
			t.Flags |= Fwd
			if eof {
				t.Flags |= Last
			}
		}

		status := f.Process(t)
		t.Flags &^= Fwd

		switch status {
		case More:
			if t.InputSeek != NoSeek {
				if err := seekInput(r, t.InputSeek); err != nil {
					return fmt.Errorf("seek %s: %w", t.Input, err)
				}
				t.InputSeek = NoSeek
				t.Flags &^= Last
				eof = false
			} else if t.Flags.Has(Stop) {
				return ctx.Err()
			} else if eof {
				return fmt.Errorf("%w: %s: more input requested after end of stream", ErrFilter, t.Input)
			}
			feed = true

		case Data:
			if out != nil {
				if err := out(t); err != nil {
					return err
				}
			}
			t.Samples = nil
			feed = false

		case Done, LastOut:
			return nil

		case Error:
			return fmt.Errorf("%w: %s", ErrFilter, t.Input)

		default:
			return fmt.Errorf("%w: %s: unexpected status %d", ErrFilter, t.Input, status)
		}
	}
}

func seekInput(r io.Reader, off int64) error {
	s, ok := r.(io.Seeker)
	if !ok {
		return errors.New("input is not seekable")
	}
	_, err := s.Seek(off, io.SeekStart)
	return err
}
