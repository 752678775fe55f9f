package filter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectFilter copies every chunk and finishes on the last one.
type collectFilter struct {
	got    []byte
	calls  int
	stops  int
	closed bool
}

func (f *collectFilter) Process(t *Track) Status {
	f.calls++
	if t.Flags.Has(Stop) {
		f.stops++
		return Done
	}
	if t.Flags.Has(Fwd) {
		f.got = append(f.got, t.Data...)
		t.Data = nil
	}
	if t.Flags.Has(Last) {
		return Done
	}
	return More
}

func (f *collectFilter) Close() error {
	f.closed = true
	return nil
}

// scriptFilter returns a fixed sequence of statuses.
type scriptFilter struct {
	script []Status
	pos    int
	seekAt int64
}

func (f *scriptFilter) Process(t *Track) Status {
	if f.pos >= len(f.script) {
		return Done
	}
	s := f.script[f.pos]
	f.pos++
	if s == More && f.seekAt != NoSeek {
		t.InputSeek = f.seekAt
		f.seekAt = NoSeek
	}
	if s == Data {
		t.Samples = [][2]float64{{0.5, 0.5}}
	}
	return s
}

func (f *scriptFilter) Close() error { return nil }

func TestRun_ChunkSizes(t *testing.T) {
	input := strings.Repeat("abcdefghij", 50)

	for _, size := range []int{1, 3, 7, 64, 4096} {
		f := &collectFilter{}
		err := Run(context.Background(), f, NewTrack("in"), strings.NewReader(input), size, nil)

		require.NoError(t, err, "chunk size %d", size)
		assert.Equal(t, input, string(f.got), "chunk size %d", size)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	f := &collectFilter{}

	err := Run(context.Background(), f, NewTrack("in"), strings.NewReader(""), 16, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)
	assert.Empty(t, f.got)
}

func TestRun_DataCallsOut(t *testing.T) {
	f := &scriptFilter{script: []Status{Data, Data, Done}, seekAt: NoSeek}
	outs := 0

	err := Run(context.Background(), f, NewTrack("in"), strings.NewReader("x"), 16, func(t *Track) error {
		outs++
		if len(t.Samples) != 1 {
			return errors.New("no samples")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, outs)
}

func TestRun_OutErrorStops(t *testing.T) {
	f := &scriptFilter{script: []Status{Data, Data, Done}, seekAt: NoSeek}
	sentinel := errors.New("sink full")

	err := Run(context.Background(), f, NewTrack("in"), strings.NewReader("x"), 16, func(*Track) error {
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
}

func TestRun_Error(t *testing.T) {
	f := &scriptFilter{script: []Status{Error}, seekAt: NoSeek}

	err := Run(context.Background(), f, NewTrack("in"), strings.NewReader("x"), 16, nil)

	assert.ErrorIs(t, err, ErrFilter)
}

func TestRun_MoreAfterEOF(t *testing.T) {
	f := &scriptFilter{script: []Status{More, More, More}, seekAt: NoSeek}

	err := Run(context.Background(), f, NewTrack("in"), strings.NewReader("x"), 16, nil)

	assert.ErrorIs(t, err, ErrFilter)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &collectFilter{}

	err := Run(ctx, f, NewTrack("in"), strings.NewReader("data"), 16, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, f.stops)
	assert.Empty(t, f.got)
}

func TestRun_InputSeek(t *testing.T) {
	f := &seekOnceFilter{}

	err := Run(context.Background(), f, NewTrack("in"), bytes.NewReader([]byte("0123456789")), 4, nil)

	require.NoError(t, err)
	assert.Equal(t, "0123"+"6789", string(f.got))
}

func TestRun_InputSeek_NotSeekable(t *testing.T) {
	f := &scriptFilter{script: []Status{More}, seekAt: 3}

	err := Run(context.Background(), f, NewTrack("in"), onlyReader{strings.NewReader("abcdef")}, 2, nil)

	assert.Error(t, err)
}

// seekOnceFilter asks the host to jump to offset 6 after the first chunk.
type seekOnceFilter struct {
	got    []byte
	seeked bool
}

func (f *seekOnceFilter) Process(t *Track) Status {
	if t.Flags.Has(Fwd) {
		f.got = append(f.got, t.Data...)
	}
	if !f.seeked {
		f.seeked = true
		t.InputSeek = 6
		return More
	}
	if t.Flags.Has(Last) {
		return Done
	}
	return More
}

func (f *seekOnceFilter) Close() error { return nil }

type onlyReader struct{ r *strings.Reader }

func (o onlyReader) Read(p []byte) (int, error) { return o.r.Read(p) }

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "more", More.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "unknown", Status(42).String())
}

func TestTrack_Value(t *testing.T) {
	tr := NewTrack("x")
	tr.Values[ValueTrackNo] = 3

	v, ok := tr.Value(ValueTrackNo)
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok = tr.Value("missing")
	assert.False(t, ok)
}
