// Package filter defines the contract between the pipeline host and the
// input filters in this module.
//
// The host creates a filter through an Opener, then calls Process each time
// it has new input or wants more output. Process reports what it needs next
// through its Status. Input bytes are only valid during the call: a filter
// must copy anything it keeps.
package filter

import (
	"time"

	"github.com/llehouerou/waveplug/internal/meta"
)

// Status is the result of a Process call.
type Status int

const (
	// More asks the host for more input.
	More Status = iota
	// Data reports output in Track.Samples; the host calls Process again
	// without new input once it has consumed it.
	Data
	// Done reports the filter has finished.
	Done
	// LastOut reports the filter stopped on request and produced its last output.
	LastOut
	// Error reports a terminal failure. It has already been logged.
	Error
)

func (s Status) String() string {
	switch s {
	case More:
		return "more"
	case Data:
		return "data"
	case Done:
		return "done"
	case LastOut:
		return "last-out"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Flags describe the input handed to a Process call.
type Flags uint8

const (
	// Fwd is set when Track.Data holds new input.
	Fwd Flags = 1 << iota
	// Last is set when no input follows the current chunk.
	Last
	// Stop is set when the host wants the filter to stop as soon as possible.
	Stop
)

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// NoSeek marks an unset seek request.
const NoSeek = -1

// Well-known per-track host values.
const (
	// ValueTrackNo selects a single track of a CUE sheet (1-based).
	ValueTrackNo = "input_trackno"
)

// Format describes decoded audio.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Audio holds the decoder side of a track.
type Audio struct {
	Decoder string
	Format  Format
	// Total is the number of samples after AbsSeek, 0 if unknown.
	Total int64
	// Pos is the sample position of the current output, relative to AbsSeek.
	Pos int64
	// Seek is a host request to move playback to this offset (relative to
	// AbsSeek), NoSeek when unset. Decoders reset it once applied.
	Seek time.Duration
	// AbsSeek is where the track starts inside the input, e.g. a CUE entry start.
	AbsSeek time.Duration
	Bitrate int
}

// Track is the state exchanged between the host and a filter on every call.
type Track struct {
	// Input is the path or URL being processed.
	Input string
	// Data is the unconsumed input. Filters advance it as they consume bytes.
	Data  []byte
	Flags Flags

	// Samples holds decoder output when Process returns Data.
	Samples [][2]float64
	Audio   Audio
	// Meta receives tags reported by decoders.
	Meta meta.List
	// InfoOnly asks decoders to stop after the headers.
	InfoOnly bool
	// InputSeek is set by a filter that needs the host to continue reading
	// the input from this byte offset, NoSeek otherwise.
	InputSeek int64

	// Values are per-track settings provided by the host.
	Values map[string]int64
}

// NewTrack creates a track for input with no pending seeks.
func NewTrack(input string) *Track {
	return &Track{
		Input:     input,
		InputSeek: NoSeek,
		Audio:     Audio{Seek: NoSeek},
		Values:    make(map[string]int64),
	}
}

// Value returns a host value and whether it is set.
func (t *Track) Value(name string) (int64, bool) {
	v, ok := t.Values[name]
	return v, ok
}

// Filter processes one track.
type Filter interface {
	Process(t *Track) Status
	Close() error
}

// Opener creates a filter for a track.
type Opener func(t *Track) (Filter, error)
