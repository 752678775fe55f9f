// Package codec connects pull-style audio decoders to the filter contract.
//
// A Decoder is fed input with Write and Finish and reports its progress
// through Read, one Event at a time. Input translates those events into
// filter statuses and fills the track's audio description, metadata and
// output samples.
package codec

import (
	"time"

	"github.com/llehouerou/waveplug/internal/filter"
)

// Event is the result of Decoder.Read.
type Event int

const (
	// EventMore means the decoder needs more input.
	EventMore Event = iota
	// EventHeader means Format and TotalSamples are known.
	EventHeader
	// EventTag means Tag holds the next metadata tag.
	EventTag
	// EventHeaderDone means all header and tag data was read.
	EventHeaderDone
	// EventData means Samples holds decoded audio starting at Pos.
	EventData
	// EventSeek means the decoder needs input from InputOffset.
	EventSeek
	// EventWarn means Err holds a recoverable problem.
	EventWarn
	// EventError means Err holds a terminal problem.
	EventError
	// EventDone means the stream ended.
	EventDone
)

func (e Event) String() string {
	switch e {
	case EventMore:
		return "more"
	case EventHeader:
		return "header"
	case EventTag:
		return "tag"
	case EventHeaderDone:
		return "header-done"
	case EventData:
		return "data"
	case EventSeek:
		return "seek"
	case EventWarn:
		return "warn"
	case EventError:
		return "error"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Tag is a metadata field read from the stream.
type Tag struct {
	Name  string
	Value string
	// Binary tags (cover art, opaque blobs) are not text.
	Binary bool
}

// Decoder is implemented by format decoders.
type Decoder interface {
	// Write appends input. The decoder must copy what it keeps.
	Write(p []byte)
	// Finish marks the end of input.
	Finish()
	Read() Event

	Name() string
	Format() filter.Format
	// TotalSamples is the stream length in samples, 0 if unknown.
	TotalSamples() int64
	Tag() Tag
	Samples() [][2]float64
	// Pos is the sample position of the last Samples.
	Pos() int64
	// Seek moves decoding to an absolute sample position.
	Seek(sample int64)
	// InputOffset is the byte offset requested by EventSeek.
	InputOffset() int64
	Err() error
	// Bitrate in bits per second, 0 if unknown.
	Bitrate() int
	Close() error
}

// SamplesAt converts a time offset to a sample count at rate.
func SamplesAt(d time.Duration, rate int) int64 {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return int64(d) * int64(rate) / int64(time.Second)
}
