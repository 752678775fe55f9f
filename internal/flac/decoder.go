// Package flac reads and tags FLAC streams.
//
// The decoder parses metadata incrementally but keeps the whole input in
// memory: audio frames are decoded only after the final chunk was written,
// so memory use grows with the file size.
package flac

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2"
	beepflac "github.com/gopxl/beep/v2/flac"

	"github.com/llehouerou/waveplug/internal/codec"
	"github.com/llehouerou/waveplug/internal/filter"
)

const (
	marker          = "fLaC"
	id3Magic        = "ID3"
	id3HeaderSize   = 10
	blockHeaderSize = 4

	// BlockSamples is the number of samples reported per data event.
	BlockSamples = 4096
)

var (
	// ErrNoMarker means the input does not start with a FLAC stream marker.
	ErrNoMarker = errors.New("flac: fLaC marker not found")
	// ErrIncomplete means the input ended inside the metadata.
	ErrIncomplete = errors.New("flac: file is incomplete")
)

type state int

const (
	stateMarker state = iota
	stateMeta
	stateHeaderDone
	stateFrames
	stateDone
)

// Decoder implements codec.Decoder for FLAC.
//
// Metadata is parsed as input arrives. Audio frames are decoded once the
// whole stream has been written, since the frame decoder needs random
// access for seeking.
type Decoder struct {
	buf        []byte
	start      int // offset of the fLaC marker
	off        int // parse offset
	audioStart int
	final      bool
	st         state

	info     *goflac.StreamInfoBlock
	lastMeta bool
	tags     []codec.Tag
	tag      codec.Tag

	stream  beep.StreamSeekCloser
	samples [][2]float64
	out     [][2]float64
	pos     int64
	outPos  int64
	seekTo  int64

	err  error
	warn error
}

var _ codec.Decoder = (*Decoder)(nil)

// NewDecoder creates a decoder waiting for the start of a stream.
func NewDecoder() *Decoder {
	return &Decoder{
		samples: make([][2]float64, BlockSamples),
		seekTo:  -1,
	}
}

// NewCodec returns a new Decoder as a codec.Decoder.
func NewCodec() codec.Decoder {
	return NewDecoder()
}

func (d *Decoder) Name() string { return "flac" }

func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

func (d *Decoder) Finish() {
	d.final = true
}

// Read advances the decoder to its next event.
func (d *Decoder) Read() codec.Event {
	for {
		switch d.st {
		case stateMarker:
			if ev, ok := d.readMarker(); ok {
				return ev
			}

		case stateMeta:
			if len(d.tags) > 0 {
				d.tag = d.tags[0]
				d.tags = d.tags[1:]
				return codec.EventTag
			}
			if d.lastMeta {
				d.st = stateHeaderDone
				continue
			}
			if ev, ok := d.readBlock(); ok {
				return ev
			}

		case stateHeaderDone:
			d.audioStart = d.off
			d.st = stateFrames
			return codec.EventHeaderDone

		case stateFrames:
			return d.readFrames()

		default:
			if d.err != nil {
				return codec.EventError
			}
			return codec.EventDone
		}
	}
}

// readMarker skips an optional ID3v2 tag and checks the stream marker.
func (d *Decoder) readMarker() (codec.Event, bool) {
	b := d.avail(d.start)
	if len(b) < len(marker) {
		return d.moreMarker()
	}

	if string(b[:len(id3Magic)]) == id3Magic {
		if len(b) < id3HeaderSize {
			return d.moreMarker()
		}
		d.start += id3v2Size(b[:id3HeaderSize])
		return 0, false
	}

	if string(b[:len(marker)]) != marker {
		return d.fail(ErrNoMarker)
	}
	d.off = d.start + len(marker)
	d.st = stateMeta
	return 0, false
}

func (d *Decoder) moreMarker() (codec.Event, bool) {
	if d.final {
		return d.fail(ErrNoMarker)
	}
	return codec.EventMore, true
}

// readBlock parses the next metadata block. It reports an event when the
// block produced one.
func (d *Decoder) readBlock() (codec.Event, bool) {
	h := d.avail(d.off)
	if len(h) < blockHeaderSize {
		return d.more()
	}
	size := int(h[1])<<16 | int(h[2])<<8 | int(h[3])
	if len(h) < blockHeaderSize+size {
		return d.more()
	}

	blk := goflac.MetaDataBlock{
		Type: goflac.BlockType(h[0] & 0x7f),
		Data: bytes.Clone(h[blockHeaderSize : blockHeaderSize+size]),
	}
	d.lastMeta = h[0]&0x80 != 0
	d.off += blockHeaderSize + size

	if d.info == nil {
		if blk.Type != goflac.StreamInfo {
			return d.fail(goflac.ErrorNoStreamInfo)
		}
		info, err := (&goflac.File{Meta: []*goflac.MetaDataBlock{&blk}}).GetStreamInfo()
		if err != nil {
			return d.fail(fmt.Errorf("flac: stream info: %w", err))
		}
		d.info = info
		return codec.EventHeader, true
	}

	switch blk.Type {
	case goflac.VorbisComment:
		cmt, err := flacvorbis.ParseFromMetaDataBlock(blk)
		if err != nil {
			d.warn = fmt.Errorf("flac: vorbis comment: %w", err)
			return codec.EventWarn, true
		}
		for _, c := range cmt.Comments {
			name, value, ok := strings.Cut(c, "=")
			if !ok || name == "" {
				continue
			}
			d.tags = append(d.tags, codec.Tag{Name: strings.ToLower(name), Value: value})
		}

	case goflac.Picture:
		tag := codec.Tag{Name: "picture", Binary: true}
		if pic, err := flacpicture.ParseFromMetaDataBlock(blk); err == nil {
			tag.Value = pic.MIME
		}
		d.tags = append(d.tags, tag)
	}
	return 0, false
}

func (d *Decoder) more() (codec.Event, bool) {
	if d.final {
		d.warn = ErrIncomplete
	}
	return codec.EventMore, true
}

func (d *Decoder) readFrames() codec.Event {
	if d.stream == nil {
		if !d.final {
			return codec.EventMore
		}
		s, _, err := beepflac.Decode(bytes.NewReader(d.buf[d.start:]))
		if err != nil {
			ev, _ := d.fail(fmt.Errorf("flac: open frames: %w", err))
			return ev
		}
		d.stream = s
		if d.seekTo >= 0 {
			if err := d.applySeek(); err != nil {
				ev, _ := d.fail(err)
				return ev
			}
		}
	}

	if n, _ := d.stream.Stream(d.samples); n > 0 {
		d.outPos = d.pos
		d.pos += int64(n)
		d.out = d.samples[:n]
		return codec.EventData
	}
	if err := d.stream.Err(); err != nil {
		ev, _ := d.fail(fmt.Errorf("flac: decode: %w", err))
		return ev
	}
	d.st = stateDone
	return codec.EventDone
}

func (d *Decoder) fail(err error) (codec.Event, bool) {
	d.err = err
	d.st = stateDone
	return codec.EventError, true
}

// avail returns the buffered bytes from off, empty if off is past the end.
func (d *Decoder) avail(off int) []byte {
	if off >= len(d.buf) {
		return nil
	}
	return d.buf[off:]
}

// Seek moves decoding to sample. Before frames are available the request
// is kept and applied when decoding starts. A failed seek ends the track
// with an error instead of decoding from the wrong position.
func (d *Decoder) Seek(sample int64) {
	d.seekTo = max(sample, 0)
	if d.stream != nil {
		if err := d.applySeek(); err != nil {
			d.fail(err)
		}
	}
}

func (d *Decoder) applySeek() error {
	target := d.seekTo
	d.seekTo = -1
	if n := int64(d.stream.Len()); target > n {
		target = n
	}
	if err := d.stream.Seek(int(target)); err != nil {
		return fmt.Errorf("flac: seek to sample %d: %w", target, err)
	}
	d.pos = target
	return nil
}

func (d *Decoder) Format() filter.Format {
	if d.info == nil {
		return filter.Format{}
	}
	return filter.Format{
		SampleRate: d.info.SampleRate,
		Channels:   d.info.ChannelCount,
		BitDepth:   d.info.BitDepth,
	}
}

func (d *Decoder) TotalSamples() int64 {
	if d.info == nil {
		return 0
	}
	return d.info.SampleCount
}

func (d *Decoder) Tag() codec.Tag        { return d.tag }
func (d *Decoder) Samples() [][2]float64 { return d.out }
func (d *Decoder) Pos() int64            { return d.outPos }

// InputOffset is always 0: the decoder never asks the host to seek input.
func (d *Decoder) InputOffset() int64 { return 0 }

// Err returns the terminal error, or the last warning.
func (d *Decoder) Err() error {
	if d.err != nil {
		return d.err
	}
	return d.warn
}

// Bitrate is exact once the whole stream was written. Before that it is
// estimated from the frame sizes in STREAMINFO.
func (d *Decoder) Bitrate() int {
	info := d.info
	if info == nil || info.SampleRate == 0 {
		return 0
	}
	if d.final && info.SampleCount > 0 && d.audioStart > 0 {
		bits := int64(len(d.buf)-d.audioStart) * 8
		return int(bits * int64(info.SampleRate) / info.SampleCount)
	}
	if info.FrameSizeMax > 0 && info.BlockSizeMax > 0 {
		avg := int64(info.FrameSizeMin+info.FrameSizeMax) / 2
		return int(avg * 8 * int64(info.SampleRate) / int64(info.BlockSizeMax))
	}
	return 0
}

func (d *Decoder) Close() error {
	d.buf = nil
	if d.stream == nil {
		return nil
	}
	return d.stream.Close()
}

// id3v2Size returns the full size of the ID3v2 tag starting with header.
func id3v2Size(header []byte) int {
	syncsafe := int(header[6]&0x7f)<<21 |
		int(header[7]&0x7f)<<14 |
		int(header[8]&0x7f)<<7 |
		int(header[9]&0x7f)
	size := id3HeaderSize + syncsafe
	if header[5]&0x10 != 0 {
		size += id3HeaderSize // footer
	}
	return size
}
