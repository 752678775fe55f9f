package codec

import (
	"github.com/rs/zerolog"

	"github.com/llehouerou/waveplug/internal/filter"
)

// Input drives a Decoder as a filter.
type Input struct {
	dec Decoder
	log zerolog.Logger

	absSeek  int64 // samples
	seekable bool
	finished bool
}

var _ filter.Filter = (*Input)(nil)

// NewInput wraps dec.
func NewInput(dec Decoder, log zerolog.Logger) *Input {
	return &Input{dec: dec, log: log}
}

// Open returns an opener that wraps a fresh decoder for every track.
func Open(newDecoder func() Decoder, log zerolog.Logger) filter.Opener {
	return func(t *filter.Track) (filter.Filter, error) {
		dec := newDecoder()
		l := log.With().Str("module", dec.Name()).Str("input", t.Input).Logger()
		return NewInput(dec, l), nil
	}
}

// Process feeds new input to the decoder and reads events until one of
// them needs the host.
func (in *Input) Process(t *filter.Track) filter.Status {
	if t.Flags.Has(filter.Stop) {
		return filter.LastOut
	}

	if t.Flags.Has(filter.Fwd) {
		in.dec.Write(t.Data)
		t.Data = nil
	}
	if t.Flags.Has(filter.Last) && !in.finished {
		in.dec.Finish()
		in.finished = true
	}

	for {
		if in.seekable && t.Audio.Seek != filter.NoSeek {
			target := in.absSeek + SamplesAt(t.Audio.Seek, t.Audio.Format.SampleRate)
			in.log.Debug().Int64("sample", target).Msg("seek")
			in.dec.Seek(target)
			t.Audio.Seek = filter.NoSeek
		}

		switch ev := in.dec.Read(); ev {
		case EventMore:
			if t.Flags.Has(filter.Last) {
				in.log.Warn().Msg("file is incomplete")
				return filter.Done
			}
			return filter.More

		case EventHeader:
			in.header(t)

		case EventTag:
			tag := in.dec.Tag()
			if tag.Binary {
				in.log.Debug().Str("tag", tag.Name).Msg("skipping binary tag")
				continue
			}
			in.log.Debug().Str("tag", tag.Name).Str("value", tag.Value).Msg("tag")
			t.Meta.Push(tag.Name, tag.Value)

		case EventHeaderDone:
			t.Audio.Bitrate = in.dec.Bitrate()
			if t.InfoOnly {
				return filter.Done
			}
			in.seekable = true
			if in.absSeek > 0 {
				in.dec.Seek(in.absSeek)
			}

		case EventData:
			t.Audio.Pos = in.dec.Pos() - in.absSeek
			t.Samples = in.dec.Samples()
			return filter.Data

		case EventSeek:
			t.InputSeek = in.dec.InputOffset()
			return filter.More

		case EventWarn:
			in.log.Warn().Err(in.dec.Err()).Msg("decoder warning")

		case EventError:
			in.log.Error().Err(in.dec.Err()).Msg("decode failed")
			return filter.Error

		case EventDone:
			return filter.Done

		default:
			in.log.Error().Stringer("event", ev).Msg("unexpected decoder event")
			return filter.Error
		}
	}
}

func (in *Input) header(t *filter.Track) {
	f := in.dec.Format()
	t.Audio.Decoder = in.dec.Name()
	t.Audio.Format = f
	in.absSeek = SamplesAt(t.Audio.AbsSeek, f.SampleRate)
	if total := in.dec.TotalSamples(); total > 0 {
		t.Audio.Total = max(total-in.absSeek, 0)
	}
	in.log.Debug().
		Int("rate", f.SampleRate).
		Int("channels", f.Channels).
		Int("bits", f.BitDepth).
		Int64("total", t.Audio.Total).
		Msg("header")
}

// Close releases the decoder.
func (in *Input) Close() error {
	return in.dec.Close()
}
