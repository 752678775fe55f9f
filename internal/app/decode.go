package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/waveplug/internal/errmsg"
	"github.com/llehouerou/waveplug/internal/filter"
	"github.com/llehouerou/waveplug/internal/meta"
	"github.com/llehouerou/waveplug/internal/plugin"
	"github.com/llehouerou/waveplug/internal/queue"
	"github.com/llehouerou/waveplug/internal/resolve"
)

// errEnough stops a decode once the entry's range has been read.
var errEnough = errors.New("range decoded")

// decodeStats summarizes one decoded entry.
type decodeStats struct {
	Format  filter.Format
	Samples int64
	Bitrate int
	Tags    int
	Title   string
}

func (a *App) decodeAll(ctx context.Context, entries []queue.Entry) {
	for _, e := range entries {
		if !isLocalFLAC(e.URL) {
			continue
		}
		st, err := a.decode(ctx, e)
		if err != nil {
			a.log.Error().Str("url", e.URL).Msg(errmsg.FormatWith(errmsg.OpDecode, e.URL, err))
			continue
		}
		name := filepath.Base(e.URL)
		if st.Title != "" {
			name += " (" + st.Title + ")"
		}
		fmt.Fprintf(a.out, "%s: %d Hz, %d ch, %d bit, %s samples, %s, %s\n",
			name,
			st.Format.SampleRate, st.Format.Channels, st.Format.BitDepth,
			humanize.Comma(st.Samples),
			humanize.SIWithDigits(float64(st.Bitrate), 0, "bps"),
			formatTags(st.Tags))
	}
}

// decode runs the FLAC decoder over e, starting at e.From and stopping
// after e.To when it is set.
func (a *App) decode(ctx context.Context, e queue.Entry) (decodeStats, error) {
	var st decodeStats

	// The decoder never adds queue entries.
	discard := queue.SinkFunc(func(queue.Entry) {})
	m := plugin.New(plugin.Env{Sink: discard, Log: a.log, Config: a.cfg})
	t := filter.NewTrack(e.URL)
	t.Audio.AbsSeek = e.From
	f, err := m.Lookup(plugin.NameFLACDecode)(t)
	if err != nil {
		return st, err
	}
	defer f.Close()

	file, err := os.Open(e.URL)
	if err != nil {
		return st, err
	}
	defer file.Close()

	limit := time.Duration(0)
	if e.To > e.From {
		limit = e.To - e.From
	}

	err = filter.Run(ctx, f, t, file, a.cfg.GetInputConfig().ChunkSize, func(t *filter.Track) error {
		st.Samples += int64(len(t.Samples))
		rate := t.Audio.Format.SampleRate
		if limit > 0 && rate > 0 && time.Duration(st.Samples)*time.Second/time.Duration(rate) >= limit {
			return errEnough
		}
		return nil
	})
	if err != nil && !errors.Is(err, errEnough) {
		return st, err
	}

	st.Format = t.Audio.Format
	st.Bitrate = t.Audio.Bitrate
	st.Tags = t.Meta.Len()
	st.Title, _ = t.Meta.Get(meta.Title)
	return st, nil
}

func isLocalFLAC(url string) bool {
	return !resolve.IsURL(url) && strings.EqualFold(filepath.Ext(url), ".flac")
}
