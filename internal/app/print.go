package app

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/waveplug/internal/meta"
	"github.com/llehouerou/waveplug/internal/queue"
)

func (a *App) print(entries []queue.Entry) {
	var total time.Duration
	for i, e := range entries {
		fmt.Fprintf(a.out, "%3d. %s", i+1, entryLabel(e))
		if e.From > 0 || e.To > 0 {
			fmt.Fprintf(a.out, "  [%s-%s]", queue.FormatDuration(e.From), formatEnd(e.To))
		}
		if e.Duration > 0 {
			fmt.Fprintf(a.out, "  %s", queue.FormatDuration(e.Duration))
		}
		fmt.Fprintf(a.out, "  %s\n", e.URL)
		total += e.Duration
	}
	fmt.Fprintf(a.out, "%s, %s\n", formatCount(len(entries)), queue.FormatDuration(total))
}

// entryLabel renders "Artist - Title", falling back to the file name.
func entryLabel(e queue.Entry) string {
	title, ok := meta.Lookup(e.Meta, meta.Title)
	if !ok {
		title = filepath.Base(e.URL)
	}
	artist, ok := meta.Lookup(e.Meta, meta.Artist)
	if !ok {
		artist, ok = meta.Lookup(e.Meta, meta.AlbumArtist)
	}
	if !ok {
		return title
	}
	return artist + " - " + title
}

func formatEnd(to time.Duration) string {
	if to == 0 {
		return "end"
	}
	return queue.FormatDuration(to)
}

func formatCount(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return humanize.Comma(int64(n)) + " entries"
}

func formatTags(n int) string {
	if n == 1 {
		return "1 tag"
	}
	return humanize.Comma(int64(n)) + " tags"
}

func formatAge(t time.Time) string {
	return humanize.Time(t)
}
