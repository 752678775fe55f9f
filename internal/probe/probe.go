// Package probe fills queue entries from the tags of their media files.
package probe

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	goflac "github.com/go-flac/go-flac"

	"github.com/llehouerou/waveplug/internal/meta"
	"github.com/llehouerou/waveplug/internal/queue"
	"github.com/llehouerou/waveplug/internal/resolve"
)

// Enrich adds tag metadata to an entry that has none, and the file
// duration to an entry that spans a whole file without one. On error the
// entry is left unchanged.
func Enrich(e *queue.Entry) error {
	if resolve.IsURL(e.URL) {
		return nil
	}

	f, err := os.Open(e.URL)
	if err != nil {
		return err
	}
	defer f.Close()

	var pairs []meta.Pair
	if len(e.Meta) == 0 {
		m, err := tag.ReadFrom(f)
		if err != nil {
			return fmt.Errorf("read tags: %w", err)
		}
		pairs = Pairs(m)
	}

	var dur time.Duration
	if e.Duration == 0 && e.From == 0 && e.To == 0 && strings.EqualFold(filepath.Ext(e.URL), ".flac") {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		dur, err = flacDuration(f)
		if err != nil {
			return err
		}
	}

	if pairs != nil {
		e.Meta = pairs
	}
	if dur > 0 {
		e.Duration = dur
	}
	return nil
}

// Pairs converts tag metadata to metadata pairs. Empty fields are omitted.
func Pairs(m tag.Metadata) []meta.Pair {
	var pairs []meta.Pair
	add := func(name, value string) {
		if value != "" {
			pairs = append(pairs, meta.Pair{Name: name, Value: value})
		}
	}

	add(meta.Artist, m.Artist())
	add(meta.AlbumArtist, m.AlbumArtist())
	add(meta.Album, m.Album())
	add(meta.Title, m.Title())
	if track, _ := m.Track(); track > 0 {
		add(meta.TrackNumber, strconv.Itoa(track))
	}
	add(meta.Genre, m.Genre())
	if year := m.Year(); year > 0 {
		add(meta.Date, strconv.Itoa(year))
	}
	add(meta.Comment, m.Comment())
	return pairs
}

func flacDuration(r io.Reader) (time.Duration, error) {
	f, err := goflac.ParseMetadata(r)
	if err != nil {
		return 0, fmt.Errorf("read flac metadata: %w", err)
	}
	info, err := f.GetStreamInfo()
	if err != nil {
		return 0, fmt.Errorf("read stream info: %w", err)
	}
	if info.SampleRate == 0 {
		return 0, nil
	}
	return time.Duration(info.SampleCount) * time.Second / time.Duration(info.SampleRate), nil
}
