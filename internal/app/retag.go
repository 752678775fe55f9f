package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/llehouerou/waveplug/internal/errmsg"
	"github.com/llehouerou/waveplug/internal/flac"
	"github.com/llehouerou/waveplug/internal/queue"
)

// ErrRetag is returned when at least one file could not be retagged.
var ErrRetag = errors.New("some files could not be retagged")

// retagAll writes entry metadata back to FLAC files. Entries covering part
// of a file are skipped since several of them share the same file.
func (a *App) retagAll(entries []queue.Entry, picturePath string) error {
	var picture []byte
	if picturePath != "" {
		var err error
		picture, err = os.ReadFile(picturePath)
		if err != nil {
			return errors.New(errmsg.FormatWith(errmsg.OpPictureLoad, picturePath, err))
		}
	}

	flacCfg := a.cfg.GetFLACConfig()
	opts := flac.WriteOptions{
		Vendor:      flacCfg.Vendor,
		Picture:     picture,
		MinMetaSize: a.cfg.MinMetaSize(),
		Log:         a.log,
	}

	var failed bool
	seen := make(map[string]bool)
	for _, e := range entries {
		if !isLocalFLAC(e.URL) || e.From > 0 || e.To > 0 || len(e.Meta) == 0 || seen[e.URL] {
			continue
		}
		seen[e.URL] = true
		if err := flac.WriteTags(e.URL, e.Meta, opts); err != nil {
			a.log.Error().Str("url", e.URL).Msg(errmsg.FormatWith(errmsg.OpTagWrite, e.URL, err))
			failed = true
			continue
		}
		fmt.Fprintf(a.out, "retagged %s\n", e.URL)
	}
	if failed {
		return ErrRetag
	}
	return nil
}
