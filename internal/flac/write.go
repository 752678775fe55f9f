package flac

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	goflac "github.com/go-flac/go-flac"
	"github.com/rs/zerolog"

	"github.com/llehouerou/waveplug/internal/meta"
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// WriteOptions control WriteTags.
type WriteOptions struct {
	// Vendor replaces the vendor string of the comment block when set.
	Vendor string
	// Picture is attached as the front cover when set.
	Picture []byte
	// MinMetaSize pads the metadata with a PADDING block up to this many bytes.
	MinMetaSize int
	Log         zerolog.Logger
}

// WriteTags replaces the Vorbis comments of the FLAC file at path with
// pairs, in order.
func WriteTags(path string, pairs []meta.Pair, opts WriteOptions) error {
	f, err := goflac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse file: %w", err)
	}

	cmts := flacvorbis.New()
	if opts.Vendor != "" {
		cmts.Vendor = opts.Vendor
	}
	for _, p := range pairs {
		if p.Value == "" {
			continue
		}
		if err := cmts.Add(strings.ToUpper(p.Name), p.Value); err != nil {
			return fmt.Errorf("add %s: %w", p.Name, err)
		}
	}
	cmtBlock := cmts.Marshal()

	cmtIdx := -1
	for i, m := range f.Meta {
		if m.Type == goflac.VorbisComment {
			cmtIdx = i
			break
		}
	}
	if cmtIdx >= 0 {
		f.Meta[cmtIdx] = &cmtBlock
	} else {
		f.Meta = append(f.Meta, &cmtBlock)
	}

	if len(opts.Picture) > 0 {
		f.Meta = withoutType(f.Meta, goflac.Picture)
		picBlock := pictureBlock(opts.Picture, opts.Log)
		f.Meta = append(f.Meta, &picBlock)
	}

	f.Meta = withoutType(f.Meta, goflac.Padding)
	if pad := padding(f.Meta, opts.MinMetaSize); pad != nil {
		f.Meta = append(f.Meta, pad)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("save file: %w", err)
	}
	return nil
}

// pictureBlock builds a front cover block. Data that is neither PNG nor
// JPEG is stored without a MIME type.
func pictureBlock(data []byte, log zerolog.Logger) goflac.MetaDataBlock {
	mime := detectMIME(data)
	if mime != "" {
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", data, mime)
		if err == nil {
			return pic.Marshal()
		}
		log.Warn().Err(err).Str("mime", mime).Msg("cannot decode picture")
	} else {
		log.Warn().Msg("unknown picture format, writing it without MIME type")
	}

	pic := &flacpicture.MetadataBlockPicture{
		PictureType: flacpicture.PictureTypeFrontCover,
		MIME:        mime,
		Description: "Front Cover",
		ImageData:   data,
	}
	return pic.Marshal()
}

func detectMIME(data []byte) string {
	switch http.DetectContentType(data) {
	case mimePNG:
		return mimePNG
	case mimeJPEG:
		return mimeJPEG
	default:
		return ""
	}
}

func withoutType(blocks []*goflac.MetaDataBlock, typ goflac.BlockType) []*goflac.MetaDataBlock {
	out := make([]*goflac.MetaDataBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != typ {
			out = append(out, b)
		}
	}
	return out
}

// padding returns a PADDING block growing the metadata of blocks to at
// least minSize bytes, or nil when it is already that large.
func padding(blocks []*goflac.MetaDataBlock, minSize int) *goflac.MetaDataBlock {
	size := len(marker)
	for _, b := range blocks {
		size += blockHeaderSize + len(b.Data)
	}
	missing := minSize - size - blockHeaderSize
	if missing < 0 {
		return nil
	}
	return &goflac.MetaDataBlock{Type: goflac.Padding, Data: make([]byte, missing)}
}
