package codec

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/jdeng/goheif"

	"heiconv/internal/models"
)

const (
	jpegQuality = 90
	webpQuality = 90
)

// HEIF decodes HEIC/HEIF containers via libheif and encodes to the
// supported output formats.
type HEIF struct{}

// NewHEIF returns the default codec adapter.
func NewHEIF() *HEIF {
	return &HEIF{}
}

// Decode reads the HEIF container, returning pixels plus the raw EXIF
// blob. A container without EXIF decodes fine with a nil blob.
func (h *HEIF) Decode(src Source) (*Decoded, error) {
	// ExtractExif reads via ReaderAt, so the Reader offset is untouched.
	exif, err := goheif.ExtractExif(src)
	if err != nil {
		exif = nil
	}
	img, err := goheif.Decode(src)
	if err != nil {
		return nil, &Error{Op: "decode", Err: err}
	}
	return &Decoded{Image: img, Exif: exif}, nil
}

// Encode writes the decoded image in the requested format. EXIF is
// carried over for JPEG output only; PNG and WebP outputs never include
// metadata.
func (h *HEIF) Encode(w io.Writer, d *Decoded, format models.OutputFormat, stripMetadata bool) error {
	switch format {
	case models.FormatJPEG:
		out := w
		if !stripMetadata && len(d.Exif) > 0 {
			var err error
			out, err = newJPEGExifWriter(w, d.Exif)
			if err != nil {
				return &Error{Op: "encode jpeg", Err: err}
			}
		}
		if err := jpeg.Encode(out, d.Image, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return &Error{Op: "encode jpeg", Err: err}
		}
	case models.FormatPNG:
		if err := png.Encode(w, d.Image); err != nil {
			return &Error{Op: "encode png", Err: err}
		}
	case models.FormatWebP:
		if err := webp.Encode(w, d.Image, &webp.Options{Quality: webpQuality}); err != nil {
			return &Error{Op: "encode webp", Err: err}
		}
	default:
		return &Error{Op: "encode", Err: fmt.Errorf("unsupported output format %q", format)}
	}
	return nil
}
