package codec

import (
	"fmt"
	"image"
	"io"

	"heiconv/internal/models"
)

// Source is what a decoder needs from an uploaded file. Both *os.File and
// *bytes.Reader satisfy it.
type Source interface {
	io.Reader
	io.ReaderAt
}

// Decoded carries the pixel data of one decoded image together with the
// raw EXIF blob extracted from the container, if any.
type Decoded struct {
	Image image.Image
	Exif  []byte
}

// Adapter is the image decode/encode capability the conversion pipeline
// delegates to.
type Adapter interface {
	Decode(src Source) (*Decoded, error)
	Encode(w io.Writer, d *Decoded, format models.OutputFormat, stripMetadata bool) error
}

// Error wraps a failure from the underlying codec library.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
