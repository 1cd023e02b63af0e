package codec

import (
	"errors"
	"io"
)

// maximum APP1 payload: segment length is a 16-bit field that includes
// its own two bytes.
const maxExifBytes = 0xffff - 2

// newJPEGExifWriter returns a writer that splices an APP1 EXIF segment
// directly after the SOI marker of the JPEG stream written through it.
// It writes SOI itself and swallows the SOI emitted by jpeg.Encode.
func newJPEGExifWriter(w io.Writer, exif []byte) (io.Writer, error) {
	if len(exif) > maxExifBytes {
		return nil, errors.New("exif blob too large for a single APP1 segment")
	}
	soi := []byte{0xff, 0xd8}
	if _, err := w.Write(soi); err != nil {
		return nil, err
	}
	markerLen := 2 + len(exif)
	marker := []byte{0xff, 0xe1, uint8(markerLen >> 8), uint8(markerLen & 0xff)}
	if _, err := w.Write(marker); err != nil {
		return nil, err
	}
	if _, err := w.Write(exif); err != nil {
		return nil, err
	}
	return &skipWriter{w: w, skip: len(soi)}, nil
}

// skipWriter drops the first skip bytes and passes the rest through,
// reporting the full count so the encoder never sees a short write.
type skipWriter struct {
	w    io.Writer
	skip int
}

func (s *skipWriter) Write(p []byte) (int, error) {
	if s.skip >= len(p) {
		s.skip -= len(p)
		return len(p), nil
	}
	if s.skip > 0 {
		dropped := s.skip
		s.skip = 0
		n, err := s.w.Write(p[dropped:])
		return n + dropped, err
	}
	return s.w.Write(p)
}
