package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 0x40, A: 0xff})
		}
	}
	return img
}

func TestJPEGExifWriterInjectsAPP1(t *testing.T) {
	exif := []byte("Exif\x00\x00MM\x00\x2a\x00\x00\x00\x08")
	var buf bytes.Buffer
	w, err := newJPEGExifWriter(&buf, exif)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := jpeg.Encode(w, testImage(), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	out := buf.Bytes()
	if len(out) < 4+len(exif) {
		t.Fatalf("output too short: %d bytes", len(out))
	}
	if out[0] != 0xff || out[1] != 0xd8 {
		t.Fatalf("missing SOI marker: % x", out[:2])
	}
	if out[2] != 0xff || out[3] != 0xe1 {
		t.Fatalf("missing APP1 marker after SOI: % x", out[2:4])
	}
	wantLen := 2 + len(exif)
	if got := int(out[4])<<8 | int(out[5]); got != wantLen {
		t.Fatalf("APP1 length %d, want %d", got, wantLen)
	}
	if !bytes.Equal(out[6:6+len(exif)], exif) {
		t.Fatalf("exif payload not at expected offset")
	}

	// The spliced stream must still be a valid JPEG.
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("decode spliced jpeg: %v", err)
	}
}

func TestJPEGExifWriterRejectsOversizedBlob(t *testing.T) {
	var buf bytes.Buffer
	if _, err := newJPEGExifWriter(&buf, make([]byte, maxExifBytes+1)); err == nil {
		t.Fatalf("expected error for oversized exif blob")
	}
}

func TestSkipWriterDropsOnlyPrefix(t *testing.T) {
	var buf bytes.Buffer
	w := &skipWriter{w: &buf, skip: 2}

	n, err := w.Write([]byte{0xff})
	if err != nil || n != 1 {
		t.Fatalf("short first write: n=%d err=%v", n, err)
	}
	n, err = w.Write([]byte{0xd8, 0x01, 0x02})
	if err != nil || n != 3 {
		t.Fatalf("second write: n=%d err=%v", n, err)
	}
	n, err = w.Write([]byte{0x03})
	if err != nil || n != 1 {
		t.Fatalf("third write: n=%d err=%v", n, err)
	}
	if !bytes.Equal(buf.Bytes(), []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("unexpected passthrough bytes: % x", buf.Bytes())
	}
}
