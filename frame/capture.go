package frame

import (
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// EncodeImage writes img in the format named by ext: ".png", ".bmp" or
// ".tif"/".tiff".
func EncodeImage(w io.Writer, img image.Image, ext string) error {
	switch strings.ToLower(ext) {
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".tif", ".tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return errors.Wrapf(ErrInvalidOperation, "unsupported image format %q", ext)
}

// Capture reads buffer index back and writes it to path, the format follows
// the file extension.
func Capture(ctx context.Context, r BufferReader, index int, path string) error {
	ext := filepath.Ext(path)
	if err := EncodeImage(io.Discard, image.NewRGBA(image.Rect(0, 0, 1, 1)), ext); err != nil {
		return Fail("capture", err)
	}

	img, err := r.ReadBuffer(ctx, index)
	if err != nil {
		return Fail("capture", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return Fail("capture", errors.WithMessage(err, "create capture file"))
	}
	if err := EncodeImage(f, img, ext); err != nil {
		f.Close()
		return Fail("capture", errors.WithMessage(err, "encode capture"))
	}
	if err := f.Close(); err != nil {
		return Fail("capture", errors.WithMessage(err, "close capture file"))
	}
	Logger().Info("buffer captured", "buffer", index, "path", path)
	return nil
}
