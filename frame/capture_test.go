package frame_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/celer/vkclear/frame"
	"github.com/celer/vkclear/softgpu"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestCaptureWritesLastPresented(t *testing.T) {
	gpu := softgpu.DefaultOptions()
	gpu.Width, gpu.Height = 16, 8
	d, _, swap := newSoftDriver(t, gpu, frame.DefaultOptions())
	ctx := context.Background()
	require.NoError(t, frame.Run(ctx, frame.FrameLimit(2), d))

	path := filepath.Join(t.TempDir(), "last.png")
	require.NoError(t, frame.Capture(ctx, swap, d.Stats().LastPresented, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
	assert.Equal(t, color.RGBAModel.Convert(frame.DefaultClearColor.RGBA()), color.RGBAModel.Convert(img.At(5, 5)))
	require.NoError(t, d.Destroy(ctx))
}

func TestCaptureRejectsUnknownFormat(t *testing.T) {
	d, _, swap := newSoftDriver(t, softgpu.DefaultOptions(), frame.DefaultOptions())
	path := filepath.Join(t.TempDir(), "last.gif")

	err := frame.Capture(context.Background(), swap, 0, path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrGraphicsOperationFailed))
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))
	assert.NoFileExists(t, path)
	require.NoError(t, d.Destroy(context.Background()))
}

func TestEncodeImageBMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.Set(1, 2, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	require.NoError(t, frame.EncodeImage(&buf, src, ".BMP"))
	img, err := bmp.Decode(&buf)
	require.NoError(t, err)
	r, g, b, _ := img.At(1, 2).RGBA()
	assert.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestCaptureKeepsFileErrorCause(t *testing.T) {
	d, _, swap := newSoftDriver(t, softgpu.DefaultOptions(), frame.DefaultOptions())
	ctx := context.Background()
	require.NoError(t, d.RenderFrame(ctx))

	path := filepath.Join(t.TempDir(), "missing", "last.png")
	err := frame.Capture(ctx, swap, d.Stats().LastPresented, path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, frame.ErrGraphicsOperationFailed))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	var oe *frame.OpError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "capture", oe.Op)
	require.NoError(t, d.Destroy(ctx))
}
