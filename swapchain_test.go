package vkclear

import (
	"testing"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestChoosePresentMode(t *testing.T) {
	all := VKPresentModes{vk.PresentModeImmediate, vk.PresentModeMailbox, vk.PresentModeFifo}

	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(1, all))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(4, all))
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode(0, all))
	assert.Equal(t, vk.PresentModeImmediate, ChoosePresentMode(0, VKPresentModes{vk.PresentModeFifo, vk.PresentModeImmediate}))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(0, VKPresentModes{vk.PresentModeFifo}))
}

func TestChooseSurfaceFormat(t *testing.T) {
	f, err := ChooseSurfaceFormat(VKSurfaceFormats{{Format: vk.FormatUndefined, ColorSpace: vk.ColorSpaceSrgbNonlinear}})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, f.Format)
	assert.Equal(t, vk.ColorSpaceSrgbNonlinear, f.ColorSpace)

	f, err = ChooseSurfaceFormat(VKSurfaceFormats{
		{Format: vk.FormatB8g8r8a8Srgb},
		{Format: vk.FormatB8g8r8a8Unorm},
		{Format: vk.FormatR8g8b8a8Unorm},
	})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatR8g8b8a8Unorm, f.Format)

	f, err = ChooseSurfaceFormat(VKSurfaceFormats{{Format: vk.FormatB8g8r8a8Srgb}, {Format: vk.FormatB8g8r8a8Unorm}})
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f.Format)

	_, err = ChooseSurfaceFormat(VKSurfaceFormats{{Format: vk.FormatB8g8r8a8Srgb}})
	assert.True(t, errors.Is(err, frame.ErrNotFound))

	_, err = ChooseSurfaceFormat(nil)
	assert.True(t, errors.Is(err, frame.ErrNotFound))
}

func TestClampImageCount(t *testing.T) {
	assert.Equal(t, 3, ClampImageCount(3, 2, 8))
	assert.Equal(t, 2, ClampImageCount(1, 2, 8))
	assert.Equal(t, 3, ClampImageCount(5, 2, 3))
	assert.Equal(t, 16, ClampImageCount(16, 2, 0))
}

func TestSwizzleBGRA(t *testing.T) {
	pix := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	swizzleBGRA(pix)
	assert.Equal(t, []byte{3, 2, 1, 4, 7, 6, 5, 8}, pix)
}

func TestNewGraphicsAppValidatesOptions(t *testing.T) {
	_, err := NewGraphicsApp("clear", Options{BufferCount: 1, SyncInterval: 1})
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))

	_, err = NewGraphicsApp("clear", Options{BufferCount: 3, SyncInterval: 5})
	assert.True(t, errors.Is(err, frame.ErrInvalidOperation))

	app, err := NewGraphicsApp("clear", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "clear", app.App.Name)
	assert.Equal(t, frame.ErrInvalidOperation, errors.Cause(app.Init()))
}
