package vkclear

import (
	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// resultError maps a Vulkan result code onto the frame error causes, nil for
// the success codes.
func resultError(res vk.Result) error {
	switch res {
	case vk.Success, vk.Suboptimal:
		return nil
	case vk.ErrorDeviceLost, vk.ErrorSurfaceLost:
		return errors.Wrap(frame.ErrDeviceLost, vk.Error(res).Error())
	case vk.ErrorOutOfHostMemory, vk.ErrorOutOfDeviceMemory:
		return errors.Wrap(frame.ErrOutOfMemory, vk.Error(res).Error())
	}
	if err := vk.Error(res); err != nil {
		return errors.Wrap(frame.ErrInvalidOperation, err.Error())
	}
	return errors.Wrapf(frame.ErrInvalidOperation, "unexpected result %d", res)
}

// check is resultError with context.
func check(res vk.Result, what string) error {
	if err := resultError(res); err != nil {
		return errors.WithMessage(err, what)
	}
	return nil
}
