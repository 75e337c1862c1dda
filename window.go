package vkclear

import (
	"github.com/celer/vkclear/frame"
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// WindowEvents is the event pump of a glfw window.
type WindowEvents struct {
	Window *glfw.Window
}

// PumpEvents processes pending events and reports Quit once the window was
// asked to close.
func (w WindowEvents) PumpEvents() frame.Action {
	glfw.PollEvents()
	if w.Window.ShouldClose() {
		return frame.Quit
	}
	return frame.Continue
}

// CreateWindow creates a fixed size window without a client API, ready for a
// Vulkan surface. glfw has to be initialized.
func CreateWindow(width, height int, title string) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	return glfw.CreateWindow(width, height, title, nil, nil)
}
