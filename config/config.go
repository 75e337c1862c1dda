// Package config holds the settings of the clear programs. Values come from
// Default, optionally overlaid by a YAML file and then by command line flags.
package config

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/celer/vkclear/frame"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type SwapChain struct {
	BufferCount  int `yaml:"buffer_count"`
	SyncInterval int `yaml:"sync_interval"`
}

type Shaders struct {
	Vertex string `yaml:"vertex"`
	Pixel  string `yaml:"pixel"`
}

// SoftGPU tunes the software device used by the headless program.
type SoftGPU struct {
	Latency time.Duration `yaml:"latency"`
	Refresh time.Duration `yaml:"refresh"`
}

type Config struct {
	Window     Window      `yaml:"window"`
	SwapChain  SwapChain   `yaml:"swapchain"`
	ClearColor frame.Color `yaml:"clear_color,flow"`
	Sync       string      `yaml:"sync"`
	Shaders    Shaders     `yaml:"shaders"`
	SoftGPU    SoftGPU     `yaml:"softgpu"`

	// Debug enables the graphics API validation layers
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	// Frames stops the program after that many frames, 0 runs until the
	// window is closed
	Frames int `yaml:"frames"`
	// Capture is a PNG file the last presented buffer is written to
	Capture string `yaml:"capture"`
}

// Default returns an 800x600 window with three buffers, presented every
// vertical blank and cleared to dark blue.
func Default() *Config {
	return &Config{
		Window:     Window{Width: 800, Height: 600, Title: "DirectX12"},
		SwapChain:  SwapChain{BufferCount: 3, SyncInterval: 1},
		ClearColor: frame.DefaultClearColor,
		Sync:       frame.SyncPerFrame.String(),
		LogLevel:   "info",
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads YAML from r on top of the defaults.
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decode config")
	}
	return c, nil
}

// RegisterFlags binds c's fields to flags of fs. Parsing fs overwrites the
// fields that appear on the command line.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.Window.Width, "width", c.Window.Width, "window width")
	fs.IntVar(&c.Window.Height, "height", c.Window.Height, "window height")
	fs.StringVar(&c.Window.Title, "title", c.Window.Title, "window title")
	fs.IntVar(&c.SwapChain.BufferCount, "buffers", c.SwapChain.BufferCount, "swap chain buffer count")
	fs.IntVar(&c.SwapChain.SyncInterval, "vsync", c.SwapChain.SyncInterval, "vertical blanks to wait per present, 0 disables vsync")
	fs.Var((*colorValue)(&c.ClearColor), "clear", "clear color as r,g,b,a")
	fs.StringVar(&c.Sync, "sync", c.Sync, "frame synchronization: per-frame, flush or unsynchronized")
	fs.StringVar(&c.Shaders.Vertex, "vs", c.Shaders.Vertex, "SPIR-V vertex shader")
	fs.StringVar(&c.Shaders.Pixel, "ps", c.Shaders.Pixel, "SPIR-V pixel shader")
	fs.DurationVar(&c.SoftGPU.Latency, "latency", c.SoftGPU.Latency, "software GPU execution latency")
	fs.DurationVar(&c.SoftGPU.Refresh, "refresh", c.SoftGPU.Refresh, "software GPU refresh period")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable validation layers")
	fs.StringVar(&c.LogLevel, "log", c.LogLevel, "log level: debug, info, warn or error")
	fs.IntVar(&c.Frames, "frames", c.Frames, "stop after this many frames, 0 runs until closed")
	fs.StringVar(&c.Capture, "capture", c.Capture, "write the last presented buffer to this PNG file")
}

// Parse builds the configuration from the command line. A -config file is
// applied first, flags given next to it override the file.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	c := Default()
	path := fs.String("config", "", "YAML configuration file")
	c.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *path != "" {
		file, err := Load(*path)
		if err != nil {
			return nil, err
		}
		overlay := flag.NewFlagSet(fs.Name(), flag.ContinueOnError)
		file.RegisterFlags(overlay)
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "config" || err != nil {
				return
			}
			err = overlay.Set(f.Name, f.Value.String())
		})
		if err != nil {
			return nil, err
		}
		c = file
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Errorf("invalid window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.SwapChain.BufferCount < 2 || c.SwapChain.BufferCount > 16 {
		return errors.Errorf("buffer count %d outside [2, 16]", c.SwapChain.BufferCount)
	}
	if c.SwapChain.SyncInterval < 0 || c.SwapChain.SyncInterval > 4 {
		return errors.Errorf("sync interval %d outside [0, 4]", c.SwapChain.SyncInterval)
	}
	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			return errors.Errorf("clear color component %d is %g, outside [0, 1]", i, v)
		}
	}
	if _, err := frame.ParseSyncMode(c.Sync); err != nil {
		return err
	}
	if (c.Shaders.Vertex == "") != (c.Shaders.Pixel == "") {
		return errors.New("vertex and pixel shader must be given together")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Frames < 0 {
		return errors.Errorf("negative frame count %d", c.Frames)
	}
	if c.SoftGPU.Latency < 0 || c.SoftGPU.Refresh < 0 {
		return errors.New("negative software GPU timing")
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, errors.Errorf("unknown log level %q", c.LogLevel)
	}
	return l, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// FrameOptions converts c to driver options, loading the shaders when they
// are configured.
func (c *Config) FrameOptions() (frame.Options, error) {
	opts := frame.DefaultOptions()
	opts.ClearColor = c.ClearColor
	opts.SyncInterval = c.SwapChain.SyncInterval

	mode, err := frame.ParseSyncMode(c.Sync)
	if err != nil {
		return opts, err
	}
	opts.Sync = mode

	if c.Shaders.Vertex != "" && c.Shaders.Pixel != "" {
		vs, err := frame.LoadShader(c.Shaders.Vertex)
		if err != nil {
			return opts, err
		}
		ps, err := frame.LoadShader(c.Shaders.Pixel)
		if err != nil {
			return opts, err
		}
		opts.Pipeline = frame.NewPosColorPipelineDesc(vs, ps)
	}
	return opts, nil
}

type colorValue frame.Color

func (v *colorValue) String() string {
	if v == nil {
		return ""
	}
	parts := make([]string, len(v))
	for i, c := range v {
		parts[i] = strconv.FormatFloat(float64(c), 'g', -1, 32)
	}
	return strings.Join(parts, ",")
}

func (v *colorValue) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return fmt.Errorf("want 4 components, got %d", len(parts))
	}
	var c frame.Color
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return err
		}
		c[i] = float32(f)
	}
	*v = colorValue(c)
	return nil
}
