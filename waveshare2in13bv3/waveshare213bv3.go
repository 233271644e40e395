// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in13bv3

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3/rpi"
)

// Color is the value used to fill controller RAM.
type Color uint8

const (
	Black Color = iota
	White
)

// Byte returns the RAM fill value for the color.
func (c Color) Byte() byte {
	if c == White {
		return 0xFF
	}
	return 0x00
}

func (c Color) String() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// DefaultBackgroundColor is used by ClearFrame until changed.
const DefaultBackgroundColor = White

// RefreshLut selects the refresh waveform.
type RefreshLut uint8

const (
	// Full refreshes every pixel; slow but free of ghosting.
	Full RefreshLut = iota
	// Partial only drives changed pixels.
	Partial
)

func (r RefreshLut) String() string {
	if r == Partial {
		return "Partial"
	}
	return "Full"
}

// Opts defines the display configuration.
type Opts struct {
	Width  int
	Height int

	// BusyTimeout bounds every wait on the busy line. Zero waits forever.
	BusyTimeout time.Duration
	// BusyPoll is the interval between busy line samples; defaults to 10ms.
	BusyPoll time.Duration

	// Logger receives a debug entry for every bus step. Nil discards.
	Logger logrus.FieldLogger
}

func (o *Opts) busyPoll() time.Duration {
	if o.BusyPoll <= 0 {
		return 10 * time.Millisecond
	}
	return o.BusyPoll
}

// EPD2in13bv3 contains the display configuration for the Waveshare 2in13b V3.
var EPD2in13bv3 = Opts{
	Width:  104,
	Height: 212,
}

// BufferLen returns the size in bytes of a packed frame of the given
// geometry: rows are padded to a full byte.
func BufferLen(width, height int) int {
	return (width + 7) / 8 * height
}

// Dev defines the handler which is used to access the display.
type Dev struct {
	t    Transport
	opts *Opts
	log  logrus.FieldLogger

	background Color
	refresh    RefreshLut
}

// New initializes the controller behind t and returns a handle in Full
// refresh mode with a white background. The first transport error is
// returned as is.
func New(t Transport, opts *Opts) (*Dev, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	d := &Dev{
		t:          t,
		opts:       opts,
		log:        log,
		background: DefaultBackgroundColor,
		refresh:    Full,
	}

	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewSPI creates a handle communicating over SPI with the given pins.
func NewSPI(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	t, err := NewSPITransport(p, dc, cs, rst, busy)
	if err != nil {
		return nil, err
	}
	return New(t, opts)
}

// NewHat creates a handle using the default Waveshare Hat configuration.
func NewHat(p spi.Port, opts *Opts) (*Dev, error) {
	dc := rpi.P1_22
	cs := rpi.P1_24
	rst := rpi.P1_11
	busy := rpi.P1_18
	return NewSPI(p, dc, cs, rst, busy, opts)
}

func (d *Dev) ctrl() *controller {
	return &controller{t: d.t, opts: d.opts, log: d.log}
}

// Init resets the controller and loads the power-up configuration. It does
// not change the session state.
func (d *Dev) Init() error {
	c := d.ctrl()
	initDisplay(c)
	if c.err == nil {
		d.log.Debug("init done")
	}
	return c.err
}

// Wake brings the controller out of deep sleep.
//
// It runs the same sequence as Init. The session refresh mode and background
// color are kept, so a Partial mode set before Sleep is still reported by
// Refresh.
func (d *Dev) Wake() error {
	return d.Init()
}

// Sleep puts the controller in deep sleep. Only Wake brings it back.
func (d *Dev) Sleep() error {
	c := d.ctrl()
	sleepDisplay(c)
	return c.err
}

// UpdateFrame writes buffer to the black/white RAM. It does not refresh the
// panel.
//
// It panics if buffer is not exactly BufferLen(Width, Height) bytes.
func (d *Dev) UpdateFrame(buffer []byte) error {
	if want := BufferLen(d.opts.Width, d.opts.Height); len(buffer) != want {
		panic(fmt.Sprintf("waveshare2in13bv3: frame buffer is %d bytes, want %d", len(buffer), want))
	}
	c := d.ctrl()
	writeFrame(c, buffer)
	return c.err
}

// UpdatePartialFrame writes a width x height buffer to the black/white RAM.
// The x and y position is not used: the data is written from the RAM origin.
//
// It panics if buffer is not width*height/8 bytes or when the partial refresh
// mode is active, since the red plane used for comparison cannot be kept in
// sync.
func (d *Dev) UpdatePartialFrame(buffer []byte, x, y, width, height int) error {
	if want := width * height / 8; len(buffer) != want {
		panic(fmt.Sprintf("waveshare2in13bv3: partial buffer is %d bytes, want %d", len(buffer), want))
	}
	if d.refresh != Full {
		panic("waveshare2in13bv3: partial frame update used with partial refresh")
	}
	c := d.ctrl()
	writeFrame(c, buffer)
	return c.err
}

// DisplayFrame refreshes the panel from RAM. It blocks while the controller
// reports busy, which can take several seconds.
func (d *Dev) DisplayFrame() error {
	c := d.ctrl()
	displayFrame(c)
	return c.err
}

// UpdateAndDisplayFrame writes buffer and refreshes the panel. If the refresh
// fails the RAM keeps the new content.
func (d *Dev) UpdateAndDisplayFrame(buffer []byte) error {
	if err := d.UpdateFrame(buffer); err != nil {
		return err
	}
	return d.DisplayFrame()
}

// ClearFrame fills the RAM with the background color.
func (d *Dev) ClearFrame() error {
	c := d.ctrl()
	clearFrame(c, d.background, BufferLen(d.opts.Width, d.opts.Height))
	return c.err
}

// SetBackgroundColor changes the color used by ClearFrame.
func (d *Dev) SetBackgroundColor(c Color) {
	d.background = c
}

// BackgroundColor returns the color used by ClearFrame.
func (d *Dev) BackgroundColor() Color {
	return d.background
}

// SetRefresh changes the refresh mode. Changing the mode re-initializes the
// controller; setting the current mode does nothing.
func (d *Dev) SetRefresh(mode RefreshLut) error {
	if d.refresh == mode {
		return nil
	}
	d.refresh = mode
	return d.Init()
}

// Refresh returns the current refresh mode.
func (d *Dev) Refresh() RefreshLut {
	return d.refresh
}

// IsBusy reports whether the controller is working.
func (d *Dev) IsBusy() bool {
	return d.t.IsBusy(busyLevel)
}

// Width returns the panel width in pixels.
func (d *Dev) Width() int {
	return d.opts.Width
}

// Height returns the panel height in pixels.
func (d *Dev) Height() int {
	return d.opts.Height
}

// ColorModel returns a 1Bit color model.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the bounds for the configured display.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.opts.Width, d.opts.Height)
}

// Draw packs src into a frame, writes it and refreshes the panel. The whole
// frame is always sent; pixels outside dstRect are white.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	return d.UpdateAndDisplayFrame(drawFrame(d.Bounds(), dstRect, src, srcPts))
}

// Halt clears the display.
func (d *Dev) Halt() error {
	if err := d.ClearFrame(); err != nil {
		return err
	}
	return d.DisplayFrame()
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("epd.Dev{%v, Width: %d, Height: %d}", d.t, d.opts.Width, d.opts.Height)
}

var _ display.Drawer = &Dev{}
var _ conn.Resource = &Dev{}
