// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epdsim implements an e-paper controller transport that keeps the
// controller RAM in memory and outputs it to the terminal (stdout) using ANSI
// color codes on every refresh.
//
// Useful while you are waiting for your e-paper HAT to come by mail.
package epdsim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"
)

// ErrAsleep is returned for every operation after a deep sleep command until
// the next Reset.
var ErrAsleep = errors.New("epdsim: controller is in deep sleep")

// Opts represents the options available for the emulated controller.
type Opts struct {
	Width  int
	Height int

	// Opcodes recognized by the emulator. Zero values select the UC8151
	// opcodes 0x10, 0x12 and 0x07.
	WriteRAM  byte
	Refresh   byte
	DeepSleep byte

	Palette *ansi256.Palette
	// W receives the rendered frames. Defaults to stdout.
	W io.Writer

	_ struct{}
}

// Dev is an e-paper controller emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette

	width, height               int
	writeRAM, refresh, sleepCmd byte

	ram     []byte
	cursor  int
	writing bool
	asleep  bool
	frames  int

	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
//
// The RAM starts white.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{
		w:        w,
		palette:  *p,
		width:    opts.Width,
		height:   opts.Height,
		writeRAM: orDefault(opts.WriteRAM, 0x10),
		refresh:  orDefault(opts.Refresh, 0x12),
		sleepCmd: orDefault(opts.DeepSleep, 0x07),
		ram:      make([]byte, (opts.Width+7)/8*opts.Height),
	}
	for i := range d.ram {
		d.ram[i] = 0xFF
	}
	return d
}

func orDefault(b, def byte) byte {
	if b == 0 {
		return def
	}
	return b
}

func (d *Dev) String() string {
	return fmt.Sprintf("epdsim{%dx%d}", d.width, d.height)
}

// Command emulates an opcode without payload.
func (d *Dev) Command(cmd byte) error {
	if d.asleep {
		return ErrAsleep
	}
	return d.command(cmd)
}

// CommandWithData emulates an opcode followed by its payload. Payloads of the
// RAM write opcode are stored from the RAM origin; bytes past the end of the
// RAM are dropped.
func (d *Dev) CommandWithData(cmd byte, data []byte) error {
	if d.asleep {
		return ErrAsleep
	}
	if err := d.command(cmd); err != nil {
		return err
	}
	if d.writing {
		d.cursor += copy(d.ram[d.cursor:], data)
	}
	if cmd == d.sleepCmd {
		d.asleep = true
	}
	return nil
}

// DataFill stores n copies of b when a RAM write is in progress and discards
// them otherwise.
func (d *Dev) DataFill(b byte, n int) error {
	if d.asleep {
		return ErrAsleep
	}
	if !d.writing {
		return nil
	}
	for ; n > 0 && d.cursor < len(d.ram); n-- {
		d.ram[d.cursor] = b
		d.cursor++
	}
	return nil
}

// Reset wakes the controller. The RAM content is kept.
func (d *Dev) Reset(time.Duration) error {
	d.asleep = false
	d.writing = false
	d.cursor = 0
	return nil
}

// Delay returns immediately.
func (d *Dev) Delay(time.Duration) {}

// IsBusy always reports false; the emulator finishes every command at once.
func (d *Dev) IsBusy(gpio.Level) bool {
	return false
}

// WaitUntilIdle returns immediately.
func (d *Dev) WaitUntilIdle(gpio.Level, time.Duration, time.Duration) error {
	return nil
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so it is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m"))
	return err
}

// RAM returns a copy of the black/white RAM plane.
func (d *Dev) RAM() []byte {
	return append([]byte(nil), d.ram...)
}

// Frames returns the number of refreshes rendered so far.
func (d *Dev) Frames() int {
	return d.frames
}

// Asleep reports whether the controller is in deep sleep.
func (d *Dev) Asleep() bool {
	return d.asleep
}

// Image returns the RAM plane as a grayscale image; set bits are white.
func (d *Dev) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.width, d.height))
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			if d.bit(x, y) {
				img.Pix[img.PixOffset(x, y)] = 0xFF
			}
		}
	}
	return img
}

func (d *Dev) bit(x, y int) bool {
	cols := (d.width + 7) / 8
	return d.ram[y*cols+x/8]&(0x80>>uint(x%8)) != 0
}

func (d *Dev) command(cmd byte) error {
	d.writing = cmd == d.writeRAM
	d.cursor = 0
	if cmd == d.refresh {
		d.frames++
		return d.render()
	}
	return nil
}

func (d *Dev) render() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\033[0m")
	white := d.palette.Block(color.NRGBA{255, 255, 255, 255})
	black := d.palette.Block(color.NRGBA{0, 0, 0, 255})
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			if d.bit(x, y) {
				_, _ = d.buf.WriteString(white)
			} else {
				_, _ = d.buf.WriteString(black)
			}
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ fmt.Stringer = &Dev{}
