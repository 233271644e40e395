// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in13bv3

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ErrBusyTimeout is returned when the busy line did not release within
// Opts.BusyTimeout.
var ErrBusyTimeout = errors.New("waveshare2in13bv3: timed out waiting for busy line")

// Transport is the bus used to talk to the controller.
//
// Implementations must not interleave transactions; a Transport is used by a
// single Dev at a time.
type Transport interface {
	// Command selects the device, sends the opcode and deselects.
	Command(cmd byte) error
	// CommandWithData sends the opcode followed by data in data mode, chip
	// select held for the whole transaction.
	CommandWithData(cmd byte, data []byte) error
	// DataFill sends n repetitions of b in data mode.
	DataFill(b byte, n int) error
	// Reset pulses the reset line, holding it low for hold.
	Reset(hold time.Duration) error
	// Delay blocks for d.
	Delay(d time.Duration)
	// IsBusy reports whether the busy line is at the busy level.
	IsBusy(busy gpio.Level) bool
	// WaitUntilIdle blocks until IsBusy reports false, polling every poll. A
	// zero timeout waits forever.
	WaitUntilIdle(busy gpio.Level, poll, timeout time.Duration) error
}

// SPITransport implements Transport using a periph SPI connection and GPIO
// pins for data/command, chip select, reset and busy.
type SPITransport struct {
	c         conn.Conn
	maxTxSize int

	dc   gpio.PinOut
	cs   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn
}

// NewSPITransport connects to the controller on p.
func NewSPITransport(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn) (*SPITransport, error) {
	c, err := p.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("waveshare2in13bv3: failed to connect over spi: %w", err)
	}

	if err := busy.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("waveshare2in13bv3: failed to configure busy pin: %w", err)
	}

	// Get the maxTxSize from the conn if it implements the conn.Limits interface,
	// otherwise use 4096 bytes.
	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}
	if maxTxSize == 0 {
		maxTxSize = 4096
	}

	return &SPITransport{
		c:         c,
		maxTxSize: maxTxSize,
		dc:        dc,
		cs:        cs,
		rst:       rst,
		busy:      busy,
	}, nil
}

// Command implements Transport.
func (t *SPITransport) Command(cmd byte) error {
	eh := errorHandler{t: t}

	eh.dcOut(gpio.Low)
	eh.csOut(gpio.Low)
	eh.cTx([]byte{cmd})
	eh.csOut(gpio.High)

	return eh.err
}

// CommandWithData implements Transport.
func (t *SPITransport) CommandWithData(cmd byte, data []byte) error {
	eh := errorHandler{t: t}

	eh.dcOut(gpio.Low)
	eh.csOut(gpio.Low)
	eh.cTx([]byte{cmd})
	eh.dcOut(gpio.High)
	eh.sendChunked(data)
	eh.csOut(gpio.High)

	return eh.err
}

// DataFill implements Transport.
func (t *SPITransport) DataFill(b byte, n int) error {
	eh := errorHandler{t: t}

	chunk := make([]byte, min(n, t.maxTxSize))
	for i := range chunk {
		chunk[i] = b
	}

	eh.dcOut(gpio.High)
	eh.csOut(gpio.Low)
	for n > 0 && eh.err == nil {
		l := min(n, len(chunk))
		eh.cTx(chunk[:l])
		n -= l
	}
	eh.csOut(gpio.High)

	return eh.err
}

// Reset implements Transport.
func (t *SPITransport) Reset(hold time.Duration) error {
	eh := errorHandler{t: t}

	eh.rstOut(gpio.High)
	time.Sleep(hold)
	eh.rstOut(gpio.Low)
	time.Sleep(hold)
	eh.rstOut(gpio.High)
	time.Sleep(hold)

	return eh.err
}

// Delay implements Transport.
func (t *SPITransport) Delay(d time.Duration) {
	time.Sleep(d)
}

// IsBusy implements Transport.
func (t *SPITransport) IsBusy(busy gpio.Level) bool {
	return t.busy.Read() == busy
}

// WaitUntilIdle implements Transport.
func (t *SPITransport) WaitUntilIdle(busy gpio.Level, poll, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for t.IsBusy(busy) {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrBusyTimeout, timeout)
		}
		time.Sleep(poll)
	}
	return nil
}

// String returns the connection and pins in use.
func (t *SPITransport) String() string {
	return fmt.Sprintf("%s, dc=%s, cs=%s, rst=%s, busy=%s", t.c, t.dc, t.cs, t.rst, t.busy)
}

var _ Transport = &SPITransport{}
