// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in13bv3

import (
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// busyLevel is the busy line level while the controller is working.
const busyLevel = gpio.Low

// resetHold is how long the reset line is held for a hardware reset.
const resetHold = 10 * time.Millisecond

// controller issues the steps of a lifecycle sequence on a Transport. The
// first failing step is kept in err and every later step is skipped.
type controller struct {
	t    Transport
	opts *Opts
	log  logrus.FieldLogger
	err  error
}

// debug logs a completed step, with the error when the step failed.
func (c *controller) debug(l logrus.FieldLogger, msg string) {
	if c.err != nil {
		l.WithError(c.err).Debug(msg + " failed")
		return
	}
	l.Debug(msg)
}

func (c *controller) reset() {
	if c.err != nil {
		return
	}
	c.err = c.t.Reset(resetHold)
	c.debug(c.log, "reset")
}

func (c *controller) delay(d time.Duration) {
	if c.err != nil {
		return
	}
	c.t.Delay(d)
}

func (c *controller) sendCommand(cmd command) {
	if c.err != nil {
		return
	}
	c.err = c.t.Command(cmd.Address())
	c.debug(c.log.WithField("cmd", cmd), "command")
}

func (c *controller) sendCommandData(cmd command, data []byte) {
	if c.err != nil {
		return
	}
	c.err = c.t.CommandWithData(cmd.Address(), data)
	c.debug(c.log.WithFields(logrus.Fields{"cmd": cmd, "len": len(data)}), "command with data")
}

func (c *controller) fill(b byte, n int) {
	if c.err != nil {
		return
	}
	c.err = c.t.DataFill(b, n)
	c.debug(c.log.WithFields(logrus.Fields{"byte": b, "count": n}), "data fill")
}

func (c *controller) waitUntilIdle() {
	if c.err != nil {
		return
	}
	c.err = c.t.WaitUntilIdle(busyLevel, c.opts.busyPoll(), c.opts.BusyTimeout)
}

// initDisplay runs the power-up sequence. It is also used to wake the
// controller from deep sleep.
func initDisplay(c *controller) {
	c.reset()
	c.delay(resetHold)
	c.waitUntilIdle()

	setLUT(c)
	c.waitUntilIdle()

	setDriverOutput(c, DriverOutput{
		ScanIsLinear:  true,
		ScanG0IsFirst: true,
		ScanDirIncr:   false,
		Width:         uint16(c.opts.Height - 1),
	})
	c.waitUntilIdle()

	c.sendCommandData(writeVcomRegister, []byte{vcomNormal})
	c.waitUntilIdle()
}

// setLUT selects the OTP waveform. There is no runtime LUT upload.
func setLUT(c *controller) {
	c.sendCommandData(writeLutRegister, lutOTP)
}

// setDriverOutput sends the vendor resolution triple. The scan configuration
// is accepted but its encoding is not what goes on the wire.
//
// TODO: send output.Bytes() once it is verified on hardware with other panel
// geometries.
func setDriverOutput(c *controller, _ DriverOutput) {
	c.sendCommandData(driverOutputControl, driverOutputDefault[:])
}

func sleepDisplay(c *controller) {
	c.waitUntilIdle()
	c.sendCommandData(writeVcomRegister, []byte{vcomDeepSleep})
	c.waitUntilIdle()
	c.sendCommand(powerOff)
	c.sendCommandData(deepSleep, []byte{deepSleepCode})
}

func writeFrame(c *controller, buffer []byte) {
	c.sendCommandData(writeRAM, buffer)
}

func clearFrame(c *controller, color Color, n int) {
	c.sendCommand(writeRAM)
	c.fill(color.Byte(), n)
}

func displayFrame(c *controller) {
	c.waitUntilIdle()
	c.sendCommand(displayRefresh)
	c.waitUntilIdle()
}
