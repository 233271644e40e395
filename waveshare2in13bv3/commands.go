// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in13bv3

import "fmt"

// command is a controller opcode.
type command byte

// Commands
const (
	writeLutRegister    command = 0x00
	powerOff            command = 0x02
	deepSleep           command = 0x07
	writeRAM            command = 0x10
	displayRefresh      command = 0x12
	writeRAMRed         command = 0x13
	writeVcomRegister   command = 0x50
	driverOutputControl command = 0x61
)

// Address returns the byte sent on the bus for the command.
func (c command) Address() byte {
	return byte(c)
}

func (c command) String() string {
	switch c {
	case writeLutRegister:
		return "WriteLutRegister"
	case powerOff:
		return "PowerOff"
	case deepSleep:
		return "DeepSleep"
	case writeRAM:
		return "WriteRam"
	case displayRefresh:
		return "DisplayRefresh"
	case writeRAMRed:
		return "WriteRamRed"
	case writeVcomRegister:
		return "WriteVcomRegister"
	case driverOutputControl:
		return "DriverOutputControl"
	}
	return fmt.Sprintf("command(0x%02X)", byte(c))
}

// Fixed register payloads.
const (
	vcomNormal    byte = 0x77
	vcomDeepSleep byte = 0xF7
	deepSleepCode byte = 0xA5
)

// lutOTP selects the waveform stored in the controller OTP (panel setting
// register): LUT from OTP, 128x296 resolution select, booster and temperature
// sensor defaults.
var lutOTP = []byte{0x0F, 0x89}

// driverOutputDefault is the resolution triple sent by setDriverOutput.
var driverOutputDefault = [3]byte{0x68, 0x00, 0xD4}
