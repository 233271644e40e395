// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in13bv3

import "fmt"

// DriverOutput describes the gate scan configuration.
type DriverOutput struct {
	ScanIsLinear  bool
	ScanG0IsFirst bool
	ScanDirIncr   bool

	Width uint16
}

// Bytes returns the register encoding: width (little endian) followed by the
// scan flags, each stored inverted.
func (o DriverOutput) Bytes() [3]byte {
	var flags byte
	if !o.ScanDirIncr {
		flags |= 1 << 0
	}
	if !o.ScanG0IsFirst {
		flags |= 1 << 1
	}
	if !o.ScanIsLinear {
		flags |= 1 << 2
	}
	return [3]byte{byte(o.Width), byte(o.Width >> 8), flags}
}

// DataEntryIncr selects the RAM address counter increment direction.
type DataEntryIncr byte

const (
	XDecrYDecr DataEntryIncr = 0x0
	XIncrYDecr DataEntryIncr = 0x1
	XDecrYIncr DataEntryIncr = 0x2
	XIncrYIncr DataEntryIncr = 0x3
)

// DataEntryDir selects which address counter is updated first.
type DataEntryDir byte

const (
	XDir DataEntryDir = 0x0
	YDir DataEntryDir = 0x4
)

// DataEntryMode returns the data entry mode register value.
func DataEntryMode(incr DataEntryIncr, dir DataEntryDir) byte {
	return byte(incr)&0x3 | byte(dir)&0x4
}

// BorderWaveformVBD selects the border (VBD) waveform source.
type BorderWaveformVBD byte

const (
	BorderGS       BorderWaveformVBD = 0x0
	BorderFixLevel BorderWaveformVBD = 0x1
	BorderVcom     BorderWaveformVBD = 0x2
)

// BorderLevel is the border level used with BorderFixLevel.
type BorderLevel byte

const (
	FixVSS  BorderLevel = 0x0
	FixVSH1 BorderLevel = 0x1
	FixVSL  BorderLevel = 0x2
	FixVSH2 BorderLevel = 0x3
)

// BorderGSTransition selects the LUT used with BorderGS.
type BorderGSTransition byte

const (
	GSLut0 BorderGSTransition = 0x0
	GSLut1 BorderGSTransition = 0x1
	GSLut2 BorderGSTransition = 0x2
	GSLut3 BorderGSTransition = 0x3
)

// BorderWaveform is the border waveform control register.
type BorderWaveform struct {
	VBD          BorderWaveformVBD
	FixLevel     BorderLevel
	GSTransition BorderGSTransition
}

// Byte packs the register as VBD[7:6] fix level[5:4] GS transition[1:0].
func (b BorderWaveform) Byte() byte {
	return byte(b.VBD)&0x3<<6 | byte(b.FixLevel)&0x3<<4 | byte(b.GSTransition)&0x3
}

// GateDrivingVoltage is the VGH register code.
type GateDrivingVoltage byte

// SourceDrivingVoltage is a VSH1, VSH2 or VSL register code.
type SourceDrivingVoltage byte

// Vcom is the VCOM register code.
type Vcom byte

// vcomCodes maps VCOM magnitudes in decivolts to register codes. The steps
// are not linear.
var vcomCodes = map[int]Vcom{
	2: 0x08, 3: 0x0B, 4: 0x10, 5: 0x14, 6: 0x17, 7: 0x1B, 8: 0x20,
	9: 0x24, 10: 0x28, 11: 0x2C, 12: 0x2F, 13: 0x34, 14: 0x37, 15: 0x3C,
	16: 0x40, 17: 0x44, 18: 0x48, 19: 0x4B, 20: 0x50, 21: 0x54, 22: 0x58,
	23: 0x5B, 24: 0x5F, 25: 0x64, 26: 0x68, 27: 0x6C, 28: 0x6F, 29: 0x73,
	30: 0x78,
}

// VcomFromDecivolts returns the register code for a VCOM of dv tenths of a
// volt. dv must be within [-30, -2].
func VcomFromDecivolts(dv int) Vcom {
	if dv < -30 || dv > -2 {
		panic(fmt.Sprintf("waveshare2in13bv3: VCOM %d dV out of range [-30, -2]", dv))
	}
	return vcomCodes[-dv]
}

// GateDrivingFromDecivolts returns the register code for a gate driving
// voltage of dv tenths of a volt. dv must be a multiple of 5 within
// [100, 210].
func GateDrivingFromDecivolts(dv int) GateDrivingVoltage {
	if dv < 100 || dv > 210 || dv%5 != 0 {
		panic(fmt.Sprintf("waveshare2in13bv3: gate driving voltage %d dV invalid", dv))
	}
	return GateDrivingVoltage((dv-100)/5 + 0x03)
}

// SourceDrivingFromDecivolts returns the register code for a source driving
// voltage of dv tenths of a volt. Valid inputs are [24, 88] and multiples of
// 5 within [90, 180] or [-180, -90].
func SourceDrivingFromDecivolts(dv int) SourceDrivingVoltage {
	switch {
	case dv >= 24 && dv <= 88:
		return SourceDrivingVoltage(dv - 24 + 0x8E)
	case dv >= 90 && dv <= 180 && dv%5 == 0:
		return SourceDrivingVoltage((dv-90)/2 + 0x23)
	case dv >= -180 && dv <= -90 && dv%5 == 0:
		return SourceDrivingVoltage((-dv-90)/5*2 + 0x1A)
	}
	panic(fmt.Sprintf("waveshare2in13bv3: source driving voltage %d dV invalid", dv))
}
