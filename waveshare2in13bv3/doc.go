// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package waveshare2in13bv3 controls the Waveshare 2.13" (B) V3 e-paper
// display.
//
// The panel is driven by a UC8151 class controller. Only the black/white RAM
// plane is used; the red plane is left untouched and the built-in OTP
// waveform is always selected.
//
// Datasheets
//
// https://www.waveshare.com/w/upload/d/d8/2.13inch_e-Paper_%28B%29_V3_Specification.pdf
//
// Product page:
//
// 2.13 Inch (B) version 3: https://www.waveshare.com/wiki/2.13inch_e-Paper_HAT_(B)
//
package waveshare2in13bv3
