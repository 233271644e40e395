// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in13bv3

import (
	"periph.io/x/conn/v3/gpio"
)

// errorHandler runs the steps of one bus transaction and keeps the first
// error. Once an error occurred all further steps are skipped.
type errorHandler struct {
	t   *SPITransport
	err error
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.t.rst.Out(l)
}

func (eh *errorHandler) cTx(w []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.t.c.Tx(w, nil)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.t.dc.Out(l)
}

func (eh *errorHandler) csOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.t.cs.Out(l)
}

// sendChunked transmits data in pieces no larger than the connection allows.
func (eh *errorHandler) sendChunked(data []byte) {
	for len(data) > 0 && eh.err == nil {
		l := min(len(data), eh.t.maxTxSize)
		eh.cTx(data[:l])
		data = data[l:]
	}
}
