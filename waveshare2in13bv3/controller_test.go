// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in13bv3

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/conn/v3/gpio"
)

type op uint8

const (
	opReset op = iota
	opDelay
	opCommand
	opFill
	opWait
)

type record struct {
	op    op
	cmd   byte
	data  []byte
	count int
}

// fakeTransport records every call. When failAt is positive the call with
// that (1-based) index returns errFake.
type fakeTransport struct {
	records []record
	calls   int
	failAt  int
	busy    gpio.Level
}

var errFake = errors.New("fake bus failure")

func (f *fakeTransport) fail() error {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return errFake
	}
	return nil
}

func (f *fakeTransport) Command(cmd byte) error {
	f.records = append(f.records, record{op: opCommand, cmd: cmd})
	return f.fail()
}

func (f *fakeTransport) CommandWithData(cmd byte, data []byte) error {
	f.records = append(f.records, record{op: opCommand, cmd: cmd, data: append([]byte(nil), data...)})
	return f.fail()
}

func (f *fakeTransport) DataFill(b byte, n int) error {
	f.records = append(f.records, record{op: opFill, data: []byte{b}, count: n})
	return f.fail()
}

func (f *fakeTransport) Reset(hold time.Duration) error {
	f.records = append(f.records, record{op: opReset})
	return f.fail()
}

func (f *fakeTransport) Delay(time.Duration) {
	f.records = append(f.records, record{op: opDelay})
}

func (f *fakeTransport) IsBusy(busy gpio.Level) bool {
	return f.busy == busy
}

func (f *fakeTransport) WaitUntilIdle(busy gpio.Level, poll, timeout time.Duration) error {
	f.records = append(f.records, record{op: opWait})
	return f.fail()
}

func (f *fakeTransport) reset() {
	f.records = nil
}

func newTestController(t Transport) *controller {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &controller{t: t, opts: &EPD2in13bv3, log: l}
}

func diffRecords(got, want []record) string {
	return cmp.Diff(got, want, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{}))
}

var initRecords = []record{
	{op: opReset},
	{op: opDelay},
	{op: opWait},
	{op: opCommand, cmd: 0x00, data: []byte{0x0F, 0x89}},
	{op: opWait},
	{op: opCommand, cmd: 0x61, data: []byte{0x68, 0x00, 0xD4}},
	{op: opWait},
	{op: opCommand, cmd: 0x50, data: []byte{0x77}},
	{op: opWait},
}

func TestInitDisplay(t *testing.T) {
	var got fakeTransport

	c := newTestController(&got)
	initDisplay(c)

	if c.err != nil {
		t.Fatalf("initDisplay() failed: %v", c.err)
	}
	if diff := diffRecords(got.records, initRecords); diff != "" {
		t.Errorf("initDisplay() difference (-got +want):\n%s", diff)
	}
}

func TestSleepDisplay(t *testing.T) {
	var got fakeTransport

	c := newTestController(&got)
	sleepDisplay(c)

	want := []record{
		{op: opWait},
		{op: opCommand, cmd: writeVcomRegister.Address(), data: []byte{0xF7}},
		{op: opWait},
		{op: opCommand, cmd: powerOff.Address()},
		{op: opCommand, cmd: deepSleep.Address(), data: []byte{0xA5}},
	}
	if diff := diffRecords(got.records, want); diff != "" {
		t.Errorf("sleepDisplay() difference (-got +want):\n%s", diff)
	}
}

func TestDisplayFrame(t *testing.T) {
	var got fakeTransport

	c := newTestController(&got)
	displayFrame(c)

	want := []record{
		{op: opWait},
		{op: opCommand, cmd: displayRefresh.Address()},
		{op: opWait},
	}
	if diff := diffRecords(got.records, want); diff != "" {
		t.Errorf("displayFrame() difference (-got +want):\n%s", diff)
	}
}

func TestClearFrame(t *testing.T) {
	for _, tc := range []struct {
		name  string
		color Color
		want  []record
	}{
		{
			name:  "white",
			color: White,
			want: []record{
				{op: opCommand, cmd: writeRAM.Address()},
				{op: opFill, data: []byte{0xFF}, count: 2756},
			},
		},
		{
			name:  "black",
			color: Black,
			want: []record{
				{op: opCommand, cmd: writeRAM.Address()},
				{op: opFill, data: []byte{0x00}, count: 2756},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got fakeTransport

			c := newTestController(&got)
			clearFrame(c, tc.color, BufferLen(104, 212))

			if diff := diffRecords(got.records, tc.want); diff != "" {
				t.Errorf("clearFrame() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestControllerStopsAtFirstError(t *testing.T) {
	for failAt := 1; failAt <= 8; failAt++ {
		got := fakeTransport{failAt: failAt}

		c := newTestController(&got)
		initDisplay(c)

		if !errors.Is(c.err, errFake) {
			t.Fatalf("failAt %d: initDisplay() error = %v, want %v", failAt, c.err, errFake)
		}
		if got.calls != failAt {
			t.Errorf("failAt %d: %d calls reached the transport after the failure", failAt, got.calls-failAt)
		}
	}
}

func TestWriteFrame(t *testing.T) {
	var got fakeTransport
	buf := bytes.Repeat([]byte{0xAA}, 16)

	c := newTestController(&got)
	writeFrame(c, buf)

	want := []record{{op: opCommand, cmd: writeRAM.Address(), data: buf}}
	if diff := diffRecords(got.records, want); diff != "" {
		t.Errorf("writeFrame() difference (-got +want):\n%s", diff)
	}
}

func TestControllerLogsFailedStep(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	f := fakeTransport{failAt: 2}
	c := &controller{t: &f, opts: &EPD2in13bv3, log: log}

	c.sendCommand(displayRefresh)
	if e := hook.LastEntry(); e == nil || e.Message != "command" || e.Data[logrus.ErrorKey] != nil {
		t.Errorf("successful step logged %+v", e)
	}

	c.sendCommandData(writeRAM, []byte{1, 2})
	e := hook.LastEntry()
	if e == nil || e.Message != "command with data failed" || e.Data[logrus.ErrorKey] != errFake {
		t.Errorf("failed step logged %+v, want error %v", e, errFake)
	}

	c.fill(0xFF, 4)
	if n := len(hook.AllEntries()); n != 2 {
		t.Errorf("skipped step was logged: %d entries, want 2", n)
	}
}
