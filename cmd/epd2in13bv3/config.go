// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/GermanBionicSystems/epd/waveshare2in13bv3"
)

// Default BCM pin names of the Waveshare HAT.
const (
	defaultDC   = "GPIO25"
	defaultCS   = "GPIO8"
	defaultRST  = "GPIO17"
	defaultBusy = "GPIO24"
)

// PinsConfig holds the gpioreg names of the control lines.
type PinsConfig struct {
	DC   string `yaml:"dc"`
	CS   string `yaml:"cs"`
	RST  string `yaml:"rst"`
	Busy string `yaml:"busy"`
}

// Config is the tool configuration.
type Config struct {
	// SPI is the spireg port name; empty opens the first port.
	SPI  string     `yaml:"spi"`
	Pins PinsConfig `yaml:"pins"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// BusyTimeout bounds every wait on the busy line. Zero waits forever.
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// Background is the ClearFrame color: "white" (default) or "black".
	Background string `yaml:"background"`

	// Refresh is a cron schedule (e.g. "*/30 * * * *"). Empty draws once.
	Refresh string `yaml:"refresh"`
}

// DefaultConfig returns the configuration of the Waveshare HAT.
func DefaultConfig() *Config {
	return &Config{
		Pins: PinsConfig{
			DC:   defaultDC,
			CS:   defaultCS,
			RST:  defaultRST,
			Busy: defaultBusy,
		},
		Width:       waveshare2in13bv3.EPD2in13bv3.Width,
		Height:      waveshare2in13bv3.EPD2in13bv3.Height,
		BusyTimeout: 30 * time.Second,
		Background:  "white",
	}
}

// Normalize fills in missing values with the defaults.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Pins.DC == "" {
		c.Pins.DC = def.Pins.DC
	}
	if c.Pins.CS == "" {
		c.Pins.CS = def.Pins.CS
	}
	if c.Pins.RST == "" {
		c.Pins.RST = def.Pins.RST
	}
	if c.Pins.Busy == "" {
		c.Pins.Busy = def.Pins.Busy
	}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.BusyTimeout < 0 {
		c.BusyTimeout = def.BusyTimeout
	}
	switch strings.ToLower(c.Background) {
	case "black":
		c.Background = "black"
	default:
		c.Background = "white"
	}
}

// Load reads the YAML configuration at path. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Color returns the configured background color.
func (c *Config) Color() waveshare2in13bv3.Color {
	if c.Background == "black" {
		return waveshare2in13bv3.Black
	}
	return waveshare2in13bv3.White
}

// Opts returns the driver options for the configured panel.
func (c *Config) Opts() *waveshare2in13bv3.Opts {
	return &waveshare2in13bv3.Opts{
		Width:       c.Width,
		Height:      c.Height,
		BusyTimeout: c.BusyTimeout,
	}
}

type pins struct {
	dc, cs, rst gpio.PinOut
	busy        gpio.PinIn
}

// resolvePins looks up the configured pins in gpioreg.
func resolvePins(c PinsConfig) (*pins, error) {
	lookup := func(role, name string) (gpio.PinIO, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%s pin %q not found", role, name)
		}
		return p, nil
	}
	dc, err := lookup("dc", c.DC)
	if err != nil {
		return nil, err
	}
	cs, err := lookup("cs", c.CS)
	if err != nil {
		return nil, err
	}
	rst, err := lookup("rst", c.RST)
	if err != nil {
		return nil, err
	}
	busy, err := lookup("busy", c.Busy)
	if err != nil {
		return nil, err
	}
	return &pins{dc: dc, cs: cs, rst: rst, busy: busy}, nil
}
