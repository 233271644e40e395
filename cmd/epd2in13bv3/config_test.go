// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/GermanBionicSystems/epd/waveshare2in13bv3"
)

func TestLoadMissing(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", path, err)
		}
		if diff := cmp.Diff(cfg, DefaultConfig()); diff != "" {
			t.Errorf("Load(%q) difference (-got +want):\n%s", path, diff)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epd.yaml")
	data := `
spi: SPI0.1
pins:
  dc: GPIO5
width: 122
busy_timeout: 5s
background: BLACK
refresh: "*/30 * * * *"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want := &Config{
		SPI:         "SPI0.1",
		Pins:        PinsConfig{DC: "GPIO5", CS: defaultCS, RST: defaultRST, Busy: defaultBusy},
		Width:       122,
		Height:      212,
		BusyTimeout: 5 * time.Second,
		Background:  "black",
		Refresh:     "*/30 * * * *",
	}
	if diff := cmp.Diff(cfg, want); diff != "" {
		t.Errorf("Load() difference (-got +want):\n%s", diff)
	}
	if cfg.Color() != waveshare2in13bv3.Black {
		t.Errorf("Color() = %v, want Black", cfg.Color())
	}
	wantOpts := &waveshare2in13bv3.Opts{Width: 122, Height: 212, BusyTimeout: 5 * time.Second}
	if diff := cmp.Diff(cfg.Opts(), wantOpts); diff != "" {
		t.Errorf("Opts() difference (-got +want):\n%s", diff)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epd.yaml")
	if err := os.WriteFile(path, []byte("width: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("Load() of malformed YAML succeeded")
	}
}

func TestNormalize(t *testing.T) {
	cfg := &Config{Width: -1, BusyTimeout: -time.Second, Background: "red"}
	cfg.Normalize()
	if diff := cmp.Diff(cfg, DefaultConfig()); diff != "" {
		t.Errorf("Normalize() difference (-got +want):\n%s", diff)
	}
	if cfg.Color() != waveshare2in13bv3.White {
		t.Errorf("Color() = %v, want White", cfg.Color())
	}
}

func TestConfigYAML(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	var got Config
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&got, DefaultConfig()); diff != "" {
		t.Errorf("YAML difference (-got +want):\n%s", diff)
	}
}

func TestResolvePins(t *testing.T) {
	for _, n := range []string{"EPDTEST_DC", "EPDTEST_CS", "EPDTEST_RST", "EPDTEST_BUSY"} {
		if err := gpioreg.Register(&gpiotest.Pin{N: n, Num: -1}); err != nil {
			t.Fatal(err)
		}
	}
	defer func() {
		for _, n := range []string{"EPDTEST_DC", "EPDTEST_CS", "EPDTEST_RST", "EPDTEST_BUSY"} {
			_ = gpioreg.Unregister(n)
		}
	}()

	p, err := resolvePins(PinsConfig{DC: "EPDTEST_DC", CS: "EPDTEST_CS", RST: "EPDTEST_RST", Busy: "EPDTEST_BUSY"})
	if err != nil {
		t.Fatalf("resolvePins() failed: %v", err)
	}
	if p.dc.Name() != "EPDTEST_DC" || p.busy.Name() != "EPDTEST_BUSY" {
		t.Errorf("resolvePins() = %v", p)
	}

	if _, err := resolvePins(PinsConfig{DC: "EPDTEST_DC", CS: "EPDTEST_CS", RST: "EPDTEST_RST", Busy: "EPDTEST_NONE"}); err == nil {
		t.Errorf("resolvePins() with unknown pin succeeded")
	}
}
