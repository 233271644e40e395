// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epd2in13bv3 draws an image on a Waveshare 2in13b V3 e-paper panel.
//
// With a refresh schedule it keeps redrawing until interrupted, then puts the
// panel to deep sleep.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/epd/epdsim"
	"github.com/GermanBionicSystems/epd/waveshare2in13bv3"
)

type flagConfig struct {
	configPath string
	imagePath  string
	clear      bool
	sleep      bool
	sim        bool
	cron       string
	verbose    bool
}

func parseFlags() flagConfig {
	var f flagConfig
	flag.StringVar(&f.configPath, "config", "/etc/epd2in13bv3.yaml", "Path to config file")
	flag.StringVar(&f.imagePath, "image", "", "Image to draw")
	flag.BoolVar(&f.clear, "clear", false, "Clear the RAM to the background color before drawing the image")
	flag.BoolVar(&f.sleep, "sleep", false, "Put the panel in deep sleep when done")
	flag.BoolVar(&f.sim, "sim", false, "Render to the terminal instead of the panel")
	flag.StringVar(&f.cron, "cron", "", "Refresh schedule (overrides config)")
	flag.BoolVar(&f.verbose, "v", false, "Log every bus step")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if f.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := mainImpl(f, log); err != nil {
		log.WithError(err).Error("epd2in13bv3 failed")
		os.Exit(1)
	}
}

func mainImpl(f flagConfig, log *logrus.Logger) error {
	cfg, err := Load(f.configPath)
	if err != nil {
		return err
	}
	if f.cron != "" {
		cfg.Refresh = f.cron
	}
	log.WithFields(logrus.Fields{
		"spi":     cfg.SPI,
		"size":    fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"refresh": cfg.Refresh,
		"sim":     f.sim,
	}).Info("effective config")

	t, closer, err := openTransport(cfg, f.sim)
	if err != nil {
		return err
	}
	defer closer()

	opts := cfg.Opts()
	opts.Logger = log
	dev, err := waveshare2in13bv3.New(t, opts)
	if err != nil {
		return err
	}
	dev.SetBackgroundColor(cfg.Color())
	log.WithField("dev", dev).Info("panel ready")

	redraw := func() error { return render(dev, f) }

	if cfg.Refresh == "" {
		if err := redraw(); err != nil {
			return err
		}
		if f.sleep {
			return dev.Sleep()
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := schedule(ctx, cfg.Refresh, redraw, log); err != nil {
		return err
	}
	log.Info("putting panel to sleep")
	return dev.Sleep()
}

// openTransport returns the emulator or the SPI transport described by cfg.
func openTransport(cfg *Config, sim bool) (waveshare2in13bv3.Transport, func(), error) {
	if sim {
		return epdsim.New(&epdsim.Opts{Width: cfg.Width, Height: cfg.Height}), func() {}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph host init failed: %w", err)
	}
	port, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open SPI port: %w", err)
	}
	p, err := resolvePins(cfg.Pins)
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	t, err := waveshare2in13bv3.NewSPITransport(port, p.dc, p.cs, p.rst, p.busy)
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	return t, func() { _ = port.Close() }, nil
}

// render runs one redraw. Without an image it clears the panel.
func render(dev *waveshare2in13bv3.Dev, f flagConfig) error {
	if f.imagePath == "" {
		return dev.Halt()
	}
	if f.clear {
		if err := dev.ClearFrame(); err != nil {
			return err
		}
	}
	src, err := loadImage(f.imagePath)
	if err != nil {
		return err
	}
	return dev.Draw(dev.Bounds(), fit(src, dev.Bounds()), image.Point{})
}

// schedule runs fn on sched until ctx is done. The first run happens at once.
func schedule(ctx context.Context, sched string, fn func() error, log logrus.FieldLogger) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(sched, func() {
		if err := fn(); err != nil {
			log.WithError(err).Error("scheduled redraw failed")
		}
	}); err != nil {
		return fmt.Errorf("refresh schedule %q: %w", sched, err)
	}
	if err := fn(); err != nil {
		return err
	}
	c.Start()
	log.WithField("schedule", sched).Info("refresh scheduled")
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func loadImage(path string) (image.Image, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", path, err)
	}
	return img, nil
}

// fit scales src into bounds keeping its aspect ratio and centers it on a
// white canvas.
func fit(src image.Image, bounds image.Rectangle) *image.Gray {
	dst := image.NewGray(bounds)
	draw.Draw(dst, bounds, &image.Uniform{color.White}, image.Point{}, draw.Src)
	sb := src.Bounds()
	if sb.Empty() {
		return dst
	}
	scale := min(float64(bounds.Dx())/float64(sb.Dx()), float64(bounds.Dy())/float64(sb.Dy()))
	w := int(float64(sb.Dx()) * scale)
	h := int(float64(sb.Dy()) * scale)
	x0 := bounds.Min.X + (bounds.Dx()-w)/2
	y0 := bounds.Min.Y + (bounds.Dy()-h)/2
	draw.ApproxBiLinear.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), src, sb, draw.Over, nil)
	return dst
}
