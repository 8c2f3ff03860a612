package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/image/colornames"

	"essaim.dev/kinect2/config"
	"essaim.dev/kinect2/kinect"
	"essaim.dev/kinect2/sensor/fake"
	"essaim.dev/kinect2/viewer"
)

var (
	configFlag string
	widthFlag  int
	heightFlag int
	colsFlag   int
)

func init() {
	flag.StringVar(&configFlag, "config", "", "path to a yaml configuration file")
	flag.IntVar(&widthFlag, "width", 1280, "window width")
	flag.IntVar(&heightFlag, "height", 720, "window height")
	flag.IntVar(&colsFlag, "cols", 2, "number of tile columns")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logrus.WithError(err).Fatal("kinect2view stopped")
	}
}

func run() error {
	cfg := config.Default()
	if configFlag != "" {
		var err error
		if cfg, err = config.Load(configFlag); err != nil {
			return err
		}
	}
	logrus.SetLevel(cfg.Level())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	device := kinect.NewDevice(
		kinect.WithCloseTimeout(cfg.CloseTimeout),
		kinect.WithPollInterval(cfg.PollInterval),
	)
	if err := device.Setup(ctx, fake.New(fake.WithFrameInterval(time.Second/30))); err != nil {
		return fmt.Errorf("could not set up device: %w", err)
	}
	defer device.Close()

	if cfg.SyncDepthColor {
		if err := device.SetDepthColorSyncEnabled(true); err != nil {
			return err
		}
	}

	size := image.Pt(widthFlag, heightFlag)
	tiles, err := openStreams(device, cfg)
	if err != nil {
		return err
	}

	v := viewer.New("kinect2", size, func() image.Image {
		device.Update()

		out := make([]viewer.Tile, 0, len(tiles))
		for _, t := range tiles {
			out = append(out, viewer.Tile{Label: t.label, Image: t.render()})
		}
		return viewer.Compose(size, colsFlag, out)
	})

	viewerStopped := make(chan error, 1)
	go func() {
		viewerStopped <- v.Run(ctx)
	}()

	driver.Main(v.Display)

	cancel()
	return <-viewerStopped
}

type tile struct {
	label  string
	render func() image.Image
}

func openStreams(device *kinect.Device, cfg *config.Config) ([]tile, error) {
	var tiles []tile

	streamOptions := func(s config.StreamConfig) []kinect.StreamOption {
		return []kinect.StreamOption{kinect.WithFPS(s.FPS), kinect.WithMirror(s.Mirror)}
	}

	if cfg.Color.Enabled {
		color := kinect.NewColorStream(streamOptions(cfg.Color)...)
		if err := setupAndOpen(device, color); err != nil {
			return nil, err
		}
		tiles = append(tiles, tile{"color", color.Image})
	}

	if cfg.Depth.Enabled {
		depth := kinect.NewDepthStream(streamOptions(cfg.Depth.StreamConfig)...)
		depth.SetNear(cfg.Depth.Near)
		depth.SetFar(cfg.Depth.Far)
		depth.SetInvert(cfg.Depth.Invert)
		depth.SetAutoRange(cfg.Depth.AutoRange)
		if err := setupAndOpen(device, depth); err != nil {
			return nil, err
		}
		tiles = append(tiles, tile{"depth", depth.Image})
	}

	if cfg.Infrared.Enabled {
		infrared := kinect.NewInfraredStream(streamOptions(cfg.Infrared.StreamConfig)...)
		infrared.SetRange(cfg.Infrared.Near, cfg.Infrared.Far, cfg.Infrared.Invert)
		if err := setupAndOpen(device, infrared); err != nil {
			return nil, err
		}
		tiles = append(tiles, tile{"infrared", infrared.Image})
	}

	if cfg.BodyIndex.Enabled {
		bodyIndex := kinect.NewBodyIndexStream(streamOptions(cfg.BodyIndex)...)
		if err := setupAndOpen(device, bodyIndex); err != nil {
			return nil, err
		}
		tiles = append(tiles, tile{"body index", func() image.Image {
			img := kinect.MaskImage(bodyIndex.Pixels(), colornames.Orange)
			if bodyIndex.IsMirror() {
				return kinect.Mirror(img)
			}
			return img
		}})
	}

	if cfg.Body.Enabled {
		bodies := kinect.NewBodyStream(streamOptions(cfg.Body)...)
		if err := setupAndOpen(device, bodies); err != nil {
			return nil, err
		}
		tiles = append(tiles, tile{"bodies", func() image.Image {
			size := device.Mapper().ColorFrameSize()
			img := kinect.SkeletonImage(size, bodies.Bodies())
			if bodies.IsMirror() {
				return kinect.Mirror(img)
			}
			return img
		}})
	}

	return tiles, nil
}

type stream interface {
	Setup(d *kinect.Device) error
	Open() error
}

func setupAndOpen(device *kinect.Device, s stream) error {
	if err := s.Setup(device); err != nil {
		return err
	}
	return s.Open()
}
