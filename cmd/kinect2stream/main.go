package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/netip"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"

	"essaim.dev/kinect2/config"
	"essaim.dev/kinect2/depthstream"
	"essaim.dev/kinect2/kinect"
	"essaim.dev/kinect2/sensor/fake"
)

var (
	configFlag     string
	streamAddrFlag string
	thresholdFlag  uint
)

func init() {
	flag.StringVar(&configFlag, "config", "", "path to a yaml configuration file")
	flag.StringVar(&streamAddrFlag, "stream-addr", "", "multicast address and port the depth mask is sent to, overrides the configuration")
	flag.UintVar(&thresholdFlag, "threshold", 0, "depth threshold in millimeters, overrides the configuration")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logrus.WithError(err).Fatal("kinect2stream stopped")
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

	if streamAddrFlag != "" {
		cfg.Publish.Address = streamAddrFlag
	}
	if thresholdFlag > 0 {
		threshold, err := depthThreshold(thresholdFlag)
		if err != nil {
			return err
		}
		cfg.Publish.Threshold = threshold
	}

	addr, err := netip.ParseAddrPort(cfg.Publish.Address)
	if err != nil {
		return fmt.Errorf("could not parse stream address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	device := kinect.NewDevice(
		kinect.WithCloseTimeout(cfg.CloseTimeout),
		kinect.WithPollInterval(cfg.PollInterval),
	)
	if err := device.Setup(ctx, fake.New(fake.WithFrameInterval(time.Second/30))); err != nil {
		return fmt.Errorf("could not set up device: %w", err)
	}
	defer device.Close()

	depth := kinect.NewDepthStream(kinect.WithFPS(cfg.Depth.FPS))
	if err := depth.Setup(device); err != nil {
		return err
	}
	if err := depth.Open(); err != nil {
		return err
	}

	server, err := depthstream.NewServer(addr, depth)
	if err != nil {
		return fmt.Errorf("could not create depth stream server: %w", err)
	}
	defer server.Close()
	server.SetDepthThreshold(cfg.Publish.Threshold)

	logrus.WithFields(logrus.Fields{
		"addr":      addr,
		"threshold": cfg.Publish.Threshold,
	}).Info("Publishing depth mask")

	return server.Run(ctx)
}

func depthThreshold(v uint) (uint16, error) {
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("threshold %d is out of range, max is %d", v, math.MaxUint16)
	}
	return uint16(v), nil
}
