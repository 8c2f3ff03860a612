package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"net/netip"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/image/colornames"

	"essaim.dev/kinect2/depthstream"
	"essaim.dev/kinect2/viewer"
)

var (
	streamAddrFlag string
	widthFlag      int
	heightFlag     int
)

func init() {
	flag.StringVar(&streamAddrFlag, "stream-addr", "224.76.78.75:20810", "multicast address and port the depth mask is received on")
	flag.IntVar(&widthFlag, "width", 512, "window width")
	flag.IntVar(&heightFlag, "height", 424, "window height")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logrus.WithError(err).Fatal("kinect2streamview stopped")
	}
}

func run() error {
	addr, err := netip.ParseAddrPort(streamAddrFlag)
	if err != nil {
		return fmt.Errorf("could not parse stream address: %w", err)
	}

	client, err := depthstream.NewClient(addr)
	if err != nil {
		return fmt.Errorf("could not create depth stream client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := client.Run(ctx); err != nil {
			logrus.WithError(err).Error("Depth stream client stopped")
		}
	}()

	v := viewer.New("kinect2 depth mask", image.Pt(widthFlag, heightFlag), func() image.Image {
		return client.RenderImage(colornames.White)
	})

	viewerStopped := make(chan error, 1)
	go func() {
		viewerStopped <- v.Run(ctx)
	}()

	driver.Main(v.Display)

	cancel()
	return <-viewerStopped
}
