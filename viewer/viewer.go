// Package viewer shows rendered frames in a shiny window.
package viewer

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/size"
)

const (
	defaultRefreshRate = time.Duration(time.Millisecond * 33)
)

// RenderFunc renders the next frame. It is called from Run's goroutine.
type RenderFunc func() image.Image

type Option func(*Viewer)

func WithRefreshRate(d time.Duration) Option {
	return func(v *Viewer) {
		v.refreshRate = d
	}
}

func WithClock(c clock.Clock) Option {
	return func(v *Viewer) {
		v.clock = c
	}
}

type Viewer struct {
	title       string
	size        image.Point
	render      RenderFunc
	clock       clock.Clock
	refreshRate time.Duration
	logger      *logrus.Entry

	stopped chan error
	frames  chan *image.RGBA
}

func New(title string, size image.Point, render RenderFunc, opts ...Option) *Viewer {
	v := &Viewer{
		title:       title,
		size:        size,
		render:      render,
		clock:       clock.New(),
		refreshRate: defaultRefreshRate,
		logger:      logrus.WithField("component", "viewer"),
		stopped: make(chan error, 1),
		frames:  make(chan *image.RGBA),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

func (v *Viewer) Size() image.Point {
	return v.size
}

// Run renders a frame every refresh tick and hands it to the window, until
// ctx is done or the window is closed.
func (v *Viewer) Run(ctx context.Context) error {
	refresh := v.clock.Ticker(v.refreshRate)
	defer refresh.Stop()
	defer close(v.frames)

	for {
		select {
		case err := <-v.stopped:
			if err != nil {
				return fmt.Errorf("display stopped with error: %w", err)
			}
			return nil

		case <-refresh.C:
			img := Fit(v.render(), v.size)
			select {
			case v.frames <- img:
			case err := <-v.stopped:
				if err != nil {
					return fmt.Errorf("display stopped with error: %w", err)
				}
				return nil
			case <-ctx.Done():
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// Display runs the window event loop. It is meant for driver.Main.
func (v *Viewer) Display(s screen.Screen) {
	v.stopped <- v.display(s)
}

func (v *Viewer) display(s screen.Screen) error {
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Title:  v.title,
		Width:  v.size.X,
		Height: v.size.Y,
	})
	if err != nil {
		return fmt.Errorf("could not create window: %w", err)
	}
	defer w.Release()

	tex, err := s.NewTexture(v.size)
	if err != nil {
		return fmt.Errorf("could not create texture: %w", err)
	}
	defer tex.Release()

	buf, err := s.NewBuffer(v.size)
	if err != nil {
		return fmt.Errorf("could not create buffer: %w", err)
	}
	defer buf.Release()

	go forwardFrames(w, v.frames)

	target := image.Rectangle{Max: v.size}
	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}

		case key.Event:
			if e.Code == key.CodeEscape && e.Direction == key.DirPress {
				return nil
			}

		case size.Event:
			target = e.Bounds()
			v.logger.WithFields(logrus.Fields{
				"width":  e.WidthPx,
				"height": e.HeightPx,
			}).Debug("Window resized")

		case frameEvent:
			draw.Draw(buf.RGBA(), buf.Bounds(), e.frame, e.frame.Bounds().Min, draw.Src)
			tex.Upload(image.Point{}, buf, buf.Bounds())
		}

		w.Scale(target, tex, tex.Bounds(), draw.Src, nil)
		w.Publish()
	}
}

// forwardFrames posts every frame to the window event queue until frames is
// closed.
func forwardFrames(q screen.EventDeque, frames <-chan *image.RGBA) {
	for frame := range frames {
		q.Send(frameEvent{frame: frame})
	}
}

type frameEvent struct {
	frame *image.RGBA
}
