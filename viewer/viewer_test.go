package viewer

import (
	"context"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"
)

func uniform(c color.Color, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func assertColor(t *testing.T, want color.RGBA, got color.Color) {
	t.Helper()

	r, g, b, a := got.RGBA()
	assert.InDelta(t, want.R, r>>8, 2)
	assert.InDelta(t, want.G, g>>8, 2)
	assert.InDelta(t, want.B, b>>8, 2)
	assert.InDelta(t, want.A, a>>8, 2)
}

func TestCompose(t *testing.T) {
	tiles := []Tile{
		{Label: "depth", Image: uniform(colornames.Red, 10, 10)},
		{Image: uniform(colornames.Blue, 40, 20)},
		{Label: "empty"},
	}

	img := Compose(image.Pt(200, 200), 2, tiles)
	require.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())

	assertColor(t, colornames.Red, img.At(50, 60))
	assertColor(t, colornames.Blue, img.At(150, 60))
	assert.Equal(t, colornames.Black, img.At(150, 160))

	hasLabel := func(r image.Rectangle) bool {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if img.At(x, y) == color.Color(colornames.White) {
					return true
				}
			}
		}
		return false
	}
	assert.True(t, hasLabel(image.Rect(0, 0, 60, 16)))
	assert.True(t, hasLabel(image.Rect(0, 100, 60, 116)))
	assert.False(t, hasLabel(image.Rect(100, 0, 160, 16)))
}

func TestComposeEmpty(t *testing.T) {
	img := Compose(image.Pt(10, 10), 3, nil)
	assert.Equal(t, colornames.Black, img.At(5, 5))
}

func TestFit(t *testing.T) {
	src := uniform(colornames.Green, 4, 4)
	assert.Same(t, src, Fit(src, image.Pt(4, 4)))

	scaled := Fit(src, image.Pt(8, 2))
	assert.Equal(t, image.Rect(0, 0, 8, 2), scaled.Bounds())
	assertColor(t, colornames.Green, scaled.At(7, 1))

	assert.Equal(t, image.Rect(0, 0, 3, 3), Fit(nil, image.Pt(3, 3)).Bounds())
}

func TestRunRefreshes(t *testing.T) {
	rendered := make(chan struct{}, 1)
	v := New("test", image.Pt(16, 8), func() image.Image {
		select {
		case rendered <- struct{}{}:
		default:
		}
		return uniform(colornames.Red, 4, 4)
	}, WithRefreshRate(time.Millisecond))
	assert.Equal(t, image.Pt(16, 8), v.Size())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- v.Run(ctx)
	}()

	select {
	case img := <-v.frames:
		assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
	case <-time.After(2 * time.Second):
		t.Fatal("no frame rendered")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestRunStopsWithDisplay(t *testing.T) {
	v := New("test", image.Pt(4, 4), func() image.Image { return nil }, WithRefreshRate(time.Hour))

	v.stopped <- nil
	assert.NoError(t, v.Run(context.Background()))
}

type eventQueue struct {
	events chan interface{}
}

func (q *eventQueue) Send(event interface{}) {
	q.events <- event
}

func (q *eventQueue) SendFirst(event interface{}) {
	q.events <- event
}

func (q *eventQueue) NextEvent() interface{} {
	return <-q.events
}

func TestForwardFramesEndsWithRun(t *testing.T) {
	v := New("test", image.Pt(2, 2), func() image.Image {
		return uniform(colornames.Green, 2, 2)
	}, WithRefreshRate(time.Millisecond))

	q := &eventQueue{events: make(chan interface{}, 1)}
	forwarded := make(chan struct{})
	go func() {
		forwardFrames(q, v.frames)
		close(forwarded)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- v.Run(ctx)
	}()

	select {
	case e := <-q.events:
		require.IsType(t, frameEvent{}, e)
		assertColor(t, colornames.Green, e.(frameEvent).frame.At(1, 1))
	case <-time.After(2 * time.Second):
		t.Fatal("no frame forwarded")
	}

	cancel()
	require.NoError(t, <-done)

	// Drain a frame sent before Run noticed ctx.
	go func() {
		for range q.events {
		}
	}()

	select {
	case <-forwarded:
	case <-time.After(2 * time.Second):
		t.Fatal("frame forwarding did not stop")
	}
}
