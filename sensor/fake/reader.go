package fake

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"essaim.dev/kinect2/sensor"
)

const frameDuration = time.Second / 30

var errReaderClosed = errors.New("reader closed")

type reader struct {
	backend *Backend
	kind    sensor.Kind
	gen     Generator

	mu     sync.Mutex
	desc   sensor.Description
	fps    int
	seq    uint64
	last   time.Time
	closed bool
}

func (r *reader) Description() sensor.Description {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.desc
}

func (r *reader) AcquireLatestFrame() (*sensor.Frame, error) {
	if hook := r.backend.acquireHook; hook != nil {
		hook(r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("could not acquire %s frame: %w", r.kind, errReaderClosed)
	}

	now := r.backend.clock.Now()
	if r.backend.interval > 0 && !r.last.IsZero() && now.Sub(r.last) < r.backend.interval {
		return nil, sensor.ErrNoFrame
	}

	r.seq++
	frame, err := r.gen(r.seq, r.desc)
	if err != nil {
		return nil, err
	}
	r.last = now

	if frame.Kind == 0 {
		frame.Kind = r.kind
	}
	if frame.Timestamp == 0 {
		frame.Timestamp = time.Duration(r.seq) * frameDuration
	}
	if frame.Width == 0 && frame.Height == 0 {
		frame.Description = r.desc
	}

	return frame, nil
}

func (r *reader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.backend.forget(r)
	return nil
}

func (r *reader) ExposureTime() time.Duration {
	return 10 * time.Millisecond
}

func (r *reader) FrameInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fps > 0 {
		return time.Second / time.Duration(r.fps)
	}
	return frameDuration
}

func (r *reader) Gain() float64 {
	return 1
}

func (r *reader) Gamma() float64 {
	return 2.2
}

// modeReader is a reader that accepts mode changes.
type modeReader struct {
	*reader
}

func (r *modeReader) SetMode(mode sensor.Mode) error {
	if mode.Width < 0 || mode.Height < 0 || mode.FPS < 0 {
		return fmt.Errorf("invalid mode %dx%d@%d", mode.Width, mode.Height, mode.FPS)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if mode.Width > 0 {
		r.desc.Width = mode.Width
	}
	if mode.Height > 0 {
		r.desc.Height = mode.Height
	}
	r.fps = mode.FPS

	return nil
}
