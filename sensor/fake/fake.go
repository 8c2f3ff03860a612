// Package fake implements a synthetic depth camera backend. By default it
// generates moving test patterns for every sensor kind; options replace the
// generators with scripted frames and inject failures.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"essaim.dev/kinect2/sensor"
)

// Generator produces the frame with the given sequence number, starting at 1.
// Returning sensor.ErrNoFrame means nothing new is ready.
type Generator func(seq uint64, desc sensor.Description) (*sensor.Frame, error)

type Option func(*Backend)

// WithClock sets the clock used to pace frames.
func WithClock(c clock.Clock) Option {
	return func(b *Backend) {
		b.clock = c
	}
}

// WithFrameInterval makes readers report sensor.ErrNoFrame until d has passed
// since their previous frame.
func WithFrameInterval(d time.Duration) Option {
	return func(b *Backend) {
		b.interval = d
	}
}

func WithDescription(kind sensor.Kind, desc sensor.Description) Option {
	return func(b *Backend) {
		b.descriptions[kind] = desc
	}
}

func WithGenerator(kind sensor.Kind, gen Generator) Option {
	return func(b *Backend) {
		b.generators[kind] = gen
	}
}

// WithFrames scripts the frames returned for kind, in order.
func WithFrames(kind sensor.Kind, frames ...*sensor.Frame) Option {
	return WithGenerator(kind, func(seq uint64, _ sensor.Description) (*sensor.Frame, error) {
		if seq == 0 || seq > uint64(len(frames)) {
			return nil, sensor.ErrNoFrame
		}
		return frames[seq-1], nil
	})
}

// WithUnavailable makes Open fail as if no device were connected.
func WithUnavailable() Option {
	return func(b *Backend) {
		b.unavailable = true
	}
}

// WithReaderError makes OpenReader fail for kind.
func WithReaderError(kind sensor.Kind, err error) Option {
	return func(b *Backend) {
		b.readerErrs[kind] = err
	}
}

// WithReconfigurable makes readers of the given kinds implement sensor.ModeSetter.
func WithReconfigurable(kinds ...sensor.Kind) Option {
	return func(b *Backend) {
		for _, k := range kinds {
			b.reconfigurable[k] = true
		}
	}
}

// WithAcquireHook runs fn at the start of every AcquireLatestFrame call.
func WithAcquireHook(fn func(kind sensor.Kind)) Option {
	return func(b *Backend) {
		b.acquireHook = fn
	}
}

type Backend struct {
	mu      sync.Mutex
	open    bool
	readers map[*reader]struct{}

	clock          clock.Clock
	interval       time.Duration
	unavailable    bool
	descriptions   map[sensor.Kind]sensor.Description
	generators     map[sensor.Kind]Generator
	readerErrs     map[sensor.Kind]error
	reconfigurable map[sensor.Kind]bool
	acquireHook    func(kind sensor.Kind)

	logger *logrus.Entry
}

func New(opts ...Option) *Backend {
	b := &Backend{
		readers:        make(map[*reader]struct{}),
		clock:          clock.New(),
		descriptions:   defaultDescriptions(),
		generators:     make(map[sensor.Kind]Generator),
		readerErrs:     make(map[sensor.Kind]error),
		reconfigurable: make(map[sensor.Kind]bool),
		logger:         logrus.WithField("component", "fake-sensor"),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Backend) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.unavailable {
		return fmt.Errorf("could not find a fake sensor: %w", sensor.ErrUnavailable)
	}

	b.open = true
	b.logger.Debug("Fake sensor opened")
	return nil
}

func (b *Backend) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.open
}

func (b *Backend) OpenReader(kind sensor.Kind) (sensor.Reader, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil, fmt.Errorf("could not open %s reader: %w", kind, sensor.ErrUnavailable)
	}
	if err := b.readerErrs[kind]; err != nil {
		return nil, fmt.Errorf("could not open %s reader: %w", kind, err)
	}

	gen, ok := b.generators[kind]
	if !ok {
		gen, ok = defaultGenerator(kind)
	}
	if !ok {
		return nil, fmt.Errorf("could not open %s reader: %w", kind, sensor.ErrUnsupported)
	}

	r := &reader{
		backend: b,
		kind:    kind,
		desc:    b.descriptions[kind],
		gen:     gen,
	}
	b.readers[r] = struct{}{}

	if b.reconfigurable[kind] {
		return &modeReader{reader: r}, nil
	}
	return r, nil
}

func (b *Backend) CoordinateMapper() (sensor.CoordinateMapper, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil, fmt.Errorf("could not get coordinate mapper: %w", sensor.ErrUnavailable)
	}

	return NewMapper(b.descriptions[sensor.KindDepth], b.descriptions[sensor.KindColor]), nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	readers := make([]*reader, 0, len(b.readers))
	for r := range b.readers {
		readers = append(readers, r)
	}
	b.open = false
	b.mu.Unlock()

	for _, r := range readers {
		r.Close()
	}

	return nil
}

func (b *Backend) forget(r *reader) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.readers, r)
}

func defaultDescriptions() map[sensor.Kind]sensor.Description {
	depth := sensor.Description{Width: 512, Height: 424, HorizontalFOV: 70.6, VerticalFOV: 60, DiagonalFOV: 89.5}

	return map[sensor.Kind]sensor.Description{
		sensor.KindColor:                {Width: 640, Height: 360, HorizontalFOV: 84.1, VerticalFOV: 53.8, DiagonalFOV: 91.9},
		sensor.KindDepth:                depth,
		sensor.KindInfrared:             depth,
		sensor.KindLongExposureInfrared: depth,
		sensor.KindBodyIndex:            depth,
		sensor.KindBody:                 depth,
	}
}
