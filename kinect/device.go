// Package kinect runs depth camera streams. A Device owns a sensor backend and
// the streams registered with it; every stream acquires frames on its own
// goroutine and hands them to the consumer through a double buffer.
//
// The consumer calls Device.Update once per tick, then reads the streams.
package kinect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"essaim.dev/kinect2/sensor"
)

type Device struct {
	clock        clock.Clock
	closeTimeout time.Duration
	pollInterval time.Duration
	logger       *logrus.Entry

	mu        sync.Mutex
	backend   sensor.Backend
	open      bool
	sources   map[*source]struct{}
	mapper    sensor.CoordinateMapper
	listeners []func()
}

func NewDevice(opts ...Option) *Device {
	d := &Device{
		clock:        clock.New(),
		closeTimeout: defaultCloseTimeout,
		pollInterval: defaultPollInterval,
		logger:       logrus.WithField("component", "kinect"),
		sources:      make(map[*source]struct{}),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Setup opens backend if needed and takes ownership of it. On failure the
// device stays closed and the caller keeps the backend.
func (d *Device) Setup(ctx context.Context, backend sensor.Backend) error {
	if backend == nil {
		d.logger.Warn("No sensor backend")
		return fmt.Errorf("could not set up device: %w", sensor.ErrUnavailable)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.open {
		return fmt.Errorf("could not set up device: already open")
	}

	if !backend.IsOpen() {
		if err := backend.Open(ctx); err != nil {
			d.logger.WithError(err).Warn("Could not open sensor")
			return fmt.Errorf("could not open sensor: %w", err)
		}
	}

	d.backend = backend
	d.open = true
	d.logger.Info("Device opened")

	return nil
}

func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.open && d.backend.IsOpen()
}

func (d *Device) Backend() sensor.Backend {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.backend
}

// Update runs the consumer side of every registered stream, then the
// OnUpdate listeners.
func (d *Device) Update() {
	d.mu.Lock()
	sources := make([]*source, 0, len(d.sources))
	for s := range d.sources {
		sources = append(sources, s)
	}
	listeners := append([]func(){}, d.listeners...)
	d.mu.Unlock()

	for _, s := range sources {
		s.Update()
	}
	for _, fn := range listeners {
		fn()
	}
}

// OnUpdate registers fn to run at the end of every Update.
func (d *Device) OnUpdate(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners = append(d.listeners, fn)
}

// SetDepthColorSyncEnabled acquires or drops the coordinate mapper used to
// project bodies and depth pixels into color space.
func (d *Device) SetDepthColorSyncEnabled(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !enabled {
		d.mapper = nil
		return nil
	}

	if !d.open {
		d.logger.Warn("Device is not open, depth/color sync not enabled")
		return fmt.Errorf("could not enable depth/color sync: %w", ErrNotOpen)
	}

	mapper, err := d.backend.CoordinateMapper()
	if err != nil {
		d.logger.WithError(err).Warn("Could not get coordinate mapper")
		return fmt.Errorf("could not get coordinate mapper: %w", err)
	}

	d.mapper = mapper
	return nil
}

func (d *Device) IsDepthColorSyncEnabled() bool {
	return d.Mapper() != nil
}

// Mapper returns the coordinate mapper, or nil when depth/color sync is disabled.
func (d *Device) Mapper() sensor.CoordinateMapper {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.mapper
}

// projectionMapper is the sync mapper when depth/color sync is enabled and
// the backend's own mapper otherwise. It is nil when neither is available.
func (d *Device) projectionMapper() sensor.CoordinateMapper {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mapper != nil {
		return d.mapper
	}
	if !d.open {
		d.logger.Warn("Device is not open, bodies not projected")
		return nil
	}

	mapper, err := d.backend.CoordinateMapper()
	if err != nil {
		d.logger.WithError(err).Warn("Could not get coordinate mapper, bodies not projected")
		return nil
	}
	return mapper
}

func (d *Device) NumStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.sources)
}

// Close exits every registered stream, then closes the backend.
func (d *Device) Close() error {
	var err error

	for attempts := 0; ; attempts++ {
		s, ok := d.anySource()
		if !ok {
			break
		}

		if attempts >= maxTeardownAttempts {
			d.logger.WithFields(logrus.Fields{
				"attempts":  attempts,
				"remaining": d.NumStreams(),
			}).Error("Streams did not deregister, aborting teardown")
			d.mu.Lock()
			d.sources = make(map[*source]struct{})
			d.mu.Unlock()
			break
		}

		err = multierr.Append(err, s.Exit())
	}

	d.mu.Lock()
	backend := d.backend
	d.backend = nil
	d.mapper = nil
	d.open = false
	d.mu.Unlock()

	if backend != nil {
		if cerr := backend.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("could not close sensor: %w", cerr))
		}
		d.logger.Info("Device closed")
	}

	return err
}

func (d *Device) anySource() (*source, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for s := range d.sources {
		return s, true
	}
	return nil, false
}

func (d *Device) register(s *source) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.sources[s] = struct{}{}
}

func (d *Device) deregister(s *source) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.sources, s)
}
