package kinect

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"essaim.dev/kinect2/sensor"
)

// State is the lifecycle state of a stream.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateRunning
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateRunning:
		return "running"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// handler is the per-kind part of a stream. All methods are called with the
// frame lock held.
type handler interface {
	// setFrame converts f into the back buffer and publishes it.
	setFrame(f *sensor.Frame) error
	// consume runs on every Update. fresh is set when a frame was published
	// since the previous call.
	consume(fresh bool)
	// reset releases buffers when the stream closes.
	reset()
}

// source is the lifecycle shared by every stream: registration with a
// device, one acquisition goroutine, and frame freshness.
type source struct {
	kind sensor.Kind
	h    handler

	stateMu sync.Mutex
	state   State
	stop    chan struct{}
	done    chan struct{}

	device       *Device
	clock        clock.Clock
	closeTimeout time.Duration
	pollInterval time.Duration
	logger       *logrus.Entry

	// mu is the frame lock. The worker holds it for one read, consumers for
	// one update or accessor call.
	mu          sync.Mutex
	owner       *Device
	reader      sensor.Reader
	desc        sensor.Description
	published   time.Duration
	consumed    time.Duration
	needsUpdate bool
	fps         int
	mirror      bool
}

func (s *source) init(kind sensor.Kind, h handler, opts []StreamOption) {
	s.kind = kind
	s.h = h
	s.clock = clock.New()
	s.closeTimeout = defaultCloseTimeout
	s.pollInterval = defaultPollInterval
	s.logger = logrus.WithField("stream", kind.String())

	for _, opt := range opts {
		opt(s)
	}
}

// Setup registers the stream with an open device.
func (s *source) Setup(d *Device) error {
	if d == nil || !d.IsOpen() {
		s.logger.Warn("Device is not open, stream not set up")
		return fmt.Errorf("could not set up %s stream: %w", s.kind, ErrNotOpen)
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.state != StateClosed {
		return fmt.Errorf("could not set up %s stream: stream is %s", s.kind, s.state)
	}
	if s.device != nil && s.device != d {
		s.device.deregister(s)
	}

	s.device = d
	s.clock = d.clock
	s.closeTimeout = d.closeTimeout
	s.pollInterval = d.pollInterval
	s.logger = d.logger.WithField("stream", s.kind.String())

	s.mu.Lock()
	s.owner = d
	s.resetFrame()
	s.mu.Unlock()

	d.register(s)
	return nil
}

// Open acquires a frame reader from the device backend and starts the worker.
func (s *source) Open() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	switch {
	case s.state == StateRunning:
		return nil
	case s.state == StateClosing:
		return fmt.Errorf("could not open %s stream: %w", s.kind, ErrWorkerStuck)
	case s.kind < sensor.KindColor || s.kind > sensor.KindBody:
		return fmt.Errorf("could not open stream of kind %d: %w", s.kind, sensor.ErrUnsupported)
	case s.device == nil:
		s.logger.Warn("Stream is not set up")
		return fmt.Errorf("could not open %s stream: %w", s.kind, ErrNotSetup)
	case !s.device.IsOpen():
		s.logger.Warn("Device is not open")
		return fmt.Errorf("could not open %s stream: %w", s.kind, ErrNotOpen)
	}

	s.state = StateOpening

	reader, err := s.device.Backend().OpenReader(s.kind)
	if err != nil {
		s.state = StateClosed
		s.logger.WithError(err).Warn("Could not open reader")
		return fmt.Errorf("could not open %s reader: %w", s.kind, err)
	}

	desc := reader.Description()

	s.mu.Lock()
	s.reader = reader
	s.desc = desc
	s.mu.Unlock()

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.state = StateRunning

	go s.run(s.stop, s.done)

	s.logger.WithFields(logrus.Fields{
		"width":  desc.Width,
		"height": desc.Height,
	}).Debug("Stream opened")
	return nil
}

func (s *source) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		err := s.ReadFrame(nil)

		wait := s.wait(err)
		if wait <= 0 {
			continue
		}

		timer := s.clock.Timer(wait)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// wait returns how long the worker sleeps after a read that returned err.
func (s *source) wait(err error) time.Duration {
	s.mu.Lock()
	fps := s.fps
	s.mu.Unlock()

	switch {
	case fps > 0:
		return time.Second / time.Duration(fps)
	case err != nil:
		return s.pollInterval
	default:
		return 0
	}
}

// Close stops the worker and releases the reader. It waits at most the close
// timeout for the worker to exit.
func (s *source) Close() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	switch s.state {
	case StateClosed:
		return nil
	case StateRunning:
		s.state = StateClosing
		close(s.stop)
	}

	timer := s.clock.Timer(s.closeTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		s.logger.WithField("timeout", s.closeTimeout).Error("Worker did not stop")
		return fmt.Errorf("could not close %s stream: %w", s.kind, ErrWorkerStuck)
	}

	s.mu.Lock()
	reader := s.reader
	s.reader = nil
	s.h.reset()
	s.resetFrame()
	s.mu.Unlock()

	s.state = StateClosed
	s.logger.Debug("Stream closed")

	if reader != nil {
		if err := reader.Close(); err != nil {
			return fmt.Errorf("could not close %s reader: %w", s.kind, err)
		}
	}

	return nil
}

// Exit closes the stream and removes it from its device.
func (s *source) Exit() error {
	err := s.Close()

	s.stateMu.Lock()
	d := s.device
	s.device = nil
	s.mu.Lock()
	s.owner = nil
	s.mu.Unlock()
	s.stateMu.Unlock()

	if d != nil {
		d.deregister(s)
	}

	return err
}

// ReadFrame acquires one frame, from bundle when it is not nil and from the
// stream's reader otherwise, and publishes it.
func (s *source) ReadFrame(bundle sensor.MultiSourceFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		frame *sensor.Frame
		err   error
	)
	switch {
	case bundle != nil:
		frame, err = bundle.Frame(s.kind)
	case s.reader != nil:
		frame, err = s.reader.AcquireLatestFrame()
	default:
		return fmt.Errorf("could not read %s frame: %w", s.kind, ErrNotOpen)
	}

	if errors.Is(err, sensor.ErrNoFrame) {
		return err
	}
	if err == nil && frame == nil {
		return fmt.Errorf("empty %s frame: %w", s.kind, sensor.ErrNoFrame)
	}
	if err != nil {
		s.logger.WithError(err).Warn("Could not acquire frame")
		return fmt.Errorf("could not acquire %s frame: %w", s.kind, err)
	}

	if frame.Timestamp <= 0 || frame.Timestamp <= s.published {
		return fmt.Errorf("could not publish %s frame at %s: %w", s.kind, frame.Timestamp, ErrStaleFrame)
	}

	if err := s.h.setFrame(frame); err != nil {
		s.logger.WithError(err).Warn("Could not convert frame")
		return fmt.Errorf("could not convert %s frame: %w", s.kind, err)
	}

	s.desc = frame.Description
	s.published = frame.Timestamp
	s.needsUpdate = true

	return nil
}

// Update consumes the latest published frame, if any.
func (s *source) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := s.needsUpdate
	s.h.consume(fresh)

	if fresh {
		s.consumed = s.published
		s.needsUpdate = false
	}
}

func (s *source) resetFrame() {
	s.desc = sensor.Description{}
	s.published = 0
	s.consumed = 0
	s.needsUpdate = false
}

func (s *source) Kind() sensor.Kind {
	return s.kind
}

func (s *source) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	return s.state
}

func (s *source) IsOpen() bool {
	return s.State() == StateRunning
}

// IsFrameNew reports whether a frame was published since the last Update.
func (s *source) IsFrameNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.published != s.consumed
}

// Timestamp is the capture time of the last published frame.
func (s *source) Timestamp() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.published
}

func (s *source) Description() sensor.Description {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.desc
}

func (s *source) Width() int {
	return s.Description().Width
}

func (s *source) Height() int {
	return s.Description().Height
}

func (s *source) HorizontalFOV() float64 {
	return s.Description().HorizontalFOV
}

func (s *source) VerticalFOV() float64 {
	return s.Description().VerticalFOV
}

func (s *source) DiagonalFOV() float64 {
	return s.Description().DiagonalFOV
}

func (s *source) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fps
}

func (s *source) SetFPS(fps int) error {
	return s.setMode(func(m *sensor.Mode) {
		m.FPS = fps
	})
}

func (s *source) SetSize(width, height int) error {
	return s.setMode(func(m *sensor.Mode) {
		m.Width = width
		m.Height = height
	})
}

func (s *source) SetWidth(width int) error {
	return s.setMode(func(m *sensor.Mode) {
		m.Width = width
	})
}

func (s *source) SetHeight(height int) error {
	return s.setMode(func(m *sensor.Mode) {
		m.Height = height
	})
}

// setMode reconfigures the reader. Readers that do not implement
// sensor.ModeSetter refuse the change and the current mode is kept.
func (s *source) setMode(apply func(*sensor.Mode)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reader == nil {
		s.logger.Warn("Stream is not open, mode not changed")
		return fmt.Errorf("could not change %s mode: %w", s.kind, ErrNotOpen)
	}

	setter, ok := s.reader.(sensor.ModeSetter)
	if !ok {
		s.logger.Warn("Stream does not support mode changes")
		return fmt.Errorf("could not change %s mode: %w", s.kind, sensor.ErrUnsupported)
	}

	desc := s.reader.Description()
	mode := sensor.Mode{Width: desc.Width, Height: desc.Height, FPS: s.fps}
	apply(&mode)

	if err := setter.SetMode(mode); err != nil {
		s.logger.WithError(err).Warn("Could not change mode")
		return fmt.Errorf("could not change %s mode: %w", s.kind, err)
	}

	s.fps = mode.FPS
	return nil
}

// SetMirror flips consumer images horizontally.
func (s *source) SetMirror(mirror bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mirror = mirror
}

func (s *source) IsMirror() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mirror
}
