package kinect

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

const (
	defaultCloseTimeout = 2 * time.Second
	defaultPollInterval = 5 * time.Millisecond

	// maxTeardownAttempts bounds the stream teardown loop of Device.Close.
	maxTeardownAttempts = 1000
)

type Option func(*Device)

// WithClock sets the clock streams use for pacing and close timeouts.
func WithClock(c clock.Clock) Option {
	return func(d *Device) {
		d.clock = c
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// WithCloseTimeout bounds how long closing a stream waits for its worker.
func WithCloseTimeout(timeout time.Duration) Option {
	return func(d *Device) {
		d.closeTimeout = timeout
	}
}

// WithPollInterval sets how long an unpaced worker waits after a miss.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Device) {
		d.pollInterval = interval
	}
}

type StreamOption func(*source)

// WithFPS paces the worker to at most fps reads per second. Zero reads as
// fast as frames arrive.
func WithFPS(fps int) StreamOption {
	return func(s *source) {
		if fps >= 0 {
			s.fps = fps
		}
	}
}

// WithMirror starts the stream with mirroring enabled.
func WithMirror(mirror bool) StreamOption {
	return func(s *source) {
		s.mirror = mirror
	}
}
