package kinect

import "errors"

var (
	// ErrNotOpen is returned when the device or stream has not been opened.
	ErrNotOpen = errors.New("not open")
	// ErrNotSetup is returned when a stream is used before Setup.
	ErrNotSetup = errors.New("stream not set up")
	// ErrStaleFrame is returned when a frame is not newer than the last one published.
	ErrStaleFrame = errors.New("stale frame")
	// ErrWorkerStuck is returned by Close when the acquisition goroutine does
	// not stop within the close timeout. The stream stays in StateClosing and
	// Close may be called again.
	ErrWorkerStuck = errors.New("could not stop worker")
)
