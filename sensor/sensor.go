// Package sensor defines the contract between the frame pipeline and a depth
// camera backend. A backend enumerates and opens the device, hands out one
// frame reader per sensor kind, and maps points between camera, depth and
// color space.
//
// Backends own their handles. Whoever creates a Backend passes it to the
// device that uses it and closes it through that device.
package sensor

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

var (
	// ErrNoFrame is returned by readers when no new frame is ready yet.
	ErrNoFrame = errors.New("no frame available")
	// ErrUnavailable is returned when no device can be found or opened.
	ErrUnavailable = errors.New("sensor not available")
	// ErrUnsupported is returned for operations a backend does not implement.
	ErrUnsupported = errors.New("operation not supported")
)

// Kind identifies one independently acquired sensor channel.
type Kind int

const (
	KindColor Kind = iota + 1
	KindDepth
	KindInfrared
	KindLongExposureInfrared
	KindBodyIndex
	KindBody
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindDepth:
		return "depth"
	case KindInfrared:
		return "infrared"
	case KindLongExposureInfrared:
		return "long-exposure-infrared"
	case KindBodyIndex:
		return "body-index"
	case KindBody:
		return "body"
	default:
		return "unknown"
	}
}

// PixelFormat is the layout of a color payload.
type PixelFormat int

const (
	FormatNone PixelFormat = iota
	FormatRGBA
	FormatBGRA
	FormatYUY2
)

// Description is the geometry of a frame. Fields of view are in degrees.
type Description struct {
	Width         int
	Height        int
	HorizontalFOV float64
	VerticalFOV   float64
	DiagonalFOV   float64
}

// Mode is a requested stream configuration.
type Mode struct {
	Width  int
	Height int
	FPS    int
}

// Frame is one acquired sample. Only the payload matching Kind is set.
type Frame struct {
	Kind Kind
	// Timestamp is the relative capture time. It is positive and strictly
	// increasing for frames of one reader.
	Timestamp time.Duration
	Description

	Format PixelFormat
	Color  []byte

	// Depth holds depth in millimeters or infrared intensity.
	Depth               []uint16
	MinReliableDistance uint16
	MaxReliableDistance uint16

	BodyIndex []uint8

	Bodies []Body
}

// Backend is an opened or openable depth camera.
type Backend interface {
	Open(ctx context.Context) error
	IsOpen() bool
	OpenReader(kind Kind) (Reader, error)
	CoordinateMapper() (CoordinateMapper, error)
	Close() error
}

// Reader acquires frames of one kind.
type Reader interface {
	// Description is the nominal frame geometry of the reader.
	Description() Description
	// AcquireLatestFrame returns ErrNoFrame when nothing new is ready.
	AcquireLatestFrame() (*Frame, error)
	Close() error
}

// ModeSetter is implemented by readers that can be reconfigured while open.
type ModeSetter interface {
	SetMode(mode Mode) error
}

// CameraSettings is implemented by color readers that expose exposure control state.
type CameraSettings interface {
	ExposureTime() time.Duration
	FrameInterval() time.Duration
	Gain() float64
	Gamma() float64
}

// MultiSourceFrame is a set of frames captured together.
type MultiSourceFrame interface {
	Frame(kind Kind) (*Frame, error)
}

// Bundle is a MultiSourceFrame backed by a map.
type Bundle map[Kind]*Frame

func (b Bundle) Frame(kind Kind) (*Frame, error) {
	f, ok := b[kind]
	if !ok || f == nil {
		return nil, ErrNoFrame
	}
	return f, nil
}

// CoordinateMapper translates between camera space (meters, Y up), depth image
// space and color image space. Points that cannot be mapped come back negative.
type CoordinateMapper interface {
	CameraToColor(p r3.Vector) r2.Point
	CameraToDepth(p r3.Vector) r2.Point
	DepthFrameToColor(depth []uint16, width, height int) ([]r2.Point, error)
	DepthFrameToCamera(depth []uint16, width, height int) ([]r3.Vector, error)
	ColorFrameSize() image.Point
}
