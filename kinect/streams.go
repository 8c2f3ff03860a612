package kinect

import (
	"fmt"
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"essaim.dev/kinect2/pixels"
	"essaim.dev/kinect2/sensor"
)

// ColorStream publishes RGBA color frames.
type ColorStream struct {
	*Stream[uint8]
}

func NewColorStream(opts ...StreamOption) *ColorStream {
	return &ColorStream{
		Stream: newStream(sensor.KindColor, capabilities[uint8]{
			channels: 4,
			convert:  convertColor,
			image:    func(b pixels.Buffer[uint8]) image.Image { return pixels.ToRGBA(b) },
		}, opts),
	}
}

func convertColor(f *sensor.Frame, dst *pixels.Buffer[uint8]) error {
	dst.Allocate(f.Width, f.Height, 4)

	need := dst.Len()
	if f.Format == sensor.FormatYUY2 {
		need /= 2
	}
	if len(f.Color) != need {
		return fmt.Errorf("color frame holds %d bytes, need %d", len(f.Color), need)
	}

	switch f.Format {
	case sensor.FormatRGBA:
		copy(dst.Pix, f.Color)
		return nil
	case sensor.FormatBGRA:
		return pixels.BGRAToRGBA(f.Color, dst.Pix)
	case sensor.FormatYUY2:
		return pixels.YUY2ToRGBA(f.Color, dst.Pix)
	default:
		return fmt.Errorf("unsupported color format %d", f.Format)
	}
}

// CameraSettings returns the color camera state when the reader exposes it.
func (s *ColorStream) CameraSettings() (sensor.CameraSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reader == nil {
		return nil, fmt.Errorf("could not get camera settings: %w", ErrNotOpen)
	}

	settings, ok := s.reader.(sensor.CameraSettings)
	if !ok {
		return nil, fmt.Errorf("could not get camera settings: %w", sensor.ErrUnsupported)
	}

	return settings, nil
}

func convertDepth(f *sensor.Frame, dst *pixels.Buffer[uint16]) error {
	return dst.SetFrom(f.Depth, f.Width, f.Height, 1)
}

func grayImage(b pixels.Buffer[uint16]) image.Image {
	return pixels.ToGray16(b)
}

// depthRange is the remap applied on Update by depth-like streams.
type depthRange struct {
	near   int
	far    int
	invert bool
}

func (r *depthRange) process(src pixels.Buffer[uint16], dst *pixels.Buffer[uint16]) {
	pixels.RemapDepth(src, dst, r.near, r.far, r.invert)
}

const (
	DefaultDepthNear = 0
	DefaultDepthFar  = 10000
)

// DepthStream publishes 16-bit depth in millimeters. Update remaps it into the
// full 16-bit range between near and far.
type DepthStream struct {
	*Stream[uint16]

	// Guarded by the frame lock.
	remap     *depthRange
	autoRange bool
}

func NewDepthStream(opts ...StreamOption) *DepthStream {
	r := &depthRange{near: DefaultDepthNear, far: DefaultDepthFar}
	s := &DepthStream{remap: r}
	s.Stream = newStream(sensor.KindDepth, capabilities[uint16]{
		channels: 1,
		convert: func(f *sensor.Frame, dst *pixels.Buffer[uint16]) error {
			if err := convertDepth(f, dst); err != nil {
				return err
			}
			if s.autoRange && f.MaxReliableDistance > f.MinReliableDistance {
				r.near = int(f.MinReliableDistance)
				r.far = int(f.MaxReliableDistance)
			}
			return nil
		},
		process: r.process,
		image:   grayImage,
	}, opts)
	return s
}

func (s *DepthStream) SetNear(near int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remap.near = near
}

func (s *DepthStream) SetFar(far int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remap.far = far
}

func (s *DepthStream) SetInvert(invert bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remap.invert = invert
}

// SetAutoRange makes each frame's reliable distance range replace near and far.
func (s *DepthStream) SetAutoRange(auto bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.autoRange = auto
}

func (s *DepthStream) Range() (near, far int, invert bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.remap.near, s.remap.far, s.remap.invert
}

// RemappedPixels remaps the latest published frame with the given range,
// leaving the stream settings untouched.
func (s *DepthStream) RemappedPixels(near, far int, invert bool) pixels.Buffer[uint16] {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := pixels.Buffer[uint16]{}
	pixels.RemapDepth(*s.buffers.Front(), &out, near, far, invert)
	return out
}

// ColorSpacePoints maps every pixel of the latest depth frame into the color image.
func (s *DepthStream) ColorSpacePoints() ([]r2.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapper, front, err := s.mapperAndFront()
	if err != nil {
		return nil, err
	}

	return mapper.DepthFrameToColor(front.Pix, front.Width, front.Height)
}

// CameraSpacePoints lifts every pixel of the latest depth frame into camera
// space, in meters.
func (s *DepthStream) CameraSpacePoints() ([]r3.Vector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapper, front, err := s.mapperAndFront()
	if err != nil {
		return nil, err
	}

	return mapper.DepthFrameToCamera(front.Pix, front.Width, front.Height)
}

func (s *DepthStream) mapperAndFront() (sensor.CoordinateMapper, *pixels.Buffer[uint16], error) {
	if s.owner == nil {
		return nil, nil, fmt.Errorf("could not map depth frame: %w", ErrNotSetup)
	}

	mapper := s.owner.Mapper()
	if mapper == nil {
		return nil, nil, fmt.Errorf("could not map depth frame: depth/color sync disabled: %w", sensor.ErrUnsupported)
	}

	front := s.buffers.Front()
	if !front.IsAllocated() {
		return nil, nil, fmt.Errorf("could not map depth frame: %w", sensor.ErrNoFrame)
	}

	return mapper, front, nil
}

const (
	DefaultInfraredNear = 0
	DefaultInfraredFar  = pixels.MaxValue
)

// InfraredStream publishes 16-bit infrared intensity, remapped on Update like depth.
type InfraredStream struct {
	*Stream[uint16]

	remap *depthRange
}

func NewInfraredStream(opts ...StreamOption) *InfraredStream {
	return newInfraredStream(sensor.KindInfrared, opts)
}

// NewLongExposureInfraredStream reads the long exposure infrared channel.
func NewLongExposureInfraredStream(opts ...StreamOption) *InfraredStream {
	return newInfraredStream(sensor.KindLongExposureInfrared, opts)
}

func newInfraredStream(kind sensor.Kind, opts []StreamOption) *InfraredStream {
	r := &depthRange{near: DefaultInfraredNear, far: DefaultInfraredFar}
	return &InfraredStream{
		Stream: newStream(kind, capabilities[uint16]{
			channels: 1,
			convert:  convertDepth,
			process:  r.process,
			image:    grayImage,
		}, opts),
		remap: r,
	}
}

func (s *InfraredStream) SetRange(near, far int, invert bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remap.near, s.remap.far, s.remap.invert = near, far, invert
}

// BodyIndexStream publishes a two-valued mask: tracked players black,
// background white.
type BodyIndexStream struct {
	*Stream[uint16]
}

func NewBodyIndexStream(opts ...StreamOption) *BodyIndexStream {
	return &BodyIndexStream{
		Stream: newStream(sensor.KindBodyIndex, capabilities[uint16]{
			channels: 1,
			convert: func(f *sensor.Frame, dst *pixels.Buffer[uint16]) error {
				dst.Allocate(f.Width, f.Height, 1)
				if len(f.BodyIndex) < dst.Len() {
					return fmt.Errorf("body index frame holds %d bytes, need %d", len(f.BodyIndex), dst.Len())
				}
				pixels.BodyIndexMask(f.BodyIndex[:dst.Len()], dst.Pix)
				return nil
			},
			image: grayImage,
		}, opts),
	}
}
