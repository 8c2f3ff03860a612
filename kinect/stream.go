package kinect

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"essaim.dev/kinect2/doublebuffer"
	"essaim.dev/kinect2/pixels"
	"essaim.dev/kinect2/sensor"
)

// capabilities is what differs between stream kinds.
type capabilities[P pixels.Pixel] struct {
	channels int
	// convert writes the raw payload of f into dst, sized to the frame.
	convert func(f *sensor.Frame, dst *pixels.Buffer[P]) error
	// process derives the consumer buffer from the front buffer. Nil copies.
	process func(src pixels.Buffer[P], dst *pixels.Buffer[P])
	image   func(b pixels.Buffer[P]) image.Image
}

// Stream is a frame source that publishes typed pixel buffers.
type Stream[P pixels.Pixel] struct {
	source

	caps      capabilities[P]
	buffers   doublebuffer.DoubleBuffer[P]
	processed pixels.Buffer[P]
}

func newStream[P pixels.Pixel](kind sensor.Kind, caps capabilities[P], opts []StreamOption) *Stream[P] {
	s := &Stream[P]{caps: caps}
	s.init(kind, s, opts)
	return s
}

func (s *Stream[P]) setFrame(f *sensor.Frame) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", f.Width, f.Height)
	}

	// convert resizes the back slot, so a size change never touches the
	// front slot until the swap.
	s.buffers.Allocate(f.Width, f.Height, s.caps.channels)

	if err := s.caps.convert(f, s.buffers.Back()); err != nil {
		return err
	}

	s.buffers.Swap()
	return nil
}

func (s *Stream[P]) consume(fresh bool) {
	if !fresh {
		return
	}

	front := *s.buffers.Front()
	if s.caps.process == nil {
		s.processed.CopyFrom(front)
		return
	}
	s.caps.process(front, &s.processed)
}

func (s *Stream[P]) reset() {
	s.buffers.Deallocate()
	s.processed.Clear()
}

// Pixels returns a copy of the buffer produced by the last Update.
func (s *Stream[P]) Pixels() pixels.Buffer[P] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.processed.Clone()
}

// FrontPixels returns a copy of the latest published raw buffer, whether or
// not it has been consumed.
func (s *Stream[P]) FrontPixels() pixels.Buffer[P] {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buffers.Front().Clone()
}

// Image renders the buffer produced by the last Update, mirrored when the
// stream is.
func (s *Stream[P]) Image() image.Image {
	s.mu.Lock()
	img := s.caps.image(s.processed)
	mirror := s.mirror
	s.mu.Unlock()

	if mirror {
		return imaging.FlipH(img)
	}
	return img
}
