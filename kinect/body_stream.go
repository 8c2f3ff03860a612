package kinect

import (
	"fmt"
	"image"

	"essaim.dev/kinect2/sensor"
)

// BodyStream tracks the skeletons reported by the body reader.
//
// Every frame replaces all bodies. Tracking ids are not reconciled between
// frames, so a Body value is only valid until the next frame; use ID to follow
// a person over time.
type BodyStream struct {
	source

	bodies   []*Body
	viewport image.Point
}

func NewBodyStream(opts ...StreamOption) *BodyStream {
	s := &BodyStream{}
	s.init(sensor.KindBody, s, opts)
	return s
}

func (s *BodyStream) setFrame(f *sensor.Frame) error {
	if len(f.Bodies) > sensor.BodyCount {
		return fmt.Errorf("body frame holds %d bodies, at most %d expected", len(f.Bodies), sensor.BodyCount)
	}

	bodies := make([]*Body, 0, len(f.Bodies))
	for _, candidate := range f.Bodies {
		if !candidate.Tracked {
			continue
		}

		b := &Body{}
		b.Setup(s.owner, candidate)
		b.SetViewport(s.viewport)
		b.Update()
		bodies = append(bodies, b)
	}

	s.bodies = bodies
	return nil
}

// consume projects every body again so they follow viewport changes.
func (s *BodyStream) consume(bool) {
	for _, b := range s.bodies {
		b.SetViewport(s.viewport)
		b.Update()
	}
}

func (s *BodyStream) reset() {
	s.bodies = nil
}

// SetViewport sets the size joints are projected into on the next Update.
func (s *BodyStream) SetViewport(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport = image.Pt(width, height)
}

func (s *BodyStream) NumBodies() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.bodies)
}

// Bodies returns copies of the tracked bodies.
func (s *BodyStream) Bodies() []Body {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Body, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = *b
	}
	return out
}

func (s *BodyStream) BodyAt(idx int) (Body, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx < 0 || idx >= len(s.bodies) {
		return Body{}, false
	}
	return *s.bodies[idx], true
}

// Body returns the body with the given tracking id.
func (s *BodyStream) Body(id uint64) (Body, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bodies {
		if b.id == id {
			return *b, true
		}
	}
	return Body{}, false
}
