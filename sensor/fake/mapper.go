package fake

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"essaim.dev/kinect2/sensor"
)

// Pinhole holds the intrinsics of an ideal camera.
type Pinhole struct {
	Fx, Fy   float64
	Ppx, Ppy float64
}

// PinholeFromDescription derives intrinsics from a frame size and field of view.
func PinholeFromDescription(d sensor.Description) Pinhole {
	return Pinhole{
		Fx:  float64(d.Width) / 2 / math.Tan(d.HorizontalFOV*math.Pi/360),
		Fy:  float64(d.Height) / 2 / math.Tan(d.VerticalFOV*math.Pi/360),
		Ppx: float64(d.Width) / 2,
		Ppy: float64(d.Height) / 2,
	}
}

// PointToPixel projects a camera space point. Points at or behind the image
// plane come back as (-1, -1).
func (p Pinhole) PointToPixel(v r3.Vector) r2.Point {
	if v.Z <= 0 {
		return r2.Point{X: -1, Y: -1}
	}
	return r2.Point{
		X: v.X/v.Z*p.Fx + p.Ppx,
		Y: -v.Y/v.Z*p.Fy + p.Ppy,
	}
}

// PixelToPoint lifts a pixel at depth z meters into camera space.
func (p Pinhole) PixelToPoint(x, y, z float64) r3.Vector {
	return r3.Vector{
		X: (x - p.Ppx) / p.Fx * z,
		Y: -(y - p.Ppy) / p.Fy * z,
		Z: z,
	}
}

// Mapper is a coordinate mapper for co-located depth and color pinhole cameras.
type Mapper struct {
	depth     Pinhole
	color     Pinhole
	colorSize image.Point
}

func NewMapper(depth, color sensor.Description) *Mapper {
	return &Mapper{
		depth:     PinholeFromDescription(depth),
		color:     PinholeFromDescription(color),
		colorSize: image.Pt(color.Width, color.Height),
	}
}

func (m *Mapper) CameraToColor(p r3.Vector) r2.Point {
	return m.color.PointToPixel(p)
}

func (m *Mapper) CameraToDepth(p r3.Vector) r2.Point {
	return m.depth.PointToPixel(p)
}

func (m *Mapper) DepthFrameToCamera(depth []uint16, width, height int) ([]r3.Vector, error) {
	if len(depth) != width*height {
		return nil, fmt.Errorf("depth frame holds %d samples, expected %dx%d", len(depth), width, height)
	}

	points := make([]r3.Vector, len(depth))
	for i, d := range depth {
		if d == 0 {
			continue
		}
		points[i] = m.depth.PixelToPoint(float64(i%width), float64(i/width), float64(d)/1000)
	}

	return points, nil
}

func (m *Mapper) DepthFrameToColor(depth []uint16, width, height int) ([]r2.Point, error) {
	camera, err := m.DepthFrameToCamera(depth, width, height)
	if err != nil {
		return nil, err
	}

	points := make([]r2.Point, len(camera))
	for i, p := range camera {
		points[i] = m.color.PointToPixel(p)
	}

	return points, nil
}

func (m *Mapper) ColorFrameSize() image.Point {
	return m.colorSize
}
