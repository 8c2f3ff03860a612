// Package mesh turns depth buffers into point clouds.
package mesh

import (
	"fmt"
	"image/color"
	"math"

	"github.com/golang/geo/r3"

	"essaim.dev/kinect2/pixels"
	"essaim.dev/kinect2/sensor"
)

// Mesh is a point cloud. Colors is empty or has one entry per vertex.
type Mesh struct {
	Vertices []r3.Vector
	Colors   []color.RGBA
}

type Generator struct {
	// Downsample keeps every n-th pixel on both axes.
	Downsample int

	xz, yz float64
	mesh   Mesh
}

func NewGenerator() *Generator {
	return &Generator{Downsample: 1}
}

// Setup sets the fields of view of the depth camera, in degrees.
func (g *Generator) Setup(hfov, vfov float64) {
	g.xz = math.Tan(hfov*math.Pi/360) * 2
	g.yz = math.Tan(vfov*math.Pi/360) * -2
}

// SetupDescription uses the fields of view of a depth frame description.
func (g *Generator) SetupDescription(desc sensor.Description) {
	g.Setup(desc.HorizontalFOV, desc.VerticalFOV)
}

// Update builds a vertex (X, Y, -Z) per kept depth pixel, in the depth unit.
// colors is optional; when allocated it must match the depth size and have 1,
// 3 or 4 channels. The returned mesh is reused by the next Update.
func (g *Generator) Update(depth pixels.Buffer[uint16], colors pixels.Buffer[uint8]) (Mesh, error) {
	if depth.Channels != 1 {
		return Mesh{}, fmt.Errorf("depth buffer has %d channels, expected 1", depth.Channels)
	}

	hasColor := colors.IsAllocated()
	if hasColor {
		if colors.Width != depth.Width || colors.Height != depth.Height {
			return Mesh{}, fmt.Errorf("color buffer is %dx%d, depth is %dx%d", colors.Width, colors.Height, depth.Width, depth.Height)
		}
		if ch := colors.Channels; ch != 1 && ch != 3 && ch != 4 {
			return Mesh{}, fmt.Errorf("unsupported color channel count %d", ch)
		}
	}

	step := max(g.Downsample, 1)
	n := ((depth.Width + step - 1) / step) * ((depth.Height + step - 1) / step)

	g.mesh.Vertices = resize(g.mesh.Vertices, n)
	g.mesh.Colors = g.mesh.Colors[:0]
	if hasColor {
		g.mesh.Colors = resize(g.mesh.Colors, n)
	}

	invW := 1 / float64(depth.Width)
	invH := 1 / float64(depth.Height)

	i := 0
	for y := 0; y < depth.Height; y += step {
		for x := 0; x < depth.Width; x += step {
			idx := y*depth.Width + x
			z := float64(depth.Pix[idx])

			g.mesh.Vertices[i] = r3.Vector{
				X: (float64(x)*invW - 0.5) * g.xz * z,
				Y: (float64(y)*invH - 0.5) * g.yz * z,
				Z: -z,
			}
			if hasColor {
				g.mesh.Colors[i] = colorAt(colors, idx)
			}
			i++
		}
	}

	return g.mesh, nil
}

func colorAt(b pixels.Buffer[uint8], idx int) color.RGBA {
	switch b.Channels {
	case 1:
		v := b.Pix[idx]
		return color.RGBA{R: v, G: v, B: v, A: 255}
	case 3:
		p := b.Pix[idx*3 : idx*3+3]
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: 255}
	default:
		p := b.Pix[idx*4 : idx*4+4]
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
}

func resize[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]T, n)
}
