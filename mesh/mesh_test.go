package mesh

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essaim.dev/kinect2/pixels"
	"essaim.dev/kinect2/sensor"
)

func TestUpdateVertices(t *testing.T) {
	g := NewGenerator()
	g.Setup(90, 90)

	depth := pixels.Buffer[uint16]{Width: 2, Height: 2, Channels: 1, Pix: []uint16{1000, 1000, 1000, 0}}
	m, err := g.Update(depth, pixels.Buffer[uint8]{})
	require.NoError(t, err)
	require.Len(t, m.Vertices, 4)
	assert.Empty(t, m.Colors)

	// tan(45°) * 2 = 2, so the left edge at x=0 is at -0.5*2*z.
	assert.InDelta(t, -1000, m.Vertices[0].X, 1e-6)
	assert.InDelta(t, 1000, m.Vertices[0].Y, 1e-6)
	assert.Equal(t, -1000.0, m.Vertices[0].Z)
	assert.InDelta(t, 0, m.Vertices[1].X, 1e-6)
	assert.Equal(t, 0.0, m.Vertices[3].Z)
}

func TestUpdateDownsample(t *testing.T) {
	g := NewGenerator()
	g.SetupDescription(sensor.Description{HorizontalFOV: 70.6, VerticalFOV: 60})
	g.Downsample = 2

	depth := pixels.New[uint16](5, 3, 1)
	m, err := g.Update(depth, pixels.Buffer[uint8]{})
	require.NoError(t, err)
	assert.Len(t, m.Vertices, 3*2)
}

func TestUpdateColors(t *testing.T) {
	g := NewGenerator()
	g.Setup(60, 45)

	depth := pixels.New[uint16](2, 1, 1)

	gray := pixels.Buffer[uint8]{Width: 2, Height: 1, Channels: 1, Pix: []uint8{10, 20}}
	m, err := g.Update(depth, gray)
	require.NoError(t, err)
	assert.Equal(t, []color.RGBA{{10, 10, 10, 255}, {20, 20, 20, 255}}, m.Colors)

	rgb := pixels.Buffer[uint8]{Width: 2, Height: 1, Channels: 3, Pix: []uint8{1, 2, 3, 4, 5, 6}}
	m, err = g.Update(depth, rgb)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{4, 5, 6, 255}, m.Colors[1])

	rgba := pixels.Buffer[uint8]{Width: 2, Height: 1, Channels: 4, Pix: []uint8{1, 2, 3, 4, 5, 6, 7, 8}}
	m, err = g.Update(depth, rgba)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{5, 6, 7, 8}, m.Colors[1])
}

func TestUpdateErrors(t *testing.T) {
	g := NewGenerator()
	g.Setup(60, 45)

	_, err := g.Update(pixels.New[uint16](2, 1, 2), pixels.Buffer[uint8]{})
	assert.Error(t, err)

	_, err = g.Update(pixels.New[uint16](2, 1, 1), pixels.New[uint8](3, 1, 1))
	assert.Error(t, err)

	_, err = g.Update(pixels.New[uint16](2, 1, 1), pixels.New[uint8](2, 1, 2))
	assert.Error(t, err)
}
