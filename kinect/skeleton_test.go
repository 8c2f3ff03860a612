package kinect

import (
	"image"
	"image/color"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"essaim.dev/kinect2/pixels"
	"essaim.dev/kinect2/sensor"
	"essaim.dev/kinect2/sensor/fake"
)

func TestClassifyBone(t *testing.T) {
	tests := []struct {
		a, b sensor.TrackingState
		want Confidence
	}{
		{sensor.NotTracked, sensor.NotTracked, Hidden},
		{sensor.NotTracked, sensor.Inferred, Hidden},
		{sensor.Tracked, sensor.NotTracked, Hidden},
		{sensor.Inferred, sensor.Inferred, Hidden},
		{sensor.Tracked, sensor.Tracked, Confident},
		{sensor.Tracked, sensor.Inferred, Uncertain},
		{sensor.Inferred, sensor.Tracked, Uncertain},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyBone(tt.a, tt.b), "%d-%d", tt.a, tt.b)
		assert.Equal(t, tt.want, ClassifyBone(tt.b, tt.a), "%d-%d", tt.b, tt.a)
	}
}

func TestClassifyJoint(t *testing.T) {
	assert.Equal(t, Hidden, ClassifyJoint(sensor.NotTracked))
	assert.Equal(t, Uncertain, ClassifyJoint(sensor.Inferred))
	assert.Equal(t, Confident, ClassifyJoint(sensor.Tracked))
}

func TestBonesCoverSkeleton(t *testing.T) {
	assert.Len(t, Bones, sensor.JointCount-1)

	seen := make(map[sensor.JointType]bool)
	for _, b := range Bones {
		seen[b.From] = true
		seen[b.To] = true
	}
	assert.Len(t, seen, sensor.JointCount)
}

func TestGrayImage(t *testing.T) {
	b := pixels.Buffer[uint16]{Width: 2, Height: 1, Channels: 1, Pix: []uint16{0x1234, 0xff00}}

	img := GrayImage(b)
	assert.Equal(t, color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 255}, img.At(0, 0))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 255}, img.At(1, 0))
}

func TestMaskImage(t *testing.T) {
	mask := pixels.Buffer[uint16]{Width: 2, Height: 1, Channels: 1, Pix: []uint16{pixels.PlayerValue, pixels.BackgroundValue}}

	img := MaskImage(mask, colornames.Orange)
	assert.Equal(t, colornames.Orange, img.At(0, 0))
	assert.Equal(t, color.RGBA{}, img.At(1, 0))

	mirrored := Mirror(img)
	_, _, _, a := mirrored.At(0, 0).RGBA()
	assert.Zero(t, a)
}

func TestSkeletonImage(t *testing.T) {
	d := newTestDevice(t)
	require.NoError(t, d.SetDepthColorSyncEnabled(true))

	s := NewBodyStream()
	require.NoError(t, s.Setup(d))
	require.NoError(t, s.ReadFrame(bodyFrame(1, fake.Skeleton(1, r3.Vector{Z: 2}))))

	size := d.Mapper().ColorFrameSize()
	img := SkeletonImage(size, s.Bodies())
	assert.Equal(t, image.Rectangle{Max: size}, img.Bounds())

	b, _ := s.Body(1)
	head := b.JointPoint(sensor.JointHead)
	_, _, _, a := img.At(int(head.X), int(head.Y)).RGBA()
	assert.NotZero(t, a)

	_, _, _, a = img.At(0, 0).RGBA()
	assert.Zero(t, a)
}
