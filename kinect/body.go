package kinect

import (
	"image"

	"github.com/golang/geo/r2"

	"essaim.dev/kinect2/sensor"
)

// Body is one tracked skeleton and its joints projected into a viewport.
type Body struct {
	device *Device

	id          uint64
	leftHand    sensor.HandState
	rightHand   sensor.HandState
	joints      [sensor.JointCount]sensor.Joint
	points      [sensor.JointCount]r2.Point
	viewport    image.Point
	initialized bool
}

// Setup copies the skeleton reported by the sensor.
func (b *Body) Setup(d *Device, body sensor.Body) {
	b.device = d
	b.id = body.TrackingID
	b.leftHand = body.LeftHand
	b.rightHand = body.RightHand
	b.joints = body.Joints
	b.initialized = true
}

// SetViewport sets the size joints are projected into. A zero size projects
// into color image coordinates.
func (b *Body) SetViewport(size image.Point) {
	b.viewport = size
}

// Update projects every joint from camera space into the viewport through the
// device coordinate mapper, falling back to the backend mapper when depth/color
// sync is off. Without any mapper the previous projection is kept.
func (b *Body) Update() {
	if b.device == nil {
		return
	}

	mapper := b.device.projectionMapper()
	if mapper == nil {
		return
	}

	sx, sy := 1.0, 1.0
	if size := mapper.ColorFrameSize(); b.viewport.X > 0 && b.viewport.Y > 0 && size.X > 0 && size.Y > 0 {
		sx = float64(b.viewport.X) / float64(size.X)
		sy = float64(b.viewport.Y) / float64(size.Y)
	}

	for i, j := range b.joints {
		p := mapper.CameraToColor(j.Position)
		b.points[i] = r2.Point{X: p.X * sx, Y: p.Y * sy}
	}
}

func (b Body) ID() uint64 {
	return b.id
}

func (b Body) IsInitialized() bool {
	return b.initialized
}

func (b Body) LeftHand() sensor.HandState {
	return b.leftHand
}

func (b Body) RightHand() sensor.HandState {
	return b.rightHand
}

func (b Body) Joints() [sensor.JointCount]sensor.Joint {
	return b.joints
}

func (b Body) Joint(t sensor.JointType) sensor.Joint {
	return b.joints[t]
}

// JointPoints are the joints projected by the last Update.
func (b Body) JointPoints() [sensor.JointCount]r2.Point {
	return b.points
}

func (b Body) JointPoint(t sensor.JointType) r2.Point {
	return b.points[t]
}
