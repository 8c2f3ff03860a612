package fake

import (
	"math"

	"github.com/golang/geo/r3"

	"essaim.dev/kinect2/sensor"
)

const (
	minReliableDistance = 500
	maxReliableDistance = 4500

	trackedBodyID = 72057594037927936
)

func defaultGenerator(kind sensor.Kind) (Generator, bool) {
	switch kind {
	case sensor.KindColor:
		return colorFrame, true
	case sensor.KindDepth:
		return depthFrame, true
	case sensor.KindInfrared, sensor.KindLongExposureInfrared:
		return infraredFrame, true
	case sensor.KindBodyIndex:
		return bodyIndexFrame, true
	case sensor.KindBody:
		return bodyFrame, true
	default:
		return nil, false
	}
}

// colorFrame is a BGRA gradient scrolling to the right.
func colorFrame(seq uint64, desc sensor.Description) (*sensor.Frame, error) {
	data := make([]byte, desc.Width*desc.Height*4)
	shift := int(seq * 4)

	for y := 0; y < desc.Height; y++ {
		for x := 0; x < desc.Width; x++ {
			i := (y*desc.Width + x) * 4
			data[i] = uint8(y * 255 / max(desc.Height-1, 1))
			data[i+1] = 96
			data[i+2] = uint8((x + shift) % 256)
			data[i+3] = 255
		}
	}

	return &sensor.Frame{
		Description: desc,
		Format:      sensor.FormatBGRA,
		Color:       data,
	}, nil
}

// depthFrame is a horizontal ramp over the reliable range, drifting with seq.
func depthFrame(seq uint64, desc sensor.Description) (*sensor.Frame, error) {
	data := make([]uint16, desc.Width*desc.Height)
	span := maxReliableDistance - minReliableDistance

	for y := 0; y < desc.Height; y++ {
		for x := 0; x < desc.Width; x++ {
			d := (x*span/max(desc.Width, 1) + int(seq)*10) % span
			data[y*desc.Width+x] = uint16(minReliableDistance + d)
		}
	}

	return &sensor.Frame{
		Description:         desc,
		Depth:               data,
		MinReliableDistance: minReliableDistance,
		MaxReliableDistance: maxReliableDistance,
	}, nil
}

// infraredFrame is a vertical intensity ramp.
func infraredFrame(seq uint64, desc sensor.Description) (*sensor.Frame, error) {
	data := make([]uint16, desc.Width*desc.Height)

	for y := 0; y < desc.Height; y++ {
		v := uint16(((y + int(seq)) % max(desc.Height, 1)) * 65535 / max(desc.Height-1, 1))
		for x := 0; x < desc.Width; x++ {
			data[y*desc.Width+x] = v
		}
	}

	return &sensor.Frame{
		Description: desc,
		Depth:       data,
	}, nil
}

// bodyIndexFrame marks a disc moving left and right as player 0.
func bodyIndexFrame(seq uint64, desc sensor.Description) (*sensor.Frame, error) {
	data := make([]uint8, desc.Width*desc.Height)

	cx := float64(desc.Width)/2 + math.Sin(float64(seq)/30)*float64(desc.Width)/4
	cy := float64(desc.Height) / 2
	radius := float64(desc.Height) / 4

	for y := 0; y < desc.Height; y++ {
		for x := 0; x < desc.Width; x++ {
			data[y*desc.Width+x] = 255
			if math.Hypot(float64(x)-cx, float64(y)-cy) <= radius {
				data[y*desc.Width+x] = 0
			}
		}
	}

	return &sensor.Frame{
		Description: desc,
		BodyIndex:   data,
	}, nil
}

// skeleton is a standing pose relative to the spine base, in meters.
var skeleton = [sensor.JointCount]r3.Vector{
	sensor.JointSpineBase:      {X: 0, Y: 0, Z: 0},
	sensor.JointSpineMid:       {X: 0, Y: 0.3, Z: 0},
	sensor.JointNeck:           {X: 0, Y: 0.6, Z: 0},
	sensor.JointHead:           {X: 0, Y: 0.75, Z: 0},
	sensor.JointShoulderLeft:   {X: -0.2, Y: 0.55, Z: 0},
	sensor.JointElbowLeft:      {X: -0.35, Y: 0.3, Z: 0},
	sensor.JointWristLeft:      {X: -0.4, Y: 0.05, Z: 0},
	sensor.JointHandLeft:       {X: -0.42, Y: -0.02, Z: 0},
	sensor.JointShoulderRight:  {X: 0.2, Y: 0.55, Z: 0},
	sensor.JointElbowRight:     {X: 0.35, Y: 0.3, Z: 0},
	sensor.JointWristRight:     {X: 0.4, Y: 0.05, Z: 0},
	sensor.JointHandRight:      {X: 0.42, Y: -0.02, Z: 0},
	sensor.JointHipLeft:        {X: -0.1, Y: -0.05, Z: 0},
	sensor.JointKneeLeft:       {X: -0.12, Y: -0.5, Z: 0},
	sensor.JointAnkleLeft:      {X: -0.13, Y: -0.9, Z: 0},
	sensor.JointFootLeft:       {X: -0.13, Y: -0.95, Z: -0.1},
	sensor.JointHipRight:       {X: 0.1, Y: -0.05, Z: 0},
	sensor.JointKneeRight:      {X: 0.12, Y: -0.5, Z: 0},
	sensor.JointAnkleRight:     {X: 0.13, Y: -0.9, Z: 0},
	sensor.JointFootRight:      {X: 0.13, Y: -0.95, Z: -0.1},
	sensor.JointSpineShoulder:  {X: 0, Y: 0.55, Z: 0},
	sensor.JointHandTipLeft:    {X: -0.43, Y: -0.1, Z: 0},
	sensor.JointThumbLeft:      {X: -0.38, Y: -0.03, Z: -0.03},
	sensor.JointHandTipRight:   {X: 0.43, Y: -0.1, Z: 0},
	sensor.JointThumbRight:     {X: 0.38, Y: -0.03, Z: -0.03},
}

// bodyFrame reports one tracked body swaying two meters in front of the
// sensor among untracked candidates.
func bodyFrame(seq uint64, desc sensor.Description) (*sensor.Frame, error) {
	bodies := make([]sensor.Body, sensor.BodyCount)
	bodies[0] = Skeleton(trackedBodyID, r3.Vector{X: math.Sin(float64(seq)/30) * 0.3, Y: 0, Z: 2})

	hand := sensor.HandOpen
	if (seq/60)%2 == 1 {
		hand = sensor.HandClosed
	}
	bodies[0].RightHand = hand

	return &sensor.Frame{
		Description: desc,
		Bodies:      bodies,
	}, nil
}

// Skeleton returns a tracked body standing with its spine base at base.
// Hand tips are reported as inferred, every other joint as tracked.
func Skeleton(id uint64, base r3.Vector) sensor.Body {
	body := sensor.Body{
		TrackingID: id,
		Tracked:    true,
		LeftHand:   sensor.HandOpen,
		RightHand:  sensor.HandOpen,
	}

	for i, offset := range skeleton {
		state := sensor.Tracked
		if i == int(sensor.JointHandTipLeft) || i == int(sensor.JointHandTipRight) {
			state = sensor.Inferred
		}

		body.Joints[i] = sensor.Joint{
			Type:     sensor.JointType(i),
			Position: base.Add(offset),
			State:    state,
		}
	}

	return body
}
