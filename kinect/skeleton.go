package kinect

import "essaim.dev/kinect2/sensor"

// Confidence decides how a joint or bone is drawn.
type Confidence int

const (
	Hidden Confidence = iota
	Uncertain
	Confident
)

func (c Confidence) String() string {
	switch c {
	case Hidden:
		return "hidden"
	case Uncertain:
		return "uncertain"
	case Confident:
		return "confident"
	default:
		return "unknown"
	}
}

// Bone connects two joints.
type Bone struct {
	From sensor.JointType
	To   sensor.JointType
}

// Bones is the skeleton drawn for a body: torso, arms, legs.
var Bones = [...]Bone{
	{sensor.JointHead, sensor.JointNeck},
	{sensor.JointNeck, sensor.JointSpineShoulder},
	{sensor.JointSpineShoulder, sensor.JointSpineMid},
	{sensor.JointSpineMid, sensor.JointSpineBase},
	{sensor.JointSpineShoulder, sensor.JointShoulderLeft},
	{sensor.JointSpineShoulder, sensor.JointShoulderRight},
	{sensor.JointSpineBase, sensor.JointHipLeft},
	{sensor.JointSpineBase, sensor.JointHipRight},

	{sensor.JointShoulderLeft, sensor.JointElbowLeft},
	{sensor.JointElbowLeft, sensor.JointWristLeft},
	{sensor.JointWristLeft, sensor.JointHandLeft},
	{sensor.JointHandLeft, sensor.JointHandTipLeft},
	{sensor.JointWristLeft, sensor.JointThumbLeft},

	{sensor.JointShoulderRight, sensor.JointElbowRight},
	{sensor.JointElbowRight, sensor.JointWristRight},
	{sensor.JointWristRight, sensor.JointHandRight},
	{sensor.JointHandRight, sensor.JointHandTipRight},
	{sensor.JointWristRight, sensor.JointThumbRight},

	{sensor.JointHipLeft, sensor.JointKneeLeft},
	{sensor.JointKneeLeft, sensor.JointAnkleLeft},
	{sensor.JointAnkleLeft, sensor.JointFootLeft},

	{sensor.JointHipRight, sensor.JointKneeRight},
	{sensor.JointKneeRight, sensor.JointAnkleRight},
	{sensor.JointAnkleRight, sensor.JointFootRight},
}

// ClassifyBone hides a bone when either end is not tracked or both ends are
// inferred. Two tracked ends are confident, anything else uncertain.
func ClassifyBone(a, b sensor.TrackingState) Confidence {
	switch {
	case a == sensor.NotTracked || b == sensor.NotTracked:
		return Hidden
	case a == sensor.Inferred && b == sensor.Inferred:
		return Hidden
	case a == sensor.Tracked && b == sensor.Tracked:
		return Confident
	default:
		return Uncertain
	}
}

func ClassifyJoint(s sensor.TrackingState) Confidence {
	switch s {
	case sensor.Tracked:
		return Confident
	case sensor.Inferred:
		return Uncertain
	default:
		return Hidden
	}
}
