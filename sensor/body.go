package sensor

import "github.com/golang/geo/r3"

const (
	// BodyCount is the number of body candidates reported per frame.
	BodyCount = 6
	// JointCount is the number of joints in a skeleton.
	JointCount = 25
)

type JointType int

const (
	JointSpineBase JointType = iota
	JointSpineMid
	JointNeck
	JointHead
	JointShoulderLeft
	JointElbowLeft
	JointWristLeft
	JointHandLeft
	JointShoulderRight
	JointElbowRight
	JointWristRight
	JointHandRight
	JointHipLeft
	JointKneeLeft
	JointAnkleLeft
	JointFootLeft
	JointHipRight
	JointKneeRight
	JointAnkleRight
	JointFootRight
	JointSpineShoulder
	JointHandTipLeft
	JointThumbLeft
	JointHandTipRight
	JointThumbRight
)

var jointNames = [JointCount]string{
	"spine-base", "spine-mid", "neck", "head",
	"shoulder-left", "elbow-left", "wrist-left", "hand-left",
	"shoulder-right", "elbow-right", "wrist-right", "hand-right",
	"hip-left", "knee-left", "ankle-left", "foot-left",
	"hip-right", "knee-right", "ankle-right", "foot-right",
	"spine-shoulder", "hand-tip-left", "thumb-left", "hand-tip-right", "thumb-right",
}

func (j JointType) String() string {
	if j < 0 || int(j) >= JointCount {
		return "unknown"
	}
	return jointNames[j]
}

// TrackingState is the confidence the sensor has in a joint position.
type TrackingState int

const (
	NotTracked TrackingState = iota
	Inferred
	Tracked
)

type HandState int

const (
	HandUnknown HandState = iota
	HandNotTracked
	HandOpen
	HandClosed
	HandLasso
)

type Joint struct {
	Type     JointType
	Position r3.Vector
	State    TrackingState
}

// Body is one skeleton candidate of a body frame.
type Body struct {
	TrackingID uint64
	Tracked    bool
	Joints     [JointCount]Joint
	LeftHand   HandState
	RightHand  HandState
}
