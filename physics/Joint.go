package physics

import "fmt"

// JointKind is the mechanical degree-of-freedom type of a joint
type JointKind int

const (
	Free JointKind = iota
	Ball
	Slide
	Hinge
)

// PosSize returns the number of position coordinates of the joint kind
func (k JointKind) PosSize() int {
	switch k {
	case Free:
		return 7 // x, y, z, qw, qx, qy, qz
	case Ball:
		return 4 // qw, qx, qy, qz
	default:
		return 1 // angle or displacement
	}
}

// VelSize returns the number of velocity coordinates (degrees of
// freedom) of the joint kind
func (k JointKind) VelSize() int {
	switch k {
	case Free:
		return 6 // vx, vy, vz, ωx, ωy, ωz
	case Ball:
		return 3 // ωx, ωy, ωz
	default:
		return 1
	}
}

func (k JointKind) String() string {
	switch k {
	case Free:
		return "free"
	case Ball:
		return "ball"
	case Slide:
		return "slide"
	case Hinge:
		return "hinge"
	default:
		return fmt.Sprintf("JointKind(%d)", int(k))
	}
}

// ParseJointKind parses a joint kind as written in a scene description
func ParseJointKind(s string) (JointKind, error) {
	switch s {
	case "free":
		return Free, nil
	case "ball":
		return Ball, nil
	case "slide":
		return Slide, nil
	case "hinge", "":
		return Hinge, nil
	}
	return 0, fmt.Errorf("unknown joint type %q", s)
}

// JointType is implemented by the joint kind markers. Accessors that
// read or write joint state take the expected kind as a type argument,
// e.g. Qpos[HingeJoint](p, id), and verify it against the kind declared
// in the model before touching any state.
type JointType interface {
	Kind() JointKind
}

// Joint kind markers
type (
	FreeJoint  struct{}
	BallJoint  struct{}
	SlideJoint struct{}
	HingeJoint struct{}
)

func (FreeJoint) Kind() JointKind  { return Free }
func (BallJoint) Kind() JointKind  { return Ball }
func (SlideJoint) Kind() JointKind { return Slide }
func (HingeJoint) Kind() JointKind { return Hinge }
