package acrobot

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gocontrol/physics"
	"gonum.org/v1/gonum/mat"
)

// ObservationDims is the length of an Observation as a vector
const ObservationDims = 6

// Orientation is an angle stored as its sine and cosine
type Orientation struct {
	Sin float64
	Cos float64
}

// OrientationOf returns the Orientation of the angle rad
func OrientationOf(rad float64) Orientation {
	return Orientation{Sin: math.Sin(rad), Cos: math.Cos(rad)}
}

// ToRad returns the angle of the orientation in [-π, π]
func (o Orientation) ToRad() float64 {
	return math.Atan2(o.Sin, o.Cos)
}

// Observation is the state of the acrobot observed after each step
type Observation struct {
	Elbow            Orientation
	Shoulder         Orientation
	ElbowVelocity    float64
	ShoulderVelocity float64
}

// Observe builds an Observation from the current state of a
func Observe(a *Acrobot) Observation {
	return Observation{
		Elbow:            OrientationOf(hinge(physics.Qpos[physics.HingeJoint], a, a.elbow)),
		Shoulder:         OrientationOf(hinge(physics.Qpos[physics.HingeJoint], a, a.shoulder)),
		ElbowVelocity:    hinge(physics.Qvel[physics.HingeJoint], a, a.elbow),
		ShoulderVelocity: hinge(physics.Qvel[physics.HingeJoint], a, a.shoulder),
	}
}

// hinge reads the single coordinate of a hinge joint. The joints are
// resolved and checked when the Acrobot is built, so a failure here
// means the model was changed underneath it.
func hinge(get func(*physics.Physics, physics.ObjectID[physics.Joint]) ([]float64,
	error), a *Acrobot, id physics.ObjectID[physics.Joint]) float64 {
	v, err := get(a.Physics, id)
	if err != nil {
		panic(fmt.Sprintf("observe: %v", err))
	}
	return v[0]
}

// Vec returns the observation as the vector
// [sin θe, cos θe, sin θs, cos θs, θ̇e, θ̇s]
func (o Observation) Vec() *mat.VecDense {
	return mat.NewVecDense(ObservationDims, []float64{
		o.Elbow.Sin, o.Elbow.Cos,
		o.Shoulder.Sin, o.Shoulder.Cos,
		o.ElbowVelocity, o.ShoulderVelocity,
	})
}

// String implements the fmt.Stringer interface
func (o Observation) String() string {
	return fmt.Sprintf("Observation  |  θe: %.4f  |  θs: %.4f  |  θ̇e: %.4f"+
		"  |  θ̇s: %.4f", o.Elbow.ToRad(), o.Shoulder.ToRad(),
		o.ElbowVelocity, o.ShoulderVelocity)
}
