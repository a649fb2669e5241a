package acrobot

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gocontrol/physics"
	"github.com/samuelfneumann/gocontrol/utils/digitizer"
	"gonum.org/v1/gonum/spatial/r1"
)

// Action applies a torque to the shoulder motor. Index is the
// position of the action within the ladder it was drawn from.
type Action struct {
	Actuator physics.ObjectID[physics.Actuator]
	Torque   float64
	Index    int
}

// Apply sets the control of the action's actuator. Torques must lie
// in the actuator's control range; any other torque is a programming
// error and panics.
func (a Action) Apply(act *physics.Actuators) {
	if math.IsNaN(a.Torque) {
		panic("apply: torque cannot be NaN")
	}
	if r := act.ControlRange(a.Actuator); a.Torque < r.Min || a.Torque > r.Max {
		panic(fmt.Sprintf("apply: torque out of range \n\twant([%v, %v]) "+
			"\n\thave(%v)", r.Min, r.Max, a.Torque))
	}
	act.Set(a.Actuator, a.Torque)
}

// Ladder returns size actions with torques evenly spaced over the
// control range of actuator id
func Ladder(id physics.ObjectID[physics.Actuator], ctrlRange r1.Interval,
	size int) []Action {
	torques := digitizer.Linspace(ctrlRange.Min, ctrlRange.Max, size)

	actions := make([]Action, len(torques))
	for i, torque := range torques {
		actions[i] = Action{Actuator: id, Torque: torque, Index: i}
	}
	return actions
}

// Actions returns the ladder of size actions spanning the control
// range of a's shoulder motor
func (a *Acrobot) Actions(size int) []Action {
	return Ladder(a.actuator, a.ControlRange(a.actuator), size)
}
