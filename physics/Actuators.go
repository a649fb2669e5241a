package physics

import "gonum.org/v1/gonum/spatial/r1"

// Actuators is a write-only view of the actuator controls of a Physics.
// It is the only capability handed to an action when it is applied, so
// that applying an action cannot change any other state.
type Actuators struct {
	p *Physics
}

// Set sets the control input of actuator id
func (a *Actuators) Set(id ObjectID[Actuator], value float64) {
	a.p.SetCtrl(id, value)
}

// ControlRange returns the control range of actuator id
func (a *Actuators) ControlRange(id ObjectID[Actuator]) r1.Interval {
	return a.p.ControlRange(id)
}
