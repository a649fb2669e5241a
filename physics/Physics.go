// Package physics implements a type-safe accessor layer over the flat
// state of a rigid-body simulation.
//
// A Physics owns a Model, which describes the simulated system, and a
// Data, which holds its runtime state. Objects in the model are
// referred to by typed handles (ObjectID), and joint state is read and
// written through generic accessors which verify the joint kind before
// touching any state:
//
//	elbow, err := physics.ObjectIDOf[physics.Joint](p, "elbow")
//	angle, err := physics.Qpos[physics.HingeJoint](p, elbow)
//
// Simulation itself is delegated to an Engine.
package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Physics owns a Model and its Data and mediates all access to them.
// All accessors copy values in or out; no accessor returns a slice
// aliasing the underlying state.
//
// A Physics is not safe for concurrent use.
type Physics struct {
	model  *Model
	data   *Data
	engine Engine
}

// New returns a new Physics simulating m with engine e. The Data is
// initialized to the model's reference configuration.
func New(m *Model, e Engine) (*Physics, error) {
	if err := m.Validate(); err != nil {
		return nil, &EngineError{Op: "bind", Err: err}
	}
	if err := e.Bind(m); err != nil {
		return nil, &EngineError{Op: "bind", Err: err}
	}

	p := &Physics{
		model:  m,
		data:   NewData(m),
		engine: e,
	}
	p.engine.Forward(p.model, p.data)
	return p, nil
}

// Model returns the model being simulated. The returned Model must not
// be modified.
func (p *Physics) Model() *Model {
	return p.model
}

// Time returns the current simulation time
func (p *Physics) Time() float64 {
	return p.data.Time
}

// SetTime sets the current simulation time
func (p *Physics) SetTime(t float64) {
	p.data.Time = t
}

// Timestep returns the duration of a single call to Step
func (p *Physics) Timestep() float64 {
	return p.model.Timestep
}

// Step advances the simulation by one timestep
func (p *Physics) Step() {
	p.engine.Step(p.model, p.data)
}

// Forward recomputes derived quantities for the current state without
// advancing the simulation
func (p *Physics) Forward() {
	p.engine.Forward(p.model, p.data)
}

// Reset sets the state to the model's reference configuration, zeroes
// all velocities, controls and forces, sets the time to 0, and then
// recomputes derived quantities.
func (p *Physics) Reset() {
	p.data.Reset(p.model)
	p.engine.Forward(p.model, p.data)
}

// Actuators returns the actuator control view of p
func (p *Physics) Actuators() *Actuators {
	return &Actuators{p}
}

// checkJoint verifies that id refers to a joint of kind J
func checkJoint[J JointType](p *Physics, id ObjectID[Joint]) error {
	var j J
	found := p.model.JntType[id.index]
	if found != j.Kind() {
		return &KindMismatchError{Joint: id, Expected: j.Kind(), Found: found}
	}
	return nil
}

// Qpos returns a copy of the position coordinates of joint id. The
// joint must be of kind J.
func Qpos[J JointType](p *Physics, id ObjectID[Joint]) ([]float64, error) {
	if err := checkJoint[J](p, id); err != nil {
		return nil, err
	}
	var j J
	adr := p.model.JntQposAdr[id.index]
	out := make([]float64, j.Kind().PosSize())
	copy(out, p.data.Qpos[adr:adr+len(out)])
	return out, nil
}

// SetQpos writes the position coordinates of joint id in place. No
// derived quantities are recomputed. The joint must be of kind J, and
// qpos must have exactly as many values as kind J has position
// coordinates, otherwise SetQpos panics.
func SetQpos[J JointType](p *Physics, id ObjectID[Joint], qpos []float64) error {
	var j J
	if len(qpos) != j.Kind().PosSize() {
		panic(fmt.Sprintf("setQpos: invalid number of %v joint positions "+
			"\n\twant(%v) \n\thave(%v)", j.Kind(), j.Kind().PosSize(),
			len(qpos)))
	}
	if err := checkJoint[J](p, id); err != nil {
		return err
	}
	adr := p.model.JntQposAdr[id.index]
	copy(p.data.Qpos[adr:adr+len(qpos)], qpos)
	return nil
}

// Qvel returns a copy of the velocity coordinates of joint id. The
// joint must be of kind J. If the joint has no degrees of freedom, an
// empty slice is returned.
func Qvel[J JointType](p *Physics, id ObjectID[Joint]) ([]float64, error) {
	if err := checkJoint[J](p, id); err != nil {
		return nil, err
	}
	adr := p.model.JntDofAdr[id.index]
	if adr < 0 {
		return []float64{}, nil
	}
	var j J
	out := make([]float64, j.Kind().VelSize())
	copy(out, p.data.Qvel[adr:adr+len(out)])
	return out, nil
}

// SetQvel writes the velocity coordinates of joint id in place. The
// joint must be of kind J, and qvel must have exactly as many values as
// kind J has degrees of freedom, otherwise SetQvel panics. Writing to a
// joint without degrees of freedom is a no-op.
func SetQvel[J JointType](p *Physics, id ObjectID[Joint], qvel []float64) error {
	var j J
	if len(qvel) != j.Kind().VelSize() {
		panic(fmt.Sprintf("setQvel: invalid number of %v joint velocities "+
			"\n\twant(%v) \n\thave(%v)", j.Kind(), j.Kind().VelSize(),
			len(qvel)))
	}
	if err := checkJoint[J](p, id); err != nil {
		return err
	}
	adr := p.model.JntDofAdr[id.index]
	if adr < 0 {
		return nil
	}
	copy(p.data.Qvel[adr:adr+len(qvel)], qvel)
	return nil
}

// Ctrl returns the control input of actuator id
func (p *Physics) Ctrl(id ObjectID[Actuator]) float64 {
	return p.data.Ctrl[id.index]
}

// SetCtrl sets the control input of actuator id. The value is not
// clamped to the actuator's control range.
func (p *Physics) SetCtrl(id ObjectID[Actuator], value float64) {
	p.data.Ctrl[id.index] = value
}

// ControlRange returns the control range of actuator id. If the
// actuator is not control limited, or declares a range which is NaN,
// infinite, or empty, the range [-MaxVal, MaxVal] is returned.
func (p *Physics) ControlRange(id ObjectID[Actuator]) r1.Interval {
	sentinel := r1.Interval{Min: -MaxVal, Max: MaxVal}
	if !p.model.ActuatorCtrlLimited[id.index] {
		return sentinel
	}
	rng := p.model.ActuatorCtrlRange[id.index]
	lo, hi := rng[0], rng[1]
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) ||
		math.IsInf(hi, 0) || lo >= hi {
		return sentinel
	}
	return r1.Interval{Min: lo, Max: hi}
}

// Act returns the activation of actuator id. The boolean is false if
// the actuator has no activation state.
func (p *Physics) Act(id ObjectID[Actuator]) (float64, bool) {
	adr := p.model.ActuatorActAdr[id.index]
	if adr < 0 {
		return 0, false
	}
	return p.data.Act[adr], true
}

// SetAct sets the activation of actuator id
func (p *Physics) SetAct(id ObjectID[Actuator], value float64) error {
	adr := p.model.ActuatorActAdr[id.index]
	if adr < 0 {
		return &StatelessError{Type: ActuatorObj, Index: id.index,
			What: "activation"}
	}
	p.data.Act[adr] = value
	return nil
}

// PluginState returns the first state value of plugin id. The boolean
// is false if the plugin is stateless.
func (p *Physics) PluginState(id ObjectID[Plugin]) (float64, bool) {
	adr := p.model.PluginStateAdr[id.index]
	if adr < 0 {
		return 0, false
	}
	return p.data.PluginState[adr], true
}

// SetPluginState sets the first state value of plugin id
func (p *Physics) SetPluginState(id ObjectID[Plugin], value float64) error {
	adr := p.model.PluginStateAdr[id.index]
	if adr < 0 {
		return &StatelessError{Type: PluginObj, Index: id.index,
			What: "state"}
	}
	p.data.PluginState[adr] = value
	return nil
}

// MocapPos returns the mocap position of body id. The boolean is false
// if id is not a mocap body.
func (p *Physics) MocapPos(id ObjectID[Body]) ([3]float64, bool) {
	var pos [3]float64
	mocap := p.model.BodyMocapID[id.index]
	if mocap < 0 {
		return pos, false
	}
	copy(pos[:], p.data.MocapPos[3*mocap:3*mocap+3])
	return pos, true
}

// SetMocapPos sets the mocap position of body id
func (p *Physics) SetMocapPos(id ObjectID[Body], pos [3]float64) error {
	mocap := p.model.BodyMocapID[id.index]
	if mocap < 0 {
		return &NotMocapError{Body: id}
	}
	copy(p.data.MocapPos[3*mocap:3*mocap+3], pos[:])
	return nil
}

// MocapQuat returns the mocap orientation of body id as a (w, x, y, z)
// quaternion. The boolean is false if id is not a mocap body.
func (p *Physics) MocapQuat(id ObjectID[Body]) ([4]float64, bool) {
	var quat [4]float64
	mocap := p.model.BodyMocapID[id.index]
	if mocap < 0 {
		return quat, false
	}
	copy(quat[:], p.data.MocapQuat[4*mocap:4*mocap+4])
	return quat, true
}

// SetMocapQuat sets the mocap orientation of body id
func (p *Physics) SetMocapQuat(id ObjectID[Body], quat [4]float64) error {
	mocap := p.model.BodyMocapID[id.index]
	if mocap < 0 {
		return &NotMocapError{Body: id}
	}
	copy(p.data.MocapQuat[4*mocap:4*mocap+4], quat[:])
	return nil
}

// QaccWarmstart returns the warm-start acceleration of degree of
// freedom id
func (p *Physics) QaccWarmstart(id ObjectID[Dof]) float64 {
	return p.data.QaccWarmstart[id.index]
}

func (p *Physics) SetQaccWarmstart(id ObjectID[Dof], value float64) {
	p.data.QaccWarmstart[id.index] = value
}

// QfrcApplied returns the generalized force applied to degree of
// freedom id
func (p *Physics) QfrcApplied(id ObjectID[Dof]) float64 {
	return p.data.QfrcApplied[id.index]
}

func (p *Physics) SetQfrcApplied(id ObjectID[Dof], value float64) {
	p.data.QfrcApplied[id.index] = value
}

// XfrcApplied returns the Cartesian force and torque applied to body
// id, as (fx, fy, fz, tx, ty, tz)
func (p *Physics) XfrcApplied(id ObjectID[Body]) [6]float64 {
	var frc [6]float64
	copy(frc[:], p.data.XfrcApplied[6*id.index:6*id.index+6])
	return frc
}

func (p *Physics) SetXfrcApplied(id ObjectID[Body], value [6]float64) {
	copy(p.data.XfrcApplied[6*id.index:6*id.index+6], value[:])
}

// BodyXpos returns the world frame position of body id as computed by
// the last call to Forward or Step
func (p *Physics) BodyXpos(id ObjectID[Body]) [3]float64 {
	var pos [3]float64
	copy(pos[:], p.data.Xpos[3*id.index:3*id.index+3])
	return pos
}
