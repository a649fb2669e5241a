// Package box2d implements a physics.Engine backed by the Box2D rigid
// body engine. The model must be a planar serial chain of hinges (see
// physics.PlanarChain). Each link becomes a dynamic box attached to its
// parent by a revolute joint, and the first link is pinned to a static
// ground body.
//
// The Box2D plane is the world (x, z) plane. Box2D measures angles
// counter-clockwise, so a link at angle φ from the world z axis has
// Box2D angle -φ.
package box2d

import (
	"fmt"
	"math"

	b2 "github.com/ByteArena/box2d"
	"github.com/samuelfneumann/gocontrol/physics"
)

const (
	staticBody  uint8 = 0
	dynamicBody uint8 = 2

	velocityIterations = 6
	positionIterations = 2

	defaultWidth = 0.05
)

// Engine simulates a planar chain in a Box2D world. The world is
// rebuilt from the model state whenever joint positions or velocities
// are changed outside of Step.
type Engine struct {
	chain physics.Chain

	world  b2.B2World
	ground *b2.B2Body
	bodies []*b2.B2Body

	// State written by the last sync, used to detect outside writes
	qpos, qvel []float64
	built      bool
}

// New returns a new Box2D Engine
func New() *Engine {
	return &Engine{}
}

// Bind implements the physics.Engine interface
func (e *Engine) Bind(m *physics.Model) error {
	chain, err := physics.PlanarChain(m)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	for _, l := range chain.Links {
		if l.Length == 0 {
			return fmt.Errorf("bind: body %v has zero length", l.Body)
		}
	}
	e.chain = chain
	e.qpos = make([]float64, m.Nq)
	e.qvel = make([]float64, m.Nv)
	e.built = false
	return nil
}

// Forward implements the physics.Engine interface
func (e *Engine) Forward(m *physics.Model, d *physics.Data) {
	if e.dirty(d) {
		e.build(m, d)
	}
	e.positions(m, d)
}

// Step implements the physics.Engine interface
func (e *Engine) Step(m *physics.Model, d *physics.Data) {
	if e.dirty(d) {
		e.build(m, d)
	}

	prev := make([]float64, len(e.chain.Links))
	for i, l := range e.chain.Links {
		prev[i] = d.Qvel[l.DofAdr]
	}

	for i, tau := range e.generalizedForces(m, d) {
		// Torque of joint i about the world z axis in Box2D coordinates
		torque := -e.chain.Links[i].Sign * tau
		e.bodies[i].ApplyTorque(torque, true)
		if i > 0 {
			e.bodies[i-1].ApplyTorque(-torque, true)
		}
	}

	e.world.Step(m.Timestep, velocityIterations, positionIterations)

	for a := 0; a < m.Nu; a++ {
		if adr := m.ActuatorActAdr[a]; adr >= 0 {
			d.Act[adr] += m.Timestep * d.Ctrl[a]
		}
	}

	e.sync(d)
	for i, l := range e.chain.Links {
		d.Qacc[l.DofAdr] = (d.Qvel[l.DofAdr] - prev[i]) / m.Timestep
	}
	d.Time += m.Timestep
	e.positions(m, d)
}

// dirty returns whether the joint state of d differs from the state
// last synced from the world
func (e *Engine) dirty(d *physics.Data) bool {
	if !e.built {
		return true
	}
	for i := range e.qpos {
		if e.qpos[i] != d.Qpos[i] {
			return true
		}
	}
	for i := range e.qvel {
		if e.qvel[i] != d.Qvel[i] {
			return true
		}
	}
	return false
}

// build creates a new world with the links posed as in d
func (e *Engine) build(m *physics.Model, d *physics.Data) {
	e.world = b2.MakeB2World(b2.B2Vec2{X: m.Gravity[0], Y: m.Gravity[2]})

	base := e.chain.Base
	groundDef := b2.MakeB2BodyDef()
	groundDef.Type = staticBody
	groundDef.Position = b2.MakeB2Vec2(base[0], base[2])
	e.ground = e.world.CreateBody(&groundDef)

	n := len(e.chain.Links)
	q := make([]float64, n)
	qdot := make([]float64, n)
	for i, l := range e.chain.Links {
		q[i] = d.Qpos[l.QposAdr]
		qdot[i] = d.Qvel[l.DofAdr]
	}
	phi := e.chain.AbsoluteAngles(q)
	phidot := e.chain.AbsoluteAngles(qdot)

	e.bodies = make([]*b2.B2Body, n)
	x, z := base[0], base[2]
	var vx, vz float64
	for i, l := range e.chain.Links {
		def := b2.MakeB2BodyDef()
		def.Type = dynamicBody
		def.Position = b2.MakeB2Vec2(x, z)
		def.Angle = -phi[i]
		def.AngularVelocity = -phidot[i]
		def.LinearVelocity = b2.MakeB2Vec2(vx, vz)
		body := e.world.CreateBody(&def)

		width := l.Width
		if width <= 0 {
			width = defaultWidth
		}
		shape := b2.NewB2PolygonShape()
		shape.Set([]b2.B2Vec2{
			b2.MakeB2Vec2(-width, 0),
			b2.MakeB2Vec2(width, 0),
			b2.MakeB2Vec2(width, l.Length),
			b2.MakeB2Vec2(-width, l.Length),
		}, 4)

		fix := b2.MakeB2FixtureDef()
		fix.Shape = shape
		fix.Density = l.Mass / (2 * width * math.Abs(l.Length))
		filter := b2.MakeB2Filter()
		filter.GroupIndex = -1 // links never collide
		fix.Filter = filter
		body.CreateFixtureFromDef(&fix)

		rjd := b2.MakeB2RevoluteJointDef()
		if i == 0 {
			rjd.BodyA = e.ground
			rjd.LocalAnchorA = b2.MakeB2Vec2(0, 0)
		} else {
			rjd.BodyA = e.bodies[i-1]
			rjd.LocalAnchorA = b2.MakeB2Vec2(0, e.chain.Links[i-1].Length)
		}
		rjd.BodyB = body
		rjd.LocalAnchorB = b2.MakeB2Vec2(0, 0)
		e.world.CreateJoint(&rjd)

		e.bodies[i] = body

		// Frame origin and velocity of the next link
		vx += l.Length * math.Cos(phi[i]) * phidot[i]
		vz -= l.Length * math.Sin(phi[i]) * phidot[i]
		x += l.Length * math.Sin(phi[i])
		z += l.Length * math.Cos(phi[i])
	}

	e.built = true
	copy(e.qpos, d.Qpos)
	copy(e.qvel, d.Qvel)
}

// generalizedForces returns the force on each joint of the chain from
// actuators, applied forces and joint damping
func (e *Engine) generalizedForces(m *physics.Model, d *physics.Data) []float64 {
	tau := make([]float64, len(e.chain.Links))
	link := make(map[int]int, len(e.chain.Links))
	for i, l := range e.chain.Links {
		link[l.DofAdr] = i
		tau[i] = d.QfrcApplied[l.DofAdr] - l.Damping*d.Qvel[l.DofAdr]
	}

	for a := 0; a < m.Nu; a++ {
		i, ok := link[m.JntDofAdr[m.ActuatorTrnID[a]]]
		if !ok {
			continue
		}
		ctrl := d.Ctrl[a]
		if m.ActuatorCtrlLimited[a] {
			rng := m.ActuatorCtrlRange[a]
			ctrl = math.Min(math.Max(ctrl, rng[0]), rng[1])
		}
		if adr := m.ActuatorActAdr[a]; adr >= 0 {
			ctrl = d.Act[adr]
		}
		tau[i] += m.ActuatorGear[a] * ctrl
	}
	return tau
}

// sync copies the joint state of the world into d
func (e *Engine) sync(d *physics.Data) {
	var prevAngle, prevVel float64
	for i, l := range e.chain.Links {
		angle := e.bodies[i].GetAngle()
		vel := e.bodies[i].GetAngularVelocity()

		d.Qpos[l.QposAdr] = -l.Sign * (angle - prevAngle)
		d.Qvel[l.DofAdr] = -l.Sign * (vel - prevVel)

		prevAngle, prevVel = angle, vel
	}
	copy(e.qpos, d.Qpos)
	copy(e.qvel, d.Qvel)
}

// positions computes the world position of each body frame
func (e *Engine) positions(m *physics.Model, d *physics.Data) {
	for b := 0; b < m.Nbody; b++ {
		if id := m.BodyMocapID[b]; id >= 0 {
			copy(d.Xpos[3*b:3*b+3], d.MocapPos[3*id:3*id+3])
			continue
		}
		copy(d.Xpos[3*b:3*b+3], m.BodyPos[b][:])
	}

	for i, l := range e.chain.Links {
		pos := e.bodies[i].GetPosition()
		d.Xpos[3*l.Body] = pos.X
		d.Xpos[3*l.Body+1] = e.chain.Base[1]
		d.Xpos[3*l.Body+2] = pos.Y
	}
}
