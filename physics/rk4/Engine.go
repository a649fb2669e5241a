// Package rk4 implements a physics.Engine for planar serial chains of
// hinge joints, integrated with 4-th order Runge-Kutta.
//
// Links are modelled as rigid bodies of the mass, centre of mass and
// inertia compiled from their geoms. Joint ranges and contacts are not
// simulated. See physics.PlanarChain for the models which can be
// bound.
package rk4

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gocontrol/physics"
	"gonum.org/v1/gonum/mat"
)

// Engine integrates a planar serial chain
type Engine struct {
	chain physics.Chain
	g     [2]float64 // gravity in the (x, z) plane

	// Generalized force for the step being integrated, per link
	tau []float64
}

// New returns a new rk4 Engine
func New() *Engine {
	return &Engine{}
}

// Bind implements the physics.Engine interface
func (e *Engine) Bind(m *physics.Model) error {
	chain, err := physics.PlanarChain(m)
	if err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	e.chain = chain
	e.g = [2]float64{m.Gravity[0], m.Gravity[2]}
	e.tau = make([]float64, len(chain.Links))
	return nil
}

// Forward implements the physics.Engine interface
func (e *Engine) Forward(m *physics.Model, d *physics.Data) {
	q, qdot := e.state(d)
	e.generalizedForces(m, d, q)

	qacc := e.acceleration(q, qdot)
	for i, l := range e.chain.Links {
		d.Qacc[l.DofAdr] = qacc[i]
	}
	e.positions(m, d, q)
}

// Step implements the physics.Engine interface
func (e *Engine) Step(m *physics.Model, d *physics.Data) {
	q, qdot := e.state(d)
	e.generalizedForces(m, d, q)

	n := len(q)
	s := mat.NewVecDense(2*n, append(q, qdot...))
	integrated := Integrate(e.dsDt, s, []float64{d.Time, d.Time + m.Timestep})
	r, _ := integrated.Dims()
	ns := integrated.RawRowView(r - 1)

	for i, l := range e.chain.Links {
		d.Qpos[l.QposAdr] = ns[i]
		d.Qvel[l.DofAdr] = ns[n+i]
	}

	// Integrator activations follow the control
	for a := 0; a < m.Nu; a++ {
		if adr := m.ActuatorActAdr[a]; adr >= 0 {
			d.Act[adr] += m.Timestep * d.Ctrl[a]
		}
	}

	d.Time += m.Timestep
	e.Forward(m, d)
}

// state returns the joint positions and velocities of the chain
func (e *Engine) state(d *physics.Data) ([]float64, []float64) {
	q := make([]float64, len(e.chain.Links))
	qdot := make([]float64, len(e.chain.Links))
	for i, l := range e.chain.Links {
		q[i] = d.Qpos[l.QposAdr]
		qdot[i] = d.Qvel[l.DofAdr]
	}
	return q, qdot
}

// generalizedForces computes the joint-space force of the actuators,
// applied forces and applied body wrenches. Damping is velocity
// dependent and is added during integration.
func (e *Engine) generalizedForces(m *physics.Model, d *physics.Data,
	q []float64) {
	link := make(map[int]int, len(e.chain.Links))
	for i, l := range e.chain.Links {
		link[l.DofAdr] = i
		e.tau[i] = d.QfrcApplied[l.DofAdr]
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
		e.tau[i] += m.ActuatorGear[a] * ctrl
	}

	// Body wrenches act at the centre of mass of each link
	phi := e.chain.AbsoluteAngles(q)
	for i, l := range e.chain.Links {
		frc := d.XfrcApplied[6*l.Body : 6*l.Body+6]
		fx, fz, ty := frc[0], frc[2], frc[4]
		if fx == 0 && fz == 0 && ty == 0 {
			continue
		}
		for j := 0; j <= i; j++ {
			jx, jz := e.jacobian(phi, i, j)
			e.tau[j] += jx*fx + jz*fz + e.chain.Links[j].Sign*ty
		}
	}
}

// jacobian returns the (x, z) derivative of the centre of mass of link
// i with respect to the coordinate of joint j
func (e *Engine) jacobian(phi []float64, i, j int) (float64, float64) {
	if j > i {
		return 0, 0
	}
	links := e.chain.Links
	var jx, jz float64
	for k := j; k < i; k++ {
		jx += links[k].Length * math.Cos(phi[k])
		jz -= links[k].Length * math.Sin(phi[k])
	}
	jx += links[i].COM * math.Cos(phi[i])
	jz -= links[i].COM * math.Sin(phi[i])

	sign := links[j].Sign
	return sign * jx, sign * jz
}

// acceleration computes the joint accelerations of the chain:
//
//	q̈ = M⁻¹(τ - b - damping⋅q̇)
//
// where M is the joint-space mass matrix and b holds the centripetal
// and gravitational terms.
func (e *Engine) acceleration(q, qdot []float64) []float64 {
	links := e.chain.Links
	n := len(links)
	phi := e.chain.AbsoluteAngles(q)
	phidot := e.chain.AbsoluteAngles(qdot)

	mass := mat.NewSymDense(n, nil)
	rhs := mat.NewVecDense(n, nil)
	for i, l := range links {
		rhs.SetVec(i, e.tau[i]-l.Damping*qdot[i])
	}

	jx := make([]float64, n)
	jz := make([]float64, n)
	for i, li := range links {
		for j := range links {
			jx[j], jz[j] = e.jacobian(phi, i, j)
		}

		// Centripetal acceleration of the centre of mass of link i
		var ax, az float64
		for k := 0; k < i; k++ {
			w2 := phidot[k] * phidot[k]
			ax -= links[k].Length * math.Sin(phi[k]) * w2
			az -= links[k].Length * math.Cos(phi[k]) * w2
		}
		w2 := phidot[i] * phidot[i]
		ax -= li.COM * math.Sin(phi[i]) * w2
		az -= li.COM * math.Cos(phi[i]) * w2

		for r := 0; r <= i; r++ {
			for c := r; c <= i; c++ {
				rot := li.Inertia * links[r].Sign * links[c].Sign
				mass.SetSym(r, c, mass.At(r, c)+
					li.Mass*(jx[r]*jx[c]+jz[r]*jz[c])+rot)
			}
			bias := li.Mass * (jx[r]*(ax-e.g[0]) + jz[r]*(az-e.g[1]))
			rhs.SetVec(r, rhs.AtVec(r)-bias)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(mass); !ok {
		panic("acceleration: mass matrix is not positive definite")
	}
	qacc := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(qacc, rhs); err != nil {
		panic(fmt.Sprintf("acceleration: %v", err))
	}
	return qacc.RawVector().Data
}

// dsDt calculates ds/dt for s = [q, q̇]
func (e *Engine) dsDt(s *mat.VecDense, t float64) []float64 {
	n := len(e.chain.Links)
	q := make([]float64, n)
	qdot := make([]float64, n)
	for i := 0; i < n; i++ {
		q[i] = s.AtVec(i)
		qdot[i] = s.AtVec(n + i)
	}

	out := make([]float64, 2*n)
	copy(out[:n], qdot)
	copy(out[n:], e.acceleration(q, qdot))
	return out
}

// positions computes the world position of each body frame
func (e *Engine) positions(m *physics.Model, d *physics.Data, q []float64) {
	for b := 0; b < m.Nbody; b++ {
		if id := m.BodyMocapID[b]; id >= 0 {
			copy(d.Xpos[3*b:3*b+3], d.MocapPos[3*id:3*id+3])
			continue
		}
		copy(d.Xpos[3*b:3*b+3], m.BodyPos[b][:])
	}

	base := e.chain.Base
	phi := e.chain.AbsoluteAngles(q)
	x, z := base[0], base[2]
	for i, l := range e.chain.Links {
		d.Xpos[3*l.Body] = x
		d.Xpos[3*l.Body+1] = base[1]
		d.Xpos[3*l.Body+2] = z
		x += l.Length * math.Sin(phi[i])
		z += l.Length * math.Cos(phi[i])
	}
}
