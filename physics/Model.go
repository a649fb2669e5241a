package physics

import (
	"fmt"
	"math"
)

const (
	// MaxVal bounds the sentinel control range reported for actuators
	// which declare no usable range.
	MaxVal float64 = 1e10

	// DefaultTimestep is the integration timestep used when a scene
	// does not set one.
	DefaultTimestep float64 = 0.002
)

// Model holds the static description of a simulated system: sizes,
// topology, per-joint kinds and address tables, and actuator
// parameters. Per-object data is stored in flat slices indexed by
// object index, the same way the simulation state in Data is stored.
//
// Address tables must always be used to locate the state of a joint.
// Joints of different kinds occupy different numbers of entries in the
// position and velocity arrays, so offsets can never be computed from
// a fixed stride.
//
// A Model must not be modified after a Physics has been constructed
// from it.
type Model struct {
	Name string

	Nq      int // number of position coordinates
	Nv      int // number of degrees of freedom
	Nu      int // number of actuators
	Na      int // number of activation states
	Nbody   int // number of bodies, including the world body
	Njnt    int
	Ngeom   int
	Ncam    int
	Nmocap  int
	Nplugin int
	Npstate int // number of plugin state values

	Timestep float64
	Gravity  [3]float64

	// Bodies
	BodyParentID []int
	BodyJntAdr   []int // first joint of the body, -1 if none
	BodyJntNum   []int
	BodyMocapID  []int // -1 if the body is not a mocap body
	BodyPos      [][3]float64
	BodyMass     []float64
	BodyInertia  []float64 // moment of inertia about the joint axis at the centre of mass
	BodyLength   []float64 // distance from the body frame to the link tip
	BodyCOM      []float64 // distance from the body frame to the centre of mass

	// Joints
	JntType    []JointKind
	JntBodyID  []int
	JntQposAdr []int
	JntDofAdr  []int // -1 if the joint has no degrees of freedom
	JntAxis    [][3]float64
	JntDamping []float64
	JntLimited []bool
	JntRange   [][2]float64

	// Degrees of freedom
	DofJntID  []int
	DofBodyID []int

	// Geoms
	GeomBodyID []int
	GeomType   []string
	GeomFromTo [][6]float64
	GeomSize   []float64

	// Actuators
	ActuatorTrnID       []int // joint driven by the actuator
	ActuatorGear        []float64
	ActuatorCtrlLimited []bool
	ActuatorCtrlRange   [][2]float64
	ActuatorActAdr      []int // -1 if the actuator has no activation

	// Plugins
	PluginStateAdr []int // -1 if the plugin is stateless

	Qpos0 []float64

	names map[ObjType][]string
}

// NewModel returns an empty Model containing only the world body. It
// is mostly useful for building models by hand; scenes are usually
// compiled with ParseScene.
func NewModel(name string) *Model {
	m := &Model{
		Name:     name,
		Timestep: DefaultTimestep,
		Gravity:  [3]float64{0, 0, -9.81},
		names:    make(map[ObjType][]string),
	}
	m.AddBody("world", -1, [3]float64{}, false)
	return m
}

// AddBody appends a body to the model and returns its index
func (m *Model) AddBody(name string, parent int, pos [3]float64,
	mocap bool) int {
	if m.names == nil {
		m.names = make(map[ObjType][]string)
	}
	mocapID := -1
	if mocap {
		mocapID = m.Nmocap
		m.Nmocap++
	}

	m.BodyParentID = append(m.BodyParentID, parent)
	m.BodyJntAdr = append(m.BodyJntAdr, -1)
	m.BodyJntNum = append(m.BodyJntNum, 0)
	m.BodyMocapID = append(m.BodyMocapID, mocapID)
	m.BodyPos = append(m.BodyPos, pos)
	m.BodyMass = append(m.BodyMass, 0)
	m.BodyInertia = append(m.BodyInertia, 0)
	m.BodyLength = append(m.BodyLength, 0)
	m.BodyCOM = append(m.BodyCOM, 0)
	m.names[BodyObj] = append(m.names[BodyObj], name)
	m.Nbody++

	return m.Nbody - 1
}

// AddJoint appends a joint of the given kind to body and returns its
// index. Joints must be added body by body, in body order.
func (m *Model) AddJoint(name string, body int, kind JointKind,
	axis [3]float64, damping float64) int {
	id := m.Njnt
	if m.BodyJntAdr[body] < 0 {
		m.BodyJntAdr[body] = id
	}
	m.BodyJntNum[body]++

	m.JntType = append(m.JntType, kind)
	m.JntBodyID = append(m.JntBodyID, body)
	m.JntQposAdr = append(m.JntQposAdr, m.Nq)
	m.JntDofAdr = append(m.JntDofAdr, m.Nv)
	m.JntAxis = append(m.JntAxis, axis)
	m.JntDamping = append(m.JntDamping, damping)
	m.JntLimited = append(m.JntLimited, false)
	m.JntRange = append(m.JntRange, [2]float64{})
	m.names[JointObj] = append(m.names[JointObj], name)

	switch kind {
	case Free:
		pos := m.BodyPos[body]
		m.Qpos0 = append(m.Qpos0, pos[0], pos[1], pos[2], 1, 0, 0, 0)
	case Ball:
		m.Qpos0 = append(m.Qpos0, 1, 0, 0, 0)
	default:
		m.Qpos0 = append(m.Qpos0, 0)
	}
	for i := 0; i < kind.VelSize(); i++ {
		m.DofJntID = append(m.DofJntID, id)
		m.DofBodyID = append(m.DofBodyID, body)
	}

	m.Nq += kind.PosSize()
	m.Nv += kind.VelSize()
	m.Njnt++
	return id
}

// AddGeom appends a geom to body and returns its index
func (m *Model) AddGeom(name string, body int, typ string,
	fromTo [6]float64, size float64) int {
	m.GeomBodyID = append(m.GeomBodyID, body)
	m.GeomType = append(m.GeomType, typ)
	m.GeomFromTo = append(m.GeomFromTo, fromTo)
	m.GeomSize = append(m.GeomSize, size)
	m.names[GeomObj] = append(m.names[GeomObj], name)
	m.Ngeom++
	return m.Ngeom - 1
}

// AddCamera appends a named camera and returns its index
func (m *Model) AddCamera(name string) int {
	m.names[CameraObj] = append(m.names[CameraObj], name)
	m.Ncam++
	return m.Ncam - 1
}

// AddActuator appends an actuator driving joint and returns its index.
// If activated is true, the actuator is given one activation state.
func (m *Model) AddActuator(name string, joint int, gear float64,
	ctrlLimited bool, ctrlRange [2]float64, activated bool) int {
	actAdr := -1
	if activated {
		actAdr = m.Na
		m.Na++
	}
	m.ActuatorTrnID = append(m.ActuatorTrnID, joint)
	m.ActuatorGear = append(m.ActuatorGear, gear)
	m.ActuatorCtrlLimited = append(m.ActuatorCtrlLimited, ctrlLimited)
	m.ActuatorCtrlRange = append(m.ActuatorCtrlRange, ctrlRange)
	m.ActuatorActAdr = append(m.ActuatorActAdr, actAdr)
	m.names[ActuatorObj] = append(m.names[ActuatorObj], name)
	m.Nu++
	return m.Nu - 1
}

// AddPlugin appends a plugin with stateSize state values and returns
// its index. A plugin with stateSize 0 is stateless.
func (m *Model) AddPlugin(name string, stateSize int) int {
	adr := -1
	if stateSize > 0 {
		adr = m.Npstate
		m.Npstate += stateSize
	}
	m.PluginStateAdr = append(m.PluginStateAdr, adr)
	m.names[PluginObj] = append(m.names[PluginObj], name)
	m.Nplugin++
	return m.Nplugin - 1
}

// count returns the number of objects of category t
func (m *Model) count(t ObjType) int {
	switch t {
	case BodyObj:
		return m.Nbody
	case JointObj:
		return m.Njnt
	case DofObj:
		return m.Nv
	case GeomObj:
		return m.Ngeom
	case CameraObj:
		return m.Ncam
	case ActuatorObj:
		return m.Nu
	case PluginObj:
		return m.Nplugin
	}
	return 0
}

// Validate checks the internal consistency of the address tables
func (m *Model) Validate() error {
	if len(m.JntType) != m.Njnt || len(m.JntQposAdr) != m.Njnt ||
		len(m.JntDofAdr) != m.Njnt {
		return fmt.Errorf("validate: joint tables do not match njnt %v",
			m.Njnt)
	}
	for i, kind := range m.JntType {
		adr := m.JntQposAdr[i]
		if adr < 0 || adr+kind.PosSize() > m.Nq {
			return fmt.Errorf("validate: joint %v position address %v out "+
				"of range for nq %v", i, adr, m.Nq)
		}
		dof := m.JntDofAdr[i]
		if dof >= 0 && dof+kind.VelSize() > m.Nv {
			return fmt.Errorf("validate: joint %v dof address %v out of "+
				"range for nv %v", i, dof, m.Nv)
		}
	}
	for i, j := range m.ActuatorTrnID {
		if j < 0 || j >= m.Njnt {
			return fmt.Errorf("validate: actuator %v drives unknown joint %v",
				i, j)
		}
	}
	if len(m.Qpos0) != m.Nq {
		return fmt.Errorf("validate: qpos0 length %v does not match nq %v",
			len(m.Qpos0), m.Nq)
	}
	if m.Timestep <= 0 || math.IsNaN(m.Timestep) {
		return fmt.Errorf("validate: illegal timestep %v", m.Timestep)
	}
	return nil
}
