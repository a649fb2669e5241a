package physics

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// FromXML compiles the scene description at path and binds engine e to
// it. Scene descriptions use the subset of MJCF understood by
// ParseScene.
func FromXML(path string, e Engine) (*Physics, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &EngineError{
			Op:  "load",
			Err: fmt.Errorf("fromXML: no such path '%v'", path),
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &EngineError{Op: "load", Err: err}
	}
	return FromXMLString(string(data), e)
}

// FromXMLString compiles the scene description src and binds engine e
// to it
func FromXMLString(src string, e Engine) (*Physics, error) {
	m, err := ParseScene(src)
	if err != nil {
		return nil, err
	}
	return New(m, e)
}

type xmlScene struct {
	XMLName   xml.Name     `xml:"mujoco"`
	Model     string       `xml:"model,attr"`
	Option    *xmlOption   `xml:"option"`
	Default   *xmlDefault  `xml:"default"`
	WorldBody xmlBody      `xml:"worldbody"`
	Actuator  *xmlActuator `xml:"actuator"`
}

type xmlOption struct {
	Timestep string `xml:"timestep,attr"`
	Gravity  string `xml:"gravity,attr"`
}

type xmlDefault struct {
	Joint *xmlJoint    `xml:"joint"`
	Geom  *xmlGeom     `xml:"geom"`
	Motor *xmlActuated `xml:"motor"`
}

type xmlBody struct {
	Name    string      `xml:"name,attr"`
	Pos     string      `xml:"pos,attr"`
	Mocap   string      `xml:"mocap,attr"`
	Joints  []xmlJoint  `xml:"joint"`
	Geoms   []xmlGeom   `xml:"geom"`
	Cameras []xmlCamera `xml:"camera"`
	Bodies  []xmlBody   `xml:"body"`
}

type xmlJoint struct {
	Name    string `xml:"name,attr"`
	Type    string `xml:"type,attr"`
	Axis    string `xml:"axis,attr"`
	Damping string `xml:"damping,attr"`
	Limited string `xml:"limited,attr"`
	Range   string `xml:"range,attr"`
}

type xmlGeom struct {
	Name   string `xml:"name,attr"`
	Type   string `xml:"type,attr"`
	FromTo string `xml:"fromto,attr"`
	Size   string `xml:"size,attr"`
	Mass   string `xml:"mass,attr"`
}

type xmlCamera struct {
	Name string `xml:"name,attr"`
}

type xmlActuator struct {
	Items []xmlActuated `xml:",any"`
}

type xmlActuated struct {
	XMLName     xml.Name
	Name        string `xml:"name,attr"`
	Joint       string `xml:"joint,attr"`
	Gear        string `xml:"gear,attr"`
	CtrlLimited string `xml:"ctrllimited,attr"`
	CtrlRange   string `xml:"ctrlrange,attr"`
	DynType     string `xml:"dyntype,attr"`
}

// ParseScene compiles an MJCF scene description into a Model. The
// supported subset is:
//
//	<mujoco model>
//	  <option timestep gravity/>
//	  <default> with <joint>, <geom> and <motor> attribute defaults
//	  <worldbody> with nested <body name pos mocap>, each holding
//	    <joint name type axis damping limited range>,
//	    <geom name type fromto size mass> and <camera name>
//	  <actuator> with <motor> and <general> elements
//	    (name joint gear ctrllimited ctrlrange dyntype)
//
// Unsupported elements are ignored. Any error is returned as an
// *EngineError.
func ParseScene(src string) (*Model, error) {
	m, err := parseScene(src)
	if err != nil {
		return nil, &EngineError{Op: "compile", Err: err}
	}
	return m, nil
}

func parseScene(src string) (*Model, error) {
	var scene xmlScene
	if err := xml.Unmarshal([]byte(src), &scene); err != nil {
		return nil, fmt.Errorf("parseScene: could not decode XML: %w", err)
	}

	m := NewModel(scene.Model)
	c := compiler{model: m, defaults: scene.Default}
	if c.defaults == nil {
		c.defaults = &xmlDefault{}
	}

	if scene.Option != nil {
		if scene.Option.Timestep != "" {
			ts, err := parseFloat("timestep", scene.Option.Timestep)
			if err != nil {
				return nil, err
			}
			m.Timestep = ts
		}
		if scene.Option.Gravity != "" {
			g, err := parseVec("gravity", scene.Option.Gravity, 3)
			if err != nil {
				return nil, err
			}
			copy(m.Gravity[:], g)
		}
	}

	// The world body may carry static geoms and cameras, but no joints
	if len(scene.WorldBody.Joints) > 0 {
		return nil, fmt.Errorf("parseScene: world body cannot have joints")
	}
	if err := c.geoms(0, scene.WorldBody.Geoms); err != nil {
		return nil, err
	}
	for _, cam := range scene.WorldBody.Cameras {
		m.AddCamera(cam.Name)
	}
	for _, b := range scene.WorldBody.Bodies {
		if err := c.body(0, b); err != nil {
			return nil, err
		}
	}

	if scene.Actuator != nil {
		for _, a := range scene.Actuator.Items {
			if err := c.actuator(a); err != nil {
				return nil, err
			}
		}
	}

	return m, m.Validate()
}

// compiler accumulates a Model from decoded MJCF elements
type compiler struct {
	model    *Model
	defaults *xmlDefault
}

func (c compiler) body(parent int, b xmlBody) error {
	var pos [3]float64
	if b.Pos != "" {
		p, err := parseVec("body "+b.Name+" pos", b.Pos, 3)
		if err != nil {
			return err
		}
		copy(pos[:], p)
	}
	mocap, err := parseBool("body "+b.Name+" mocap", b.Mocap, false)
	if err != nil {
		return err
	}
	if mocap && parent != 0 {
		return fmt.Errorf("body %q: mocap bodies must be children of the "+
			"world body", b.Name)
	}
	if mocap && len(b.Joints) > 0 {
		return fmt.Errorf("body %q: mocap bodies cannot have joints", b.Name)
	}

	id := c.model.AddBody(b.Name, parent, pos, mocap)
	for _, j := range b.Joints {
		if err := c.joint(id, j); err != nil {
			return err
		}
	}
	if err := c.geoms(id, b.Geoms); err != nil {
		return err
	}
	for _, cam := range b.Cameras {
		c.model.AddCamera(cam.Name)
	}
	for _, child := range b.Bodies {
		if err := c.body(id, child); err != nil {
			return err
		}
	}
	return nil
}

func (c compiler) joint(body int, j xmlJoint) error {
	if d := c.defaults.Joint; d != nil {
		j.Type = or(j.Type, d.Type)
		j.Axis = or(j.Axis, d.Axis)
		j.Damping = or(j.Damping, d.Damping)
		j.Limited = or(j.Limited, d.Limited)
		j.Range = or(j.Range, d.Range)
	}

	kind, err := ParseJointKind(j.Type)
	if err != nil {
		return fmt.Errorf("joint %q: %w", j.Name, err)
	}
	axis := [3]float64{0, 0, 1}
	if j.Axis != "" {
		a, err := parseVec("joint "+j.Name+" axis", j.Axis, 3)
		if err != nil {
			return err
		}
		norm := math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
		if norm == 0 {
			return fmt.Errorf("joint %q: zero axis", j.Name)
		}
		axis = [3]float64{a[0] / norm, a[1] / norm, a[2] / norm}
	}
	var damping float64
	if j.Damping != "" {
		damping, err = parseFloat("joint "+j.Name+" damping", j.Damping)
		if err != nil {
			return err
		}
	}

	id := c.model.AddJoint(j.Name, body, kind, axis, damping)

	limited, err := parseBool("joint "+j.Name+" limited", j.Limited,
		j.Range != "")
	if err != nil {
		return err
	}
	if limited {
		r, err := parseVec("joint "+j.Name+" range", j.Range, 2)
		if err != nil {
			return err
		}
		c.model.JntLimited[id] = true
		c.model.JntRange[id] = [2]float64{r[0], r[1]}
	}
	return nil
}

// geoms adds the geoms of body and derives the body's mass, centre of
// mass, and inertia from its segment geoms, treating each as a thin
// rod along its fromto segment.
func (c compiler) geoms(body int, geoms []xmlGeom) error {
	var mass, moment, inertia, length float64
	for _, g := range geoms {
		if d := c.defaults.Geom; d != nil {
			g.Type = or(g.Type, d.Type)
			g.Size = or(g.Size, d.Size)
			g.Mass = or(g.Mass, d.Mass)
		}

		var fromTo [6]float64
		if g.FromTo != "" {
			f, err := parseVec("geom "+g.Name+" fromto", g.FromTo, 6)
			if err != nil {
				return err
			}
			copy(fromTo[:], f)
		}
		var size float64
		if g.Size != "" {
			s := strings.Fields(g.Size)
			var err error
			size, err = parseFloat("geom "+g.Name+" size", s[0])
			if err != nil {
				return err
			}
		}
		gMass := 1.0
		if g.Mass != "" {
			var err error
			gMass, err = parseFloat("geom "+g.Name+" mass", g.Mass)
			if err != nil {
				return err
			}
		}

		c.model.AddGeom(g.Name, body, or(g.Type, "sphere"), fromTo, size)
		if body == 0 || gMass == 0 {
			continue
		}

		// Distance of the segment ends from the body frame origin
		from := math.Sqrt(fromTo[0]*fromTo[0] + fromTo[1]*fromTo[1] +
			fromTo[2]*fromTo[2])
		to := math.Sqrt(fromTo[3]*fromTo[3] + fromTo[4]*fromTo[4] +
			fromTo[5]*fromTo[5])
		segLen := math.Abs(to - from)
		mid := (from + to) / 2

		mass += gMass
		moment += gMass * mid
		inertia += gMass*segLen*segLen/12 + gMass*mid*mid
		length = math.Max(length, math.Max(from, to))
	}

	if mass > 0 {
		com := moment / mass
		c.model.BodyMass[body] = mass
		c.model.BodyCOM[body] = com

		// Shift the inertia from the body origin to the centre of mass
		c.model.BodyInertia[body] = inertia - mass*com*com
	}
	c.model.BodyLength[body] = length
	return nil
}

func (c compiler) actuator(a xmlActuated) error {
	switch a.XMLName.Local {
	case "motor", "general":
	default:
		return fmt.Errorf("actuator %q: unsupported actuator type %q", a.Name,
			a.XMLName.Local)
	}
	if d := c.defaults.Motor; d != nil {
		a.Gear = or(a.Gear, d.Gear)
		a.CtrlLimited = or(a.CtrlLimited, d.CtrlLimited)
		a.CtrlRange = or(a.CtrlRange, d.CtrlRange)
		a.DynType = or(a.DynType, d.DynType)
	}

	joint := -1
	for i, name := range c.model.names[JointObj] {
		if name == a.Joint {
			joint = i
			break
		}
	}
	if joint < 0 {
		return fmt.Errorf("actuator %q: unknown joint %q", a.Name, a.Joint)
	}

	gear := 1.0
	if a.Gear != "" {
		g, err := parseFloat("actuator "+a.Name+" gear",
			strings.Fields(a.Gear)[0])
		if err != nil {
			return err
		}
		gear = g
	}
	limited, err := parseBool("actuator "+a.Name+" ctrllimited",
		a.CtrlLimited, a.CtrlRange != "")
	if err != nil {
		return err
	}
	var ctrlRange [2]float64
	if a.CtrlRange != "" {
		r, err := parseVec("actuator "+a.Name+" ctrlrange", a.CtrlRange, 2)
		if err != nil {
			return err
		}
		ctrlRange = [2]float64{r[0], r[1]}
	}
	activated := a.DynType != "" && a.DynType != "none"

	c.model.AddActuator(a.Name, joint, gear, limited, ctrlRange, activated)
	return nil
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func parseFloat(what, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%v: malformed number %q", what, s)
	}
	return f, nil
}

func parseVec(what, s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("%v: expected %v numbers \n\twant(%v) "+
			"\n\thave(%v)", what, n, n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := parseFloat(what, f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseBool(what, s string, def bool) (bool, error) {
	switch s {
	case "":
		return def, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "auto":
		return def, nil
	}
	return false, fmt.Errorf("%v: malformed boolean %q", what, s)
}
