package physics

import (
	"errors"
	"math"
	"testing"
)

// nopEngine leaves the state untouched, so that accessors can be
// tested on models no real engine can simulate
type nopEngine struct{}

func (nopEngine) Bind(*Model) error     { return nil }
func (nopEngine) Forward(*Model, *Data) {}
func (nopEngine) Step(m *Model, d *Data) {
	d.Time += m.Timestep
}

const testScene = `
<mujoco model="test">
  <option timestep="0.01" gravity="0 0 -9.81"/>
  <default>
    <joint damping="0.1"/>
    <geom type="capsule" mass="1"/>
  </default>
  <worldbody>
    <camera name="fixed"/>
    <body name="target" pos="1 2 3" mocap="true">
      <geom name="target" type="sphere" size="0.1" mass="0"/>
    </body>
    <body name="floating" pos="0 0 1">
      <joint name="free" type="free"/>
      <geom name="floating" fromto="0 0 0 0 0 1" size="0.05"/>
      <body name="ball_body" pos="0 0 1">
        <joint name="ball" type="ball"/>
        <geom fromto="0 0 0 0 0 1" size="0.05"/>
        <body name="slider" pos="0 0 1">
          <joint name="slide" type="slide" axis="1 0 0"/>
          <joint name="hinge" type="hinge" axis="0 1 0" range="-1 1"/>
          <geom fromto="0 0 0 0 0 1" size="0.05"/>
        </body>
      </body>
    </body>
  </worldbody>
  <actuator>
    <motor name="slide" joint="slide" gear="2" ctrllimited="true" ctrlrange="-1 1"/>
    <general name="hinge" joint="hinge" dyntype="integrator"/>
    <motor name="degenerate" joint="hinge" ctrllimited="true" ctrlrange="0 0"/>
    <motor name="nan" joint="hinge" ctrllimited="true" ctrlrange="nan 1"/>
  </actuator>
</mujoco>
`

func newTestPhysics(t testing.TB) *Physics {
	p, err := FromXMLString(testScene, nopEngine{})
	if err != nil {
		t.Fatalf("could not compile scene: %v", err)
	}
	return p
}

func jointID(t testing.TB, p *Physics, name string) ObjectID[Joint] {
	id, err := ObjectIDOf[Joint](p, name)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCompile(t *testing.T) {
	p := newTestPhysics(t)
	m := p.Model()

	if m.Nq != 7+4+1+1 {
		t.Errorf("nq \n\twant(%v) \n\thave(%v)", 13, m.Nq)
	}
	if m.Nv != 6+3+1+1 {
		t.Errorf("nv \n\twant(%v) \n\thave(%v)", 11, m.Nv)
	}
	if m.Timestep != 0.01 {
		t.Errorf("timestep \n\twant(%v) \n\thave(%v)", 0.01, m.Timestep)
	}
	if m.JntDamping[0] != 0.1 {
		t.Errorf("default damping not applied \n\twant(0.1) \n\thave(%v)",
			m.JntDamping[0])
	}

	// Address tables are cumulative over joint kinds
	wantQposAdr := []int{0, 7, 11, 12}
	wantDofAdr := []int{0, 6, 9, 10}
	for i := range wantQposAdr {
		if m.JntQposAdr[i] != wantQposAdr[i] {
			t.Errorf("qpos address of joint %v \n\twant(%v) \n\thave(%v)", i,
				wantQposAdr[i], m.JntQposAdr[i])
		}
		if m.JntDofAdr[i] != wantDofAdr[i] {
			t.Errorf("dof address of joint %v \n\twant(%v) \n\thave(%v)", i,
				wantDofAdr[i], m.JntDofAdr[i])
		}
	}

	if got := Count[Body](p); got != 5 {
		t.Errorf("body count \n\twant(5) \n\thave(%v)", got)
	}
	if got := Count[Actuator](p); got != 4 {
		t.Errorf("actuator count \n\twant(4) \n\thave(%v)", got)
	}
	if got := Count[Camera](p); got != 1 {
		t.Errorf("camera count \n\twant(1) \n\thave(%v)", got)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := map[string]string{
		"malformed": `<mujoco><worldbody>`,
		"joint type": `<mujoco><worldbody><body><joint type="screw"/>` +
			`</body></worldbody></mujoco>`,
		"number": `<mujoco><option timestep="fast"/></mujoco>`,
		"actuator joint": `<mujoco><worldbody/><actuator>` +
			`<motor joint="missing"/></actuator></mujoco>`,
	}

	for name, src := range tests {
		_, err := FromXMLString(src, nopEngine{})
		var engineErr *EngineError
		if !errors.As(err, &engineErr) {
			t.Errorf("%v: expected EngineError \n\thave(%v)", name, err)
			continue
		}
		if engineErr.Op != "compile" {
			t.Errorf("%v: op \n\twant(compile) \n\thave(%v)", name,
				engineErr.Op)
		}
	}
}

func TestFromXMLMissingFile(t *testing.T) {
	_, err := FromXML(t.TempDir()+"/missing.xml", nopEngine{})
	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Errorf("expected EngineError \n\thave(%v)", err)
	}
}

func TestObjectIDOf(t *testing.T) {
	p := newTestPhysics(t)

	id, err := ObjectIDOf[Joint](p, "hinge")
	if err != nil {
		t.Fatal(err)
	}
	if id.Index() != 3 {
		t.Errorf("index \n\twant(3) \n\thave(%v)", id.Index())
	}
	if name := NameOf(p, id); name != "hinge" {
		t.Errorf("name \n\twant(hinge) \n\thave(%v)", name)
	}

	// Names are resolved per category
	act, err := ObjectIDOf[Actuator](p, "hinge")
	if err != nil {
		t.Fatal(err)
	}
	if act.Index() != 1 {
		t.Errorf("actuator index \n\twant(1) \n\thave(%v)", act.Index())
	}

	_, err = ObjectIDOf[Geom](p, "hinge")
	var notFound *NameNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NameNotFoundError \n\thave(%v)", err)
	}
	if notFound.Type != GeomObj || notFound.Name != "hinge" {
		t.Errorf("unexpected error contents: %v", notFound)
	}
}

func TestSetQposQpos(t *testing.T) {
	p := newTestPhysics(t)

	free := []float64{1, 2, 3, 0, 1, 0, 0}
	if err := SetQpos[FreeJoint](p, jointID(t, p, "free"), free); err != nil {
		t.Fatal(err)
	}
	ball := []float64{0, 0, 0, 1}
	if err := SetQpos[BallJoint](p, jointID(t, p, "ball"), ball); err != nil {
		t.Fatal(err)
	}
	slide := []float64{0.25}
	if err := SetQpos[SlideJoint](p, jointID(t, p, "slide"), slide); err != nil {
		t.Fatal(err)
	}
	hinge := []float64{-0.5}
	if err := SetQpos[HingeJoint](p, jointID(t, p, "hinge"), hinge); err != nil {
		t.Fatal(err)
	}

	got, _ := Qpos[FreeJoint](p, jointID(t, p, "free"))
	if !equal(got, free) {
		t.Errorf("free qpos \n\twant(%v) \n\thave(%v)", free, got)
	}
	got, _ = Qpos[BallJoint](p, jointID(t, p, "ball"))
	if !equal(got, ball) {
		t.Errorf("ball qpos \n\twant(%v) \n\thave(%v)", ball, got)
	}
	got, _ = Qpos[SlideJoint](p, jointID(t, p, "slide"))
	if !equal(got, slide) {
		t.Errorf("slide qpos \n\twant(%v) \n\thave(%v)", slide, got)
	}
	got, _ = Qpos[HingeJoint](p, jointID(t, p, "hinge"))
	if !equal(got, hinge) {
		t.Errorf("hinge qpos \n\twant(%v) \n\thave(%v)", hinge, got)
	}

	// Returned slices are copies
	got[0] = 100
	again, _ := Qpos[HingeJoint](p, jointID(t, p, "hinge"))
	if again[0] != hinge[0] {
		t.Error("qpos aliases the simulation state")
	}
}

func TestSetQvelQvel(t *testing.T) {
	p := newTestPhysics(t)

	vel := []float64{1, 2, 3}
	id := jointID(t, p, "ball")
	if err := SetQvel[BallJoint](p, id, vel); err != nil {
		t.Fatal(err)
	}
	got, err := Qvel[BallJoint](p, id)
	if err != nil {
		t.Fatal(err)
	}
	if !equal(got, vel) {
		t.Errorf("ball qvel \n\twant(%v) \n\thave(%v)", vel, got)
	}
}

func TestKindMismatch(t *testing.T) {
	p := newTestPhysics(t)
	slide := jointID(t, p, "slide")

	before := make([]float64, len(p.data.Qpos))
	copy(before, p.data.Qpos)

	err := SetQpos[HingeJoint](p, slide, []float64{1})
	var mismatch *KindMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected KindMismatchError \n\thave(%v)", err)
	}
	if mismatch.Expected != Hinge || mismatch.Found != Slide {
		t.Errorf("mismatch \n\twant(hinge, slide) \n\thave(%v, %v)",
			mismatch.Expected, mismatch.Found)
	}
	if !equal(before, p.data.Qpos) {
		t.Error("state mutated after kind mismatch")
	}

	if _, err := Qpos[HingeJoint](p, slide); !errors.As(err, &mismatch) {
		t.Errorf("expected KindMismatchError from Qpos \n\thave(%v)", err)
	}
	if _, err := Qvel[FreeJoint](p, slide); !errors.As(err, &mismatch) {
		t.Errorf("expected KindMismatchError from Qvel \n\thave(%v)", err)
	}
	if err := SetQvel[BallJoint](p, slide, []float64{0, 0, 0}); !errors.As(err,
		&mismatch) {
		t.Errorf("expected KindMismatchError from SetQvel \n\thave(%v)", err)
	}
}

func TestSetQposWrongLength(t *testing.T) {
	p := newTestPhysics(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on wrong number of positions")
		}
	}()
	SetQpos[BallJoint](p, jointID(t, p, "ball"), []float64{1, 0, 0})
}

func TestQvelNoDof(t *testing.T) {
	m := NewModel("nodof")
	b := m.AddBody("b", 0, [3]float64{}, false)
	j := m.AddJoint("j", b, Hinge, [3]float64{0, 1, 0}, 0)
	m.JntDofAdr[j] = -1

	p, err := New(m, nopEngine{})
	if err != nil {
		t.Fatal(err)
	}
	vel, err := Qvel[HingeJoint](p, NewObjectID[Joint](j))
	if err != nil {
		t.Fatal(err)
	}
	if len(vel) != 0 {
		t.Errorf("expected no velocities \n\thave(%v)", vel)
	}
}

func TestControlRange(t *testing.T) {
	p := newTestPhysics(t)
	tests := map[string][2]float64{
		"slide":      {-1, 1},
		"hinge":      {-MaxVal, MaxVal}, // not limited
		"degenerate": {-MaxVal, MaxVal},
		"nan":        {-MaxVal, MaxVal},
	}
	for name, want := range tests {
		id, err := ObjectIDOf[Actuator](p, name)
		if err != nil {
			t.Fatal(err)
		}
		got := p.ControlRange(id)
		if got.Min != want[0] || got.Max != want[1] {
			t.Errorf("%v: \n\twant(%v) \n\thave(%v)", name, want, got)
		}
	}
}

func TestCtrlAndActuators(t *testing.T) {
	p := newTestPhysics(t)
	id, _ := ObjectIDOf[Actuator](p, "slide")

	// No clamping at this layer
	p.Actuators().Set(id, 5)
	if got := p.Ctrl(id); got != 5 {
		t.Errorf("ctrl \n\twant(5) \n\thave(%v)", got)
	}
}

func TestAct(t *testing.T) {
	p := newTestPhysics(t)

	stateless, _ := ObjectIDOf[Actuator](p, "slide")
	if _, ok := p.Act(stateless); ok {
		t.Error("expected no activation")
	}
	var se *StatelessError
	if err := p.SetAct(stateless, 1); !errors.As(err, &se) {
		t.Errorf("expected StatelessError \n\thave(%v)", err)
	}

	activated, _ := ObjectIDOf[Actuator](p, "hinge")
	if err := p.SetAct(activated, 0.5); err != nil {
		t.Fatal(err)
	}
	if got, ok := p.Act(activated); !ok || got != 0.5 {
		t.Errorf("act \n\twant(0.5, true) \n\thave(%v, %v)", got, ok)
	}
}

func TestPluginState(t *testing.T) {
	m := NewModel("plugins")
	stateless := m.AddPlugin("stateless", 0)
	stateful := m.AddPlugin("stateful", 2)
	p, err := New(m, nopEngine{})
	if err != nil {
		t.Fatal(err)
	}

	var se *StatelessError
	err = p.SetPluginState(NewObjectID[Plugin](stateless), 1)
	if !errors.As(err, &se) {
		t.Errorf("expected StatelessError \n\thave(%v)", err)
	}
	if _, ok := p.PluginState(NewObjectID[Plugin](stateless)); ok {
		t.Error("expected stateless plugin")
	}

	id := NewObjectID[Plugin](stateful)
	if err := p.SetPluginState(id, 3); err != nil {
		t.Fatal(err)
	}
	if got, ok := p.PluginState(id); !ok || got != 3 {
		t.Errorf("plugin state \n\twant(3, true) \n\thave(%v, %v)", got, ok)
	}
}

func TestMocap(t *testing.T) {
	p := newTestPhysics(t)

	target, _ := ObjectIDOf[Body](p, "target")
	pos, ok := p.MocapPos(target)
	if !ok || pos != [3]float64{1, 2, 3} {
		t.Errorf("mocap pos \n\twant([1 2 3], true) \n\thave(%v, %v)", pos, ok)
	}
	quat := [4]float64{0, 1, 0, 0}
	if err := p.SetMocapQuat(target, quat); err != nil {
		t.Fatal(err)
	}
	if got, _ := p.MocapQuat(target); got != quat {
		t.Errorf("mocap quat \n\twant(%v) \n\thave(%v)", quat, got)
	}

	floating, _ := ObjectIDOf[Body](p, "floating")
	if _, ok := p.MocapPos(floating); ok {
		t.Error("expected non-mocap body")
	}
	var nm *NotMocapError
	if err := p.SetMocapPos(floating, [3]float64{}); !errors.As(err, &nm) {
		t.Errorf("expected NotMocapError \n\thave(%v)", err)
	}
}

func TestAppliedForces(t *testing.T) {
	p := newTestPhysics(t)

	dof := NewObjectID[Dof](2)
	p.SetQfrcApplied(dof, 1.5)
	p.SetQaccWarmstart(dof, -2)
	if p.QfrcApplied(dof) != 1.5 || p.QaccWarmstart(dof) != -2 {
		t.Error("dof accessors did not round trip")
	}

	body, _ := ObjectIDOf[Body](p, "slider")
	wrench := [6]float64{1, 2, 3, 4, 5, 6}
	p.SetXfrcApplied(body, wrench)
	if got := p.XfrcApplied(body); got != wrench {
		t.Errorf("xfrc \n\twant(%v) \n\thave(%v)", wrench, got)
	}
}

func TestReset(t *testing.T) {
	p := newTestPhysics(t)
	hinge := jointID(t, p, "hinge")
	SetQpos[HingeJoint](p, hinge, []float64{1})
	SetQvel[HingeJoint](p, hinge, []float64{1})
	p.Step()
	if p.Time() == 0 {
		t.Fatal("step did not advance time")
	}

	p.Reset()
	if p.Time() != 0 {
		t.Errorf("time \n\twant(0) \n\thave(%v)", p.Time())
	}
	qpos, _ := Qpos[HingeJoint](p, hinge)
	qvel, _ := Qvel[HingeJoint](p, hinge)
	if qpos[0] != 0 || qvel[0] != 0 {
		t.Errorf("state not reset \n\thave(%v, %v)", qpos, qvel)
	}

	// The free joint resets to its body position with identity rotation
	free, _ := Qpos[FreeJoint](p, jointID(t, p, "free"))
	if !equal(free, []float64{0, 0, 1, 1, 0, 0, 0}) {
		t.Errorf("free joint reset \n\thave(%v)", free)
	}
}

func TestPlanarChain(t *testing.T) {
	p := newTestPhysics(t)
	if _, err := PlanarChain(p.Model()); err == nil {
		t.Error("expected error for a non-planar model")
	}

	m, err := ParseScene(`
<mujoco>
  <worldbody>
    <body name="upper" pos="0 0 2">
      <joint name="shoulder" axis="0 1 0"/>
      <geom fromto="0 0 0 0 0 1" mass="2"/>
      <body name="lower" pos="0 0 1">
        <joint name="elbow" axis="0 -1 0"/>
        <geom fromto="0 0 0 0 0 1" mass="1"/>
      </body>
    </body>
  </worldbody>
</mujoco>`)
	if err != nil {
		t.Fatal(err)
	}
	chain, err := PlanarChain(m)
	if err != nil {
		t.Fatal(err)
	}
	if len(chain.Links) != 2 {
		t.Fatalf("links \n\twant(2) \n\thave(%v)", len(chain.Links))
	}
	upper := chain.Links[0]
	if upper.Length != 1 || upper.COM != 0.5 || upper.Mass != 2 {
		t.Errorf("upper link \n\thave(%+v)", upper)
	}
	if want := 2.0 / 12; math.Abs(upper.Inertia-want) > 1e-12 {
		t.Errorf("upper inertia \n\twant(%v) \n\thave(%v)", want,
			upper.Inertia)
	}
	if chain.Links[1].Sign != -1 {
		t.Errorf("lower sign \n\twant(-1) \n\thave(%v)", chain.Links[1].Sign)
	}

	phi := chain.AbsoluteAngles([]float64{0.5, 0.25})
	if phi[0] != 0.5 || phi[1] != 0.25 {
		t.Errorf("absolute angles \n\twant([0.5 0.25]) \n\thave(%v)", phi)
	}
}

func BenchmarkQpos(b *testing.B) {
	p := newTestPhysics(b)
	id := jointID(b, p, "hinge")
	for i := 0; i < b.N; i++ {
		Qpos[HingeJoint](p, id)
	}
}
