package physics

// Data holds the mutable runtime state of a simulation. All arrays are
// flat and laid out according to the address tables of the Model the
// Data was created for.
//
// Data is handed to an Engine when the simulation is advanced. Other
// code reads and writes it only through the accessors of Physics.
type Data struct {
	Time float64

	Qpos          []float64 // nq
	Qvel          []float64 // nv
	Qacc          []float64 // nv
	QaccWarmstart []float64 // nv
	QfrcApplied   []float64 // nv
	XfrcApplied   []float64 // 6 * nbody
	Ctrl          []float64 // nu
	Act           []float64 // na
	MocapPos      []float64 // 3 * nmocap
	MocapQuat     []float64 // 4 * nmocap
	PluginState   []float64 // npstate

	// Xpos holds the world frame position of each body, 3 * nbody. It
	// is computed by the Engine.
	Xpos []float64
}

// NewData allocates a Data for m in its reset state
func NewData(m *Model) *Data {
	d := &Data{
		Qpos:          make([]float64, m.Nq),
		Qvel:          make([]float64, m.Nv),
		Qacc:          make([]float64, m.Nv),
		QaccWarmstart: make([]float64, m.Nv),
		QfrcApplied:   make([]float64, m.Nv),
		XfrcApplied:   make([]float64, 6*m.Nbody),
		Ctrl:          make([]float64, m.Nu),
		Act:           make([]float64, m.Na),
		MocapPos:      make([]float64, 3*m.Nmocap),
		MocapQuat:     make([]float64, 4*m.Nmocap),
		PluginState:   make([]float64, m.Npstate),
		Xpos:          make([]float64, 3*m.Nbody),
	}
	d.Reset(m)
	return d
}

// Reset sets positions to the model's reference configuration and
// zeroes every other quantity, including time.
func (d *Data) Reset(m *Model) {
	d.Time = 0
	copy(d.Qpos, m.Qpos0)
	for _, s := range [][]float64{d.Qvel, d.Qacc, d.QaccWarmstart,
		d.QfrcApplied, d.XfrcApplied, d.Ctrl, d.Act, d.PluginState, d.Xpos} {
		for i := range s {
			s[i] = 0
		}
	}
	for b, id := range m.BodyMocapID {
		if id < 0 {
			continue
		}
		copy(d.MocapPos[3*id:3*id+3], m.BodyPos[b][:])
		copy(d.MocapQuat[4*id:4*id+4], []float64{1, 0, 0, 0})
	}
}
