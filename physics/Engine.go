package physics

// Engine advances a simulation. An Engine is bound to a single Model
// before use and is then driven through Forward and Step with the Data
// owned by a Physics.
//
// Engines read Qpos, Qvel, Ctrl, Act, QfrcApplied and XfrcApplied and
// write Qpos, Qvel, Qacc, Act, Xpos and Time. They must not retain the
// Data between calls.
type Engine interface {
	// Bind prepares the engine for m, returning an error if the engine
	// cannot simulate the model.
	Bind(m *Model) error

	// Forward computes derived quantities (body positions,
	// accelerations) for the current state without advancing time.
	Forward(m *Model, d *Data)

	// Step advances the simulation by one model timestep
	Step(m *Model, d *Data)
}
