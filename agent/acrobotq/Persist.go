package acrobotq

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/gocontrol/agent/qtable"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
	"github.com/samuelfneumann/gocontrol/physics"
)

// PersistError is returned when an agent cannot be saved or loaded
type PersistError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%v %v: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// ActionRecord is the serialized form of an acrobot.Action
type ActionRecord struct {
	ActuatorID int     `json:"actuator_id"`
	Torque     float64 `json:"torque"`
	Index      int     `json:"digitization_index"`
}

// Record is the serialized form of an Agent
type Record struct {
	Actions              []ActionRecord `json:"digitized_actions"`
	QTable               *qtable.QTable `json:"qtable"`
	ArmDigitization      int            `json:"n_arm_digitization"`
	PendulumDigitization int            `json:"n_pendulum_digitization"`
}

// Record returns the serialized form of a. The table of the record is
// a snapshot which later learning does not change.
func (a *Agent) Record() (Record, error) {
	var data []byte
	var err error
	a.table.Do(func(q *qtable.QTable) { data, err = json.Marshal(q) })
	if err != nil {
		return Record{}, fmt.Errorf("record: %w", err)
	}
	snapshot := new(qtable.QTable)
	if err := json.Unmarshal(data, snapshot); err != nil {
		return Record{}, fmt.Errorf("record: %w", err)
	}

	actions := make([]ActionRecord, len(a.actions))
	for i, action := range a.actions {
		actions[i] = ActionRecord{
			ActuatorID: action.Actuator.Index(),
			Torque:     action.Torque,
			Index:      action.Index,
		}
	}

	return Record{
		Actions:              actions,
		QTable:               snapshot,
		ArmDigitization:      a.armDigitization,
		PendulumDigitization: a.pendulumDigitization,
	}, nil
}

// FromRecord returns the Agent serialized in r
func FromRecord(r Record) (*Agent, error) {
	if r.QTable == nil {
		return nil, fmt.Errorf("fromRecord: record has no table")
	}

	states, actions := r.QTable.Dims()
	if actions != len(r.Actions) {
		return nil, fmt.Errorf("fromRecord: table and ladder disagree on "+
			"the number of actions \n\twant(%v) \n\thave(%v)", actions,
			len(r.Actions))
	}
	arm, pend := r.ArmDigitization, r.PendulumDigitization
	if want := arm * arm * pend * pend; states != want {
		return nil, fmt.Errorf("fromRecord: table has %v states but the "+
			"digitization has %v", states, want)
	}

	ladder := make([]acrobot.Action, len(r.Actions))
	for i, action := range r.Actions {
		if action.Index != i {
			return nil, fmt.Errorf("fromRecord: action %v has index %v", i,
				action.Index)
		}
		ladder[i] = acrobot.Action{
			Actuator: physics.NewObjectID[physics.Actuator](action.ActuatorID),
			Torque:   action.Torque,
			Index:    action.Index,
		}
	}

	return newAgent(ladder, r.QTable, arm, pend), nil
}

// Save writes a to the file at path, replacing any existing file
func (a *Agent) Save(path string) error {
	r, err := a.Record()
	if err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}

	f, err := os.Create(path)
	if err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	if err := json.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &PersistError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Load reads an Agent from the file at path
func Load(path string) (*Agent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PersistError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	var r Record
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return nil, &PersistError{Op: "load", Path: path, Err: err}
	}
	a, err := FromRecord(r)
	if err != nil {
		return nil, &PersistError{Op: "load", Path: path, Err: err}
	}
	return a, nil
}
