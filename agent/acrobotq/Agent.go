// Package acrobotq implements a tabular Q-learning agent for the
// acrobot balance task, together with its persistence and a frozen
// policy for evaluation
package acrobotq

import (
	"fmt"

	"github.com/samuelfneumann/gocontrol/agent/qtable"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
)

// Config configures a new Agent
type Config struct {
	ActionSize int
	Alpha      float64
	Epsilon    float64
	Seed       uint64
}

// DefaultConfig returns the default agent configuration
func DefaultConfig() Config {
	return Config{
		ActionSize: 5,
		Alpha:      0.1,
		Epsilon:    0.5,
		Seed:       1,
	}
}

// Agent learns a Q-table over the digitized states of a BalanceTask
// and a ladder of shoulder torques. An Agent may be shared by several
// goroutines; every access to its table is serialized.
type Agent struct {
	actions []acrobot.Action
	q       *qtable.QTable
	table   *qtable.Locked

	armDigitization      int
	pendulumDigitization int
}

// New returns a new Agent with a zero Q-table sized for env's task.
// The action ladder spans the control range of env's shoulder motor.
func New(c Config, env *acrobot.Env) (*Agent, error) {
	task, ok := env.Task().(*acrobot.BalanceTask)
	if !ok {
		return nil, fmt.Errorf("new: environment task must be a " +
			"*acrobot.BalanceTask")
	}
	if c.ActionSize != task.ActionSize {
		return nil, fmt.Errorf("new: action size does not match the task "+
			"\n\twant(%v) \n\thave(%v)", task.ActionSize, c.ActionSize)
	}

	q, err := qtable.New(qtable.Config{
		StateSize:  task.StateSize(),
		ActionSize: c.ActionSize,
		Alpha:      c.Alpha,
		Epsilon:    c.Epsilon,
		Discount:   task.Discount(),
		Seed:       c.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	return newAgent(env.Physics().Actions(c.ActionSize), q,
		task.ArmDigitization, task.PendulumDigitization), nil
}

func newAgent(actions []acrobot.Action, q *qtable.QTable, arm,
	pendulum int) *Agent {
	return &Agent{
		actions:              actions,
		q:                    q,
		table:                qtable.NewLocked(q),
		armDigitization:      arm,
		pendulumDigitization: pendulum,
	}
}

func (a *Agent) state(s acrobot.State) qtable.State {
	state, err := qtable.NewState(a.q, s.Index)
	if err != nil {
		panic(fmt.Sprintf("state: %v", err))
	}
	return state
}

// ActionFor selects the action to take in s using strategy strat
func (a *Agent) ActionFor(strat qtable.Strategy, s acrobot.State) acrobot.Action {
	return a.actions[a.table.NextAction(strat, a.state(s)).Index()]
}

// Learn updates the value of taking action in state given the reward
// received and the next state reached
func (a *Agent) Learn(state acrobot.State, action acrobot.Action,
	reward float64, next acrobot.State) {
	act, err := qtable.NewAction(a.q, action.Index)
	if err != nil {
		panic(fmt.Sprintf("learn: %v", err))
	}

	a.table.Update(qtable.QUpdate{
		State:     a.state(state),
		Action:    act,
		Reward:    reward,
		NextState: a.state(next),
	})
}

// DecayAlpha multiplies the learning rate by rate
func (a *Agent) DecayAlpha(rate float64) {
	a.table.Do(func(q *qtable.QTable) { q.DecayAlpha(rate) })
}

// DecayEpsilon multiplies the exploration rate by rate
func (a *Agent) DecayEpsilon(rate float64) {
	a.table.Do(func(q *qtable.QTable) { q.DecayEpsilon(rate) })
}

// Alpha returns the current learning rate
func (a *Agent) Alpha() (alpha float64) {
	a.table.Do(func(q *qtable.QTable) { alpha = q.Alpha() })
	return
}

// Epsilon returns the current exploration rate
func (a *Agent) Epsilon() (epsilon float64) {
	a.table.Do(func(q *qtable.QTable) { epsilon = q.Epsilon() })
	return
}

// Seed sets the source of randomness of the exploring strategies
func (a *Agent) Seed(seed uint64) {
	a.table.Do(func(q *qtable.QTable) { q.Seed(seed) })
}

// Actions returns a copy of the action ladder
func (a *Agent) Actions() []acrobot.Action {
	return append([]acrobot.Action(nil), a.actions...)
}

// ArmDigitization returns the number of arm buckets the agent was
// trained with
func (a *Agent) ArmDigitization() int {
	return a.armDigitization
}

// PendulumDigitization returns the number of pendulum buckets the
// agent was trained with
func (a *Agent) PendulumDigitization() int {
	return a.pendulumDigitization
}

// Trained is a frozen policy which always takes the action of highest
// value
type Trained struct {
	agent *Agent
}

// NewTrained freezes a
func NewTrained(a *Agent) *Trained {
	return &Trained{a}
}

// LoadTrained loads a frozen policy from the record at path
func LoadTrained(path string) (*Trained, error) {
	a, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewTrained(a), nil
}

// ActionSize returns the number of actions in the ladder
func (t *Trained) ActionSize() int {
	return len(t.agent.actions)
}

// ArmDigitization returns the number of arm buckets of the policy
func (t *Trained) ArmDigitization() int {
	return t.agent.armDigitization
}

// PendulumDigitization returns the number of pendulum buckets of the
// policy
func (t *Trained) PendulumDigitization() int {
	return t.agent.pendulumDigitization
}

// TaskConfig returns c with the digitization and action ladder
// resolution of the policy, so that a task built from it digitizes
// states the way the policy was trained
func (t *Trained) TaskConfig(c acrobot.Config) acrobot.Config {
	c.ArmDigitization = t.ArmDigitization()
	c.PendulumDigitization = t.PendulumDigitization()
	c.ActionSize = t.ActionSize()
	return c
}

// Action returns the action of highest value in s
func (t *Trained) Action(s acrobot.State) acrobot.Action {
	return t.agent.ActionFor(qtable.MostQValue, s)
}
