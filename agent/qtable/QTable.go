// Package qtable implements a dense tabular action-value function
// learned with one-step Q-learning
package qtable

import (
	"encoding/json"
	"fmt"

	"github.com/samuelfneumann/gocontrol/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config configures a QTable
type Config struct {
	StateSize  int
	ActionSize int
	Alpha      float64 // learning rate
	Epsilon    float64 // exploration rate of EpsilonGreedy
	Discount   float64
	Seed       uint64
}

// DefaultConfig returns the hyperparameters the acrobot agents are
// trained with, for a table of the given dimensions
func DefaultConfig(stateSize, actionSize int) Config {
	return Config{
		StateSize:  stateSize,
		ActionSize: actionSize,
		Alpha:      0.1,
		Epsilon:    0.5,
		Discount:   0.99,
		Seed:       1,
	}
}

// Validate returns an error if c cannot configure a QTable
func (c Config) Validate() error {
	if c.StateSize < 1 || c.ActionSize < 1 {
		return fmt.Errorf("validate: table dimensions must be positive "+
			"\n\thave(%v x %v)", c.StateSize, c.ActionSize)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("validate: alpha cannot be negative \n\thave(%v)",
			c.Alpha)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [0, 1] \n\thave(%v)",
			c.Epsilon)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1] "+
			"\n\thave(%v)", c.Discount)
	}
	return nil
}

// QTable is a dense table of action values, one row per state and one
// column per action
type QTable struct {
	values   *mat.Dense
	alpha    float64
	epsilon  float64
	discount float64
	seed     rand.Source
}

// New returns a new zero-initialized QTable
func New(c Config) (*QTable, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return &QTable{
		values:   mat.NewDense(c.StateSize, c.ActionSize, nil),
		alpha:    c.Alpha,
		epsilon:  c.Epsilon,
		discount: c.Discount,
		seed:     rand.NewSource(c.Seed),
	}, nil
}

// Dims returns the number of states and actions of the table
func (q *QTable) Dims() (states, actions int) {
	return q.values.Dims()
}

// Alpha returns the current learning rate
func (q *QTable) Alpha() float64 { return q.alpha }

// Epsilon returns the current exploration rate
func (q *QTable) Epsilon() float64 { return q.epsilon }

// Discount returns the discount used in updates
func (q *QTable) Discount() float64 { return q.discount }

// At returns the action value of taking action a in state s
func (q *QTable) At(s State, a Action) float64 {
	return q.values.At(s.index, a.index)
}

// Row returns a copy of the action values of state s
func (q *QTable) Row(s State) []float64 {
	return mat.Row(nil, s.index, q.values)
}

// Seed sets the source of randomness used by the exploring strategies
func (q *QTable) Seed(seed uint64) {
	q.seed = rand.NewSource(seed)
}

// NextAction selects an action in state s using strategy strat
func (q *QTable) NextAction(strat Strategy, s State) Action {
	_, actions := q.values.Dims()

	switch strat {
	case Random:
		probs := make([]float64, actions)
		for i := range probs {
			probs[i] = 1.0 / float64(actions)
		}
		return Action{int(distuv.NewCategorical(probs, q.seed).Rand())}

	case EpsilonGreedy:
		greedy := floatutils.Argmax(q.Row(s))

		// Every action is explored with probability ε/|A|, and the
		// greedy action is taken with the remaining probability
		probs := make([]float64, actions)
		for i := range probs {
			probs[i] = q.epsilon / float64(actions)
		}
		probs[greedy] += 1.0 - q.epsilon
		return Action{int(distuv.NewCategorical(probs, q.seed).Rand())}

	case MostQValue:
		return Action{floatutils.Argmax(q.Row(s))}

	default:
		panic(fmt.Sprintf("nextAction: unknown strategy %v", strat))
	}
}

// QUpdate is a single transition to learn from
type QUpdate struct {
	State     State
	Action    Action
	Reward    float64
	NextState State
}

// Update performs the one-step Q-learning update
//
//	Q(s, a) ← Q(s, a) + α(r + γ max_a' Q(s', a') - Q(s, a))
func (q *QTable) Update(u QUpdate) {
	next := mat.Max(q.values.RowView(u.NextState.index))
	current := q.values.At(u.State.index, u.Action.index)

	target := u.Reward + q.discount*next
	q.values.Set(u.State.index, u.Action.index,
		current+q.alpha*(target-current))
}

// DecayAlpha multiplies the learning rate by rate
func (q *QTable) DecayAlpha(rate float64) {
	q.alpha *= rate
}

// DecayEpsilon multiplies the exploration rate by rate
func (q *QTable) DecayEpsilon(rate float64) {
	q.epsilon *= rate
}

// record is the serialized form of a QTable
type record struct {
	StateSize  int         `json:"state_size"`
	ActionSize int         `json:"action_size"`
	Alpha      float64     `json:"alpha"`
	Epsilon    float64     `json:"epsilon"`
	Discount   float64     `json:"discount"`
	Values     [][]float64 `json:"values"`
}

// MarshalJSON implements the json.Marshaler interface
func (q *QTable) MarshalJSON() ([]byte, error) {
	states, actions := q.values.Dims()
	values := make([][]float64, states)
	for i := range values {
		values[i] = mat.Row(nil, i, q.values)
	}

	return json.Marshal(record{
		StateSize:  states,
		ActionSize: actions,
		Alpha:      q.alpha,
		Epsilon:    q.epsilon,
		Discount:   q.discount,
		Values:     values,
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface. The source
// of randomness is reset to seed 1; use Seed to change it.
func (q *QTable) UnmarshalJSON(data []byte) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}

	c := Config{
		StateSize:  r.StateSize,
		ActionSize: r.ActionSize,
		Alpha:      r.Alpha,
		Epsilon:    r.Epsilon,
		Discount:   r.Discount,
		Seed:       1,
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("unmarshalJSON: %w", err)
	}
	if len(r.Values) != r.StateSize {
		return fmt.Errorf("unmarshalJSON: wrong number of rows \n\twant(%v) "+
			"\n\thave(%v)", r.StateSize, len(r.Values))
	}

	values := mat.NewDense(r.StateSize, r.ActionSize, nil)
	for i, row := range r.Values {
		if len(row) != r.ActionSize {
			return fmt.Errorf("unmarshalJSON: wrong number of columns in "+
				"row %v \n\twant(%v) \n\thave(%v)", i, r.ActionSize, len(row))
		}
		values.SetRow(i, row)
	}

	q.values = values
	q.alpha = r.Alpha
	q.epsilon = r.Epsilon
	q.discount = r.Discount
	q.seed = rand.NewSource(c.Seed)
	return nil
}
