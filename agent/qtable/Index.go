package qtable

import "fmt"

// State is a row index of a QTable
type State struct {
	index int
}

// NewState returns the State with index i in q
func NewState(q *QTable, i int) (State, error) {
	states, _ := q.Dims()
	if i < 0 || i >= states {
		return State{}, &IndexError{Kind: "state", Index: i, Size: states}
	}
	return State{i}, nil
}

// Index returns the row of the state
func (s State) Index() int { return s.index }

// Action is a column index of a QTable
type Action struct {
	index int
}

// NewAction returns the Action with index i in q
func NewAction(q *QTable, i int) (Action, error) {
	_, actions := q.Dims()
	if i < 0 || i >= actions {
		return Action{}, &IndexError{Kind: "action", Index: i, Size: actions}
	}
	return Action{i}, nil
}

// Index returns the column of the action
func (a Action) Index() int { return a.index }

// IndexError is returned when a state or action index lies outside a
// QTable
type IndexError struct {
	Kind  string
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v index out of range \n\twant([0, %v)) "+
		"\n\thave(%v)", e.Kind, e.Size, e.Index)
}
