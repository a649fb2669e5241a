package qtable

import "sync"

// Locked serializes access to a QTable shared by several workers
type Locked struct {
	mu sync.Mutex
	q  *QTable
}

// NewLocked returns a new Locked wrapping q
func NewLocked(q *QTable) *Locked {
	return &Locked{q: q}
}

// NextAction selects an action in state s using strategy strat
func (l *Locked) NextAction(strat Strategy, s State) Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q.NextAction(strat, s)
}

// Update performs a Q-learning update
func (l *Locked) Update(u QUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.q.Update(u)
}

// Do calls f with exclusive access to the wrapped table
func (l *Locked) Do(f func(*QTable)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f(l.q)
}
