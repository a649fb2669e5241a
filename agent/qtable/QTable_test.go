package qtable

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
)

func newTable(t testing.TB, states, actions int, alpha float64) *QTable {
	c := DefaultConfig(states, actions)
	c.Alpha = alpha
	q, err := New(c)
	if err != nil {
		t.Fatal(err)
	}
	return q
}

func state(t testing.TB, q *QTable, i int) State {
	s, err := NewState(q, i)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func action(t testing.TB, q *QTable, i int) Action {
	a, err := NewAction(q, i)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestUpdateUnitAlpha(t *testing.T) {
	q := newTable(t, 4, 3, 1.0)
	s, a, next := state(t, q, 1), action(t, q, 2), state(t, q, 3)

	q.Update(QUpdate{State: s, Action: a, Reward: 7.25, NextState: next})
	if got := q.At(s, a); got != 7.25 {
		t.Errorf("update \n\twant(7.25) \n\thave(%v)", got)
	}
}

func TestUpdateUsesMaxOfNextState(t *testing.T) {
	q := newTable(t, 2, 3, 0.5)
	s, next := state(t, q, 0), state(t, q, 1)

	// Q(s', ·) = [1, 4, 0]
	q.values.SetRow(1, []float64{1, 4, 0})
	q.Update(QUpdate{State: s, Action: action(t, q, 0), Reward: 1,
		NextState: next})

	want := 0.5 * (1 + 0.99*4)
	if got := q.At(s, action(t, q, 0)); math.Abs(got-want) > 1e-12 {
		t.Errorf("update \n\twant(%v) \n\thave(%v)", want, got)
	}
}

func TestMostQValue(t *testing.T) {
	q := newTable(t, 2, 4, 0.1)
	q.values.SetRow(0, []float64{0, 3, 1, 2})
	q.values.SetRow(1, []float64{5, 5, 5, 5})

	for i := 0; i < 10; i++ {
		if got := q.NextAction(MostQValue, state(t, q, 0)); got.Index() != 1 {
			t.Errorf("mostQValue \n\twant(1) \n\thave(%v)", got.Index())
		}
	}
	if got := q.NextAction(MostQValue, state(t, q, 1)); got.Index() != 0 {
		t.Errorf("mostQValue tie \n\twant(0) \n\thave(%v)", got.Index())
	}
}

func TestEpsilonGreedy(t *testing.T) {
	q := newTable(t, 1, 4, 0.1)
	q.values.SetRow(0, []float64{0, 0, 9, 0})
	s := state(t, q, 0)

	// ε = 0 is greedy
	q.epsilon = 0
	for i := 0; i < 20; i++ {
		if got := q.NextAction(EpsilonGreedy, s); got.Index() != 2 {
			t.Fatalf("greedy selection \n\twant(2) \n\thave(%v)", got.Index())
		}
	}

	// ε = 0.5 takes the greedy action with probability 0.625
	q.epsilon = 0.5
	const n = 20000
	greedy := 0
	for i := 0; i < n; i++ {
		if q.NextAction(EpsilonGreedy, s).Index() == 2 {
			greedy++
		}
	}
	if freq := float64(greedy) / n; math.Abs(freq-0.625) > 0.03 {
		t.Errorf("greedy frequency \n\twant(0.625) \n\thave(%v)", freq)
	}
}

func TestRandomCoversActions(t *testing.T) {
	q := newTable(t, 1, 5, 0.1)
	s := state(t, q, 0)
	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		a := q.NextAction(Random, s)
		if a.Index() < 0 || a.Index() >= 5 {
			t.Fatalf("random action out of range \n\thave(%v)", a.Index())
		}
		seen[a.Index()] = true
	}
	if len(seen) != 5 {
		t.Errorf("random actions seen \n\twant(5) \n\thave(%v)", len(seen))
	}
}

func TestIndexError(t *testing.T) {
	q := newTable(t, 3, 2, 0.1)
	_, err := NewState(q, 3)
	var ie *IndexError
	if !errors.As(err, &ie) || ie.Kind != "state" || ie.Size != 3 {
		t.Errorf("state index error \n\thave(%v)", err)
	}
	if _, err := NewAction(q, -1); err == nil {
		t.Error("expected error for negative action")
	}
}

func TestDecay(t *testing.T) {
	q := newTable(t, 1, 1, 0.1)
	q.DecayAlpha(0.5)
	q.DecayEpsilon(0.9)
	if q.Alpha() != 0.05 {
		t.Errorf("alpha \n\twant(0.05) \n\thave(%v)", q.Alpha())
	}
	if math.Abs(q.Epsilon()-0.45) > 1e-15 {
		t.Errorf("epsilon \n\twant(0.45) \n\thave(%v)", q.Epsilon())
	}
}

func TestJSON(t *testing.T) {
	q := newTable(t, 3, 2, 0.1)
	q.values.SetRow(0, []float64{0.1, 1.0 / 3})
	q.values.SetRow(2, []float64{-1e-300, math.Pi})
	q.DecayEpsilon(0.9999)

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	var loaded QTable
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatal(err)
	}

	if loaded.Alpha() != q.Alpha() || loaded.Epsilon() != q.Epsilon() ||
		loaded.Discount() != q.Discount() {
		t.Errorf("hyperparameters \n\twant(%v, %v, %v) \n\thave(%v, %v, %v)",
			q.Alpha(), q.Epsilon(), q.Discount(), loaded.Alpha(),
			loaded.Epsilon(), loaded.Discount())
	}
	r, c := loaded.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("dims \n\twant(3, 2) \n\thave(%v, %v)", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if loaded.values.At(i, j) != q.values.At(i, j) {
				t.Errorf("value (%v, %v) \n\twant(%v) \n\thave(%v)", i, j,
					q.values.At(i, j), loaded.values.At(i, j))
			}
		}
	}

	if err := json.Unmarshal([]byte(`{"state_size":2,"action_size":1,`+
		`"values":[[1]]}`), &loaded); err == nil {
		t.Error("expected error for missing rows")
	}
}

func TestLockedConcurrentUpdates(t *testing.T) {
	q := newTable(t, 1, 1, 1.0)
	q.discount = 1
	l := NewLocked(q)
	s, a := state(t, q, 0), action(t, q, 0)

	// With α = γ = 1 and s' = s each update adds the reward
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.NextAction(EpsilonGreedy, s)
				l.Update(QUpdate{State: s, Action: a, Reward: 1, NextState: s})
			}
		}()
	}
	wg.Wait()

	l.Do(func(q *QTable) {
		if got := q.At(s, a); got != 800 {
			t.Errorf("value \n\twant(800) \n\thave(%v)", got)
		}
	})
}

func BenchmarkNextActionEpsilonGreedy(b *testing.B) {
	q := newTable(b, 57600, 5, 0.1)
	s := state(b, q, 1234)
	for i := 0; i < b.N; i++ {
		q.NextAction(EpsilonGreedy, s)
	}
}
