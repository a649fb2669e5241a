package environment

import (
	"testing"

	"github.com/samuelfneumann/gocontrol/physics"
)

// counter is a Simulator which records the calls made to it
type counter struct {
	calls []string
	x     float64
}

func (c *counter) Step()                         { c.calls = append(c.calls, "step"); c.x++ }
func (c *counter) Forward()                      { c.calls = append(c.calls, "forward") }
func (c *counter) Reset()                        { c.calls = append(c.calls, "reset"); c.x = 0 }
func (c *counter) Actuators() *physics.Actuators { return nil }

type push struct{ applied *bool }

func (p push) Apply(*physics.Actuators) { *p.applied = true }

// limitTask finishes the episode once the counter reaches limit
type limitTask struct {
	limit float64
	start float64
}

func (l limitTask) Discount() float64 { return 0.9 }
func (l limitTask) InitEpisode(c *counter) {
	c.calls = append(c.calls, "init")
	c.x = l.start
}
func (l limitTask) ShouldFinishEpisode(x float64) bool { return x >= l.limit }
func (l limitTask) GetReward(x float64, _ push) float64 { return x }

func observeX(c *counter) float64 { return c.x }

func TestResetOrder(t *testing.T) {
	c := &counter{}
	env := New[*counter, float64, push](c, limitTask{limit: 3, start: 1},
		observeX)
	if !env.Finished() {
		t.Error("environment should start between episodes")
	}

	step := env.Reset()
	want := []string{"reset", "init", "forward"}
	if len(c.calls) != len(want) {
		t.Fatalf("reset calls \n\twant(%v) \n\thave(%v)", want, c.calls)
	}
	for i := range want {
		if c.calls[i] != want[i] {
			t.Errorf("reset calls \n\twant(%v) \n\thave(%v)", want, c.calls)
		}
	}
	if !step.First() || step.Observation != 1 || step.Number != 0 {
		t.Errorf("first step \n\thave(%v)", step)
	}
}

func TestStepUntilFinished(t *testing.T) {
	c := &counter{}
	env := New[*counter, float64, push](c, limitTask{limit: 3, start: 1},
		observeX)
	env.Reset()

	var applied bool
	step := env.Step(push{&applied})
	if !applied {
		t.Error("action was not applied")
	}
	if !step.Mid() || step.Reward != 2 || step.Discount != 0.9 {
		t.Errorf("mid step \n\thave(%v)", step)
	}

	step = env.Step(push{&applied})
	if !step.Last() || step.Reward != 3 || step.Discount != 0 {
		t.Errorf("last step \n\thave(%v)", step)
	}
	if step.Number != 2 {
		t.Errorf("step number \n\twant(2) \n\thave(%v)", step.Number)
	}
	if !env.Finished() {
		t.Error("environment should be finished")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("stepping a finished environment should panic")
			}
		}()
		env.Step(push{&applied})
	}()

	// Reset is repeatable and starts a new episode
	if step := env.Reset(); !step.First() || env.Finished() {
		t.Errorf("reset after finish \n\thave(%v)", step)
	}
}

func TestStepBeforeReset(t *testing.T) {
	env := New[*counter, float64, push](&counter{}, limitTask{limit: 3},
		observeX)
	defer func() {
		if recover() == nil {
			t.Error("stepping before reset should panic")
		}
	}()
	var applied bool
	env.Step(push{&applied})
}
