package experiment

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/gocontrol/agent/acrobotq"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
	ts "github.com/samuelfneumann/gocontrol/timestep"
)

// Evaluate runs episodes greedy episodes of at most maxSteps steps
// with the trained policy t, without learning. If frame is not nil it
// is called with the acrobot and the timestep after every step.
func Evaluate(ctx context.Context, env *acrobot.Env, t *acrobotq.Trained,
	episodes, maxSteps int,
	frame func(*acrobot.Acrobot, ts.TimeStep[acrobot.Observation]) error) (
	[]EpisodeResult, error) {
	task, ok := env.Task().(*acrobot.BalanceTask)
	if !ok {
		return nil, fmt.Errorf("evaluate: environment task must be a " +
			"*acrobot.BalanceTask")
	}
	if t.ArmDigitization() != task.ArmDigitization ||
		t.PendulumDigitization() != task.PendulumDigitization ||
		t.ActionSize() != task.ActionSize {
		return nil, fmt.Errorf("evaluate: policy does not match the task")
	}

	results := make([]EpisodeResult, 0, episodes)
	for i := 1; i <= episodes; i++ {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("evaluate: %w", err)
		}

		env.Physics().SetTime(0)
		step := env.Reset()
		r := EpisodeResult{Episode: i}
		if frame != nil {
			if err := frame(env.Physics(), step); err != nil {
				return results, fmt.Errorf("evaluate: %w", err)
			}
		}

		for r.Steps < maxSteps {
			r.Steps++
			step = env.Step(t.Action(task.State(step.Observation)))
			if frame != nil {
				if err := frame(env.Physics(), step); err != nil {
					return results, fmt.Errorf("evaluate: %w", err)
				}
			}
			if step.Last() {
				r.Finished = true
				break
			}
			r.Return += step.Reward
		}
		r.SimTime = env.Physics().Time()
		results = append(results, r)
	}
	return results, nil
}
