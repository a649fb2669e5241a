package experiment

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/samuelfneumann/gocontrol/agent/acrobotq"
	"github.com/samuelfneumann/gocontrol/agent/qtable"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
	"github.com/samuelfneumann/gocontrol/experiment/checkpointer"
	"github.com/samuelfneumann/gocontrol/experiment/store"
	"github.com/samuelfneumann/gocontrol/experiment/tracker"
	"github.com/samuelfneumann/gocontrol/utils/progressbar"
)

// EpisodeResult summarizes one episode. Return excludes the reward of
// the step which finished the episode.
type EpisodeResult struct {
	Episode  int
	Return   float64
	Steps    int
	SimTime  float64
	Finished bool
}

// FormatProgress formats r as a progress line of a run whose episodes
// are at most episodeLength steps
func FormatProgress(r EpisodeResult, episodeLength int) string {
	return fmt.Sprintf("[episode %7d]  return: %10.2f  |  step: %4d/%d  |"+
		"  time: %5.2f[s]", r.Episode, r.Return, r.Steps, episodeLength,
		r.SimTime)
}

// Online trains an agent online on a single environment. Each episode
// is tracked by the registered trackers, checkpointed by the
// registered checkpointers and recorded in the run, if any.
type Online struct {
	env    *acrobot.Env
	task   *acrobot.BalanceTask
	agent  *acrobotq.Agent
	config Config

	trackers      []tracker.Tracker[acrobot.Observation]
	checkpointers []checkpointer.Checkpointer
	run           *store.Run

	// Out receives warm-up progress, Progress receives every
	// ProgressInterval-th episode, and Logger receives checkpoint
	// notices
	Out      io.Writer
	Progress func(EpisodeResult)
	Logger   *log.Logger
}

// NewOnline creates and returns a new online experiment training a on
// env for c.MaxEpisodes episodes
func NewOnline(c Config, env *acrobot.Env, a *acrobotq.Agent) (*Online, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newOnline: %w", err)
	}
	task, ok := env.Task().(*acrobot.BalanceTask)
	if !ok {
		return nil, fmt.Errorf("newOnline: environment task must be a " +
			"*acrobot.BalanceTask")
	}
	if a.ArmDigitization() != task.ArmDigitization ||
		a.PendulumDigitization() != task.PendulumDigitization {
		return nil, fmt.Errorf("newOnline: agent digitization does not "+
			"match the task \n\twant(%v, %v) \n\thave(%v, %v)",
			task.ArmDigitization, task.PendulumDigitization,
			a.ArmDigitization(), a.PendulumDigitization())
	}

	o := &Online{
		env:    env,
		task:   task,
		agent:  a,
		config: c,
		Out:    io.Discard,
		Logger: log.Default(),
	}
	o.Progress = func(r EpisodeResult) {
		o.Logger.Println(FormatProgress(r, o.config.EpisodeLength))
	}
	return o, nil
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker[acrobot.Observation]) {
	o.trackers = append(o.trackers, t)
}

// AddCheckpointer adds a checkpointer called after every episode
func (o *Online) AddCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// SetRun sets the stored run which episodes and checkpoints are
// recorded in
func (o *Online) SetRun(r *store.Run) {
	o.run = r
}

// Warmup explores the environment with uniformly random actions,
// learning from every transition, before training begins
func (o *Online) Warmup(ctx context.Context) error {
	bar := progressbar.NewManualProgressBar(o.Out, "warm-up", 40,
		o.config.WarmupEpisodes)
	defer bar.Close()

	for i := 0; i < o.config.WarmupEpisodes; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		runEpisode(o.env, o.task, o.agent, qtable.Random,
			o.config.WarmupSteps, nil)
		bar.Increment()
		bar.Display()
	}
	return nil
}

// RunEpisode runs a single ε-greedy training episode
func (o *Online) RunEpisode(episode int) EpisodeResult {
	o.env.Physics().SetTime(0)
	r := runEpisode(o.env, o.task, o.agent, qtable.EpsilonGreedy,
		o.config.EpisodeLength, o.trackers)
	r.Episode = episode
	return r
}

// Run runs the whole experiment: warm-up unless the agent was
// restored, then c.MaxEpisodes training episodes. Alpha and epsilon
// decay after every episode. Run stops early when ctx is cancelled.
func (o *Online) Run(ctx context.Context) error {
	if o.config.ModelRestoreFile == "" {
		if err := o.Warmup(ctx); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}

	for episode := 1; episode <= o.config.MaxEpisodes; episode++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run: %w", err)
		}

		r := o.RunEpisode(episode)
		if episode%o.config.ProgressInterval == 0 && o.Progress != nil {
			o.Progress(r)
		}
		if err := o.record(ctx, r); err != nil {
			return fmt.Errorf("run: %w", err)
		}

		o.agent.DecayAlpha(o.config.DecayRate)
		o.agent.DecayEpsilon(o.config.DecayRate)
	}
	return nil
}

// record checkpoints the agent and stores the episode summary
func (o *Online) record(ctx context.Context, r EpisodeResult) error {
	for _, c := range o.checkpointers {
		path, err := c.Checkpoint(r.Episode, r.Return)
		if err != nil {
			return err
		}
		if path == "" {
			continue
		}
		o.Logger.Printf("----> saved agent to %v", path)
		if o.run != nil {
			if err := o.run.Checkpoint(ctx, r.Episode, path); err != nil {
				return err
			}
		}
	}

	if o.run == nil {
		return nil
	}
	return o.run.Episode(ctx, store.Episode{
		Episode: r.Episode,
		Return:  r.Return,
		Steps:   r.Steps,
		SimTime: r.SimTime,
		Alpha:   o.agent.Alpha(),
		Epsilon: o.agent.Epsilon(),
	})
}

// Save saves all the data cached by the trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// runEpisode runs one episode of at most maxSteps steps, selecting
// actions with strat and learning from every transition
func runEpisode(env *acrobot.Env, task *acrobot.BalanceTask,
	agent *acrobotq.Agent, strat qtable.Strategy, maxSteps int,
	trackers []tracker.Tracker[acrobot.Observation]) EpisodeResult {
	step := env.Reset()
	for _, t := range trackers {
		t.Track(step)
	}

	var r EpisodeResult
	obs := step.Observation
	for r.Steps < maxSteps {
		r.Steps++
		state := task.State(obs)
		action := agent.ActionFor(strat, state)

		step = env.Step(action)
		for _, t := range trackers {
			t.Track(step)
		}
		agent.Learn(state, action, step.Reward, task.State(step.Observation))

		if step.Last() {
			r.Finished = true
			break
		}
		r.Return += step.Reward
		obs = step.Observation
	}

	// Close the episodes of trackers when the episode was truncated
	if !r.Finished {
		for _, t := range trackers {
			if e, ok := t.(interface{ EndEpisode() }); ok {
				e.EndEpisode()
			}
		}
	}
	r.SimTime = env.Physics().Time()
	return r
}
