package experiment

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/gocontrol/agent/acrobotq"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
	"github.com/samuelfneumann/gocontrol/experiment/checkpointer"
	"github.com/samuelfneumann/gocontrol/experiment/store"
	"github.com/samuelfneumann/gocontrol/experiment/trackers"
	ts "github.com/samuelfneumann/gocontrol/timestep"
)

func smallConfig() Config {
	c := DefaultConfig()
	c.ArmDigitization = 5
	c.PendulumDigitization = 6
	c.MaxEpisodes = 20
	c.EpisodeLength = 50
	c.ModelLogInterval = 10
	c.ProgressInterval = 5
	c.WarmupEpisodes = 2
	c.WarmupSteps = 20
	return c
}

func newAgent(t testing.TB, c Config) (*acrobot.Env, *acrobotq.Agent) {
	env, err := c.NewEnv(0)
	if err != nil {
		t.Fatal(err)
	}
	a, err := acrobotq.New(c.AgentConfig(), env)
	if err != nil {
		t.Fatal(err)
	}
	return env, a
}

func openStore(t *testing.T) *store.Store {
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFormatProgress(t *testing.T) {
	r := EpisodeResult{Episode: 1000, Return: 12.5, Steps: 37, SimTime: 0.37}
	want := "[episode    1000]  return:      12.50  |  step:   37/6000  |" +
		"  time:  0.37[s]"
	if got := FormatProgress(r, 6000); got != want {
		t.Errorf("progress line \n\twant(%q) \n\thave(%q)", want, got)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}

	tests := map[string]func(*Config){
		"episode length": func(c *Config) { c.EpisodeLength = 0 },
		"log interval":   func(c *Config) { c.ModelLogInterval = 0 },
		"decay rate":     func(c *Config) { c.DecayRate = 1.5 },
		"workers":        func(c *Config) { c.Workers = 0 },
		"engine":         func(c *Config) { c.Engine = "ode" },
		"digitization":   func(c *Config) { c.ArmDigitization = 2 },
	}
	for name, modify := range tests {
		c := DefaultConfig()
		modify(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%v: expected validation error", name)
		}
	}
}

func TestTaskConfig(t *testing.T) {
	c := smallConfig()
	c.Seed = 7
	tc := c.TaskConfig(3)
	if tc.Seed != 10 {
		t.Errorf("worker seed \n\twant(10) \n\thave(%v)", tc.Seed)
	}
	if tc.ArmDigitization != 5 || tc.PendulumDigitization != 6 {
		t.Errorf("digitization \n\twant(5, 6) \n\thave(%v, %v)",
			tc.ArmDigitization, tc.PendulumDigitization)
	}

	c.Swing = true
	if tc := c.TaskConfig(0); tc.PendulumLimit.Max != math.Pi {
		t.Errorf("swing pendulum limit \n\twant(%v) \n\thave(%v)", math.Pi,
			tc.PendulumLimit.Max)
	}

	for _, name := range []string{RK4, Box2D, "RK4", ""} {
		if _, err := NewEngine(name); err != nil {
			t.Errorf("engine %q: %v", name, err)
		}
	}
}

func TestOnlineRun(t *testing.T) {
	c := smallConfig()
	env, a := newAgent(t, c)
	dir := t.TempDir()

	o, err := NewOnline(c, env, a)
	if err != nil {
		t.Fatal(err)
	}

	returns := trackers.NewReturn[acrobot.Observation](
		filepath.Join(dir, "returns.bin"))
	o.Register(returns)

	check, err := checkpointer.NewNEpisode(c.ModelLogInterval, a,
		checkpointer.ReturnNamer(dir))
	if err != nil {
		t.Fatal(err)
	}
	o.AddCheckpointer(check)

	s := openStore(t)
	run, err := s.NewRun(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	o.SetRun(run)

	var progress []int
	o.Progress = func(r EpisodeResult) { progress = append(progress, r.Episode) }

	if err := o.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(progress) != 4 || progress[3] != 20 {
		t.Errorf("progress episodes \n\twant([5 10 15 20]) \n\thave(%v)",
			progress)
	}
	if n := len(returns.Returns()); n != c.MaxEpisodes {
		t.Errorf("tracked returns \n\twant(%v) \n\thave(%v)", c.MaxEpisodes, n)
	}
	if err := o.Save(); err != nil {
		t.Fatal(err)
	}

	episodes, err := s.Episodes(context.Background(), run.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(episodes) != c.MaxEpisodes {
		t.Fatalf("stored episodes \n\twant(%v) \n\thave(%v)", c.MaxEpisodes,
			len(episodes))
	}
	for i, e := range episodes {
		if e.Steps < 1 || e.Steps > c.EpisodeLength {
			t.Errorf("episode %v steps out of [1, %v] \n\thave(%v)", i,
				c.EpisodeLength, e.Steps)
		}
	}

	paths, err := s.Checkpoints(context.Background(), run.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("checkpoints \n\twant(2) \n\thave(%v)", len(paths))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("checkpoint %v: %v", path, err)
		}
		if _, err := acrobotq.Load(path); err != nil {
			t.Errorf("load checkpoint: %v", err)
		}
	}

	want := c.Alpha * math.Pow(c.DecayRate, float64(c.MaxEpisodes))
	if math.Abs(a.Alpha()-want) > 1e-12 {
		t.Errorf("decayed alpha \n\twant(%v) \n\thave(%v)", want, a.Alpha())
	}
}

func TestOnlineDigitizationMismatch(t *testing.T) {
	c := smallConfig()
	env, a := newAgent(t, c)

	c.ArmDigitization = 7
	other, err := c.NewEnv(0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewOnline(c, other, a); err == nil {
		t.Error("expected error for mismatched digitization")
	}
	if _, err := NewOnline(smallConfig(), env, a); err != nil {
		t.Errorf("matching digitization: %v", err)
	}
}

func TestOnlineCancelled(t *testing.T) {
	c := smallConfig()
	env, a := newAgent(t, c)
	o, err := NewOnline(c, env, a)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled run \n\twant(%v) \n\thave(%v)", context.Canceled,
			err)
	}
}

func TestParallelRun(t *testing.T) {
	c := smallConfig()
	c.Workers = 3
	c.MaxEpisodes = 30
	_, a := newAgent(t, c)

	p, err := NewParallel(c, a)
	if err != nil {
		t.Fatal(err)
	}
	s := openStore(t)
	run, err := s.NewRun(context.Background(), c)
	if err != nil {
		t.Fatal(err)
	}
	p.SetRun(run)

	var last int
	p.Progress = func(r EpisodeResult) { last = r.Episode }

	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Episodes() != c.MaxEpisodes {
		t.Errorf("episodes \n\twant(%v) \n\thave(%v)", c.MaxEpisodes,
			p.Episodes())
	}
	if last != c.MaxEpisodes {
		t.Errorf("last reported episode \n\twant(%v) \n\thave(%v)",
			c.MaxEpisodes, last)
	}

	episodes, err := s.Episodes(context.Background(), run.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(episodes) != c.MaxEpisodes {
		t.Errorf("stored episodes \n\twant(%v) \n\thave(%v)", c.MaxEpisodes,
			len(episodes))
	}
}

func TestParallelEpisodeBudget(t *testing.T) {
	c := smallConfig()
	c.Workers = 3
	c.MaxEpisodes = 1
	c.WarmupEpisodes = 0
	_, a := newAgent(t, c)

	p, err := NewParallel(c, a)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Only the worker which claimed the single episode stepped its
	// environment
	stepped := 0
	for _, w := range p.workers {
		if w.env.Physics().Time() > 0 {
			stepped++
		}
	}
	if stepped != 1 {
		t.Errorf("workers which ran an episode \n\twant(1) \n\thave(%v)",
			stepped)
	}
	if p.Episodes() != 1 {
		t.Errorf("episodes \n\twant(1) \n\thave(%v)", p.Episodes())
	}

	want := c.Alpha * c.DecayRate
	if math.Abs(a.Alpha()-want) > 1e-12 {
		t.Errorf("decayed alpha \n\twant(%v) \n\thave(%v)", want, a.Alpha())
	}
}

func TestEvaluate(t *testing.T) {
	c := smallConfig()
	env, a := newAgent(t, c)
	o, err := NewOnline(c, env, a)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	frames := 0
	frame := func(*acrobot.Acrobot, ts.TimeStep[acrobot.Observation]) error {
		frames++
		return nil
	}
	results, err := Evaluate(context.Background(), env,
		acrobotq.NewTrained(a), 3, 40, frame)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results \n\twant(3) \n\thave(%v)", len(results))
	}

	steps := 0
	for _, r := range results {
		if r.Steps > 40 {
			t.Errorf("steps above limit \n\thave(%v)", r.Steps)
		}
		if !r.Finished && r.Steps != 40 {
			t.Errorf("unfinished episode stopped early \n\thave(%v)", r.Steps)
		}
		steps += r.Steps
	}
	if frames != steps+len(results) {
		t.Errorf("frames \n\twant(%v) \n\thave(%v)", steps+len(results), frames)
	}

	fail := errors.New("frame")
	_, err = Evaluate(context.Background(), env, acrobotq.NewTrained(a), 1,
		40, func(*acrobot.Acrobot, ts.TimeStep[acrobot.Observation]) error {
			return fail
		})
	if !errors.Is(err, fail) {
		t.Errorf("frame error \n\twant(%v) \n\thave(%v)", fail, err)
	}
}
