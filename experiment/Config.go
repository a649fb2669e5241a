// Package experiment implements the training and evaluation drivers of
// the acrobot Q-learning agent
package experiment

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/gocontrol/agent/acrobotq"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
	"github.com/samuelfneumann/gocontrol/physics"
	"github.com/samuelfneumann/gocontrol/physics/box2d"
	"github.com/samuelfneumann/gocontrol/physics/rk4"
)

// Names of the physics engines an experiment can simulate with
const (
	RK4   = "rk4"
	Box2D = "box2d"
)

// Config represents a configuration of a training run
type Config struct {
	ActionSize           int `json:"action_size"`
	ArmDigitization      int `json:"n_arm_digitization"`
	PendulumDigitization int `json:"n_pendulum_digitization"`

	MaxEpisodes      int `json:"max_episodes"`
	EpisodeLength    int `json:"episode_length"`
	ModelLogInterval int `json:"model_log_interval"`

	// Agent to resume training from. Warm-up is skipped when set.
	ModelRestoreFile  string `json:"model_restore_file,omitempty"`
	ModelLogDirectory string `json:"model_log_directory"`

	// Warm-up explores with uniformly random actions before training
	WarmupEpisodes int `json:"warmup_episodes"`
	WarmupSteps    int `json:"warmup_steps"`

	Alpha     float64 `json:"alpha"`
	Epsilon   float64 `json:"epsilon"`
	DecayRate float64 `json:"decay_rate"`

	// A progress line is reported every ProgressInterval episodes
	ProgressInterval int `json:"progress_interval"`

	Engine  string `json:"engine"`
	Swing   bool   `json:"swing"`
	Seed    uint64 `json:"seed"`
	Workers int    `json:"workers"`

	// SQLite database to record the run in, if not empty
	RunDB string `json:"run_db,omitempty"`
}

// DefaultConfig returns the default training configuration. The
// model log directory is left empty and chosen when the run starts.
func DefaultConfig() Config {
	return Config{
		ActionSize:           5,
		ArmDigitization:      15,
		PendulumDigitization: 16,
		MaxEpisodes:          1000000,
		EpisodeLength:        6000,
		ModelLogInterval:     10000,
		WarmupEpisodes:       100,
		WarmupSteps:          400,
		Alpha:                0.1,
		Epsilon:              0.5,
		DecayRate:            0.9999,
		ProgressInterval:     1000,
		Engine:               RK4,
		Seed:                 1,
		Workers:              1,
	}
}

// Validate returns an error if c cannot configure a training run
func (c Config) Validate() error {
	if c.MaxEpisodes < 0 || c.EpisodeLength < 1 {
		return fmt.Errorf("validate: episodes must be non-negative and "+
			"episode length positive \n\thave(%v, %v)", c.MaxEpisodes,
			c.EpisodeLength)
	}
	if c.ModelLogInterval < 1 || c.ProgressInterval < 1 {
		return fmt.Errorf("validate: intervals must be positive "+
			"\n\thave(%v, %v)", c.ModelLogInterval, c.ProgressInterval)
	}
	if c.WarmupEpisodes < 0 || c.WarmupSteps < 0 {
		return fmt.Errorf("validate: warm-up must be non-negative "+
			"\n\thave(%v x %v)", c.WarmupEpisodes, c.WarmupSteps)
	}
	if c.DecayRate <= 0 || c.DecayRate > 1 {
		return fmt.Errorf("validate: decay rate must be in (0, 1] "+
			"\n\thave(%v)", c.DecayRate)
	}
	if c.Workers < 1 {
		return fmt.Errorf("validate: workers must be positive \n\thave(%v)",
			c.Workers)
	}
	if _, err := NewEngine(c.Engine); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if err := c.TaskConfig(0).Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// NewEngine returns a new physics engine by name
func NewEngine(name string) (physics.Engine, error) {
	switch strings.ToLower(name) {
	case RK4, "":
		return rk4.New(), nil
	case Box2D:
		return box2d.New(), nil
	default:
		return nil, fmt.Errorf("newEngine: unknown engine %q", name)
	}
}

// TaskConfig returns the configuration of the task of worker i
func (c Config) TaskConfig(worker int) acrobot.Config {
	t := acrobot.DefaultConfig()
	if c.Swing {
		t = acrobot.SwingConfig()
	}
	t.ArmDigitization = c.ArmDigitization
	t.PendulumDigitization = c.PendulumDigitization
	t.ActionSize = c.ActionSize
	t.Seed = c.Seed + uint64(worker)
	return t
}

// AgentConfig returns the configuration of a new agent
func (c Config) AgentConfig() acrobotq.Config {
	return acrobotq.Config{
		ActionSize: c.ActionSize,
		Alpha:      c.Alpha,
		Epsilon:    c.Epsilon,
		Seed:       c.Seed,
	}
}

// NewEnv returns a new environment for worker i
func (c Config) NewEnv(worker int) (*acrobot.Env, error) {
	return NewEnv(c.Engine, c.TaskConfig(worker))
}

// NewEnv returns a new acrobot environment simulated by the named
// engine and running the task configured by t
func NewEnv(engine string, t acrobot.Config) (*acrobot.Env, error) {
	e, err := NewEngine(engine)
	if err != nil {
		return nil, fmt.Errorf("newEnv: %w", err)
	}
	a, err := acrobot.New(e)
	if err != nil {
		return nil, fmt.Errorf("newEnv: %w", err)
	}
	task, err := acrobot.NewBalanceTask(t)
	if err != nil {
		return nil, fmt.Errorf("newEnv: %w", err)
	}
	return acrobot.NewEnv(a, task), nil
}
