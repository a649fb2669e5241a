package acrobot

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gocontrol/environment"
	"github.com/samuelfneumann/gocontrol/physics"
	"github.com/samuelfneumann/gocontrol/utils/digitizer"
	"gonum.org/v1/gonum/spatial/r1"
)

// MaxVelocity is the default bound on angular velocities before they
// are digitized
const MaxVelocity float64 = 8.0

// InitRanges are the intervals from which the joint state is sampled
// at the start of each episode
type InitRanges struct {
	ElbowQpos    r1.Interval
	ElbowQvel    r1.Interval
	ShoulderQpos r1.Interval
	ShoulderQvel r1.Interval
}

func (i InitRanges) bounds() []r1.Interval {
	return []r1.Interval{i.ElbowQpos, i.ElbowQvel, i.ShoulderQpos,
		i.ShoulderQvel}
}

// Config configures a BalanceTask
type Config struct {
	// Number of buckets for each of the arm angle and velocity
	ArmDigitization int

	// Number of buckets for each of the pendulum angle and velocity
	PendulumDigitization int

	// Number of torques in the action ladder
	ActionSize int

	// Angular domains which are digitized. Leaving either domain ends
	// the episode.
	ArmLimit      r1.Interval
	PendulumLimit r1.Interval

	// Velocities are clamped to [-MaxVelocity, MaxVelocity]
	MaxVelocity float64

	Init     InitRanges
	Discount float64
	Seed     uint64
	Reward   RewardFunc
}

// DefaultConfig returns the configuration of the balance task: both
// links start near upright and must be kept there
func DefaultConfig() Config {
	small := r1.Interval{Min: -0.1, Max: 0.1}
	return Config{
		ArmDigitization:      15,
		PendulumDigitization: 16,
		ActionSize:           5,
		ArmLimit:             r1.Interval{Min: -0.9 * math.Pi, Max: 0.9 * math.Pi},
		PendulumLimit:        r1.Interval{Min: -0.2 * math.Pi, Max: 0.2 * math.Pi},
		MaxVelocity:          MaxVelocity,
		Init: InitRanges{
			ElbowQpos:    small,
			ElbowQvel:    small,
			ShoulderQpos: small,
			ShoulderQvel: small,
		},
		Discount: 0.99,
		Seed:     1,
		Reward:   ShapedReward,
	}
}

// SwingConfig returns the configuration of the swing task: the
// pendulum starts anywhere within a quarter turn of upright with the
// arm upright and at rest, and the whole circle is digitized
func SwingConfig() Config {
	c := DefaultConfig()
	c.ArmDigitization = 10
	c.PendulumDigitization = 10
	c.ArmLimit = r1.Interval{Min: -math.Pi, Max: math.Pi}
	c.PendulumLimit = r1.Interval{Min: -math.Pi, Max: math.Pi}
	c.Init = InitRanges{
		ElbowQpos: r1.Interval{Min: -math.Pi / 2, Max: math.Pi / 2},
	}
	c.Reward = QuadraticReward
	return c
}

// Validate returns an error if c cannot configure a BalanceTask
func (c Config) Validate() error {
	// Both edge buckets end the episode, so at least one interior
	// bucket is needed
	if c.ArmDigitization < 3 {
		return fmt.Errorf("validate: arm digitization must be at least 3 "+
			"\n\thave(%v)", c.ArmDigitization)
	}
	if c.PendulumDigitization < 3 {
		return fmt.Errorf("validate: pendulum digitization must be at "+
			"least 3 \n\thave(%v)", c.PendulumDigitization)
	}
	if c.ActionSize < 1 {
		return fmt.Errorf("validate: action size must be positive "+
			"\n\thave(%v)", c.ActionSize)
	}
	if !(c.MaxVelocity > 0) {
		return fmt.Errorf("validate: max velocity must be positive "+
			"\n\thave(%v)", c.MaxVelocity)
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1] "+
			"\n\thave(%v)", c.Discount)
	}
	for _, b := range c.Init.bounds() {
		if b.Min > b.Max {
			return fmt.Errorf("validate: empty initial range %v", b)
		}
	}
	return nil
}

// StateSize returns the number of digitized states
func (c Config) StateSize() int {
	return c.ArmDigitization * c.ArmDigitization *
		c.PendulumDigitization * c.PendulumDigitization
}

// State is a digitized Observation. Each field is the bucket of the
// corresponding quantity and Index combines them into a single state.
type State struct {
	ArmAngle         int
	ArmVelocity      int
	PendulumAngle    int
	PendulumVelocity int
	Index            int
}

// BalanceTask rewards keeping the acrobot upright and ends the episode
// when either link leaves its angular domain
type BalanceTask struct {
	Config
	digitizer *digitizer.Digitizer
	starter   environment.UniformStarter
}

// NewBalanceTask returns a new BalanceTask configured by c. A nil
// reward function defaults to ShapedReward.
func NewBalanceTask(c Config) (*BalanceTask, error) {
	if c.Reward == nil {
		c.Reward = ShapedReward
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newBalanceTask: %w", err)
	}

	vel := r1.Interval{Min: -c.MaxVelocity, Max: c.MaxVelocity}
	d, err := digitizer.New(
		digitizer.Axis{Domain: c.PendulumLimit, Bins: c.PendulumDigitization},
		digitizer.Axis{Domain: vel, Bins: c.PendulumDigitization, Clamp: true},
		digitizer.Axis{Domain: c.ArmLimit, Bins: c.ArmDigitization},
		digitizer.Axis{Domain: vel, Bins: c.ArmDigitization, Clamp: true},
	)
	if err != nil {
		return nil, fmt.Errorf("newBalanceTask: %w", err)
	}

	return &BalanceTask{
		Config:    c,
		digitizer: d,
		starter:   environment.NewUniformStarter(c.Init.bounds(), c.Seed),
	}, nil
}

// State digitizes o
func (t *BalanceTask) State(o Observation) State {
	b := t.digitizer.Buckets([]float64{
		o.Elbow.ToRad(),
		o.ElbowVelocity,
		o.Shoulder.ToRad(),
		o.ShoulderVelocity,
	})

	return State{
		PendulumAngle:    b[0],
		PendulumVelocity: b[1],
		ArmAngle:         b[2],
		ArmVelocity:      b[3],
		Index:            t.digitizer.Encode(b),
	}
}

// Finished returns whether s lies in an edge bucket of either angle
func (t *BalanceTask) Finished(s State) bool {
	if s.ArmAngle <= 0 || s.ArmAngle >= t.ArmDigitization-1 {
		return true
	}
	return s.PendulumAngle <= 0 || s.PendulumAngle >= t.PendulumDigitization-1
}

// ShouldFinishEpisode returns whether the episode ends at o
func (t *BalanceTask) ShouldFinishEpisode(o Observation) bool {
	return t.Finished(t.State(o))
}

// GetReward returns the reward for arriving at o after taking a
func (t *BalanceTask) GetReward(o Observation, a Action) float64 {
	return t.Reward(t, t.State(o), a)
}

// InitEpisode samples the joint positions and velocities of a new
// episode
func (t *BalanceTask) InitEpisode(a *Acrobot) {
	start := t.starter.Start()

	set := func(f func(*physics.Physics, physics.ObjectID[physics.Joint],
		[]float64) error, id physics.ObjectID[physics.Joint], v float64) {
		if err := f(a.Physics, id, []float64{v}); err != nil {
			panic(fmt.Sprintf("initEpisode: %v", err))
		}
	}
	set(physics.SetQpos[physics.HingeJoint], a.elbow, start.AtVec(0))
	set(physics.SetQvel[physics.HingeJoint], a.elbow, start.AtVec(1))
	set(physics.SetQpos[physics.HingeJoint], a.shoulder, start.AtVec(2))
	set(physics.SetQvel[physics.HingeJoint], a.shoulder, start.AtVec(3))
}

// Discount returns the per-step discount of the task
func (t *BalanceTask) Discount() float64 {
	return t.Config.Discount
}
