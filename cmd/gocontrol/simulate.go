package main

import (
	"fmt"
	"log"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/gocontrol/agent/acrobotq"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
	"github.com/samuelfneumann/gocontrol/experiment"
	"github.com/samuelfneumann/gocontrol/render"
	ts "github.com/samuelfneumann/gocontrol/timestep"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	episodes int
	steps    int
	frames   string
	size     int
	engine   string
	swing    bool
	seed     uint64
}

func simulateCmd(c experiment.Config, envErrs envErrors) *cobra.Command {
	opts := simulateOptions{
		episodes: 1,
		steps:    c.EpisodeLength,
		size:     480,
		engine:   c.Engine,
		swing:    c.Swing,
		seed:     c.Seed,
	}

	cmd := &cobra.Command{
		Use:   "simulate <agent.json>",
		Short: "Replay a trained agent greedily",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return envErrs.check("EPISODE_LENGTH", "SWING", "SEED")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulate(args[0], opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.episodes, "episodes", opts.episodes, "episodes to run")
	f.IntVar(&opts.steps, "steps", opts.steps, "maximum steps per episode")
	f.StringVar(&opts.frames, "frames", "", "directory to write PNG frames to")
	f.IntVar(&opts.size, "size", opts.size, "frame width and height in pixels")
	f.StringVar(&opts.engine, "engine", opts.engine,
		"physics engine: rk4 or box2d")
	f.BoolVar(&opts.swing, "swing", opts.swing, "simulate the swing task")
	f.Uint64Var(&opts.seed, "seed", opts.seed, "random seed")
	return cmd
}

func simulate(path string, opts simulateOptions) error {
	policy, err := acrobotq.LoadTrained(path)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	t := acrobot.DefaultConfig()
	if opts.swing {
		t = acrobot.SwingConfig()
	}
	t = policy.TaskConfig(t)
	t.Seed = opts.seed
	t.Reward = acrobot.ZeroReward

	env, err := experiment.NewEnv(opts.engine, t)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	var frame func(*acrobot.Acrobot, ts.TimeStep[acrobot.Observation]) error
	if opts.frames != "" {
		if err := os.MkdirAll(opts.frames, 0o755); err != nil {
			return fmt.Errorf("simulate: %w", err)
		}
		r, err := render.New(env.Physics(), opts.size, opts.size)
		if err != nil {
			return fmt.Errorf("simulate: %w", err)
		}
		frame = r.Frames(opts.frames)
	}

	ctx, cancel := interruptible()
	defer cancel()

	results, err := experiment.Evaluate(ctx, env, policy, opts.episodes,
		opts.steps, frame)
	for _, r := range results {
		line := experiment.FormatProgress(r, opts.steps)
		if r.Finished {
			log.Println(aurora.Yellow(line))
		} else {
			log.Println(aurora.Green(line))
		}
	}
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	if opts.frames != "" {
		log.Println(aurora.Cyan(fmt.Sprintf("wrote frames to %v",
			opts.frames)))
	}
	return nil
}
