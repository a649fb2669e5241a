package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/gocontrol/agent/acrobotq"
	"github.com/samuelfneumann/gocontrol/environment/acrobot"
	"github.com/samuelfneumann/gocontrol/experiment"
	"github.com/samuelfneumann/gocontrol/experiment/checkpointer"
	"github.com/samuelfneumann/gocontrol/experiment/store"
	"github.com/samuelfneumann/gocontrol/experiment/trackers"
	"github.com/spf13/cobra"
)

func trainCmd(c experiment.Config, envErrs envErrors) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a Q-learning agent on the acrobot balance task",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return envErrs.check()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return train(c)
		},
	}

	f := cmd.Flags()
	f.IntVar(&c.ActionSize, "action-size", c.ActionSize,
		"number of torques in the action ladder")
	f.IntVar(&c.ArmDigitization, "arm-digitization", c.ArmDigitization,
		"buckets per arm angle and velocity")
	f.IntVar(&c.PendulumDigitization, "pendulum-digitization",
		c.PendulumDigitization, "buckets per pendulum angle and velocity")
	f.IntVar(&c.MaxEpisodes, "episodes", c.MaxEpisodes,
		"number of training episodes")
	f.IntVar(&c.EpisodeLength, "episode-length", c.EpisodeLength,
		"maximum steps per episode")
	f.IntVar(&c.ModelLogInterval, "log-interval", c.ModelLogInterval,
		"episodes between checkpoints")
	f.StringVar(&c.ModelRestoreFile, "restore", c.ModelRestoreFile,
		"agent to resume training from")
	f.StringVar(&c.ModelLogDirectory, "log-dir", c.ModelLogDirectory,
		"checkpoint directory (default models/<timestamp>)")
	f.StringVar(&c.Engine, "engine", c.Engine, "physics engine: rk4 or box2d")
	f.BoolVar(&c.Swing, "swing", c.Swing, "train the swing task")
	f.Uint64Var(&c.Seed, "seed", c.Seed, "random seed")
	f.IntVar(&c.Workers, "workers", c.Workers, "parallel training workers")
	f.StringVar(&c.RunDB, "db", c.RunDB, "SQLite database to record the run in")
	return cmd
}

// runner is a training driver
type runner interface {
	Run(context.Context) error
	AddCheckpointer(checkpointer.Checkpointer)
	SetRun(*store.Run)
}

func train(c experiment.Config) error {
	if c.ModelLogDirectory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		c.ModelLogDirectory = checkpointer.TimestampDir(cwd, time.Now())
	}
	if err := os.MkdirAll(c.ModelLogDirectory, 0o755); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	agent, err := newAgent(&c)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	var (
		driver  runner
		returns *trackers.Return[acrobot.Observation]
		lengths *trackers.EpisodeLength[acrobot.Observation]
	)
	if c.Workers > 1 {
		p, err := experiment.NewParallel(c, agent)
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		p.Out = os.Stdout
		driver = p
	} else {
		env, err := c.NewEnv(0)
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		o, err := experiment.NewOnline(c, env, agent)
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		o.Out = os.Stdout

		returns = trackers.NewReturn[acrobot.Observation](
			filepath.Join(c.ModelLogDirectory, "returns.bin"))
		lengths = trackers.NewEpisodeLength[acrobot.Observation](
			filepath.Join(c.ModelLogDirectory, "lengths.bin"))
		o.Register(returns)
		o.Register(lengths)
		driver = o
	}

	check, err := checkpointer.NewNEpisode(c.ModelLogInterval, agent,
		checkpointer.ReturnNamer(c.ModelLogDirectory))
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	driver.AddCheckpointer(check)

	if c.RunDB != "" {
		s, err := store.Open(c.RunDB)
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		defer s.Close()

		run, err := s.NewRun(context.Background(), c)
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		driver.SetRun(run)
		log.Println(aurora.Cyan(fmt.Sprintf("recording run %v in %v",
			run.ID(), c.RunDB)))
	}

	ctx, cancel := interruptible()
	defer cancel()

	log.Println(aurora.Cyan(fmt.Sprintf("training with %v engine, "+
		"checkpoints in %v", c.Engine, c.ModelLogDirectory)))
	runErr := driver.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("train: %w", runErr)
	}

	final := filepath.Join(c.ModelLogDirectory, "agent_final.json")
	if err := agent.Save(final); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if o, ok := driver.(*experiment.Online); ok {
		if err := o.Save(); err != nil {
			return fmt.Errorf("train: %w", err)
		}
	}

	if runErr != nil {
		log.Println(aurora.Yellow(fmt.Sprintf("training stopped early, "+
			"saved agent to %v", final)))
		return nil
	}
	log.Println(aurora.Green(fmt.Sprintf("training finished, saved agent "+
		"to %v", final)))
	return nil
}

// newAgent returns a new agent, or the agent restored from
// c.ModelRestoreFile. A restored agent's digitization and action
// ladder override those of c.
func newAgent(c *experiment.Config) (*acrobotq.Agent, error) {
	if c.ModelRestoreFile == "" {
		env, err := c.NewEnv(0)
		if err != nil {
			return nil, err
		}
		return acrobotq.New(c.AgentConfig(), env)
	}

	agent, err := acrobotq.Load(c.ModelRestoreFile)
	if err != nil {
		return nil, err
	}
	if agent.ArmDigitization() != c.ArmDigitization ||
		agent.PendulumDigitization() != c.PendulumDigitization ||
		len(agent.Actions()) != c.ActionSize {
		log.Println(aurora.Yellow(fmt.Sprintf("using the digitization of "+
			"%v: %v arm, %v pendulum, %v actions", c.ModelRestoreFile,
			agent.ArmDigitization(), agent.PendulumDigitization(),
			len(agent.Actions()))))
		c.ArmDigitization = agent.ArmDigitization()
		c.PendulumDigitization = agent.PendulumDigitization()
		c.ActionSize = len(agent.Actions())
	}
	agent.Seed(c.Seed)
	return agent, nil
}
