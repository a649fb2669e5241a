package experiment

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/samuelfneumann/gocontrol/agent/acrobotq"
	"github.com/samuelfneumann/gocontrol/experiment/checkpointer"
	"github.com/samuelfneumann/gocontrol/experiment/store"
)

// Parallel trains a single agent with several workers, each stepping
// its own environment. Workers share the agent's value table, and
// episodes are numbered in the order in which they finish.
type Parallel struct {
	config  Config
	agent   *acrobotq.Agent
	workers []*Online

	mu       sync.Mutex
	reserved int
	episode  int

	Out      io.Writer
	Progress func(EpisodeResult)
	Logger   *log.Logger
}

// NewParallel returns a new experiment training a with c.Workers
// workers. The environment of worker i is created by c.NewEnv(i).
func NewParallel(c Config, a *acrobotq.Agent) (*Parallel, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newParallel: %w", err)
	}

	p := &Parallel{
		config: c,
		agent:  a,
		Out:    io.Discard,
		Logger: log.Default(),
	}
	p.Progress = func(r EpisodeResult) {
		p.Logger.Println(FormatProgress(r, p.config.EpisodeLength))
	}

	for i := 0; i < c.Workers; i++ {
		env, err := c.NewEnv(i)
		if err != nil {
			return nil, fmt.Errorf("newParallel: %w", err)
		}

		// Split warm-up episodes between workers
		wc := c
		wc.WarmupEpisodes = c.WarmupEpisodes / c.Workers
		if i < c.WarmupEpisodes%c.Workers {
			wc.WarmupEpisodes++
		}

		o, err := NewOnline(wc, env, a)
		if err != nil {
			return nil, fmt.Errorf("newParallel: %w", err)
		}
		p.workers = append(p.workers, o)
	}
	return p, nil
}

// AddCheckpointer adds a checkpointer called after every episode
func (p *Parallel) AddCheckpointer(c checkpointer.Checkpointer) {
	for _, w := range p.workers {
		w.AddCheckpointer(c)
	}
}

// SetRun sets the stored run which episodes and checkpoints are
// recorded in
func (p *Parallel) SetRun(r *store.Run) {
	for _, w := range p.workers {
		w.SetRun(r)
	}
}

// Episodes returns the number of episodes completed so far
func (p *Parallel) Episodes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.episode
}

// Run runs all workers until c.MaxEpisodes episodes have completed
// between them, ctx is cancelled, or a worker fails. The first error
// cancels the remaining workers and is returned.
func (p *Parallel) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, len(p.workers))
	for i, w := range p.workers {
		w.Logger = p.Logger
		if i == 0 {
			w.Out = p.Out
		}

		wg.Add(1)
		go func(w *Online) {
			defer wg.Done()
			if err := p.work(ctx, w); err != nil {
				errs <- err
				cancel()
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

func (p *Parallel) work(ctx context.Context, w *Online) error {
	if p.config.ModelRestoreFile == "" {
		if err := w.Warmup(ctx); err != nil {
			return err
		}
	}

	for p.reserve() {
		if err := ctx.Err(); err != nil {
			return err
		}

		r := w.RunEpisode(0)
		if err := p.finish(ctx, w, r); err != nil {
			return err
		}
	}
	return nil
}

// reserve claims one episode of the budget. It returns false once
// every episode has been claimed.
func (p *Parallel) reserve() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reserved >= p.config.MaxEpisodes {
		return false
	}
	p.reserved++
	return true
}

// finish numbers, reports and records a completed episode, and decays
// the agent's step sizes
func (p *Parallel) finish(ctx context.Context, w *Online,
	r EpisodeResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.episode++
	r.Episode = p.episode

	if r.Episode%p.config.ProgressInterval == 0 && p.Progress != nil {
		p.Progress(r)
	}
	if err := w.record(ctx, r); err != nil {
		return err
	}

	p.agent.DecayAlpha(p.config.DecayRate)
	p.agent.DecayEpsilon(p.config.DecayRate)
	return nil
}
