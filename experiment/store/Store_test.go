package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	run, err := s.NewRun(ctx, map[string]int{"action_size": 5})
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if run.ID() == "" {
		t.Fatal("expected non-empty run id")
	}

	for i := 1; i <= 3; i++ {
		err := run.Episode(ctx, Episode{Episode: i, Return: float64(-i),
			Steps: 10 * i, SimTime: 0.1 * float64(i), Alpha: 0.1, Epsilon: 0.5})
		if err != nil {
			t.Fatalf("Episode: %v", err)
		}
	}
	if err := run.Checkpoint(ctx, 3, "models/agent_3@-3.json"); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID() {
		t.Fatalf("runs \n\twant([%v]) \n\thave(%v)", run.ID(), runs)
	}
	var cfg map[string]int
	if err := json.Unmarshal(runs[0].Config, &cfg); err != nil ||
		cfg["action_size"] != 5 {
		t.Errorf("stored config \n\thave(%s)", runs[0].Config)
	}

	episodes, err := s.Episodes(ctx, run.ID())
	if err != nil {
		t.Fatalf("Episodes: %v", err)
	}
	if len(episodes) != 3 || episodes[2].Return != -3 || episodes[2].Steps != 30 {
		t.Errorf("episodes \n\thave(%+v)", episodes)
	}

	paths, err := s.Checkpoints(ctx, run.ID())
	if err != nil {
		t.Fatalf("Checkpoints: %v", err)
	}
	if len(paths) != 1 || paths[0] != "models/agent_3@-3.json" {
		t.Errorf("checkpoints \n\thave(%v)", paths)
	}
}

func TestDuplicateEpisode(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	run, err := s.NewRun(ctx, nil)
	if err != nil {
		t.Fatalf("NewRun: %v", err)
	}
	if err := run.Episode(ctx, Episode{Episode: 1}); err != nil {
		t.Fatalf("Episode: %v", err)
	}
	if err := run.Episode(ctx, Episode{Episode: 1}); err == nil {
		t.Error("expected error for duplicate episode")
	}
}

func TestRunsAreDistinct(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	a, _ := s.NewRun(ctx, nil)
	b, _ := s.NewRun(ctx, nil)
	if a.ID() == b.ID() {
		t.Error("runs should have distinct ids")
	}
	episodes, err := s.Episodes(ctx, b.ID())
	if err != nil || len(episodes) != 0 {
		t.Errorf("new run episodes \n\thave(%v, %v)", episodes, err)
	}
}
