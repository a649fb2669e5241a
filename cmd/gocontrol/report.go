package main

import (
	"context"
	"fmt"
	"log"

	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/gocontrol/experiment"
	"github.com/samuelfneumann/gocontrol/experiment/report"
	"github.com/samuelfneumann/gocontrol/experiment/store"
	"github.com/samuelfneumann/gocontrol/experiment/tracker"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	db      string
	run     string
	returns string
	window  int
	out     string
}

func reportCmd(c experiment.Config) *cobra.Command {
	opts := reportOptions{db: c.RunDB, window: 100, out: "report.html"}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Chart the episode returns of a training run",
		Long: "Chart the episode returns of a run recorded in a run " +
			"database, or saved by the returns tracker. Without --run " +
			"and --returns, the runs in the database are listed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeReport(opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.db, "db", opts.db, "SQLite run database")
	f.StringVar(&opts.run, "run", "", "id of the run to chart")
	f.StringVar(&opts.returns, "returns", "", "returns file saved by training")
	f.IntVar(&opts.window, "window", opts.window, "moving average window")
	f.StringVar(&opts.out, "out", opts.out, "HTML file to write")
	return cmd
}

func writeReport(opts reportOptions) error {
	var (
		returns []float64
		title   string
		err     error
	)

	switch {
	case opts.returns != "":
		returns, err = tracker.LoadData[float64](opts.returns)
		title = opts.returns

	case opts.db != "" && opts.run != "":
		returns, err = storedReturns(opts.db, opts.run)
		title = "run " + opts.run

	case opts.db != "":
		return listRuns(opts.db)

	default:
		return fmt.Errorf("report: one of --returns or --db is required")
	}
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	err = report.WriteFile(opts.out, title,
		report.Series{Name: "return", Returns: returns},
		report.Series{
			Name:    fmt.Sprintf("moving average (%d)", opts.window),
			Returns: report.MovingAverage(returns, opts.window),
		},
	)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	log.Println(aurora.Green(fmt.Sprintf("charted %v episodes in %v",
		len(returns), opts.out)))
	return nil
}

func storedReturns(db, run string) ([]float64, error) {
	s, err := store.Open(db)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	episodes, err := s.Episodes(context.Background(), run)
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		return nil, fmt.Errorf("no episodes recorded for run %v", run)
	}

	returns := make([]float64, len(episodes))
	for i, e := range episodes {
		returns[i] = e.Return
	}
	return returns, nil
}

func listRuns(db string) error {
	s, err := store.Open(db)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	defer s.Close()

	runs, err := s.Runs(context.Background())
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	for _, r := range runs {
		fmt.Printf("%v  %v\n", aurora.Bold(r.ID),
			r.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
