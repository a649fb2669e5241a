// Command gocontrol trains a tabular Q-learning agent to balance a
// simulated acrobot, replays trained agents, and charts training runs.
//
// Configuration is read from the environment, after loading a .env
// file if one is found, and may be overridden by flags.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
)

func main() {
	for _, envFile := range []string{
		".env",
		"../.env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	c, envErrs := configFromEnv()

	rootCmd := &cobra.Command{
		Use:           "gocontrol",
		Short:         "Train and replay Q-learning agents on a simulated acrobot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(trainCmd(c, envErrs), simulateCmd(c, envErrs),
		reportCmd(c))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, aurora.Red(err.Error()))
		os.Exit(1)
	}
}

// interruptible returns a context cancelled on the first interrupt
func interruptible() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		select {
		case <-sigChan:
			log.Println(aurora.Yellow("interrupted, stopping after the " +
				"current episode"))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
