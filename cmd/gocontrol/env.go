package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/samuelfneumann/gocontrol/experiment"
)

// envErrors holds the variables of the environment which could not be
// parsed, by name
type envErrors map[string]error

// check returns an error naming every variable in names which could not
// be parsed. With no names, every variable is checked.
func (e envErrors) check(names ...string) error {
	if len(names) == 0 {
		for name := range e {
			names = append(names, name)
		}
	}

	var bad []string
	for _, name := range names {
		if err, ok := e[name]; ok {
			bad = append(bad, fmt.Sprintf("%v: %v", name, err))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("configFromEnv: %v", strings.Join(bad, "; "))
}

// configFromEnv returns the default training configuration overridden
// by the configuration variables set in the environment. Variables
// which cannot be parsed keep their default and are reported in the
// returned envErrors, so that each command only fails on the variables
// it uses.
func configFromEnv() (experiment.Config, envErrors) {
	c := experiment.DefaultConfig()
	errs := envErrors{}

	ints := []struct {
		name string
		dst  *int
	}{
		{"ACTION_SIZE", &c.ActionSize},
		{"N_ARM_DIGITIZATION", &c.ArmDigitization},
		{"N_PENDULUM_DIGITIZATION", &c.PendulumDigitization},
		{"MAX_EPISODES", &c.MaxEpisodes},
		{"EPISODE_LENGTH", &c.EpisodeLength},
		{"MODEL_LOG_INTERVAL", &c.ModelLogInterval},
		{"WORKERS", &c.Workers},
	}
	for _, v := range ints {
		s, ok := os.LookupEnv(v.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			errs[v.name] = err
			continue
		}
		*v.dst = n
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"MODEL_RESTORE_FILE", &c.ModelRestoreFile},
		{"MODEL_LOG_DIRECTORY", &c.ModelLogDirectory},
		{"ENGINE", &c.Engine},
		{"RUN_DB", &c.RunDB},
	}
	for _, v := range strs {
		if s, ok := os.LookupEnv(v.name); ok {
			*v.dst = s
		}
	}

	if s, ok := os.LookupEnv("SEED"); ok {
		if seed, err := strconv.ParseUint(s, 10, 64); err != nil {
			errs["SEED"] = err
		} else {
			c.Seed = seed
		}
	}
	if s, ok := os.LookupEnv("SWING"); ok {
		if swing, err := strconv.ParseBool(s); err != nil {
			errs["SWING"] = err
		} else {
			c.Swing = swing
		}
	}
	return c, errs
}
