// Command citysim runs the tile-grid city simulation, either headless or
// behind the HTTP API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/tuning"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "citysim",
		Short:        "Tile-grid city growth simulation",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(slotsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(stewardCmd())
	return rootCmd
}

// cityFlags are the city settings shared by serve and simulate.
type cityFlags struct {
	size       string
	difficulty string
	hazards    bool
	disasters  bool
	pollution  bool
	slum       bool
	sandbox    bool
	seed       int64
	tuningPath string
}

func (f *cityFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.size, "size", string(engine.MapMedium), "map size: small, medium or large")
	fs.StringVar(&f.difficulty, "difficulty", "normal", "easy, normal or hard")
	fs.BoolVar(&f.hazards, "hazards", false, "enable fire, disease, pollution and slums")
	fs.BoolVar(&f.disasters, "disasters", false, "enable fire and disease")
	fs.BoolVar(&f.pollution, "pollution", false, "enable pollution")
	fs.BoolVar(&f.slum, "slum", false, "enable slums")
	fs.BoolVar(&f.sandbox, "sandbox", false, "waive build costs")
	fs.Int64Var(&f.seed, "seed", 0, "random seed (0 = nondeterministic)")
	fs.StringVar(&f.tuningPath, "tuning", "", "YAML file overriding simulation constants")
}

func (f *cityFlags) config() (engine.Config, error) {
	size := engine.MapSize(f.size)
	if _, err := size.GridSize(); err != nil {
		return engine.Config{}, err
	}
	switch f.difficulty {
	case "easy", "normal", "hard":
	default:
		return engine.Config{}, fmt.Errorf("unknown difficulty %q", f.difficulty)
	}
	return engine.Config{
		MapSize:    size,
		Difficulty: f.difficulty,
		Disasters:  f.hazards || f.disasters,
		Pollution:  f.hazards || f.pollution,
		Slum:       f.hazards || f.slum,
		Sandbox:    f.sandbox,
		Seed:       f.seed,
	}, nil
}

func (f *cityFlags) tuning() (tuning.Tuning, error) {
	if f.tuningPath == "" {
		return tuning.Default(), nil
	}
	return tuning.Load(f.tuningPath)
}

// newSimulation builds a simulation from the flags.
func (f *cityFlags) newSimulation() (*engine.Simulation, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	tu, err := f.tuning()
	if err != nil {
		return nil, err
	}
	return engine.NewSimulation(cfg, tu, nil)
}
