package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/persistence"
	"github.com/talgya/tilecity/internal/scenario"
)

func simulateCmd() *cobra.Command {
	var (
		flags        cityFlags
		months       int
		withScenario bool
		density      float64
		dbPath       string
		saveSlot     int
		outPath      string
		report       bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a city headless for a number of months and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if months < 0 {
				return fmt.Errorf("months must not be negative, got %d", months)
			}
			sim, err := flags.newSimulation()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if withScenario {
				gen := scenario.DefaultGenConfig()
				gen.Seed = flags.seed
				gen.Density = density
				sum := scenario.Generate(sim, gen)
				fmt.Fprintf(out, "Starter city: %d roads, %d zoned tiles, %d facilities.\n",
					sum.Roads, sum.Zoned, sum.Facilities)
			}

			eng := engine.NewEngine(sim)
			reps := eng.Months(months)
			if report {
				printReports(out, reps)
			}
			st := eng.Snapshot()
			printSummary(out, st, reps)

			if outPath != "" {
				if err := writeState(outPath, st); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", outPath)
			}
			if saveSlot >= 0 {
				if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
					return err
				}
				db, err := persistence.Open(dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.SaveSlot(saveSlot, st); err != nil {
					return err
				}
				if err := db.SaveEvents(st.CityID, eng.Events(1000)); err != nil {
					slog.Warn("event log not saved", "error", err)
				}
				fmt.Fprintf(out, "Saved to slot %d of %s\n", saveSlot, dbPath)
			}
			return nil
		},
	}

	flags.bind(cmd)
	fs := cmd.Flags()
	fs.IntVarP(&months, "months", "m", 12, "months to simulate")
	fs.BoolVar(&withScenario, "scenario", false, "start from a generated starter city")
	fs.Float64Var(&density, "density", scenario.DefaultGenConfig().Density, "starter city zoning density (0-1)")
	fs.StringVar(&dbPath, "db", "data/tilecity.db", "SQLite database path for --save-slot")
	fs.IntVar(&saveSlot, "save-slot", -1, "save the final city to this slot")
	fs.StringVarP(&outPath, "out", "o", "", "write the final city to a .json or snapshot file")
	fs.BoolVar(&report, "report", false, "print one line per month")
	return cmd
}
