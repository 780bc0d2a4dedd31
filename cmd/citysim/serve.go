package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/tilecity/internal/api"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/persistence"
	"github.com/talgya/tilecity/internal/scenario"
)

func serveCmd() *cobra.Command {
	var (
		flags        cityFlags
		dbPath       string
		port         int
		fps          int
		resumeSlot   int
		autosaveSlot int
		autosaveEach int
		withScenario bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation in real time behind the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return err
			}
			db, err := persistence.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			slog.Info("database opened", "path", dbPath)

			sim, err := flags.newSimulation()
			if err != nil {
				return err
			}
			if err := db.SaveSettings(sim.State.Config); err != nil {
				slog.Warn("settings not saved", "error", err)
			}

			// ── Load or Generate City ─────────────────────────────────
			switch {
			case resumeSlot >= 0:
				st, err := db.LoadSlot(resumeSlot)
				if err != nil {
					return fmt.Errorf("resume: %w", err)
				}
				if err := sim.Restore(st); err != nil {
					return fmt.Errorf("resume: %w", err)
				}
				slog.Info("city restored", "slot", resumeSlot, "month", st.Month)
			case withScenario:
				gen := scenario.DefaultGenConfig()
				gen.Seed = flags.seed
				sum := scenario.Generate(sim, gen)
				slog.Info("starter city generated", "roads", sum.Roads, "zoned", sum.Zoned, "facilities", sum.Facilities)
			}

			eng := engine.NewEngine(sim)
			if fps > 0 {
				eng.Interval = time.Second / time.Duration(fps)
			}

			// ── HTTP API ──────────────────────────────────────────────
			adminKey := os.Getenv("TILECITY_ADMIN_KEY")
			if adminKey == "" {
				slog.Warn("TILECITY_ADMIN_KEY not set, admin POST endpoints will be disabled")
			}
			srv := &api.Server{
				Eng:      eng,
				DB:       db,
				Port:     port,
				AdminKey: adminKey,
				RelayKey: os.Getenv("TILECITY_RELAY_KEY"),
			}

			eng.OnMonth = func(rep engine.MonthlyReport) {
				srv.PublishMonth(rep)
				if autosaveSlot < 0 || autosaveEach <= 0 || rep.Month%uint32(autosaveEach) != 0 {
					return
				}
				if err := db.SaveSlot(autosaveSlot, eng.Snapshot()); err != nil {
					slog.Error("autosave failed", "error", err)
				}
			}
			srv.Start()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logDone := make(chan struct{})
			go func() {
				defer close(logDone)
				persistEvents(ctx, eng, db)
			}()

			st := eng.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "City %s: %s map, treasury $%s, month %d.\n",
				shortID(st.CityID), st.Config.MapSize, humanize.Comma(st.Treasury), st.Month)
			fmt.Fprintf(cmd.OutOrStdout(), "API: http://localhost:%d/api/v1/status\n", port)

			eng.Run(ctx)
			<-logDone

			if autosaveSlot >= 0 {
				slog.Info("final save...")
				if err := db.SaveSlot(autosaveSlot, eng.Snapshot()); err != nil {
					slog.Error("final save failed", "error", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Simulation stopped.")
			return nil
		},
	}

	flags.bind(cmd)
	fs := cmd.Flags()
	fs.StringVar(&dbPath, "db", "data/tilecity.db", "SQLite database path")
	fs.IntVarP(&port, "port", "p", 8080, "HTTP server port")
	fs.IntVar(&fps, "fps", 30, "frames per second")
	fs.IntVar(&resumeSlot, "resume", -1, "load this save slot instead of starting fresh")
	fs.IntVar(&autosaveSlot, "autosave-slot", 0, "slot for autosaves and the final save (-1 disables)")
	fs.IntVar(&autosaveEach, "autosave-months", 12, "months between autosaves")
	fs.BoolVar(&withScenario, "scenario", false, "start from a generated starter city")
	return cmd
}

// persistEvents copies city events into the database in batches until ctx
// is done.
func persistEvents(ctx context.Context, eng *engine.Engine, db *persistence.DB) {
	id, ch := eng.Subscribe()
	defer eng.Unsubscribe(id)

	flushTicker := time.NewTicker(5 * time.Second)
	defer flushTicker.Stop()

	var batch []engine.Event
	flush := func() {
		if len(batch) == 0 {
			return
		}
		var cityID string
		eng.Do(func(sim *engine.Simulation) { cityID = sim.State.CityID })
		if err := db.SaveEvents(cityID, batch); err != nil {
			slog.Error("event log write failed", "events", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, e)
			if len(batch) >= 32 {
				flush()
			}
		case <-flushTicker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
