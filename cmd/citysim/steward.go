package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/tilecity/internal/steward"
)

func stewardCmd() *cobra.Command {
	var (
		tuningPath string
		apiURL     string
		interval   time.Duration
		memoryPath string
		cycles     int
	)

	cmd := &cobra.Command{
		Use:   "steward",
		Short: "Run the autonomous mayor against a serving city",
		RunE: func(cmd *cobra.Command, _ []string) error {
			adminKey := os.Getenv("TILECITY_ADMIN_KEY")
			if adminKey == "" {
				return errors.New("TILECITY_ADMIN_KEY is required")
			}
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			tu, err := (&cityFlags{tuningPath: tuningPath}).tuning()
			if err != nil {
				return err
			}

			s := steward.New(apiURL, adminKey, steward.DefaultRules(tu))
			s.Memory = steward.LoadMemory(memoryPath)
			slog.Info("steward starting", "api_url", apiURL, "interval", interval, "memory", len(s.Memory.Records))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slog.Info("waiting for city API...")
			if err := waitForAPI(ctx, apiURL); err != nil {
				return err
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for n := 0; cycles <= 0 || n < cycles; n++ {
				if n > 0 {
					select {
					case <-ticker.C:
					case <-ctx.Done():
						slog.Info("steward stopped")
						return nil
					}
				}
				if _, err := s.Cycle(ctx); err != nil {
					slog.Error("steward cycle failed", "error", err)
				}
				if err := s.Memory.Save(memoryPath); err != nil {
					slog.Warn("steward memory not saved", "error", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Steward finished %d cycles.\n", cycles)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&tuningPath, "tuning", "", "YAML file overriding simulation constants")
	fs.StringVar(&apiURL, "api", "http://localhost:8080", "city API base URL")
	fs.DurationVar(&interval, "interval", 10*time.Second, "time between cycles")
	fs.StringVar(&memoryPath, "memory", "steward_memory.json", "file recording recent cycles")
	fs.IntVar(&cycles, "cycles", 0, "stop after this many cycles (0 = run until interrupted)")
	return cmd
}

// waitForAPI polls the status endpoint until the city answers.
func waitForAPI(ctx context.Context, baseURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/status", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("city API is ready")
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
