package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/persistence"
)

func slotsCmd() *cobra.Command {
	var (
		dbPath string
		remove int
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List the save slots in a database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := persistence.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if remove >= 0 {
				if err := db.DeleteSlot(remove); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared slot %d\n", remove)
			}

			slots, err := db.Slots()
			if err != nil {
				return err
			}
			printSlots(cmd.OutOrStdout(), slots)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/tilecity.db", "SQLite database path")
	cmd.Flags().IntVar(&remove, "delete", -1, "clear this slot before listing")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		dbPath string
		slot   int
	)

	cmd := &cobra.Command{
		Use:   "export [output-path]",
		Short: "Write a save slot to a JSON export or compressed snapshot",
		Long: "Write a save slot to disk. Paths ending in .json get the JSON export\n" +
			"envelope; anything else gets a zstd-compressed snapshot.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := persistence.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			st, err := db.LoadSlot(slot)
			if err != nil {
				return err
			}
			if err := writeState(args[0], st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported slot %d (month %d) to %s\n", slot, st.Month, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/tilecity.db", "SQLite database path")
	cmd.Flags().IntVar(&slot, "slot", 0, "slot to export")
	return cmd
}

func importCmd() *cobra.Command {
	var (
		dbPath string
		slot   int
	)

	cmd := &cobra.Command{
		Use:   "import [input-path]",
		Short: "Load a JSON export or snapshot file into a save slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := readState(args[0])
			if err != nil {
				return err
			}
			if err := st.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return err
			}
			db, err := persistence.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.SaveSlot(slot, st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s into slot %d\n", args[0], slot)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/tilecity.db", "SQLite database path")
	cmd.Flags().IntVar(&slot, "slot", 0, "destination slot")
	return cmd
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// writeState writes st as a JSON export or a compressed snapshot, by extension.
func writeState(path string, st *engine.State) error {
	if !isJSON(path) {
		return persistence.WriteSnapshot(path, st)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := persistence.ExportJSON(f, st); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readState(path string) (*engine.State, error) {
	if !isJSON(path) {
		return persistence.ReadSnapshot(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return persistence.ImportJSON(f)
}
