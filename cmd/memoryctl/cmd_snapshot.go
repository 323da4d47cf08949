package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentcore/memoryruntime"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create and restore thread snapshots",
	}
	cmd.AddCommand(snapshotCreateCmd())
	cmd.AddCommand(snapshotRestoreCmd())
	return cmd
}

func snapshotCreateCmd() *cobra.Command {
	var out, description string
	cmd := &cobra.Command{
		Use:   "create <threadID>",
		Short: "Capture a thread's full history as a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()

			snap, err := e.runtime.Debug.CreateSnapshot(c.Context(), args[0], description)
			if err != nil {
				return err
			}
			if out == "" {
				return printJSON(snap)
			}
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Println("wrote snapshot", snap.ID, "to", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the snapshot to this file instead of stdout")
	cmd.Flags().StringVar(&description, "description", "", "human-readable note stored on the snapshot")
	return cmd
}

func snapshotRestoreCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore a thread from a snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			e := envFrom(c)
			defer e.Close()

			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var snap memoryruntime.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("parsing %s: %w", file, err)
			}

			thread, state, err := e.runtime.Debug.RestoreSnapshot(c.Context(), &snap)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"thread": thread, "currentState": state})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "snapshot JSON file to restore from")
	cmd.MarkFlagRequired("file")
	return cmd
}
