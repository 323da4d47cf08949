package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentcore/memoryruntime"
)

func modeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Inspect and control a thread's execution mode",
	}
	cmd.AddCommand(modeGetCmd())
	cmd.AddCommand(modeSetCmd())
	cmd.AddCommand(modePauseCmd())
	cmd.AddCommand(modeResumeCmd())
	return cmd
}

func modeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <threadID>",
		Short: "Show a thread's execution mode and paused state",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			threadID := args[0]
			return printJSON(map[string]any{
				"mode":              e.runtime.Debug.GetExecutionMode(threadID),
				"paused":            e.runtime.Debug.IsPaused(threadID),
				"pendingCompaction": e.runtime.Debug.HasPendingCompaction(threadID),
				"pendingTruncation": e.runtime.Debug.HasPendingTruncation(threadID),
			})
		},
	}
}

func modeSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <threadID> <auto|stepping>",
		Short: "Set a thread's execution mode",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			mode := memoryruntime.ExecutionMode(args[1])
			if mode != memoryruntime.ModeAuto && mode != memoryruntime.ModeStepping {
				return fmt.Errorf("mode must be %q or %q", memoryruntime.ModeAuto, memoryruntime.ModeStepping)
			}
			e.runtime.Debug.SetExecutionMode(args[0], mode)
			fmt.Println("mode set to", mode)
			return nil
		},
	}
}

func modePauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <threadID>",
		Short: "Pause a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			e.runtime.Debug.Pause(args[0])
			fmt.Println("paused", args[0])
			return nil
		},
	}
}

func modeResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <threadID>",
		Short: "Resume a paused thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			e.runtime.Debug.Resume(args[0])
			fmt.Println("resumed", args[0])
			return nil
		},
	}
}
