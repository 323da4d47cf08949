package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func stepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Advance a thread's event queue",
	}
	cmd.AddCommand(stepOnceCmd())
	cmd.AddCommand(stepDrainCmd())
	return cmd
}

func stepOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once <threadID>",
		Short: "Run one step: a pending truncation or compaction, else one queued event",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			result, err := e.runtime.Debug.Step(c.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func stepDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain <threadID>",
		Short: "Process events until the queue is empty or the thread pauses/terminates",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			ctx := c.Context()
			threadID := args[0]

			count := 0
			for {
				n, err := e.runtime.Debug.GetQueuedEventCount(ctx, threadID)
				if err != nil {
					return err
				}
				if n == 0 || e.runtime.Debug.IsPaused(threadID) {
					break
				}
				result, err := e.runtime.Debug.Step(ctx, threadID)
				if err != nil {
					return err
				}
				count++
				if result.ShouldTerminate {
					break
				}
			}
			fmt.Printf("processed %d event(s)\n", count)
			return nil
		},
	}
}
