// Command memoryctl is a small CLI over the memory runtime's
// DebugController, laid out one cobra command per file.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "memoryctl:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "memoryctl",
		Short: "Inspect and drive agent memory runtime threads",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to a sqlite database (defaults to an in-memory store, not persisted across invocations)")
	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		env, err := newEnv(ctx, dbPath)
		if err != nil {
			return err
		}
		setEnv(c, env)
		return nil
	}

	cmd.AddCommand(threadCmd())
	cmd.AddCommand(eventCmd())
	cmd.AddCommand(stepCmd())
	cmd.AddCommand(modeCmd())
	cmd.AddCommand(snapshotCmd())
	cmd.AddCommand(forkCmd())
	cmd.AddCommand(chunkCmd())
	cmd.AddCommand(subagentCmd())
	return cmd
}
