package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func threadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thread",
		Short: "Manage threads",
	}
	cmd.AddCommand(threadCreateCmd())
	cmd.AddCommand(threadShowCmd())
	cmd.AddCommand(threadDeleteCmd())
	return cmd
}

func threadCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new, empty thread",
		RunE: func(c *cobra.Command, _ []string) error {
			e := envFrom(c)
			defer e.Close()
			thread, state, err := e.runtime.CreateThread(c.Context())
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"thread": thread, "initialState": state})
		},
	}
}

func threadShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <threadID>",
		Short: "Show a thread and its current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			ctx := c.Context()

			thread, err := e.store.GetThread(ctx, args[0])
			if err != nil {
				return err
			}
			state, err := e.store.GetState(ctx, thread.CurrentStateID)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"thread": thread, "currentState": state})
		},
	}
}

func threadDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <threadID>",
		Short: "Delete a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			if err := e.runtime.DeleteThread(c.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "deleted", args[0])
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
