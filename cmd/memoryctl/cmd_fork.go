package main

import (
	"github.com/spf13/cobra"
)

func forkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fork <threadID> <stateID>",
		Short: "Fork a new thread rooted at an earlier state",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			thread, state, err := e.runtime.Debug.ForkFromState(c.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"thread": thread, "currentState": state})
		},
	}
}
