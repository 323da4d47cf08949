package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentcore/memoryruntime"
)

func chunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk",
		Short: "Edit chunks within a thread's current lineage",
	}
	cmd.AddCommand(chunkEditCmd())
	return cmd
}

func chunkEditCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "edit <threadID> <stateID> <chunkID>",
		Short: "Replace a chunk's text content, producing a new derived state",
		Args:  cobra.ExactArgs(3),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()

			if text == "" {
				return fmt.Errorf("--text is required")
			}
			content := &memoryruntime.TextContent{Text: text}

			state, err := e.runtime.Debug.EditChunk(c.Context(), args[0], args[1], args[2], content)
			if err != nil {
				return err
			}
			return printJSON(state)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "replacement text content for the chunk")
	cmd.MarkFlagRequired("text")
	return cmd
}
