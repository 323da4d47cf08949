package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentcore/memoryruntime"
)

func subagentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subagent",
		Short: "Inspect and register subagent definitions",
	}
	cmd.AddCommand(subagentListCmd())
	cmd.AddCommand(subagentRegisterCmd())
	return cmd
}

func subagentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered subagent names",
		RunE: func(c *cobra.Command, _ []string) error {
			e := envFrom(c)
			defer e.Close()
			if e.runtime.Subagents == nil {
				fmt.Fprintln(os.Stdout, "no subagent registry wired")
				return nil
			}
			return printJSON(map[string]any{"subagents": e.runtime.Subagents.List()})
		},
	}
}

func subagentRegisterCmd() *cobra.Command {
	var description, prompt, model string
	var tools []string
	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register or replace a subagent definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()
			if e.runtime.Subagents == nil {
				return fmt.Errorf("no subagent registry wired")
			}
			e.runtime.Subagents.Register(args[0], &memoryruntime.SubagentDefinition{
				Description: description,
				Prompt:      prompt,
				Tools:       tools,
				Model:       model,
			})
			fmt.Fprintln(os.Stdout, "registered", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "when this subagent should be used")
	cmd.Flags().StringVar(&prompt, "prompt", "", "system prompt seeding the subagent's thread")
	cmd.Flags().StringVar(&model, "model", "", "model override (empty inherits the parent)")
	cmd.Flags().StringSliceVar(&tools, "tools", nil, "comma-separated tool names the subagent may use (empty inherits all)")
	return cmd
}
