package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentcore/memoryruntime"
)

func eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Inject and inspect a thread's event queue",
	}
	cmd.AddCommand(eventInjectCmd())
	cmd.AddCommand(eventPeekCmd())
	return cmd
}

func eventInjectCmd() *cobra.Command {
	var eventType, payload string
	cmd := &cobra.Command{
		Use:   "inject <threadID>",
		Short: "Inject an event into a thread's queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()

			var fields map[string]any
			if payload != "" {
				if err := json.Unmarshal([]byte(payload), &fields); err != nil {
					return fmt.Errorf("parsing --payload: %w", err)
				}
			}

			evt := memoryruntime.Event{
				Type:      memoryruntime.EventType(eventType),
				Timestamp: time.Now(),
				Payload:   fields,
			}

			result, err := e.runtime.Debug.InjectEvent(c.Context(), args[0], evt)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "event type, e.g. USER_MESSAGE")
	cmd.Flags().StringVar(&payload, "payload", "", "JSON object of payload fields")
	cmd.MarkFlagRequired("type")
	return cmd
}

func eventPeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peek <threadID>",
		Short: "Show the next queued event without consuming it",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			e := envFrom(c)
			defer e.Close()

			qe, ok, err := e.runtime.Debug.PeekNextEvent(c.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("queue is empty")
				return nil
			}
			return printJSON(qe)
		},
	}
}
