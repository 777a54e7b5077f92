package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stepwright/stepwright/recording"
	"github.com/stepwright/stepwright/synth"
)

func newStepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Inspect and edit recorded steps",
	}

	cmd.AddCommand(newStepsListCmd())
	cmd.AddCommand(newStepsUpdateCmd())
	cmd.AddCommand(newStepsVerifyCmd())
	cmd.AddCommand(newStepsDeleteCmd())
	cmd.AddCommand(newStepsSuggestionsCmd())
	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func newStepsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <recording-id>",
		Short: "List the steps of a recording session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/recordings/%s/steps", args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[recording.Step]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"#", "ID", "ACTION", "DESCRIPTION", "CONFIDENCE", "VERIFIED"}
			var rows [][]string
			for _, step := range resp.Items {
				rows = append(rows, []string{
					strconv.Itoa(step.OrderIndex),
					step.ID.String(),
					string(step.ActionType),
					truncate(step.NaturalLanguage, 60),
					fmt.Sprintf("%.2f", step.ConfidenceScore),
					strconv.FormatBool(step.UserVerified),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}
	return cmd
}

func newStepsUpdateCmd() *cobra.Command {
	var naturalLanguage, actionType, selector, value string

	cmd := &cobra.Command{
		Use:   "update <step-id>",
		Short: "Edit a step's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req UpdateStepRequest
			if cmd.Flags().Changed("description") {
				req.NaturalLanguage = &naturalLanguage
			}
			if cmd.Flags().Changed("action") {
				req.ActionType = &actionType
			}
			if cmd.Flags().Changed("selector") {
				req.ElementSelector = &selector
			}
			if cmd.Flags().Changed("value") {
				req.Value = &value
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Put("/api/v1/steps/"+args[0], req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			printMessage("Step updated: " + args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&naturalLanguage, "description", "", "Natural language description")
	cmd.Flags().StringVar(&actionType, "action", "", "Action type (click, type, navigate, select, wait, verify, hover, scroll)")
	cmd.Flags().StringVar(&selector, "selector", "", "Element selector")
	cmd.Flags().StringVar(&value, "value", "", "Input value")
	return cmd
}

func newStepsVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <step-id>",
		Short: "Mark a step as verified by a reviewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/steps/%s/verify", args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			printMessage("Step verified: " + args[0])
			return nil
		},
	}
	return cmd
}

func newStepsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <step-id>",
		Short: "Delete a step (later steps are renumbered)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction("Delete step "+args[0]+"?", yes) {
				printMessage("Aborted")
				return nil
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Delete("/api/v1/steps/" + args[0])
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			printMessage("Step deleted: " + args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func newStepsSuggestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions <recording-id>",
		Short: "Show ranked improvement suggestions for a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/recordings/%s/suggestions", args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp struct {
				Suggestions []synth.Suggestion `json:"suggestions"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if len(resp.Suggestions) == 0 {
				printMessage("No suggestions. The recording looks good.")
				return nil
			}

			headers := []string{"STEP", "SCORE", "SUGGESTION"}
			var rows [][]string
			for _, s := range resp.Suggestions {
				rows = append(rows, []string{
					strconv.Itoa(s.OrderIndex),
					fmt.Sprintf("%.2f", s.Score),
					truncate(s.Text, 80),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}
	return cmd
}
