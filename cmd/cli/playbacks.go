package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stepwright/stepwright/playback"
)

func newPlaybacksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbacks",
		Short: "Run and inspect playback sessions",
	}

	cmd.AddCommand(newPlaybacksStartCmd())
	cmd.AddCommand(newPlaybacksListCmd())
	cmd.AddCommand(newPlaybacksGetCmd())
	cmd.AddCommand(newPlaybacksPauseCmd())
	cmd.AddCommand(newPlaybacksResumeCmd())
	cmd.AddCommand(newPlaybacksStopCmd())
	cmd.AddCommand(newPlaybacksResultsCmd())
	return cmd
}

func newPlaybacksStartCmd() *cobra.Command {
	var req StartPlaybackRequest
	var continueOnError bool

	cmd := &cobra.Command{
		Use:   "start <recording-id>",
		Short: "Replay a completed recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if continueOnError {
				stop := false
				req.StopOnError = &stop
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/recordings/%s/playbacks", args[0]), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var ps playback.PlaybackSession
			if err := json.Unmarshal(body, &ps); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage("Playback started: " + ps.ID.String())
			printMessage(fmt.Sprintf("Steps to execute: %d", ps.TotalSteps))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.BrowserSessionID, "browser-session", "", "Browser session ID (required)")
	cmd.MarkFlagRequired("browser-session")
	cmd.Flags().Float64Var(&req.Speed, "speed", 1.0, "Playback speed multiplier")
	cmd.Flags().BoolVar(&req.CaptureScreenshots, "screenshots", false, "Capture a screenshot after each step")
	cmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "Keep executing steps after a failure")
	return cmd
}

func newPlaybacksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <recording-id>",
		Short: "List playback sessions for a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/recordings/%s/playbacks", args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[playback.PlaybackSession]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "STATUS", "PROGRESS", "SPEED", "STARTED AT"}
			var rows [][]string
			for _, ps := range resp.Items {
				rows = append(rows, []string{
					ps.ID.String(),
					string(ps.Status),
					fmt.Sprintf("%d/%d", ps.CurrentStepIndex, ps.TotalSteps),
					fmt.Sprintf("%.1fx", ps.Speed),
					ps.StartedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nShowing %d of %d playbacks", len(resp.Items), resp.Total))
			return nil
		},
	}
	return cmd
}

func newPlaybacksGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <playback-id>",
		Short: "Show one playback session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get("/api/v1/playbacks/"+args[0], nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var ps playback.PlaybackSession
			if err := json.Unmarshal(body, &ps); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("ID:        %s", ps.ID))
			printMessage(fmt.Sprintf("Recording: %s", ps.RecordingSessionID))
			printMessage(fmt.Sprintf("Status:    %s", ps.Status))
			printMessage(fmt.Sprintf("Progress:  %d/%d", ps.CurrentStepIndex, ps.TotalSteps))
			if ps.ErrorMessage != "" {
				printMessage(fmt.Sprintf("Error:     %s", ps.ErrorMessage))
			}
			return nil
		},
	}
	return cmd
}

func newPlaybacksTransitionCmd(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <playback-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/playbacks/%s/%s", args[0], action), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			printMessage(fmt.Sprintf("Playback %s requested: %s", action, args[0]))
			return nil
		},
	}
}

func newPlaybacksPauseCmd() *cobra.Command {
	return newPlaybacksTransitionCmd("pause", "Pause a running playback", "pause")
}

func newPlaybacksResumeCmd() *cobra.Command {
	return newPlaybacksTransitionCmd("resume", "Resume a paused playback", "resume")
}

func newPlaybacksStopCmd() *cobra.Command {
	return newPlaybacksTransitionCmd("stop", "Stop a playback session", "stop")
}

func newPlaybacksResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results <playback-id>",
		Short: "Show per-step results for a playback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/playbacks/%s/results", args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[playback.StepResult]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"#", "STATUS", "DURATION", "SELECTOR", "ERROR"}
			var rows [][]string
			for _, result := range resp.Items {
				rows = append(rows, []string{
					strconv.Itoa(result.OrderIndex),
					string(result.Status),
					fmt.Sprintf("%dms", result.DurationMS),
					truncate(result.SelectorUsed, 40),
					truncate(result.ErrorMessage, 60),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}
	return cmd
}
