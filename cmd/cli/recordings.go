package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stepwright/stepwright/recording"
)

func newRecordingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "Manage recording sessions",
	}

	cmd.AddCommand(newRecordingsListCmd())
	cmd.AddCommand(newRecordingsGetCmd())
	cmd.AddCommand(newRecordingsStartCmd())
	cmd.AddCommand(newRecordingsPauseCmd())
	cmd.AddCommand(newRecordingsResumeCmd())
	cmd.AddCommand(newRecordingsCompleteCmd())
	cmd.AddCommand(newRecordingsCancelCmd())
	cmd.AddCommand(newRecordingsQualityCmd())
	return cmd
}

func newRecordingsListCmd() *cobra.Command {
	var projectID string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recording sessions for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			query := url.Values{}
			query.Set("project_id", projectID)
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}

			body, err := client.Get("/api/v1/recordings", query)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[recording.RecordingSession]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "NAME", "STATUS", "STEPS", "STARTED AT"}
			var rows [][]string
			for _, rs := range resp.Items {
				rows = append(rows, []string{
					rs.ID.String(),
					rs.Name,
					string(rs.Status),
					strconv.Itoa(rs.StepsCount),
					rs.StartedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			printMessage(fmt.Sprintf("\nShowing %d of %d recordings", len(resp.Items), resp.Total))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "Project ID (required)")
	cmd.MarkFlagRequired("project-id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func newRecordingsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <recording-id>",
		Short: "Show one recording session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get("/api/v1/recordings/"+args[0], nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var rs recording.RecordingSession
			if err := json.Unmarshal(body, &rs); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("ID:       %s", rs.ID))
			printMessage(fmt.Sprintf("Name:     %s", rs.Name))
			printMessage(fmt.Sprintf("Status:   %s", rs.Status))
			printMessage(fmt.Sprintf("Steps:    %d", rs.StepsCount))
			printMessage(fmt.Sprintf("URL:      %s", rs.CurrentURL))
			printMessage(fmt.Sprintf("Duration: %ds", rs.DurationSeconds))
			return nil
		},
	}
	return cmd
}

func newRecordingsStartCmd() *cobra.Command {
	var req StartRecordingRequest

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new recording session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post("/api/v1/recordings", req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var rs recording.RecordingSession
			if err := json.Unmarshal(body, &rs); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage("Recording started: " + rs.ID.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ProjectID, "project-id", "", "Project ID (required)")
	cmd.MarkFlagRequired("project-id")
	cmd.Flags().StringVar(&req.BrowserSessionID, "browser-session", "", "Browser session ID (required)")
	cmd.MarkFlagRequired("browser-session")
	cmd.Flags().StringVar(&req.Name, "name", "", "Recording name (required)")
	cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&req.CurrentURL, "url", "", "Initial page URL")
	return cmd
}

// newRecordingsTransitionCmd builds the shared shape of the pause, resume,
// complete and cancel subcommands.
func newRecordingsTransitionCmd(use, short, action string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <recording-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/recordings/%s/%s", args[0], action), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			printMessage(fmt.Sprintf("Recording %s: %s", action+"d", args[0]))
			return nil
		},
	}
}

func newRecordingsPauseCmd() *cobra.Command {
	return newRecordingsTransitionCmd("pause", "Pause a recording session", "pause")
}

func newRecordingsResumeCmd() *cobra.Command {
	return newRecordingsTransitionCmd("resume", "Resume a paused recording session", "resume")
}

func newRecordingsCompleteCmd() *cobra.Command {
	return newRecordingsTransitionCmd("complete", "Finalize a recording session", "complete")
}

func newRecordingsCancelCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "cancel <recording-id>",
		Short: "Cancel a recording session (persisted steps are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmAction("Cancel recording "+args[0]+"?", yes) {
				printMessage("Aborted")
				return nil
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/recordings/%s/cancel", args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			printMessage("Recording cancelled: " + args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func newRecordingsQualityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quality <recording-id>",
		Short: "Show the quality report for a recording's steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/recordings/%s/quality", args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var report recording.QualityReport
			if err := json.Unmarshal(body, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Steps analyzed: %d", report.StepsAnalyzed))
			printMessage(fmt.Sprintf("Verified:       %d", report.Verified))
			printMessage(fmt.Sprintf("Low confidence: %d", report.LowConfidence))
			printMessage(fmt.Sprintf("Score:          %.2f", report.Score))

			if len(report.Issues) > 0 {
				printMessage("")
				headers := []string{"STEP", "FIELD", "ISSUE"}
				var rows [][]string
				for _, issue := range report.Issues {
					rows = append(rows, []string{
						strconv.Itoa(issue.OrderIndex),
						issue.Field,
						issue.Message,
					})
				}
				printTable(headers, rows)
			}
			return nil
		},
	}
	return cmd
}
