package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stepwright/stepwright/codegen"
)

// generateResponse matches handlers.GenerateResponse.
type generateResponse struct {
	Test   codegen.GeneratedTest `json:"test"`
	Cached bool                  `json:"cached"`
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "Generate and fetch test code from recordings",
	}

	cmd.AddCommand(newTestsGenerateCmd())
	cmd.AddCommand(newTestsListCmd())
	cmd.AddCommand(newTestsGetCmd())
	return cmd
}

func newTestsGenerateCmd() *cobra.Command {
	var req GenerateRequest
	var outFile string

	cmd := &cobra.Command{
		Use:   "generate <recording-id>",
		Short: "Generate test code from a completed recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post(fmt.Sprintf("/api/v1/recordings/%s/generate", args[0]), req)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp generateResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if resp.Cached {
				printMessage("Reusing previously generated test: " + resp.Test.ID.String())
			} else {
				printMessage("Test generated: " + resp.Test.ID.String())
			}
			printMessage(fmt.Sprintf("Framework: %s", resp.Test.Framework))
			printMessage(fmt.Sprintf("File:      %s", resp.Test.FileName))
			printMessage(fmt.Sprintf("Steps:     %d", resp.Test.StepCount))

			if outFile != "" {
				if err := os.WriteFile(outFile, []byte(resp.Test.Code), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outFile, err)
				}
				printMessage("Code written to " + outFile)
			} else {
				printMessage("")
				fmt.Print(resp.Test.Code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Framework, "framework", "playwright-test", "Target framework (playwright-test, playwright, selenium)")
	cmd.Flags().StringVar(&req.TestName, "name", "", "Test name (defaults to the recording name)")
	cmd.Flags().StringVar(&req.BaseURL, "base-url", "", "Base URL to substitute into navigation steps")
	cmd.Flags().BoolVar(&req.IncludeComments, "comments", true, "Include step descriptions as comments")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the generated code to a file")
	return cmd
}

func newTestsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <recording-id>",
		Short: "List generated tests for a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get(fmt.Sprintf("/api/v1/recordings/%s/tests", args[0]), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var resp PaginatedResponse[codegen.GeneratedTest]
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			headers := []string{"ID", "FRAMEWORK", "FILE", "STEPS", "CREATED AT"}
			var rows [][]string
			for _, gt := range resp.Items {
				rows = append(rows, []string{
					gt.ID.String(),
					string(gt.Framework),
					gt.FileName,
					strconv.Itoa(gt.StepCount),
					gt.CreatedAt.Format("2006-01-02 15:04:05"),
				})
			}
			printTable(headers, rows)
			return nil
		},
	}
	return cmd
}

func newTestsGetCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "get <test-id>",
		Short: "Fetch a generated test's code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get("/api/v1/tests/"+args[0], nil)
			if err != nil {
				return err
			}

			if flagJSON {
				var raw json.RawMessage
				json.Unmarshal(body, &raw)
				printJSON(raw)
				return nil
			}

			var gt codegen.GeneratedTest
			if err := json.Unmarshal(body, &gt); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outFile != "" {
				if err := os.WriteFile(outFile, []byte(gt.Code), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outFile, err)
				}
				printMessage("Code written to " + outFile)
				return nil
			}

			fmt.Print(gt.Code)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the code to a file")
	return cmd
}
