package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfg *viper.Viper

func initConfig() error {
	cfg = viper.New()
	cfg.SetConfigName(".stepwright")
	cfg.SetConfigType("yaml")

	home, err := os.UserHomeDir()
	if err == nil {
		cfg.AddConfigPath(home)
	}

	cfg.SetDefault("url", "http://localhost:8080")
	cfg.SetDefault("user_id", "")

	cfg.SetEnvPrefix("STEPWRIGHT")
	cfg.AutomaticEnv()

	// Read config file (ignore if not found)
	cfg.ReadInConfig()

	// CLI flags take highest priority
	if flagURL != "" {
		cfg.Set("url", flagURL)
	}
	if flagUserID != "" {
		cfg.Set("user_id", flagUserID)
	}

	return nil
}

func getConfigURL() string {
	return strings.TrimRight(cfg.GetString("url"), "/")
}

func getConfigUserID() string {
	return cfg.GetString("user_id")
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a config file template at ~/.stepwright.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}

			configPath := filepath.Join(home, ".stepwright.yaml")

			if _, err := os.Stat(configPath); err == nil {
				printMessage("Config file already exists at " + configPath)
				return nil
			}

			template := `# StepWright CLI configuration
url: http://localhost:8080
user_id: ""
`
			if err := os.WriteFile(configPath, []byte(template), 0600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			printMessage("Config file created at " + configPath)
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			printMessage(fmt.Sprintf("URL:     %s", getConfigURL()))

			userID := getConfigUserID()
			if userID == "" {
				userID = "(not set)"
			}
			printMessage(fmt.Sprintf("User ID: %s", userID))

			if cfgFile := cfg.ConfigFileUsed(); cfgFile != "" {
				printMessage(fmt.Sprintf("Config file: %s", cfgFile))
			} else {
				printMessage("Config file: (none)")
			}

			return nil
		},
	}
}
