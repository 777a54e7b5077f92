package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Browser  BrowserConfig
	Bedrock  BedrockConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
}

// StorageConfig holds screenshot blob storage configuration.
type StorageConfig struct {
	Type     string // "local" or "s3"
	BaseDir  string // For local: "./screenshots"
	S3Bucket string // For S3: bucket name
	S3Region string // For S3: AWS region
}

// BrowserConfig holds browser driver configuration.
type BrowserConfig struct {
	DriverURL string // WebSocket URL of the browser driver process
}

// BedrockConfig holds the optional LLM step classifier configuration.
// Classification falls back to the rule engine when disabled.
type BedrockConfig struct {
	Enabled   bool
	Region    string
	Model     string
	MaxTokens int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "stepwright")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "./screenshots")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")

	v.SetDefault("browser.driver_url", "ws://localhost:9515/session")

	v.SetDefault("bedrock.enabled", false)
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 256)

	v.SetDefault("log.level", "info")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults
	}

	// Parse configuration
	var config Config

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.WriteTimeout = v.GetDuration("server.write_timeout")

	config.Database.Host = v.GetString("database.host")
	config.Database.Port = v.GetInt("database.port")
	config.Database.User = v.GetString("database.user")
	config.Database.Password = v.GetString("database.password")
	config.Database.Database = v.GetString("database.database")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")

	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")

	config.Browser.DriverURL = v.GetString("browser.driver_url")

	config.Bedrock.Enabled = v.GetBool("bedrock.enabled")
	config.Bedrock.Region = v.GetString("bedrock.region")
	config.Bedrock.Model = v.GetString("bedrock.model")
	config.Bedrock.MaxTokens = v.GetInt("bedrock.max_tokens")

	config.Log.Level = v.GetString("log.level")

	return &config, nil
}
