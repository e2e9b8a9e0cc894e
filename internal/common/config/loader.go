// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like ENGINE_REMINDER_LEAD_MINUTES
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, optional.
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "proactive-notify"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "UTC"
	}
	if cfg.Engine.ReminderLeadMinutes == 0 {
		cfg.Engine.ReminderLeadMinutes = 15
	}
	if cfg.Engine.TravelWindowMinutes == 0 {
		cfg.Engine.TravelWindowMinutes = 60
	}
	if cfg.Engine.BackToBackGapMinutes == 0 {
		cfg.Engine.BackToBackGapMinutes = 5
	}
	if cfg.Engine.DailyOverloadCount == 0 {
		cfg.Engine.DailyOverloadCount = 6
	}
	if cfg.Engine.MaxConflicts == 0 {
		cfg.Engine.MaxConflicts = 3
	}
	if cfg.Engine.BriefingTime == "" {
		cfg.Engine.BriefingTime = "08:00"
	}
	if cfg.Engine.BriefingWindowMinutes == 0 {
		cfg.Engine.BriefingWindowMinutes = 5
	}
	if cfg.Engine.RefreshMinutes == 0 {
		cfg.Engine.RefreshMinutes = 5
	}
	if cfg.Engine.SweepMinutes == 0 {
		cfg.Engine.SweepMinutes = 1
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Redis.HistoryTTLHours == 0 {
		cfg.Redis.HistoryTTLHours = 72
	}
	if cfg.Sources.RegistryPath == "" {
		cfg.Sources.RegistryPath = "configs/sources.json"
	}
	if cfg.Sources.TimeoutMS == 0 {
		cfg.Sources.TimeoutMS = 10000
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func loadEnvFile() {
	// Try multiple paths (for running from different directories)
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
