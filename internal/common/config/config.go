// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Delivery DeliveryConfig `mapstructure:"delivery"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Timezone    string `mapstructure:"timezone"`
}

// EngineConfig holds the synthesizer and lifecycle tunables.
type EngineConfig struct {
	ReminderLeadMinutes   int    `mapstructure:"reminder_lead_minutes"`    // default 15
	TravelWindowMinutes   int    `mapstructure:"travel_window_minutes"`    // default 60
	BackToBackGapMinutes  int    `mapstructure:"back_to_back_gap_minutes"` // default 5
	DailyOverloadCount    int    `mapstructure:"daily_overload_count"`     // default 6
	MaxConflicts          int    `mapstructure:"max_conflicts"`            // default 3
	BriefingTime          string `mapstructure:"briefing_time"`            // "HH:MM" local
	BriefingWindowMinutes int    `mapstructure:"briefing_window_minutes"`  // default 5
	RefreshMinutes        int    `mapstructure:"refresh_minutes"`          // synthesis cadence
	SweepMinutes          int    `mapstructure:"sweep_minutes"`            // expiry sweep cadence
}

// DeliveryConfig holds settings for the concrete delivery sinks.
type DeliveryConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
		ToEmail   string `mapstructure:"to_email"`
	} `mapstructure:"email"`
	Push struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"push"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// HistoryTTL is the retention for delivered-notification history, hours.
	HistoryTTLHours int `mapstructure:"history_ttl_hours"`
}

// SourcesConfig points at the calendar source registry.
type SourcesConfig struct {
	RegistryPath string `mapstructure:"registry_path"`
	CacheDir     string `mapstructure:"cache_dir"`
	TimeoutMS    int    `mapstructure:"timeout_ms"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

func validateConfig(cfg *Config) error {
	if cfg.Engine.ReminderLeadMinutes <= 0 {
		return fmt.Errorf("engine.reminder_lead_minutes must be positive, got %d", cfg.Engine.ReminderLeadMinutes)
	}
	if cfg.Engine.DailyOverloadCount <= 0 {
		return fmt.Errorf("engine.daily_overload_count must be positive, got %d", cfg.Engine.DailyOverloadCount)
	}
	if cfg.Delivery.Email.Enabled && cfg.Delivery.Email.FromEmail == "" {
		return fmt.Errorf("delivery.email.from_email is required when email delivery is enabled")
	}
	if cfg.Delivery.Push.Enabled && cfg.Delivery.Push.TopicARN == "" {
		return fmt.Errorf("delivery.push.topic_arn is required when push delivery is enabled")
	}
	return nil
}
