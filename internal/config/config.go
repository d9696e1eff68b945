package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Giveaway GiveawayConfig
	Panel    PanelConfig
	Registry RegistryConfig
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port string
}

// GiveawayConfig holds the defaults applied when a create request leaves a
// field out, plus the bonus-group table.
type GiveawayConfig struct {
	DefaultDuration    time.Duration
	DefaultWinnerCount int
	DefaultClaimWindow time.Duration
	// BonusGroups maps an eligibility group to the extra entries its
	// members get in every giveaway that doesn't override the rules.
	BonusGroups map[string]int
}

// PanelConfig controls the periodic panel refresher.
type PanelConfig struct {
	RefreshInterval time.Duration
}

// RegistryConfig controls the closed-giveaway sweep.
type RegistryConfig struct {
	SweepInterval time.Duration
	Retention     time.Duration
}

// Load reads configuration from config.yaml and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default values for configuration.
func setDefaults() {
	viper.SetDefault("Server.Port", "8080")
	viper.SetDefault("Giveaway.DefaultDuration", "1h")
	viper.SetDefault("Giveaway.DefaultWinnerCount", 1)
	viper.SetDefault("Giveaway.DefaultClaimWindow", "24h")
	viper.SetDefault("Giveaway.BonusGroups", map[string]int{})
	viper.SetDefault("Panel.RefreshInterval", "5s")
	viper.SetDefault("Registry.SweepInterval", "10m")
	viper.SetDefault("Registry.Retention", "1h")
}
