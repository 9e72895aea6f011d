// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Economy   EconomyConfig   `mapstructure:"economy"`
	Blackjack BlackjackConfig `mapstructure:"blackjack"`
	Roulette  RouletteConfig  `mapstructure:"roulette"`
	Bugs      BugsConfig      `mapstructure:"bugs"`
}

// BotConfig holds Discord bot configuration.
type BotConfig struct {
	Token  string `mapstructure:"token"`
	Prefix string `mapstructure:"prefix"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// EconomyConfig holds strawberry ledger configuration.
type EconomyConfig struct {
	DataFile        string        `mapstructure:"data_file"`
	StartingBalance int64         `mapstructure:"starting_balance"`
	DailyReward     int64         `mapstructure:"daily_reward"`
	StreakBonus     int64         `mapstructure:"streak_bonus"`
	MaxStreakBonus  int64         `mapstructure:"max_streak_bonus"`
	SaveInterval    time.Duration `mapstructure:"save_interval"`
	LeaderboardTTL  time.Duration `mapstructure:"leaderboard_ttl"`
	InactiveDays    int           `mapstructure:"inactive_days"`
}

// BlackjackConfig holds blackjack game configuration.
type BlackjackConfig struct {
	MinBet          int64         `mapstructure:"min_bet"`
	MaxBet          int64         `mapstructure:"max_bet"`
	DecisionTimeout time.Duration `mapstructure:"decision_timeout"`
}

// RouletteConfig holds roulette game configuration.
type RouletteConfig struct {
	MaxBet int64 `mapstructure:"max_bet"`
}

// BugsConfig holds bug tracker configuration.
type BugsConfig struct {
	ReportsFile string `mapstructure:"reports_file"`
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// Environment variables use underscore separator and uppercase
	// e.g., BOT_TOKEN, ECONOMY_DATA_FILE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we can use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Bot defaults
	v.SetDefault("bot.prefix", "!")

	// Economy defaults
	v.SetDefault("economy.data_file", "data/strawberry_data.json")
	v.SetDefault("economy.starting_balance", 10)
	v.SetDefault("economy.daily_reward", 10)
	v.SetDefault("economy.streak_bonus", 2)
	v.SetDefault("economy.max_streak_bonus", 10)
	v.SetDefault("economy.save_interval", "5m")
	v.SetDefault("economy.leaderboard_ttl", "5m")
	v.SetDefault("economy.inactive_days", 30)

	// Game defaults
	v.SetDefault("blackjack.min_bet", 1)
	v.SetDefault("blackjack.max_bet", 0) // 0 means no maximum
	v.SetDefault("blackjack.decision_timeout", "60s")
	v.SetDefault("roulette.max_bet", 0)

	// Bug tracker defaults
	v.SetDefault("bugs.reports_file", "data/bug_reports.json")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
