package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Discord struct {
		Token         string `yaml:"token"`
		GuildID       string `yaml:"guild_id"`
		CommandPrefix string `yaml:"command_prefix"`
	} `yaml:"discord"`
	Quiz struct {
		CategoryName    string `yaml:"category_name"` // guild category holding quiz channels
		VerifiedRole    string `yaml:"verified_role"`
		JoinTimeout     string `yaml:"join_timeout"`
		QuestionTimeout string `yaml:"question_timeout"`
		ResultsGrace    string `yaml:"results_grace"`
	} `yaml:"quiz"`
	Contest struct {
		AdminRole     string `yaml:"admin_role"`
		RewardRole    string `yaml:"reward_role"`
		ReactionEmoji string `yaml:"reaction_emoji"`
		Duration      string `yaml:"duration"`
		RoleDuration  string `yaml:"role_duration"`
		CheckInterval string `yaml:"check_interval"`
	} `yaml:"contest"`
	Trivia struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"trivia"`
	Generative struct {
		APIKey string `yaml:"api_key"`
		APIURL string `yaml:"api_url"`
		Model  string `yaml:"model"`
	} `yaml:"generative"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path. The Discord token may be overridden
// with the DISCORD_TOKEN environment variable.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Discord.Token = token
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
