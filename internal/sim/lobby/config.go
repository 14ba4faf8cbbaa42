package lobby

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the server-side knobs that are not game rules.
type Config struct {
	MaxRooms           int     `yaml:"max_rooms"`
	CodeLength         int     `yaml:"code_length"`
	InboxSize          int     `yaml:"inbox_size"`
	TickMs             int     `yaml:"tick_ms"`
	MaxAITurnsPerDrive int     `yaml:"max_ai_turns_per_drive"`
	AdminCommands      bool    `yaml:"admin_commands"`
	CommandsPerSecond  float64 `yaml:"commands_per_second"`
	CommandBurst       int     `yaml:"command_burst"`
	HelloTimeoutMs     int     `yaml:"hello_timeout_ms"`
	SessionBuffer      int     `yaml:"session_buffer"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("server.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("server.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		MaxRooms:           256,
		CodeLength:         6,
		InboxSize:          256,
		TickMs:             100,
		MaxAITurnsPerDrive: 8,
		AdminCommands:      true,
		CommandsPerSecond:  10,
		CommandBurst:       20,
		HelloTimeoutMs:     5000,
		SessionBuffer:      64,
	}
}

// Normalize fills zero values from the defaults.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	d := defaults()
	if c.CodeLength <= 0 {
		c.CodeLength = d.CodeLength
	}
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
	if c.TickMs <= 0 {
		c.TickMs = d.TickMs
	}
	if c.MaxAITurnsPerDrive <= 0 {
		c.MaxAITurnsPerDrive = d.MaxAITurnsPerDrive
	}
	if c.CommandsPerSecond <= 0 {
		c.CommandsPerSecond = d.CommandsPerSecond
	}
	if c.CommandBurst <= 0 {
		c.CommandBurst = d.CommandBurst
	}
	if c.HelloTimeoutMs <= 0 {
		c.HelloTimeoutMs = d.HelloTimeoutMs
	}
	if c.SessionBuffer <= 0 {
		c.SessionBuffer = d.SessionBuffer
	}
}

func (c Config) Validate() error {
	if c.MaxRooms < 0 {
		return fmt.Errorf("max_rooms must be >= 0")
	}
	if c.CodeLength < 4 || c.CodeLength > 32 {
		return fmt.Errorf("code_length must be in [4, 32]")
	}
	if c.TickMs > 10_000 {
		return fmt.Errorf("tick_ms must be <= 10000")
	}
	if float64(c.CommandBurst) < c.CommandsPerSecond {
		return fmt.Errorf("command_burst must be >= commands_per_second")
	}
	return nil
}
