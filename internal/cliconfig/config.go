package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bft-labs/meshbridge/pkg/log"
	"github.com/bft-labs/meshbridge/pkg/meshbridge"
)

// Config holds CLI configuration for meshbridge.
type Config struct {
	MesherPort string
	LMICPort   string

	BaudRate    int
	ReadTimeout time.Duration

	ChunkSize        int
	ThrottleInterval time.Duration
	PollInterval     time.Duration
	Scheduler        string

	LogLevel   string
	ConfigPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	d := meshbridge.DefaultConfig()
	return Config{
		MesherPort:       d.MesherPort,
		LMICPort:         d.LMICPort,
		BaudRate:         d.BaudRate,
		ReadTimeout:      d.ReadTimeout,
		ChunkSize:        d.ChunkSize,
		ThrottleInterval: d.ThrottleInterval,
		PollInterval:     d.PollInterval,
		Scheduler:        d.Scheduler,
		LogLevel:         "info",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MesherPort == "" {
		return fmt.Errorf("mesher-port is required")
	}
	if c.LMICPort == "" {
		return fmt.Errorf("lmic-port is required")
	}
	if c.MesherPort == c.LMICPort {
		return fmt.Errorf("mesher-port and lmic-port must differ")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return c.BridgeConfig().Validate()
}

// BridgeConfig converts the CLI configuration to a meshbridge.Config.
func (c *Config) BridgeConfig() meshbridge.Config {
	return meshbridge.Config{
		MesherPort:       c.MesherPort,
		LMICPort:         c.LMICPort,
		BaudRate:         c.BaudRate,
		ReadTimeout:      c.ReadTimeout,
		ChunkSize:        c.ChunkSize,
		ThrottleInterval: c.ThrottleInterval,
		PollInterval:     c.PollInterval,
		Scheduler:        c.Scheduler,
		ConfigPath:       c.ConfigPath,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
// A zero duration is applied, it disables the throttle.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}
