package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	MesherPort       string `toml:"mesher_port"`
	LMICPort         string `toml:"lmic_port"`
	BaudRate         int    `toml:"baud_rate"`
	ReadTimeout      string `toml:"read_timeout"`
	ChunkSize        int    `toml:"chunk_size"`
	ThrottleInterval string `toml:"throttle_interval"`
	PollInterval     string `toml:"poll_interval"`
	Scheduler        string `toml:"scheduler"`
	LogLevel         string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.meshbridge/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".meshbridge", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("mesher-port", fc.MesherPort, &cfg.MesherPort)
	s.setString("lmic-port", fc.LMICPort, &cfg.LMICPort)
	s.setString("scheduler", fc.Scheduler, &cfg.Scheduler)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("read-timeout", fc.ReadTimeout, &cfg.ReadTimeout); err != nil {
		return err
	}
	if err := s.setDuration("throttle", fc.ThrottleInterval, &cfg.ThrottleInterval); err != nil {
		return err
	}
	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}

	s.setInt("baud", fc.BaudRate, &cfg.BaudRate)
	s.setInt("chunk-size", fc.ChunkSize, &cfg.ChunkSize)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
