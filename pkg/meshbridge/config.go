package meshbridge

import (
	"fmt"
	"time"

	"github.com/bft-labs/meshbridge/internal/adapters/serial"
	"github.com/bft-labs/meshbridge/internal/app"
	"github.com/bft-labs/meshbridge/internal/codec"
	"github.com/bft-labs/meshbridge/internal/domain"
)

// Default serial device paths.
const (
	DefaultMesherPort = "/dev/ttyUSB0"
	DefaultLMICPort   = "/dev/ttyUSB1"
)

// Scheduler names accepted by Config.Scheduler.
const (
	SchedulerSequential = string(app.SchedulerSequential)
	SchedulerConcurrent = string(app.SchedulerConcurrent)
)

// Config holds the configuration for a Bridge.
type Config struct {
	// MesherPort is the serial device of the mesh gateway.
	// Ignored when links are injected with WithLinks.
	MesherPort string

	// LMICPort is the serial device of the LoRaWAN modem.
	// Ignored when links are injected with WithLinks.
	LMICPort string

	// BaudRate applies to both serial ports.
	// Default: 115200
	BaudRate int

	// ReadTimeout bounds each serial read so the line reader can notice Close.
	// Default: 1 second
	ReadTimeout time.Duration

	// ChunkSize is the maximum frame length including the two address bytes.
	// Default: 51
	ChunkSize int

	// ThrottleInterval is the pause after each frame written to the modem.
	// Zero disables the pause.
	// Default: 1.2 seconds
	ThrottleInterval time.Duration

	// PollInterval is how long an idle loop waits before checking the links.
	// Default: 10 milliseconds
	PollInterval time.Duration

	// Scheduler is "sequential" or "concurrent".
	// Default: sequential
	Scheduler string

	// ConfigPath is handed to plugins that watch the configuration file.
	// Optional.
	ConfigPath string
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	cfg := Config{
		MesherPort:       DefaultMesherPort,
		LMICPort:         DefaultLMICPort,
		ThrottleInterval: app.DefaultThrottleInterval,
	}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero-valued fields. ThrottleInterval is left alone since
// zero is meaningful.
func (c *Config) SetDefaults() {
	if c.BaudRate == 0 {
		c.BaudRate = serial.DefaultBaudRate
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = serial.DefaultReadTimeout
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = codec.DefaultChunkSize
	}
	if c.PollInterval == 0 {
		c.PollInterval = app.DefaultPollInterval
	}
	if c.Scheduler == "" {
		c.Scheduler = SchedulerSequential
	}
}

// Validate reports the first invalid field. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.BaudRate <= 0:
		return invalid("baud rate must be positive, got %d", c.BaudRate)
	case c.ReadTimeout <= 0:
		return invalid("read timeout must be positive, got %v", c.ReadTimeout)
	case c.ChunkSize < codec.MinChunkSize:
		return invalid("chunk size must be at least %d, got %d", codec.MinChunkSize, c.ChunkSize)
	case c.ThrottleInterval < 0:
		return invalid("throttle interval must not be negative, got %v", c.ThrottleInterval)
	case c.PollInterval <= 0:
		return invalid("poll interval must be positive, got %v", c.PollInterval)
	}

	switch c.Scheduler {
	case SchedulerSequential, SchedulerConcurrent:
	default:
		return invalid("unknown scheduler %q", c.Scheduler)
	}
	return nil
}

// validateLinks checks the port paths, which are only needed when no links
// are injected.
func (c Config) validateLinks() error {
	if c.MesherPort == "" {
		return invalid("mesher port is required")
	}
	if c.LMICPort == "" {
		return invalid("lmic port is required")
	}
	if c.MesherPort == c.LMICPort {
		return invalid("mesher and lmic ports must differ, both are %q", c.MesherPort)
	}
	return nil
}

func (c Config) bridgeConfig() app.BridgeConfig {
	return app.BridgeConfig{
		ChunkSize:        c.ChunkSize,
		ThrottleInterval: c.ThrottleInterval,
		PollInterval:     c.PollInterval,
		Scheduler:        app.Scheduler(c.Scheduler),
	}
}

func (c Config) portConfig(path string) serial.PortConfig {
	return serial.PortConfig{
		Path:        path,
		BaudRate:    c.BaudRate,
		ReadTimeout: c.ReadTimeout,
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
