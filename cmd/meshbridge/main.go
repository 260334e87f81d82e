package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/meshbridge/internal/cliconfig"
	"github.com/bft-labs/meshbridge/pkg/log"
	"github.com/bft-labs/meshbridge/pkg/meshbridge"
	"github.com/bft-labs/meshbridge/plugins/configwatcher"
	"github.com/bft-labs/meshbridge/plugins/queuemonitor"
)

const helpDescription = `
Relay LoRa mesh traffic to a LoRaWAN modem and back.

The mesher port carries lines like "DATA:1 2 3 ff" (decimal bytes, then a hex
destination). Each payload is cut into frames that end with the two address
bytes and written to the LMIC port one per throttle interval. "RETURN:" lines
from the modem are written back to the mesher as raw bytes.

Configure via file ($HOME/.meshbridge/config.toml), MESHBRIDGE_* environment
variables or flags; flags win over environment, environment over file.
`

var exampleUsage = strings.TrimSpace(`
  meshbridge --mesher-port /dev/ttyUSB0 --lmic-port /dev/ttyUSB1
  meshbridge --config ./meshbridge.toml --throttle 2s --scheduler concurrent
  meshbridge ports
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := log.NewConsoleLogger(os.Stderr, zerolog.InfoLevel)

	root := &cobra.Command{
		Use:           "meshbridge",
		Short:         "Relay LoRa mesh traffic to a LoRaWAN modem and back",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := resolveConfig(cmd.Flags(), cfgPath, &cfg)
			if err != nil {
				return err
			}

			level, _ := log.ParseLevel(cfg.LogLevel)
			logger = log.NewConsoleLogger(os.Stderr, level)
			logConfig(logger, cfg)

			return run(cfg, logger, cliconfig.ThrottleOverridden(changed))
		},
	}

	registerFlags(root.Flags(), &cfg, &cfgPath)

	root.AddCommand(portsCommand())

	if err := root.Execute(); err != nil {
		logger.Error("meshbridge", log.Err(err))
		os.Exit(1)
	}
}

// registerFlags binds the command line flags to cfg and cfgPath.
func registerFlags(fs *pflag.FlagSet, cfg *cliconfig.Config, cfgPath *string) {
	fs.StringVar(cfgPath, "config", "", "path to config file (default: $HOME/.meshbridge/config.toml)")
	fs.StringVar(&cfg.MesherPort, "mesher-port", cfg.MesherPort, "serial port of the mesh gateway")
	fs.StringVar(&cfg.LMICPort, "lmic-port", cfg.LMICPort, "serial port of the LMIC modem")
	fs.IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "baud rate for both ports")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "serial read timeout")

	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "maximum frame length including the 2 address bytes")
	fs.DurationVar(&cfg.ThrottleInterval, "throttle", cfg.ThrottleInterval, "pause after each frame sent to the modem (0 disables)")
	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "poll interval when both links are idle")
	fs.StringVar(&cfg.Scheduler, "scheduler", cfg.Scheduler, "sequential or concurrent")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
}

// resolveConfig layers the config file and environment under the flags that
// were set on the command line, then validates the result. It returns the set
// of changed flags.
func resolveConfig(flags *pflag.FlagSet, cfgPath string, cfg *cliconfig.Config) (map[string]bool, error) {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	flags.Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return nil, err
		}
		cfg.ConfigPath = cfgFile
	} else if cfgPath != "" {
		return nil, fmt.Errorf("config file %s not found", cfgPath)
	}

	// Environment overrides the file, flags override both.
	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return changed, nil
}

func logConfig(logger *log.ZerologAdapter, cfg cliconfig.Config) {
	zl := logger.Logger()
	zl.Info().Interface("config", cfg).Msg("configuration")
}

// run starts the bridge and blocks until a signal or a link failure.
func run(cfg cliconfig.Config, logger *log.ZerologAdapter, pinThrottle bool) error {
	watch := configwatcher.DefaultConfig()
	watch.PinThrottle = pinThrottle

	b, err := meshbridge.New(cfg.BridgeConfig(),
		meshbridge.WithLogger(logger),
		configwatcher.WithConfigWatcher(watch),
		queuemonitor.WithQueueMonitor(queuemonitor.DefaultConfig()),
	)
	if err != nil {
		return fmt.Errorf("create bridge: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	select {
	case sig := <-sigCh:
		logger.Info("received signal, stopping", log.String("signal", sig.String()))
	case <-b.Done():
		if err := b.Err(); err != nil {
			return err
		}
	}

	if err := b.Stop(); err != nil && !errors.Is(err, meshbridge.ErrNotRunning) {
		return fmt.Errorf("stop bridge: %w", err)
	}

	st := b.Stats()
	logger.Info("bridge stopped",
		log.Any("frames_sent", st.FramesSent),
		log.Any("replies_forwarded", st.RepliesForwarded),
		log.Any("parse_errors", st.ParseErrors),
		log.Int("frames_discarded", st.QueueDepth),
	)
	return nil
}
