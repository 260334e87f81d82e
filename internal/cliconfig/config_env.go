package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (MESHBRIDGE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("mesher-port", os.Getenv("MESHBRIDGE_MESHER_PORT"), &cfg.MesherPort)
	s.setString("lmic-port", os.Getenv("MESHBRIDGE_LMIC_PORT"), &cfg.LMICPort)
	s.setString("scheduler", os.Getenv("MESHBRIDGE_SCHEDULER"), &cfg.Scheduler)
	s.setString("log-level", os.Getenv("MESHBRIDGE_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("read-timeout", os.Getenv("MESHBRIDGE_READ_TIMEOUT"), &cfg.ReadTimeout); err != nil {
		return err
	}
	if err := s.setDuration("throttle", os.Getenv("MESHBRIDGE_THROTTLE_INTERVAL"), &cfg.ThrottleInterval); err != nil {
		return err
	}
	if err := s.setDuration("poll", os.Getenv("MESHBRIDGE_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}

	if err := s.setIntFromString("baud", os.Getenv("MESHBRIDGE_BAUD_RATE"), &cfg.BaudRate); err != nil {
		return err
	}
	if err := s.setIntFromString("chunk-size", os.Getenv("MESHBRIDGE_CHUNK_SIZE"), &cfg.ChunkSize); err != nil {
		return err
	}

	return nil
}

// ThrottleOverridden reports whether the throttle interval was fixed by the
// --throttle flag or MESHBRIDGE_THROTTLE_INTERVAL rather than the file.
func ThrottleOverridden(changed map[string]bool) bool {
	return changed["throttle"] || os.Getenv("MESHBRIDGE_THROTTLE_INTERVAL") != ""
}
