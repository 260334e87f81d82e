// Package serial opens the bridge's serial links with go.bug.st/serial.
package serial

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/bft-labs/meshbridge/internal/adapters/stream"
	"github.com/bft-labs/meshbridge/internal/domain"
)

// Defaults used by both the mesher and the LMIC sketches.
const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = time.Second
)

// PortConfig describes how to open one serial link.
type PortConfig struct {
	Path        string
	BaudRate    int
	ReadTimeout time.Duration
}

// mode returns the 8N1 mode used by the devices.
func (c PortConfig) mode() *serial.Mode {
	baud := c.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
}

// opener is swapped in tests.
var opener = func(path string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(path, mode)
}

// Open opens the port and wraps it as a line link named name.
func Open(name string, cfg PortConfig, opts ...stream.Option) (*stream.Link, error) {
	if cfg.Path == "" {
		return nil, &domain.TransportError{Link: name, Op: "open", Err: fmt.Errorf("no port configured")}
	}

	p, err := opener(cfg.Path, cfg.mode())
	if err != nil {
		return nil, &domain.TransportError{Link: name, Op: "open", Err: fmt.Errorf("%s: %w", cfg.Path, err)}
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		_ = p.Close()
		return nil, &domain.TransportError{Link: name, Op: "open", Err: fmt.Errorf("%s: set read timeout: %w", cfg.Path, err)}
	}

	return stream.New(name, p, opts...), nil
}

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// ListPorts enumerates serial ports with their USB identifiers when known.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	out := make([]PortInfo, 0, len(details))
	for _, d := range details {
		out = append(out, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return out, nil
}
