package transport

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// The sampler is a Raspberry Pi Pico exposing USB CDC serial.
const picoVID = "2E8A"

var picoPIDs = []string{"000A", "0003"}

// PortInfo describes one enumerated serial port.
type PortInfo struct {
	Name    string
	IsUSB   bool
	VID     string
	PID     string
	Product string
	Sampler bool
}

// ListPorts enumerates serial ports with USB detail, marking any that look
// like the sampler hardware.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		info := PortInfo{
			Name:    d.Name,
			IsUSB:   d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Product: d.Product,
		}
		info.Sampler = isSampler(d)
		ports = append(ports, info)
	}
	return ports, nil
}

// FindDevicePort returns the first port that looks like the sampler, or the
// first available port as a fallback; empty when nothing is connected.
func FindDevicePort() (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.Sampler {
			return p.Name, nil
		}
	}
	if len(ports) > 0 {
		return ports[0].Name, nil
	}
	return "", nil
}

func isSampler(d *enumerator.PortDetails) bool {
	if d.IsUSB && strings.EqualFold(d.VID, picoVID) {
		for _, pid := range picoPIDs {
			if strings.EqualFold(d.PID, pid) {
				return true
			}
		}
	}
	return strings.Contains(d.Product, "USB Serial Device")
}

// Options parameterise the serial connection.
type Options struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// Port wraps an open serial connection behind a non-blocking drain: each tick
// reads whatever the OS has buffered and returns immediately when nothing is
// waiting.
type Port struct {
	name   string
	port   serial.Port
	buf    []byte
	logger zerolog.Logger
}

// Open connects to the configured port, or auto-detects the sampler when no
// port is named. The input buffer is flushed so a session starts on fresh
// samples.
func Open(opts Options, logger zerolog.Logger) (*Port, error) {
	name := opts.Port
	if name == "" {
		detected, err := FindDevicePort()
		if err != nil {
			return nil, err
		}
		if detected == "" {
			return nil, fmt.Errorf("no serial ports available")
		}
		name = detected
	}

	baud := opts.Baud
	if baud <= 0 {
		baud = 115200
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	timeout := opts.ReadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Millisecond
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}

	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset input buffer on %s: %w", name, err)
	}

	logger.Info().Str("port", name).Int("baud", baud).Msg("serial port connected")

	return &Port{
		name:   name,
		port:   port,
		buf:    make([]byte, 4096),
		logger: logger.With().Str("component", "transport").Str("port", name).Logger(),
	}, nil
}

// Name reports the connected port path.
func (p *Port) Name() string { return p.name }

// ReadAvailable returns the bytes currently buffered by the OS, or nil when
// none arrived within the short read timeout. A nil, nil return is the normal
// idle case, not an error.
func (p *Port) ReadAvailable() ([]byte, error) {
	n, err := p.port.Read(p.buf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.name, err)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	copy(out, p.buf[:n])
	return out, nil
}

// Close releases the port.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}
