// Package pairing authorizes a wireless debugging link with a six-digit code
// and then locates and connects to the device's data port.
package pairing

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pavi2410/droidkit/adb"
	"github.com/pavi2410/droidkit/sysinfo"
)

const codeLength = 6

// Fallback ports used when discovery has no record for the device.
const DefaultConnectionPort = 5555

var DefaultCandidatePorts = []int{5555, 5556, 5557, 5558, 5559}

// Handshaker performs the pairing handshake. It is satisfied by *adb.Client.
type Handshaker interface {
	Pair(ip string, port int, code string) error
}

// ConnectorFunc opens a network transport to ip:port.
type ConnectorFunc func(ip string, port int) (adb.Transport, error)

// PortLookup finds a device's data-connection port from earlier discovery.
// It is satisfied by *discovery.Service.
type PortLookup interface {
	ConnectionPort(ip string) (int, bool)
}

type Config struct {
	DefaultPort    int
	CandidatePorts []int
}

// Result of a successful pairing.
type Result struct {
	Report *sysinfo.DeviceReport
	IP     string
	Port   int
}

// Identity is the ip:port string for reconnecting to the paired device.
func (r *Result) Identity() string {
	return adb.JoinAddress(r.IP, r.Port)
}

type Workflow struct {
	handshaker Handshaker
	connect    ConnectorFunc
	lookup     PortLookup
	cfg        Config
	logger     *zap.Logger
}

// NewWorkflow wires a pairing workflow. lookup may be nil, in which case the
// data port is always probed.
func NewWorkflow(handshaker Handshaker, connect ConnectorFunc, lookup PortLookup, cfg Config, logger *zap.Logger) *Workflow {
	if cfg.DefaultPort <= 0 {
		cfg.DefaultPort = DefaultConnectionPort
	}
	if len(cfg.CandidatePorts) == 0 {
		cfg.CandidatePorts = DefaultCandidatePorts
	}
	return &Workflow{
		handshaker: handshaker,
		connect:    connect,
		lookup:     lookup,
		cfg:        cfg,
		logger:     logger.Named("pairing"),
	}
}

// ValidateCode trims surrounding whitespace and checks for exactly six ASCII
// digits.
func ValidateCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) != codeLength {
		return "", ErrInvalidPairingCode
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return "", ErrInvalidPairingCode
		}
	}
	return code, nil
}

// Pair validates the code, runs the handshake once, resolves the data port and
// confirms the link with a device report whose serial is the ip:port identity.
func (w *Workflow) Pair(ip string, pairingPort int, code string) (*Result, error) {
	code, err := ValidateCode(code)
	if err != nil {
		return nil, err
	}
	if err := adb.ValidateAddress(ip, pairingPort); err != nil {
		return nil, err
	}

	if err := w.handshaker.Pair(ip, pairingPort, code); err != nil {
		perr := &PairingError{Kind: classify(err), Err: err}
		w.logger.Warn("pairing handshake failed",
			zap.String("ip", ip),
			zap.Int("port", pairingPort),
			zap.String("kind", string(perr.Kind)),
			zap.Error(err),
		)
		return nil, perr
	}

	port, transport := w.resolvePort(ip)
	if transport == nil {
		w.logger.Info("connecting to paired device", zap.String("ip", ip), zap.Int("port", port))
		t, err := w.connect(ip, port)
		if err != nil {
			return nil, fmt.Errorf("connect to paired device on port %d (the device may not be advertising a connection service, or wireless debugging was disabled): %w", port, err)
		}
		transport = t
	}
	defer transport.Close()

	report, err := sysinfo.BuildReport(transport)
	if err != nil {
		return nil, err
	}
	report.Serial = adb.JoinAddress(ip, port)

	return &Result{Report: report, IP: ip, Port: port}, nil
}

// resolvePort consults the discovery snapshot, then probes the candidate
// ports in order, then falls back to the default port. A transport opened by a
// successful probe is returned for reuse.
func (w *Workflow) resolvePort(ip string) (int, adb.Transport) {
	if w.lookup != nil {
		if port, ok := w.lookup.ConnectionPort(ip); ok {
			w.logger.Debug("connection port from discovery", zap.String("ip", ip), zap.Int("port", port))
			return port, nil
		}
	}

	for _, port := range w.cfg.CandidatePorts {
		t, err := w.connect(ip, port)
		if err != nil {
			w.logger.Debug("probe failed", zap.String("ip", ip), zap.Int("port", port), zap.Error(err))
			continue
		}
		w.logger.Debug("probe succeeded", zap.String("ip", ip), zap.Int("port", port))
		return port, t
	}

	w.logger.Debug("no candidate port answered, using default",
		zap.String("ip", ip),
		zap.Int("port", w.cfg.DefaultPort),
	)
	return w.cfg.DefaultPort, nil
}
