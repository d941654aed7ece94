package adb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// Kind identifies which link a Transport travels over.
type Kind string

const (
	KindUSB Kind = "USB"
	KindTCP Kind = "TCP"
)

// Transport is a live command channel to exactly one device. A Transport is
// owned by a single caller; commands are issued one at a time and block until
// the device answers.
type Transport interface {
	Kind() Kind
	// Serial is the adb serial the transport addresses (vendor serial for
	// wired devices, ip:port for network devices).
	Serial() string
	// Execute runs argv in the device shell and returns its raw output. A
	// command that ran and exited non-zero still returns its output with a nil
	// error; only link and adb failures wrap ErrCommunication.
	Execute(args ...string) ([]byte, error)
	Close() error
}

// StatusExecutor is implemented by transports that report the exit status
// of the remote command.
type StatusExecutor interface {
	ExecuteStatus(args ...string) ([]byte, int, error)
}

// ExecuteStatus runs argv on t and returns the remote exit status with the
// output. Transports without status reporting yield zero.
func ExecuteStatus(t Transport, args ...string) ([]byte, int, error) {
	if se, ok := t.(StatusExecutor); ok {
		return se.ExecuteStatus(args...)
	}
	out, err := t.Execute(args...)
	return out, 0, err
}

// Decode converts device output to text, replacing malformed UTF-8 with
// U+FFFD instead of failing.
func Decode(b []byte) string {
	return strings.ToValidUTF8(string(b), "\uFFFD")
}

// shellChannel carries argv to `adb -s <serial> shell`. It is shared by both
// transport kinds; only the serial differs.
type shellChannel struct {
	runner Runner
	serial string
	kind   Kind
	closed atomic.Bool
}

func (s *shellChannel) execute(args []string) ([]byte, int, error) {
	if s.closed.Load() {
		return nil, 0, fmt.Errorf("%w: %w", ErrCommunication, ErrTransportClosed)
	}
	if len(args) == 0 {
		return nil, 0, fmt.Errorf("%w: empty command", ErrCommunication)
	}

	full := make([]string, 0, len(args)+3)
	full = append(full, "-s", s.serial, "shell")
	full = append(full, quoteArgs(args)...)

	// In-flight commands are never cancelled by callers; the runner's own
	// timeout is the only deadline.
	start := time.Now()
	out, err := s.runner.Run(context.Background(), full...)
	if code, ok := remoteExit(err); ok {
		observeCommand(s.kind, start, nil)
		return out, code, nil
	}
	observeCommand(s.kind, start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", ErrCommunication, args[0], err)
	}
	return out, 0, nil
}

// adbFailureMarkers are stderr fragments adb prints itself when the command
// never reached the device shell.
var adbFailureMarkers = []string{
	"error: device",
	"error: closed",
	"error: no devices",
	"error: more than one",
	"adb: device",
	"adb: no devices",
	"adb: more than one",
	"device offline",
	"device unauthorized",
	"protocol fault",
	"failed to connect",
}

// remoteExit reports whether err is only the device command's own non-zero
// exit status, passed back by adb's shell protocol.
func remoteExit(err error) (int, bool) {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.ExitCode <= 0 {
		return 0, false
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	for _, marker := range adbFailureMarkers {
		if strings.Contains(stderr, marker) {
			return 0, false
		}
	}
	return cmdErr.ExitCode, true
}

// WiredTransport talks to a USB-attached device.
type WiredTransport struct {
	ch *shellChannel
}

func newWiredTransport(runner Runner, serial string) *WiredTransport {
	return &WiredTransport{ch: &shellChannel{runner: runner, serial: serial, kind: KindUSB}}
}

func (t *WiredTransport) Kind() Kind     { return KindUSB }
func (t *WiredTransport) Serial() string { return t.ch.serial }

func (t *WiredTransport) Execute(args ...string) ([]byte, error) {
	out, _, err := t.ch.execute(args)
	return out, err
}

func (t *WiredTransport) ExecuteStatus(args ...string) ([]byte, int, error) {
	return t.ch.execute(args)
}

func (t *WiredTransport) Close() error {
	t.ch.closed.Store(true)
	return nil
}

// NetworkTransport talks to a device connected over TCP.
type NetworkTransport struct {
	ch *shellChannel
}

func newNetworkTransport(runner Runner, ip string, port int) *NetworkTransport {
	addr := JoinAddress(ip, port)
	return &NetworkTransport{ch: &shellChannel{runner: runner, serial: addr, kind: KindTCP}}
}

func (t *NetworkTransport) Kind() Kind     { return KindTCP }
func (t *NetworkTransport) Serial() string { return t.ch.serial }

func (t *NetworkTransport) Execute(args ...string) ([]byte, error) {
	out, _, err := t.ch.execute(args)
	return out, err
}

func (t *NetworkTransport) ExecuteStatus(args ...string) ([]byte, int, error) {
	return t.ch.execute(args)
}

// Close releases the transport. The adb server keeps the socket for later
// reconnects; use Client.Disconnect to drop it.
func (t *NetworkTransport) Close() error {
	t.ch.closed.Store(true)
	return nil
}

// quoteArgs single-quotes arguments that the device shell would otherwise
// split or expand, since adb joins argv with spaces before handing it to sh.
func quoteArgs(args []string) []string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return quoted
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("-_./:=,+@%", r)
}
