package adb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDeviceFound is returned by Autodetect when zero or more than one
	// wired device is attached.
	ErrNoDeviceFound = errors.New("no device found")

	// ErrConnectionRefused is returned when the device actively refused a
	// network connection.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrTimeout is returned when a connection attempt or command did not
	// complete in time.
	ErrTimeout = errors.New("timed out")

	// ErrCommunication wraps every failure of a command issued through a
	// Transport.
	ErrCommunication = errors.New("device communication failed")

	// ErrTransportClosed is returned by Execute after Close.
	ErrTransportClosed = errors.New("transport closed")

	// ErrInvalidAddress is returned for malformed IPv4 addresses or ports.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrHandshake is returned when `adb pair` does not report success.
	ErrHandshake = errors.New("pairing handshake failed")
)

// CommandError describes a host adb invocation that exited unsuccessfully.
// ExitCode is the process exit status, or zero when adb never exited on its
// own (start failure, signal, timeout).
type CommandError struct {
	Args     []string
	Output   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("adb %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
