package pairing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pavi2410/droidkit/adb"
)

var ErrInvalidPairingCode = errors.New("pairing code must be exactly 6 digits")

// ErrorKind sub-classifies a failed handshake for messaging.
type ErrorKind string

const (
	KindParse             ErrorKind = "parse-error"
	KindConnectionRefused ErrorKind = "connection-refused"
	KindTimeout           ErrorKind = "timeout"
	KindOther             ErrorKind = "other"
)

// PairingError is returned when the pairing handshake fails.
type PairingError struct {
	Kind ErrorKind
	Err  error
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("pairing failed (%s): %v", e.Kind, e.Err)
}

func (e *PairingError) Unwrap() error {
	return e.Err
}

// Message is a human-readable hint on what to do next.
func (e *PairingError) Message() string {
	switch e.Kind {
	case KindParse:
		return "The device sent a response that could not be understood. Make sure wireless debugging is enabled and try pairing again."
	case KindConnectionRefused:
		return "The device refused the connection. Check the pairing port shown on the device; it changes every time the pairing dialog is opened."
	case KindTimeout:
		return "The device did not respond in time. Make sure it is on the same network and the pairing dialog is still open."
	default:
		return "Pairing failed. Check the pairing code and try again."
	}
}

func classify(err error) ErrorKind {
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, adb.ErrConnectionRefused) || strings.Contains(msg, "connection refused"):
		return KindConnectionRefused
	case errors.Is(err, adb.ErrTimeout) || strings.Contains(msg, "timed out") || strings.Contains(msg, "timeout"):
		return KindTimeout
	case strings.Contains(msg, "protocol fault") || strings.Contains(msg, "parse") || strings.Contains(msg, "malformed"):
		return KindParse
	default:
		return KindOther
	}
}
