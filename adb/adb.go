package adb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pavi2410/droidkit/models"
	"go.uber.org/zap"
)

// Client wraps the host adb tool: device enumeration, wired autodetect,
// network connect/disconnect and the pairing handshake.
type Client struct {
	runner         Runner
	connectTimeout time.Duration
	logger         *zap.Logger
}

// NewClient creates a client over runner. connectTimeout bounds `adb connect`
// and `adb pair`.
func NewClient(runner Runner, connectTimeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		runner:         runner,
		connectTimeout: connectTimeout,
		logger:         logger,
	}
}

// ListDevices returns the devices known to the adb server.
// If the same physical device is connected via both USB and WiFi, WiFi is preferred.
func (c *Client) ListDevices() ([]models.Device, error) {
	output, err := c.runner.Run(context.Background(), "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list devices: %w", ErrCommunication, err)
	}

	devices := parseDeviceList(Decode(output))
	return c.deduplicateDevices(devices), nil
}

// Autodetect claims the single attached wired device.
func (c *Client) Autodetect() (*WiredTransport, error) {
	output, err := c.runner.Run(context.Background(), "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list devices: %w", ErrCommunication, err)
	}

	var wired []models.Device
	for _, d := range parseDeviceList(Decode(output)) {
		if d.Status == "online" && !isWiFiConnection(d.Serial) {
			wired = append(wired, d)
		}
	}

	switch len(wired) {
	case 0:
		return nil, fmt.Errorf("%w: no wired device attached", ErrNoDeviceFound)
	case 1:
		c.logger.Debug("wired device detected", zap.String("serial", wired[0].Serial))
		return newWiredTransport(c.runner, wired[0].Serial), nil
	default:
		serials := make([]string, len(wired))
		for i, d := range wired {
			serials[i] = d.Serial
		}
		return nil, fmt.Errorf("%w: %d wired devices attached (%s), expected exactly one",
			ErrNoDeviceFound, len(wired), strings.Join(serials, ", "))
	}
}

// Connect opens a network link to ip:port.
func (c *Client) Connect(ip string, port int) (*NetworkTransport, error) {
	if err := ValidateAddress(ip, port); err != nil {
		return nil, err
	}
	addr := JoinAddress(ip, port)

	ctx, cancel := c.handshakeContext()
	defer cancel()

	output, err := c.runner.Run(ctx, "connect", addr)
	text := strings.TrimSpace(Decode(output))
	if cerr := classifyConnect(addr, text, err); cerr != nil {
		c.logger.Debug("connect failed", zap.String("addr", addr), zap.Error(cerr))
		return nil, cerr
	}

	c.logger.Info("connected to device", zap.String("addr", addr))
	return newNetworkTransport(c.runner, ip, port), nil
}

// Disconnect drops the adb server's socket to a network device.
func (c *Client) Disconnect(identity string) error {
	ip, port, ok := ParseIdentity(identity)
	if !ok {
		return fmt.Errorf("%w: %q is not an ip:port identity", ErrInvalidAddress, identity)
	}
	addr := JoinAddress(ip, port)
	output, err := c.runner.Run(context.Background(), "disconnect", addr)
	if err != nil {
		return fmt.Errorf("%w: disconnect %s: %w", ErrCommunication, addr, err)
	}
	text := strings.ToLower(Decode(output))
	if strings.Contains(text, "error") || strings.Contains(text, "no such device") {
		return fmt.Errorf("%w: disconnect %s: %s", ErrCommunication, addr, strings.TrimSpace(Decode(output)))
	}
	return nil
}

// Pair performs the pairing handshake against a device's pairing port.
// It is never retried here.
func (c *Client) Pair(ip string, port int, code string) error {
	if err := ValidateAddress(ip, port); err != nil {
		return err
	}
	addr := JoinAddress(ip, port)

	ctx, cancel := c.handshakeContext()
	defer cancel()

	output, err := c.runner.Run(ctx, "pair", addr, code)
	text := strings.TrimSpace(Decode(output))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	if !strings.Contains(text, "Successfully paired") {
		return fmt.Errorf("%w: %s", ErrHandshake, text)
	}
	c.logger.Info("paired with device", zap.String("addr", addr))
	return nil
}

// Reconnect re-derives a transport from an identity string: <IPv4>:<port>
// connects over the network, anything else falls back to wired autodetect.
func (c *Client) Reconnect(identity string) (Transport, error) {
	if ip, port, ok := ParseIdentity(identity); ok {
		t, err := c.Connect(ip, port)
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	t, err := c.Autodetect()
	if err != nil {
		return nil, err
	}
	if t.Serial() != identity {
		c.logger.Debug("autodetected serial differs from identity",
			zap.String("identity", identity),
			zap.String("serial", t.Serial()),
		)
	}
	return t, nil
}

func (c *Client) handshakeContext() (context.Context, context.CancelFunc) {
	if c.connectTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.connectTimeout)
}

// classifyConnect maps `adb connect` results to the network error taxonomy.
// adb reports most failures on stdout with a zero exit code.
func classifyConnect(addr, text string, runErr error) error {
	lower := strings.ToLower(text)
	if runErr != nil {
		lower += " " + strings.ToLower(runErr.Error())
	}

	switch {
	case strings.Contains(lower, "connection refused"):
		return fmt.Errorf("%w: %s", ErrConnectionRefused, addr)
	case errors.Is(runErr, ErrTimeout), strings.Contains(lower, "timed out"), strings.Contains(lower, "timeout"):
		return fmt.Errorf("%w: connecting to %s", ErrTimeout, addr)
	case runErr != nil:
		return fmt.Errorf("%w: connect %s: %w", ErrCommunication, addr, runErr)
	case strings.Contains(lower, "failed"), strings.Contains(lower, "cannot"), strings.Contains(lower, "unable"):
		return fmt.Errorf("%w: connect %s: %s", ErrCommunication, addr, text)
	case strings.Contains(lower, "connected to"):
		return nil
	default:
		return fmt.Errorf("%w: connect %s: unexpected response %q", ErrCommunication, addr, text)
	}
}

// hardwareSerial gets the hardware serial number of the device
func (c *Client) hardwareSerial(adbDeviceID string) string {
	output, err := c.runner.Run(context.Background(), "-s", adbDeviceID, "shell", "getprop", "ro.serialno")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(Decode(output))
}

// isWiFiConnection checks if the device ID is a network connection (IP:port
// or an mDNS auto-connect serial).
func isWiFiConnection(adbDeviceID string) bool {
	return strings.Contains(adbDeviceID, ":") || strings.Contains(adbDeviceID, "._adb-tls-connect.")
}

// deduplicateDevices removes duplicate entries when same device is connected via USB and WiFi
// WiFi connections are preferred over USB
func (c *Client) deduplicateDevices(devices []models.Device) []models.Device {
	serialToDevice := make(map[string]models.Device)

	for i := range devices {
		hwSerial := ""
		if devices[i].Status == "online" {
			hwSerial = c.hardwareSerial(devices[i].Serial)
		}
		if hwSerial == "" {
			// Can't get serial, keep device as-is using ADB ID as key
			hwSerial = devices[i].Serial
		}
		devices[i].HardwareSerial = hwSerial

		existing, exists := serialToDevice[hwSerial]
		if !exists {
			serialToDevice[hwSerial] = devices[i]
			continue
		}
		// If both are same type, keep the first one
		if isWiFiConnection(devices[i].Serial) && !isWiFiConnection(existing.Serial) {
			serialToDevice[hwSerial] = devices[i]
		}
	}

	result := make([]models.Device, 0, len(serialToDevice))
	for _, device := range serialToDevice {
		result = append(result, device)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Serial < result[j].Serial })

	if len(result) != len(devices) {
		c.logger.Debug("deduplicated device list",
			zap.Int("devices", len(result)),
			zap.Int("raw", len(devices)),
		)
	}
	return result
}

// parseDeviceList parses the output of 'adb devices -l'
func parseDeviceList(output string) []models.Device {
	var devices []models.Device

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		// Skip header, daemon status and empty lines
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}

		// Expected format: <serial> <state> [key:value ...]
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		device := models.Device{
			Serial:    parts[0],
			State:     parts[1],
			Status:    "offline",
			Transport: string(KindUSB),
		}
		if device.State == "device" {
			device.Status = "online"
		}
		if isWiFiConnection(device.Serial) {
			device.Transport = string(KindTCP)
		}

		for _, part := range parts[2:] {
			key, value, ok := strings.Cut(part, ":")
			if !ok {
				continue
			}
			switch key {
			case "model":
				device.Model = strings.ReplaceAll(value, "_", " ")
			case "product":
				device.Product = value
			case "device":
				device.DeviceName = value
			case "transport_id":
				device.TransportID = value
			}
		}

		devices = append(devices, device)
	}

	return devices
}
