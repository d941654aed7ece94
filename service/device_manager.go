package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/pavi2410/droidkit/adb"
	"github.com/pavi2410/droidkit/discovery"
	"github.com/pavi2410/droidkit/models"
	"github.com/pavi2410/droidkit/pairing"
	"github.com/pavi2410/droidkit/parser"
	"github.com/pavi2410/droidkit/store"
	"github.com/pavi2410/droidkit/sysinfo"
)

// DefaultLogcatLines is the snapshot size when a caller passes zero.
const DefaultLogcatLines = 200

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRemoteCommand is returned when a device command ran but exited
	// non-zero and its output cannot stand in for a result.
	ErrRemoteCommand = errors.New("remote command failed")
)

type ManagerOptions struct {
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	// DownloadDir is the root for PullToDownloads.
	DownloadDir string
}

// DeviceManager resolves an identity to a transport and runs one capability
// against it. Every call opens its own transport and closes it afterwards.
type DeviceManager struct {
	client      *adb.Client
	discovery   *discovery.Service
	pairing     *pairing.Workflow
	store       *store.Store
	broadcaster WebSocketBroadcaster
	opts        ManagerOptions
	logger      *zap.Logger

	// discoverMu serializes discovery windows.
	discoverMu sync.Mutex
}

// NewDeviceManager wires the capability layer. st and broadcaster may be nil.
func NewDeviceManager(client *adb.Client, disc *discovery.Service, pw *pairing.Workflow, st *store.Store, broadcaster WebSocketBroadcaster, opts ManagerOptions, logger *zap.Logger) *DeviceManager {
	if opts.ReconnectAttempts < 1 {
		opts.ReconnectAttempts = 1
	}
	return &DeviceManager{
		client:      client,
		discovery:   disc,
		pairing:     pw,
		store:       st,
		broadcaster: broadcaster,
		opts:        opts,
		logger:      logger.Named("devices"),
	}
}

// ListDevices returns the host's attached-device listing.
func (m *DeviceManager) ListDevices() ([]models.Device, error) {
	return m.client.ListDevices()
}

// Connect opens a network link and confirms it with a device report whose
// serial is the ip:port identity.
func (m *DeviceManager) Connect(ctx context.Context, ip string, port int) (*sysinfo.DeviceReport, error) {
	t, err := m.client.Connect(ip, port)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	report, err := sysinfo.BuildReport(t)
	if err != nil {
		return nil, err
	}
	report.Serial = t.Serial()

	m.remember(ctx, report.Model, ip, port, models.PairingMethodDirect)
	m.broadcast(models.EventDeviceConnected, report.Serial, report)
	return report, nil
}

// Disconnect drops a network identity from the adb server.
func (m *DeviceManager) Disconnect(identity string) error {
	if err := m.client.Disconnect(identity); err != nil {
		return err
	}
	m.logger.Info("device disconnected", zap.String("identity", identity))
	m.broadcast(models.EventDeviceDisconnected, identity, nil)
	return nil
}

// Discover runs one discovery window and marks which devices are already
// paired or connected. Concurrent calls wait for each other.
func (m *DeviceManager) Discover(ctx context.Context, window time.Duration) ([]discovery.Device, error) {
	m.discoverMu.Lock()
	defer m.discoverMu.Unlock()

	devices, err := m.discovery.DiscoverFor(ctx, window)
	if err != nil {
		return nil, err
	}

	paired := m.pairedIPs(ctx)
	connected := m.connectedIPs()
	for i := range devices {
		for _, ip := range devices[i].Addresses {
			if paired[ip] {
				devices[i].Paired = true
			}
			if connected[ip] {
				devices[i].Connected = true
			}
		}
	}

	m.broadcast(models.EventDiscoveryCompleted, "", devices)
	return devices, nil
}

// Pair runs the pairing workflow and records the device.
func (m *DeviceManager) Pair(ctx context.Context, ip string, port int, code string) (*sysinfo.DeviceReport, error) {
	result, err := m.pairing.Pair(ip, port, code)
	if err != nil {
		return nil, err
	}
	m.remember(ctx, result.Report.Model, result.IP, result.Port, models.PairingMethodCode)
	m.broadcast(models.EventDeviceConnected, result.Identity(), result.Report)
	return result.Report, nil
}

// ForgetDevice removes one record from the paired-device registry.
func (m *DeviceManager) ForgetDevice(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidArgument)
	}
	if m.store == nil {
		return nil
	}
	return m.store.Delete(ctx, id)
}

// PairedDevices lists the registry of previously connected devices.
func (m *DeviceManager) PairedDevices(ctx context.Context) ([]models.PairedDevice, error) {
	if m.store == nil {
		return []models.PairedDevice{}, nil
	}
	return m.store.List(ctx)
}

// Report fetches the identifying properties of a device.
func (m *DeviceManager) Report(identity string) (*sysinfo.DeviceReport, error) {
	return withTransport(m, identity, func(t adb.Transport) (*sysinfo.DeviceReport, error) {
		report, err := sysinfo.BuildReport(t)
		if err != nil {
			return nil, err
		}
		if t.Kind() == adb.KindTCP {
			report.Serial = t.Serial()
		}
		return report, nil
	})
}

// ListFiles lists one remote directory.
func (m *DeviceManager) ListFiles(identity, dir string) ([]parser.FileEntry, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: path is required", ErrInvalidArgument)
	}
	return withTransport(m, identity, func(t adb.Transport) ([]parser.FileEntry, error) {
		out, err := t.Execute("ls", "-la", dir)
		if err != nil {
			return nil, err
		}
		entries := parser.ParseListing(adb.Decode(out), dir)
		if entries == nil {
			entries = []parser.FileEntry{}
		}
		return entries, nil
	})
}

// PullFile copies a remote file to a local path.
func (m *DeviceManager) PullFile(identity, remote, local string) (*models.PullResult, error) {
	if remote == "" || local == "" {
		return nil, fmt.Errorf("%w: remote and local paths are required", ErrInvalidArgument)
	}
	return withTransport(m, identity, func(t adb.Transport) (*models.PullResult, error) {
		data, code, err := adb.ExecuteStatus(t, "cat", remote)
		if err != nil {
			return nil, err
		}
		if code != 0 {
			return nil, fmt.Errorf("%w: cat %s exited with status %d", ErrRemoteCommand, remote, code)
		}
		if dir := filepath.Dir(local); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(local, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", local, err)
		}
		m.logger.Debug("file pulled",
			zap.String("identity", identity),
			zap.String("remote", remote),
			zap.String("local", local),
			zap.Int("bytes", len(data)),
		)
		return &models.PullResult{Local: local, Bytes: len(data)}, nil
	})
}

// PullToDownloads copies a remote file to name below the configured download
// directory. Absolute names and names that escape the directory are rejected.
func (m *DeviceManager) PullToDownloads(identity, remote, name string) (*models.PullResult, error) {
	local, err := DownloadPath(m.opts.DownloadDir, name)
	if err != nil {
		return nil, err
	}
	return m.PullFile(identity, remote, local)
}

// DownloadPath joins name onto root, refusing anything that would land
// outside root.
func DownloadPath(root, name string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("%w: no download directory configured", ErrInvalidArgument)
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q must be a relative path inside the download directory", ErrInvalidArgument, name)
	}
	return filepath.Join(root, name), nil
}

// RunCommand runs a shell command line on the device. A non-zero exit is
// reported in the result, not as an error.
func (m *DeviceManager) RunCommand(identity, command string) (*models.ShellResult, error) {
	if command == "" {
		return nil, fmt.Errorf("%w: command is required", ErrInvalidArgument)
	}
	return withTransport(m, identity, func(t adb.Transport) (*models.ShellResult, error) {
		out, code, err := adb.ExecuteStatus(t, "sh", "-c", command)
		if err != nil {
			return nil, err
		}
		return &models.ShellResult{Output: adb.Decode(out), ExitCode: code}, nil
	})
}

func (m *DeviceManager) System(identity string) (sysinfo.SystemReport, error) {
	return withTransport(m, identity, func(t adb.Transport) (sysinfo.SystemReport, error) {
		return sysinfo.Collect(t), nil
	})
}

func (m *DeviceManager) Hardware(identity string) (sysinfo.HardwareInfo, error) {
	return withTransport(m, identity, func(t adb.Transport) (sysinfo.HardwareInfo, error) {
		return sysinfo.Hardware(t), nil
	})
}

func (m *DeviceManager) Display(identity string) (sysinfo.DisplayInfo, error) {
	return withTransport(m, identity, func(t adb.Transport) (sysinfo.DisplayInfo, error) {
		return sysinfo.Display(t), nil
	})
}

func (m *DeviceManager) Battery(identity string) (*parser.BatteryInfo, error) {
	return withTransport(m, identity, func(t adb.Transport) (*parser.BatteryInfo, error) {
		return sysinfo.Battery(t), nil
	})
}

func (m *DeviceManager) Build(identity string) (sysinfo.BuildInfo, error) {
	return withTransport(m, identity, func(t adb.Transport) (sysinfo.BuildInfo, error) {
		return sysinfo.Build(t), nil
	})
}

func (m *DeviceManager) Network(identity string) (sysinfo.NetworkInfo, error) {
	return withTransport(m, identity, func(t adb.Transport) (sysinfo.NetworkInfo, error) {
		return sysinfo.Network(t), nil
	})
}

// Packages lists installed package names.
func (m *DeviceManager) Packages(identity string) ([]string, error) {
	return withTransport(m, identity, func(t adb.Transport) ([]string, error) {
		out, err := t.Execute("pm", "list", "packages")
		if err != nil {
			return nil, err
		}
		pkgs := parser.ParsePackages(adb.Decode(out))
		if pkgs == nil {
			pkgs = []string{}
		}
		return pkgs, nil
	})
}

// Logcat dumps the last lines of the device log.
func (m *DeviceManager) Logcat(identity string, lines int) (string, error) {
	if lines < 0 {
		return "", fmt.Errorf("%w: lines must not be negative", ErrInvalidArgument)
	}
	if lines == 0 {
		lines = DefaultLogcatLines
	}
	return withTransport(m, identity, func(t adb.Transport) (string, error) {
		out, err := t.Execute("logcat", "-d", "-t", strconv.Itoa(lines))
		if err != nil {
			return "", err
		}
		return adb.Decode(out), nil
	})
}

// withTransport re-derives a transport for identity, retrying the reconnect
// per the manager's policy, and closes it once fn returns.
func withTransport[T any](m *DeviceManager, identity string, fn func(adb.Transport) (T, error)) (T, error) {
	var lastErr error
	t, err := retry.DoWithData(func() (adb.Transport, error) {
		t, err := m.client.Reconnect(identity)
		if err != nil {
			lastErr = err
			m.logger.Debug("reconnect failed", zap.String("identity", identity), zap.Error(err))
		}
		return t, err
	}, retry.Attempts(uint(m.opts.ReconnectAttempts)), retry.Delay(m.opts.ReconnectDelay), retry.MaxDelay(m.opts.ReconnectDelay*4))
	if err != nil {
		var zero T
		if lastErr != nil {
			return zero, lastErr
		}
		return zero, err
	}
	defer t.Close()
	return fn(t)
}

func (m *DeviceManager) remember(ctx context.Context, name, ip string, port int, method string) {
	if m.store == nil {
		return
	}
	if _, err := m.store.Upsert(ctx, name, ip, port, method); err != nil {
		m.logger.Warn("failed to record paired device",
			zap.String("ip", ip),
			zap.Int("port", port),
			zap.Error(err),
		)
	}
}

func (m *DeviceManager) pairedIPs(ctx context.Context) map[string]bool {
	if m.store == nil {
		return nil
	}
	ips, err := m.store.PairedIPs(ctx)
	if err != nil {
		m.logger.Warn("failed to load paired devices", zap.Error(err))
		return nil
	}
	return ips
}

func (m *DeviceManager) connectedIPs() map[string]bool {
	devices, err := m.client.ListDevices()
	if err != nil {
		m.logger.Debug("device listing unavailable during discovery", zap.Error(err))
		return nil
	}
	ips := make(map[string]bool)
	for _, d := range devices {
		if d.Status != "online" {
			continue
		}
		if ip, _, ok := adb.ParseIdentity(d.Serial); ok {
			ips[ip] = true
		}
	}
	return ips
}

func (m *DeviceManager) broadcast(eventType, deviceID string, data interface{}) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.BroadcastToAll(newEvent(eventType, deviceID, data))
}

// NetworkConnector adapts Client.Connect to the pairing workflow.
func NetworkConnector(client *adb.Client) pairing.ConnectorFunc {
	return func(ip string, port int) (adb.Transport, error) {
		t, err := client.Connect(ip, port)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}
