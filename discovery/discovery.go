// Package discovery collects wireless-debugging announcements from the local
// network during a bounded listening window.
//
// A call to Service.Discover moves through Idle, Listening and Draining and
// back to Idle. It blocks for the whole window and returns one snapshot; it
// is not a subscription.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrListenerStart = errors.New("failed to start discovery listener")
	ErrListenerStop  = errors.New("failed to stop discovery listener")
)

// Defaults for Options.
const (
	DefaultWindow          = 5 * time.Second
	DefaultPollInterval    = 100 * time.Millisecond
	DefaultProvisionalPort = 37000
	DefaultConnectionPort  = 5555

	eventQueueSize = 64
)

// ServiceType is the classification of an advertised service name.
type ServiceType string

const (
	ServicePairing    ServiceType = "pairing"
	ServiceConnection ServiceType = "connection"
	ServiceUnknown    ServiceType = "unknown"
)

// State of the discovery state machine.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateDraining  State = "draining"
)

// Announcement is the raw payload of one network announcement: the advertised
// service instance name and the addresses it was seen on.
type Announcement struct {
	FullName  string
	Addresses []string
}

// Device is a classified announcement.
type Device struct {
	Name        string      `json:"name"`
	FullName    string      `json:"fullname"`
	Addresses   []string    `json:"addresses"`
	ServiceType ServiceType `json:"service_type"`
	// Port is the provisional pairing port.
	Port int `json:"port"`
	// ConnectionPort is the guessed data-connection port, set only for
	// connection-type announcements.
	ConnectionPort *int `json:"connection_port,omitempty"`
	Paired         bool `json:"is_paired"`
	Connected      bool `json:"is_connected"`
}

// HasAddress reports whether ip is one of the device's addresses.
func (d Device) HasAddress(ip string) bool {
	for _, a := range d.Addresses {
		if a == ip {
			return true
		}
	}
	return false
}

// Listener produces announcements. Start must not block; announcements are
// delivered on events until Stop returns.
type Listener interface {
	Start(ctx context.Context, events chan<- Announcement) error
	Stop() error
}

type Options struct {
	Window          time.Duration
	PollInterval    time.Duration
	ProvisionalPort int
	ConnectionPort  int
}

func (o *Options) setDefaults() {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ProvisionalPort <= 0 {
		o.ProvisionalPort = DefaultProvisionalPort
	}
	if o.ConnectionPort <= 0 {
		o.ConnectionPort = DefaultConnectionPort
	}
}

// Service runs discovery windows and keeps the most recent snapshot.
// Concurrent Discover calls are not coordinated; callers serialize them.
type Service struct {
	listener Listener
	opts     Options
	logger   *zap.Logger

	mu       sync.RWMutex
	state    State
	snapshot []Device
}

func NewService(listener Listener, opts Options, logger *zap.Logger) *Service {
	opts.setDefaults()
	return &Service{
		listener: listener,
		opts:     opts,
		logger:   logger.Named("discovery"),
		state:    StateIdle,
	}
}

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Discover listens for one window and returns every device seen. Cancelling
// ctx ends the window early and returns what was collected so far. A listener
// that fails to start or stop fails the whole call.
func (s *Service) Discover(ctx context.Context) ([]Device, error) {
	return s.DiscoverFor(ctx, s.opts.Window)
}

// DiscoverFor is Discover with an explicit window.
func (s *Service) DiscoverFor(ctx context.Context, window time.Duration) ([]Device, error) {
	if window <= 0 {
		window = s.opts.Window
	}

	events := make(chan Announcement, eventQueueSize)
	c := newCollector(s.opts)

	s.setState(StateListening)
	if err := s.listener.Start(ctx, events); err != nil {
		s.setState(StateIdle)
		return nil, fmt.Errorf("%w: %w", ErrListenerStart, err)
	}
	s.logger.Debug("discovery window opened", zap.Duration("window", window))

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(window)
	defer deadline.Stop()

listen:
	for {
		select {
		case <-ctx.Done():
			break listen
		case <-deadline.C:
			break listen
		case <-ticker.C:
			c.drain(events)
		}
	}

	s.setState(StateDraining)
	stopErr := s.listener.Stop()
	c.drain(events)
	s.setState(StateIdle)

	if stopErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrListenerStop, stopErr)
	}

	devices := c.devices()
	s.mu.Lock()
	s.snapshot = devices
	s.mu.Unlock()
	discoveredDevices.Set(float64(len(devices)))

	s.logger.Info("discovery window closed",
		zap.Int("announcements", c.seen),
		zap.Int("devices", len(devices)),
	)
	return cloneDevices(devices), nil
}

// Snapshot returns the devices found by the most recent completed window.
func (s *Service) Snapshot() []Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDevices(s.snapshot)
}

// ConnectionPort looks up the data-connection port of ip in the most recent
// snapshot.
func (s *Service) ConnectionPort(ip string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.snapshot {
		if d.ConnectionPort != nil && d.HasAddress(ip) {
			return *d.ConnectionPort, true
		}
	}
	return 0, false
}

// collector accumulates one record per distinct full name.
type collector struct {
	opts   Options
	order  []string
	byName map[string]Device
	seen   int
}

func newCollector(opts Options) *collector {
	return &collector{opts: opts, byName: make(map[string]Device)}
}

// drain consumes every queued announcement without blocking.
func (c *collector) drain(events <-chan Announcement) {
	for {
		select {
		case a := <-events:
			c.add(a)
		default:
			return
		}
	}
}

func (c *collector) add(a Announcement) {
	c.seen++
	d, ok := Classify(a, c.opts.ProvisionalPort, c.opts.ConnectionPort)
	if !ok {
		return
	}
	if _, exists := c.byName[d.FullName]; !exists {
		c.order = append(c.order, d.FullName)
	}
	c.byName[d.FullName] = d
}

func (c *collector) devices() []Device {
	out := make([]Device, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Classify turns an announcement into a Device. It returns false when the
// announcement carries no IPv4 address.
func Classify(a Announcement, provisionalPort, connectionPort int) (Device, bool) {
	addrs := IPv4Only(a.Addresses)
	if len(addrs) == 0 {
		return Device{}, false
	}

	name, _, _ := strings.Cut(a.FullName, ".")
	d := Device{
		Name:        name,
		FullName:    a.FullName,
		Addresses:   addrs,
		ServiceType: ClassifyService(a.FullName),
		Port:        provisionalPort,
	}
	if d.ServiceType == ServiceConnection {
		port := connectionPort
		d.ConnectionPort = &port
	}
	return d, true
}

// ClassifyService sorts an advertised name by substring.
func ClassifyService(fullName string) ServiceType {
	switch {
	case strings.Contains(fullName, "pairing"):
		return ServicePairing
	case strings.Contains(fullName, "connect"):
		return ServiceConnection
	default:
		return ServiceUnknown
	}
}

// IPv4Only keeps the addresses that parse as IPv4, in order.
func IPv4Only(addresses []string) []string {
	var out []string
	for _, a := range addresses {
		addr, err := netip.ParseAddr(strings.TrimSpace(a))
		if err != nil || !addr.Is4() {
			continue
		}
		out = append(out, addr.String())
	}
	return out
}

func cloneDevices(in []Device) []Device {
	if in == nil {
		return []Device{}
	}
	out := make([]Device, len(in))
	for i, d := range in {
		d.Addresses = append([]string(nil), d.Addresses...)
		if d.ConnectionPort != nil {
			port := *d.ConnectionPort
			d.ConnectionPort = &port
		}
		out[i] = d
	}
	return out
}
