package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

// Service types advertised by Android wireless debugging.
const (
	PairingServiceType    = "_adb-tls-pairing._tcp"
	ConnectionServiceType = "_adb-tls-connect._tcp"

	mdnsDomain = "local."
)

// MDNSListener browses the wireless-debugging service types over mDNS.
type MDNSListener struct {
	services []string
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewMDNSListener(logger *zap.Logger) *MDNSListener {
	return &MDNSListener{
		services: []string{PairingServiceType, ConnectionServiceType},
		logger:   logger.Named("mdns"),
	}
}

// Start begins browsing every service type. Each resolver runs until Stop.
func (l *MDNSListener) Start(ctx context.Context, events chan<- Announcement) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return errors.New("mdns listener already running")
	}

	browseCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	for _, service := range l.services {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			l.teardown()
			return fmt.Errorf("resolver for %s: %w", service, err)
		}

		entries := make(chan *zeroconf.ServiceEntry)
		if err := resolver.Browse(browseCtx, service, mdnsDomain, entries); err != nil {
			go drain(entries)
			l.teardown()
			return fmt.Errorf("browse %s: %w", service, err)
		}

		l.wg.Add(1)
		go l.forward(entries, events, l.done)
	}

	l.logger.Debug("mdns browse started", zap.Strings("services", l.services))
	return nil
}

// Stop cancels the resolvers and waits for every forwarder to exit. Nothing
// is sent on the events channel after Stop returns.
func (l *MDNSListener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel == nil {
		return errors.New("mdns listener not running")
	}
	l.teardown()
	l.logger.Debug("mdns browse stopped")
	return nil
}

// teardown must be called with mu held.
func (l *MDNSListener) teardown() {
	l.cancel()
	close(l.done)
	l.wg.Wait()
	l.cancel = nil
	l.done = nil
}

// forward relays entries until zeroconf closes the channel, which it does
// once the browse context is cancelled. After done it keeps reading without
// relaying so the resolver never blocks on a send and can shut down.
func (l *MDNSListener) forward(entries <-chan *zeroconf.ServiceEntry, events chan<- Announcement, done <-chan struct{}) {
	defer l.wg.Done()
	for entry := range entries {
		if entry == nil {
			continue
		}
		select {
		case <-done:
			continue
		default:
		}

		a := announcementFromEntry(entry)
		l.logger.Debug("announcement",
			zap.String("name", a.FullName),
			zap.Strings("addresses", a.Addresses),
		)
		select {
		case events <- a:
		case <-done:
		}
	}
}

func drain(entries <-chan *zeroconf.ServiceEntry) {
	for range entries {
	}
}

func announcementFromEntry(entry *zeroconf.ServiceEntry) Announcement {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return Announcement{
		FullName:  entry.ServiceInstanceName(),
		Addresses: addrs,
	}
}
