package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAnnouncementFromEntry(t *testing.T) {
	entry := zeroconf.NewServiceEntry("adb-R58M12-Ab12Cd", ConnectionServiceType, "local.")
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	entry.AddrIPv6 = []net.IP{net.ParseIP("fe80::1")}

	a := announcementFromEntry(entry)
	assert.Equal(t, "adb-R58M12-Ab12Cd._adb-tls-connect._tcp.local.", a.FullName)
	assert.Equal(t, []string{"192.168.1.20", "fe80::1"}, a.Addresses)

	d, ok := Classify(a, DefaultProvisionalPort, DefaultConnectionPort)
	require.True(t, ok)
	assert.Equal(t, "adb-R58M12-Ab12Cd", d.Name)
	assert.Equal(t, []string{"192.168.1.20"}, d.Addresses)
}

func TestMDNSListener_StopWithoutStart(t *testing.T) {
	l := NewMDNSListener(zap.NewNop())
	assert.Error(t, l.Stop())
}

func TestMDNSListener_ForwardDrainsAfterStop(t *testing.T) {
	l := NewMDNSListener(zap.NewNop())
	entries := make(chan *zeroconf.ServiceEntry)
	events := make(chan Announcement)
	done := make(chan struct{})

	l.wg.Add(1)
	go l.forward(entries, events, done)

	entry := zeroconf.NewServiceEntry("adb-X", ConnectionServiceType, "local.")
	entry.AddrIPv4 = []net.IP{net.ParseIP("10.0.0.5")}

	entries <- entry
	select {
	case a := <-events:
		assert.Equal(t, "adb-X._adb-tls-connect._tcp.local.", a.FullName)
	case <-time.After(time.Second):
		t.Fatal("announcement not forwarded")
	}

	close(done)

	// The resolver may still be mid-send when stopped; every send must be
	// taken and nothing relayed.
	sent := make(chan struct{})
	go func() {
		entries <- entry
		entries <- entry
		close(entries)
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("forwarder stopped reading entries after done")
	}

	finished := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not exit after entries closed")
	}

	select {
	case a := <-events:
		t.Fatalf("unexpected announcement after done: %v", a)
	default:
	}
}

func TestMDNSListener_ForwardExitsWhenEntriesClosed(t *testing.T) {
	l := NewMDNSListener(zap.NewNop())
	entries := make(chan *zeroconf.ServiceEntry)
	l.wg.Add(1)
	go l.forward(entries, make(chan Announcement), make(chan struct{}))

	close(entries)
	finished := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not exit")
	}
}
