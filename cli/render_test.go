package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavi2410/droidkit/adb"
	"github.com/pavi2410/droidkit/discovery"
	"github.com/pavi2410/droidkit/models"
	"github.com/pavi2410/droidkit/parser"
	"github.com/pavi2410/droidkit/sysinfo"
)

func init() {
	color.NoColor = true
}

func newTestRenderer(jsonOut bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewRenderer(&out, &errOut, jsonOut), &out, &errOut
}

func strptr(s string) *string { return &s }

func TestRenderer_Devices(t *testing.T) {
	r, out, errOut := newTestRenderer(false)
	r.Devices(nil)
	assert.Contains(t, errOut.String(), "No devices attached")
	assert.Empty(t, out.String())

	r.Devices([]models.Device{
		{Serial: "192.168.1.20:5555", State: "device", Status: "online", Transport: "wifi", Model: "SM_G973F"},
	})
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "SERIAL")
	assert.Contains(t, lines[1], "192.168.1.20:5555")
	assert.Contains(t, lines[1], "SM_G973F")
}

func TestRenderer_DiscoveredShowsConnectionPort(t *testing.T) {
	r, out, _ := newTestRenderer(false)
	port := 5555
	r.Discovered([]discovery.Device{
		{Name: "adb-R58M", ServiceType: discovery.ServiceConnection, Addresses: []string{"192.168.1.20"}, Port: 37000, ConnectionPort: &port, Paired: true},
	})
	assert.Contains(t, out.String(), "5555")
	assert.NotContains(t, out.String(), "37000")
	assert.Contains(t, out.String(), "paired")
}

func TestRenderer_SectionDashesMissingFields(t *testing.T) {
	r, out, _ := newTestRenderer(false)
	r.Section("Display", sysinfo.DisplayInfo{Resolution: strptr("1080x2340")})

	text := out.String()
	assert.Contains(t, text, "Display")
	assert.Contains(t, text, "resolution")
	assert.Contains(t, text, "1080x2340")
	assert.Contains(t, text, "refresh rate")
	assert.Contains(t, text, "-")
}

func TestRenderer_NetworkInterfaces(t *testing.T) {
	r, out, _ := newTestRenderer(false)
	r.Section("Network", sysinfo.NetworkInfo{
		ConnectionType: parser.ConnectionWiFi,
		Interfaces: []parser.NetworkInterface{
			{Name: "wlan0", IPAddress: strptr("192.168.1.20"), Status: parser.StatusUp},
		},
	})
	assert.Contains(t, out.String(), "wlan0 192.168.1.20 [UP]")
}

func TestRenderer_Files(t *testing.T) {
	r, out, _ := newTestRenderer(false)
	size := uint64(1234)
	r.Files([]parser.FileEntry{
		{Name: "DCIM", Kind: parser.KindDirectory, Permissions: "drwxrwx--x"},
		{Name: "notes.txt", Kind: parser.KindFile, Size: &size, Permissions: "-rw-rw----"},
		{Name: "sdcard", Kind: parser.KindSymlink, Target: "/storage/self/primary", Permissions: "lrw-r--r--"},
	})
	text := out.String()
	assert.Contains(t, text, "DCIM/")
	assert.Contains(t, text, "1234")
	assert.Contains(t, text, "sdcard -> /storage/self/primary")
}

func TestOutput_JSONMode(t *testing.T) {
	r, out, _ := newTestRenderer(true)
	prev := jsonOut
	jsonOut = true
	t.Cleanup(func() { jsonOut = prev })

	called := false
	report := &sysinfo.DeviceReport{Transport: adb.KindTCP, Serial: "192.168.1.20:5555"}
	require.NoError(t, output(r, report, func() { called = true }))
	assert.False(t, called)
	assert.Contains(t, out.String(), `"serial_no": "192.168.1.20:5555"`)
	assert.Contains(t, out.String(), `"transport": "TCP"`)
}

func TestRenderer_SpinnerSilentInJSONMode(t *testing.T) {
	r, _, errOut := newTestRenderer(true)
	r.StartSpinner("working")
	r.StopSpinner()
	assert.Empty(t, errOut.String())
}

func TestParsePort(t *testing.T) {
	port, err := parsePort("5555")
	require.NoError(t, err)
	assert.Equal(t, 5555, port)

	for _, bad := range []string{"0", "65536", "http", ""} {
		_, err := parsePort(bad)
		assert.ErrorIs(t, err, adb.ErrInvalidAddress, bad)
	}
}

func TestText_AddsTrailingNewline(t *testing.T) {
	r, out, _ := newTestRenderer(false)
	r.Text("hi")
	r.Text("")
	r.Text("there\n")
	assert.Equal(t, "hi\nthere\n", out.String())
}
