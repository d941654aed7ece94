package sysinfo

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavi2410/droidkit/adb"
)

type fakeTransport struct {
	kind    adb.Kind
	outputs map[string]string
	calls   map[string]int
}

func newFakeTransport(kind adb.Kind) *fakeTransport {
	return &fakeTransport{kind: kind, outputs: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeTransport) on(cmd, out string) *fakeTransport {
	f.outputs[cmd] = out
	return f
}

func (f *fakeTransport) Kind() adb.Kind { return f.kind }
func (f *fakeTransport) Serial() string { return "fake" }
func (f *fakeTransport) Close() error   { return nil }

func (f *fakeTransport) Execute(args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	f.calls[key]++
	out, ok := f.outputs[key]
	if !ok {
		return nil, errors.Join(adb.ErrCommunication, errors.New("no such command"))
	}
	return []byte(out), nil
}

func identityTransport(kind adb.Kind) *fakeTransport {
	return newFakeTransport(kind).
		on("getprop ro.serialno", "R58M12ABCDE\n").
		on("getprop ro.product.model", "SM-G973F\n").
		on("getprop ro.build.version.release", "12\n").
		on("getprop ro.build.version.sdk", "31\n")
}

func TestBuildReport(t *testing.T) {
	report, err := BuildReport(identityTransport(adb.KindTCP))
	require.NoError(t, err)
	assert.Equal(t, &DeviceReport{
		Transport:      adb.KindTCP,
		Serial:         "R58M12ABCDE",
		Model:          "SM-G973F",
		AndroidVersion: "12",
		SDKVersion:     "31",
	}, report)
}

func TestBuildReport_AllOrNothing(t *testing.T) {
	for _, prop := range []string{PropSerial, PropModel, PropAndroidVersion, PropSDKVersion} {
		t.Run(prop, func(t *testing.T) {
			tr := identityTransport(adb.KindUSB)
			delete(tr.outputs, "getprop "+prop)

			report, err := BuildReport(tr)
			require.ErrorIs(t, err, ErrPartialDataUnavailable)
			assert.Contains(t, err.Error(), prop)
			assert.Nil(t, report)
		})
	}
}

func TestProperty_TrimmedAndMemoized(t *testing.T) {
	tr := newFakeTransport(adb.KindUSB).on("getprop ro.hardware", "  qcom \r\n")
	p := newProbe(tr)
	v := p.prop("ro.hardware")
	require.NotNil(t, v)
	assert.Equal(t, "qcom", *v)
	assert.Nil(t, p.prop("ro.missing"))

	p.prop("ro.hardware")
	assert.Equal(t, 1, tr.calls["getprop ro.hardware"])
}

func TestBattery_AbsentWhenCommandFails(t *testing.T) {
	assert.Nil(t, Battery(newFakeTransport(adb.KindUSB)))

	tr := newFakeTransport(adb.KindUSB).on("dumpsys battery", "Current Battery Service state:\n")
	info := Battery(tr)
	require.NotNil(t, info)
	assert.Nil(t, info.Level)
}

func TestHardware(t *testing.T) {
	tr := newFakeTransport(adb.KindUSB).
		on("getprop ro.product.cpu.abi", "arm64-v8a").
		on("getprop ro.product.manufacturer", "samsung").
		on("cat /proc/meminfo", "MemTotal:        7864320 kB\nMemAvailable:    2097152 kB\n").
		on("df -h /data", "Filesystem Size Used Avail Use% Mounted on\n/dev/block/dm-5 110G 42G 68G 39% /data\n")

	hw := Hardware(tr)
	require.NotNil(t, hw.CPUArchitecture)
	assert.Equal(t, "arm64-v8a", *hw.CPUArchitecture)
	require.NotNil(t, hw.TotalMemory)
	assert.Equal(t, "7.5 GB", *hw.TotalMemory)
	require.NotNil(t, hw.AvailableMemory)
	assert.Equal(t, "2.0 GB", *hw.AvailableMemory)
	require.NotNil(t, hw.InternalStorageAvailable)
	assert.Equal(t, "68G", *hw.InternalStorageAvailable)
	assert.Nil(t, hw.Board)

	assert.Equal(t, 1, tr.calls["cat /proc/meminfo"])
	assert.Equal(t, 1, tr.calls["df -h /data"])
}

func TestDisplay(t *testing.T) {
	tr := newFakeTransport(adb.KindUSB).
		on("wm size", "Physical size: 1080x2280").
		on("wm density", "Physical density: 420").
		on("getprop ro.sf.lcd_density", "420").
		on("dumpsys display", "mDisplayInfo=DisplayInfo{refreshRate=60.0, ...}").
		on("dumpsys input", "    SurfaceOrientation: 0")

	d := Display(tr)
	assert.Equal(t, "1080x2280", *d.Resolution)
	assert.Equal(t, "420", *d.Density)
	assert.Equal(t, "420 dpi", *d.PhysicalSize)
	assert.Equal(t, "60.0 Hz", *d.RefreshRate)
	assert.Equal(t, "Portrait", *d.Orientation)
}

func TestNetwork(t *testing.T) {
	tr := newFakeTransport(adb.KindTCP).
		on("dumpsys wifi", "Wi-Fi is enabled\nmWifiInfo SSID: \"home\", RSSI: -60, state: COMPLETED\n").
		on("dumpsys telephony.registry", "mDataConnectionState=0\n").
		on("ip addr show", "3: wlan0: <BROADCAST,UP> mtu 1500\n    link/ether aa:bb:cc:dd:ee:ff brd ff:ff:ff:ff:ff:ff\n    inet 192.168.1.42/24 scope global wlan0\n").
		on("ping -c 3 8.8.8.8", "rtt min/avg/max/mdev = 10.0/20.0/30.0/1.0 ms\n")

	n := Network(tr)
	assert.Equal(t, "Connected", *n.WiFiStatus)
	assert.Equal(t, "WiFi", n.ConnectionType)
	require.NotNil(t, n.SignalStrength)
	assert.Equal(t, 80, *n.SignalStrength)
	assert.Equal(t, "Good (>10 Mbps)", *n.UploadSpeed)
	assert.Equal(t, "Good (>10 Mbps)", *n.DownloadSpeed)
	assert.Equal(t, []string{"192.168.1.42"}, n.IPAddresses)
	assert.Equal(t, []string{"aa:bb:cc:dd:ee:ff"}, n.MACAddresses)
	require.Len(t, n.Interfaces, 1)

	assert.Equal(t, 1, tr.calls["dumpsys wifi"])
	assert.Equal(t, 1, tr.calls["ping -c 3 8.8.8.8"])
}

func TestNetwork_ConnectionFallbacks(t *testing.T) {
	tests := []struct {
		name string
		tr   *fakeTransport
		want string
	}{
		{
			name: "mobile with generation",
			tr: newFakeTransport(adb.KindUSB).
				on("dumpsys telephony.registry", "mDataConnectionState=2").
				on("getprop gsm.network.type", "NR,Unknown"),
			want: "5G",
		},
		{
			name: "mobile without property",
			tr:   newFakeTransport(adb.KindUSB).on("dumpsys telephony.registry", "mDataConnectionState=2"),
			want: "Mobile Data",
		},
		{
			name: "ethernet",
			tr:   newFakeTransport(adb.KindUSB).on("ip addr show", "2: eth0: <BROADCAST,UP> mtu 1500\n    inet 10.0.2.15/24 scope global eth0\n"),
			want: "Ethernet",
		},
		{
			name: "nothing answers",
			tr:   newFakeTransport(adb.KindUSB),
			want: "Unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Network(tt.tr)
			assert.Equal(t, tt.want, n.ConnectionType)
			assert.NotNil(t, n.IPAddresses)
		})
	}
}

func TestCollect_BestEffort(t *testing.T) {
	report := Collect(newFakeTransport(adb.KindUSB))
	assert.Nil(t, report.Battery)
	assert.Nil(t, report.Hardware.TotalMemory)
	assert.Nil(t, report.Build.Fingerprint)
	assert.Equal(t, "Unknown", report.Network.ConnectionType)
	assert.Nil(t, report.Network.SignalStrength)
	assert.Nil(t, report.Network.UploadSpeed)
}
