package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMemory(t *testing.T) {
	meminfo := "MemTotal:        2097152 kB\nMemFree:          102400 kB\nMemAvailable:     512000 kB\n"

	total := ParseMemory(meminfo, "MemTotal")
	require.NotNil(t, total)
	assert.Equal(t, "2.0 GB", *total)

	avail := ParseMemory(meminfo, "MemAvailable")
	require.NotNil(t, avail)
	assert.Equal(t, "500 MB", *avail)

	assert.Nil(t, ParseMemory(meminfo, "SwapTotal"))
	assert.Nil(t, ParseMemory("MemTotal: lots kB", "MemTotal"))
	assert.Nil(t, ParseMemory("MemTotal:", "MemTotal"))
}

func TestFormatKilobytes_Boundary(t *testing.T) {
	assert.Equal(t, "1.0 GB", FormatKilobytes(1048576))
	assert.Equal(t, "1023 MB", FormatKilobytes(1048575))
	assert.Equal(t, "0 MB", FormatKilobytes(512))
	assert.Equal(t, "7.5 GB", FormatKilobytes(7864320))
}

func TestParseStorage(t *testing.T) {
	df := "Filesystem      Size  Used Avail Use% Mounted on\n/dev/block/dm-5  110G   42G   68G  39% /data\n"
	total, avail := ParseStorage(df, "/data")
	require.NotNil(t, total)
	require.NotNil(t, avail)
	assert.Equal(t, "110G", *total)
	assert.Equal(t, "68G", *avail)

	total, avail = ParseStorage("Filesystem Size\n", "/data")
	assert.Nil(t, total)
	assert.Nil(t, avail)
}

func TestParseLabeled(t *testing.T) {
	size := ParseResolution("Physical size: 1080x2400\nOverride size: 720x1600\n")
	require.NotNil(t, size)
	assert.Equal(t, "1080x2400", *size)

	density := ParseDensity("Physical density: 420\n")
	require.NotNil(t, density)
	assert.Equal(t, "420", *density)

	assert.Nil(t, ParseResolution("no such label"))
	assert.Nil(t, ParseResolution("Physical size:   \n"))
}

func TestParseRefreshRate(t *testing.T) {
	out := "  mDisplayInfo=DisplayInfo{\"Built-in Screen\", refreshRate=120.00001, supportedRefreshRates [60.0, 120.0]}\n"
	rate := ParseRefreshRate(out)
	require.NotNil(t, rate)
	assert.Equal(t, "120.00001 Hz", *rate)
	assert.Nil(t, ParseRefreshRate("nothing here"))
}

func TestDecodeOrientation(t *testing.T) {
	tests := map[string]string{
		"0": "Portrait",
		"1": "Landscape",
		"2": "Reverse Portrait",
		"3": "Reverse Landscape",
		"7": "7",
	}
	for code, want := range tests {
		assert.Equal(t, want, DecodeOrientation(code), code)
	}

	orientation := ParseOrientation("    SurfaceOrientation: 1\n")
	require.NotNil(t, orientation)
	assert.Equal(t, "Landscape", *orientation)
}

func TestParseBattery(t *testing.T) {
	out := `Current Battery Service state:
  AC powered: false
  USB powered: true
  status: 2
  health: 2
  level: 87
  voltage: 4321
  temperature: 296
  technology: Li-ion
`
	info := ParseBattery(out)
	require.NotNil(t, info.Level)
	assert.Equal(t, 87, *info.Level)
	require.NotNil(t, info.Temperature)
	assert.InDelta(t, 29.6, *info.Temperature, 0.0001)
	require.NotNil(t, info.Voltage)
	assert.Equal(t, 4321, *info.Voltage)
	require.NotNil(t, info.Technology)
	assert.Equal(t, "Li-ion", *info.Technology)
	require.NotNil(t, info.Status)
	assert.Equal(t, "2", *info.Status)
}

func TestParseBattery_Degraded(t *testing.T) {
	info := ParseBattery("level: full\ntemperature: warm\n")
	assert.Nil(t, info.Level)
	assert.Nil(t, info.Temperature)
	assert.Nil(t, info.Health)
}

func TestParsePackages(t *testing.T) {
	out := "package:com.android.settings\npackage:com.example.app\r\nWARNING: linker noise\n\n"
	assert.Equal(t, []string{"com.android.settings", "com.example.app"}, ParsePackages(out))
	assert.Empty(t, ParsePackages(""))
}

func TestParsePingAverage(t *testing.T) {
	out := `PING 8.8.8.8 (8.8.8.8) 56(84) bytes of data.
64 bytes from 8.8.8.8: icmp_seq=1 ttl=117 time=21.4 ms

--- 8.8.8.8 ping statistics ---
3 packets transmitted, 3 received, 0% packet loss, time 2003ms
rtt min/avg/max/mdev = 18.201/74.502/140.990/5.129 ms
`
	avg := ParsePingAverage(out)
	require.NotNil(t, avg)
	assert.InDelta(t, 74.502, *avg, 0.0001)

	band := EstimateThroughput(out)
	require.NotNil(t, band)
	assert.Equal(t, ThroughputFair, *band)

	assert.Nil(t, EstimateThroughput("connect: Network is unreachable\n"))
}

func TestThroughputBand(t *testing.T) {
	assert.Equal(t, ThroughputGood, ThroughputBand(49.9))
	assert.Equal(t, ThroughputFair, ThroughputBand(50))
	assert.Equal(t, ThroughputFair, ThroughputBand(99.9))
	assert.Equal(t, ThroughputSlow, ThroughputBand(100))
}
