package sysinfo

import (
	"strconv"

	"github.com/pavi2410/droidkit/adb"
	"github.com/pavi2410/droidkit/parser"
)

// Reachability probe used for the throughput estimate.
const (
	PingTarget = "8.8.8.8"
	PingCount  = 3
)

const storagePath = "/data"

type HardwareInfo struct {
	CPUArchitecture          *string `json:"cpu_architecture,omitempty"`
	CPUABIList               *string `json:"cpu_abi_list,omitempty"`
	TotalMemory              *string `json:"total_memory,omitempty"`
	AvailableMemory          *string `json:"available_memory,omitempty"`
	InternalStorageTotal     *string `json:"internal_storage_total,omitempty"`
	InternalStorageAvailable *string `json:"internal_storage_available,omitempty"`
	Manufacturer             *string `json:"manufacturer,omitempty"`
	Brand                    *string `json:"brand,omitempty"`
	Board                    *string `json:"board,omitempty"`
	Hardware                 *string `json:"hardware,omitempty"`
}

type DisplayInfo struct {
	Resolution   *string `json:"resolution,omitempty"`
	Density      *string `json:"density,omitempty"`
	PhysicalSize *string `json:"physical_size,omitempty"`
	RefreshRate  *string `json:"refresh_rate,omitempty"`
	Orientation  *string `json:"orientation,omitempty"`
}

type BuildInfo struct {
	Fingerprint   *string `json:"fingerprint,omitempty"`
	BuildDate     *string `json:"build_date,omitempty"`
	BuildUser     *string `json:"build_user,omitempty"`
	BuildHost     *string `json:"build_host,omitempty"`
	SecurityPatch *string `json:"security_patch,omitempty"`
	Bootloader    *string `json:"bootloader,omitempty"`
	Baseband      *string `json:"baseband,omitempty"`
	BuildID       *string `json:"build_id,omitempty"`
	BuildTags     *string `json:"build_tags,omitempty"`
	BuildType     *string `json:"build_type,omitempty"`
}

type NetworkInfo struct {
	WiFiStatus     *string                   `json:"wifi_status,omitempty"`
	ConnectionType string                    `json:"connection_type"`
	SignalStrength *int                      `json:"signal_strength,omitempty"`
	UploadSpeed    *string                   `json:"upload_speed,omitempty"`
	DownloadSpeed  *string                   `json:"download_speed,omitempty"`
	IPAddresses    []string                  `json:"ip_addresses"`
	MACAddresses   []string                  `json:"mac_addresses"`
	Interfaces     []parser.NetworkInterface `json:"network_interfaces"`
}

// SystemReport is the aggregate telemetry of a device. Battery is nil when
// the device has no battery service.
type SystemReport struct {
	Hardware HardwareInfo        `json:"hardware"`
	Display  DisplayInfo         `json:"display"`
	Battery  *parser.BatteryInfo `json:"battery"`
	Build    BuildInfo           `json:"build"`
	Network  NetworkInfo         `json:"network"`
}

// Collect builds every section of the system report over one transport.
func Collect(t adb.Transport) SystemReport {
	p := newProbe(t)
	return SystemReport{
		Hardware: p.hardware(),
		Display:  p.display(),
		Battery:  p.battery(),
		Build:    p.build(),
		Network:  p.network(),
	}
}

func Hardware(t adb.Transport) HardwareInfo { return newProbe(t).hardware() }

func Display(t adb.Transport) DisplayInfo { return newProbe(t).display() }

func Battery(t adb.Transport) *parser.BatteryInfo { return newProbe(t).battery() }

func Build(t adb.Transport) BuildInfo { return newProbe(t).build() }

func Network(t adb.Transport) NetworkInfo { return newProbe(t).network() }

func (p *probe) hardware() HardwareInfo {
	meminfo, _ := p.text("cat", "/proc/meminfo")
	df, _ := p.text("df", "-h", storagePath)
	storageTotal, storageAvailable := parser.ParseStorage(df, storagePath)

	return HardwareInfo{
		CPUArchitecture:          p.prop("ro.product.cpu.abi"),
		CPUABIList:               p.prop("ro.product.cpu.abilist"),
		TotalMemory:              parser.ParseMemory(meminfo, "MemTotal"),
		AvailableMemory:          parser.ParseMemory(meminfo, "MemAvailable"),
		InternalStorageTotal:     storageTotal,
		InternalStorageAvailable: storageAvailable,
		Manufacturer:             p.prop("ro.product.manufacturer"),
		Brand:                    p.prop("ro.product.brand"),
		Board:                    p.prop("ro.product.board"),
		Hardware:                 p.prop("ro.hardware"),
	}
}

func (p *probe) display() DisplayInfo {
	size, _ := p.text("wm", "size")
	density, _ := p.text("wm", "density")
	display, _ := p.text("dumpsys", "display")
	input, _ := p.text("dumpsys", "input")

	var physical *string
	if lcd := p.prop("ro.sf.lcd_density"); lcd != nil {
		v := *lcd + " dpi"
		physical = &v
	}

	return DisplayInfo{
		Resolution:   parser.ParseResolution(size),
		Density:      parser.ParseDensity(density),
		PhysicalSize: physical,
		RefreshRate:  parser.ParseRefreshRate(display),
		Orientation:  parser.ParseOrientation(input),
	}
}

func (p *probe) battery() *parser.BatteryInfo {
	out, ok := p.text("dumpsys", "battery")
	if !ok {
		return nil
	}
	info := parser.ParseBattery(out)
	return &info
}

func (p *probe) build() BuildInfo {
	return BuildInfo{
		Fingerprint:   p.prop("ro.build.fingerprint"),
		BuildDate:     p.prop("ro.build.date"),
		BuildUser:     p.prop("ro.build.user"),
		BuildHost:     p.prop("ro.build.host"),
		SecurityPatch: p.prop("ro.build.version.security_patch"),
		Bootloader:    p.prop("ro.bootloader"),
		Baseband:      p.prop("ro.baseband"),
		BuildID:       p.prop("ro.build.id"),
		BuildTags:     p.prop("ro.build.tags"),
		BuildType:     p.prop("ro.build.type"),
	}
}

func (p *probe) network() NetworkInfo {
	wifi, _ := p.text("dumpsys", "wifi")
	ifaces := p.interfaces()

	info := NetworkInfo{
		WiFiStatus:     parser.WiFiStatus(wifi),
		ConnectionType: p.connectionType(ifaces),
		SignalStrength: p.signalStrength(),
		IPAddresses:    []string{},
		MACAddresses:   []string{},
		Interfaces:     ifaces,
	}

	ping, _ := p.text("ping", "-c", strconv.Itoa(PingCount), PingTarget)
	info.UploadSpeed = parser.EstimateThroughput(ping)
	info.DownloadSpeed = parser.EstimateThroughput(ping)

	for _, iface := range ifaces {
		if iface.IPAddress != nil {
			info.IPAddresses = append(info.IPAddresses, *iface.IPAddress)
		}
		if iface.MACAddress != nil {
			info.MACAddresses = append(info.MACAddresses, *iface.MACAddress)
		}
	}
	return info
}

func (p *probe) interfaces() []parser.NetworkInterface {
	out, _ := p.text("ip", "addr", "show")
	ifaces := parser.ParseInterfaces(out)
	if ifaces == nil {
		return []parser.NetworkInterface{}
	}
	return ifaces
}

// connectionType checks WiFi, then mobile data, then ethernet.
func (p *probe) connectionType(ifaces []parser.NetworkInterface) string {
	if wifi, ok := p.text("dumpsys", "wifi"); ok && parser.WiFiConnected(wifi) {
		return parser.ConnectionWiFi
	}

	if telephony, ok := p.text("dumpsys", "telephony.registry"); ok && parser.MobileDataConnected(telephony) {
		if networkType := p.prop("gsm.network.type"); networkType != nil {
			return parser.MobileGeneration(*networkType)
		}
		return parser.ConnectionMobile
	}

	if parser.HasEthernet(ifaces) {
		return parser.ConnectionEthernet
	}
	return parser.ConnectionUnknown
}

// signalStrength prefers the cellular RSSI over the WiFi one.
func (p *probe) signalStrength() *int {
	var rssi *int
	if telephony, ok := p.text("dumpsys", "telephony.registry"); ok {
		rssi = parser.ParseTelephonyRSSI(telephony)
	}
	if rssi == nil {
		if wifi, ok := p.text("dumpsys", "wifi"); ok {
			rssi = parser.ParseWiFiRSSI(wifi)
		}
	}
	if rssi == nil {
		return nil
	}
	percent := parser.SignalPercent(*rssi)
	return &percent
}
