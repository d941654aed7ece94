package parser

import (
	"math"
	"strconv"
	"strings"
)

// NetworkInterface is one adapter block of `ip addr show`.
type NetworkInterface struct {
	Name       string  `json:"name"`
	IPAddress  *string `json:"ip_address,omitempty"`
	MACAddress *string `json:"mac_address,omitempty"`
	Status     string  `json:"status"` // UP, DOWN
}

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// interfaceFamilies are the name fragments that open an interface block:
// wireless, ethernet, loopback and the two common radio-modem families.
var interfaceFamilies = []string{"wlan", "eth", "lo", "rmnet", "ccmni"}

// ParseInterfaces reads `ip addr show` output.
func ParseInterfaces(output string) []NetworkInterface {
	var interfaces []NetworkInterface
	var current *NetworkInterface

	flush := func() {
		if current != nil {
			interfaces = append(interfaces, *current)
			current = nil
		}
	}

	for _, line := range lines(output) {
		line = strings.TrimSpace(line)

		if isInterfaceHeader(line) {
			flush()
			parts := strings.SplitN(line, ": ", 3)
			name := "unknown"
			if fields := strings.Fields(parts[1]); len(fields) > 0 {
				name = fields[0]
			}
			status := StatusDown
			if strings.Contains(line, "UP") {
				status = StatusUp
			}
			current = &NetworkInterface{Name: name, Status: status}
			continue
		}

		if current == nil {
			continue
		}
		switch {
		case strings.HasPrefix(line, "inet "):
			if fields := strings.Fields(line); len(fields) > 1 {
				ip, _, _ := strings.Cut(fields[1], "/")
				current.IPAddress = ptr(ip)
			}
		case strings.HasPrefix(line, "link/ether "):
			if fields := strings.Fields(line); len(fields) > 1 {
				current.MACAddress = ptr(fields[1])
			}
		}
	}
	flush()
	return interfaces
}

func isInterfaceHeader(line string) bool {
	if !strings.Contains(line, ": ") {
		return false
	}
	for _, family := range interfaceFamilies {
		if strings.Contains(line, family) {
			return true
		}
	}
	return false
}

// Connection labels.
const (
	ConnectionWiFi     = "WiFi"
	ConnectionEthernet = "Ethernet"
	ConnectionMobile   = "Mobile Data"
	ConnectionUnknown  = "Unknown"
)

// WiFiConnected reports whether a `dumpsys wifi` dump shows an associated,
// fully authenticated station.
func WiFiConnected(wifiDump string) bool {
	return strings.Contains(wifiDump, "mWifiInfo") && strings.Contains(wifiDump, "state: COMPLETED")
}

// MobileDataConnected reports whether `dumpsys telephony.registry` shows an
// active data connection.
func MobileDataConnected(telephonyDump string) bool {
	return strings.Contains(telephonyDump, "mDataConnectionState=2") || strings.Contains(telephonyDump, "CONNECTED")
}

// MobileGeneration maps the gsm.network.type property to a generation label.
// Dual-SIM devices report a comma separated list; the first slot wins.
func MobileGeneration(networkType string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(networkType), ",")
	switch first {
	case "LTE", "LTEA":
		return "4G LTE"
	case "UMTS", "HSDPA", "HSUPA", "HSPA":
		return "3G"
	case "EDGE", "GPRS":
		return "2G"
	case "NR":
		return "5G"
	default:
		return ConnectionMobile
	}
}

// HasEthernet reports whether any up ethernet interface has an address.
func HasEthernet(interfaces []NetworkInterface) bool {
	for _, iface := range interfaces {
		if strings.Contains(iface.Name, "eth") && iface.Status == StatusUp && iface.IPAddress != nil {
			return true
		}
	}
	return false
}

// WiFiStatus reads the radio state line of `dumpsys wifi`.
func WiFiStatus(wifiDump string) *string {
	for _, line := range lines(wifiDump) {
		if !strings.Contains(line, "Wi-Fi is ") {
			continue
		}
		if strings.Contains(line, "enabled") {
			return ptr("Connected")
		}
		if strings.Contains(line, "disabled") {
			return ptr("Disconnected")
		}
	}
	return nil
}

// unavailableRSSI is the value telephony reports for cells without a reading.
const unavailableRSSI = math.MaxInt32

// ParseTelephonyRSSI extracts rssi= from the mSignalStrength line of
// `dumpsys telephony.registry`.
func ParseTelephonyRSSI(telephonyDump string) *int {
	for _, line := range lines(telephonyDump) {
		if !strings.Contains(line, "mSignalStrength") {
			continue
		}
		for _, chunk := range strings.Split(line, "rssi=")[1:] {
			if rssi := leadingInt(chunk); rssi != nil && *rssi != unavailableRSSI {
				return rssi
			}
		}
	}
	return nil
}

// ParseWiFiRSSI extracts the first "rssi: " value from `dumpsys wifi`,
// matching the label case-insensitively.
func ParseWiFiRSSI(wifiDump string) *int {
	for _, line := range lines(wifiDump) {
		idx := strings.Index(strings.ToLower(line), "rssi: ")
		if idx < 0 {
			continue
		}
		if rssi := leadingInt(line[idx+len("rssi: "):]); rssi != nil {
			return rssi
		}
	}
	return nil
}

// SignalPercent maps an RSSI in dBm onto 0-100: -100 and below is 0, -50 and
// above is 100, linear in between.
func SignalPercent(rssi int) int {
	switch {
	case rssi <= -100:
		return 0
	case rssi >= -50:
		return 100
	default:
		return (rssi + 100) * 2
	}
}

// leadingInt parses the integer token at the start of s, ignoring a trailing
// comma or semicolon.
func leadingInt(s string) *int {
	token, _, _ := strings.Cut(s, " ")
	token = strings.TrimRight(token, ",;")
	n, err := strconv.Atoi(token)
	if err != nil {
		return nil
	}
	return &n
}
