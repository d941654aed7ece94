package models

// Device is one row of the host's attached-device listing.
type Device struct {
	Serial         string `json:"serial"`
	State          string `json:"state"`  // device, offline, unauthorized, ...
	Status         string `json:"status"` // online, offline
	Transport      string `json:"transport"`
	Model          string `json:"model,omitempty"`
	Product        string `json:"product,omitempty"`
	DeviceName     string `json:"device,omitempty"`
	TransportID    string `json:"transport_id,omitempty"`
	HardwareSerial string `json:"hardware_serial,omitempty"`
}

// PairedDevice is a wireless device that was successfully paired or
// connected at least once.
type PairedDevice struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	IP            string `json:"ip"`
	Port          int    `json:"port"`
	PairingMethod string `json:"pairing_method"` // pairing-code, direct
	LastConnected int64  `json:"last_connected"`
}

const (
	PairingMethodCode   = "pairing-code"
	PairingMethodDirect = "direct"
)
