package parser

import (
	"strconv"
	"strings"
)

// BatteryInfo is parsed from `dumpsys battery`. Temperature is in degrees
// Celsius, voltage in millivolts.
type BatteryInfo struct {
	Level       *int     `json:"level,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Health      *string  `json:"health,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Voltage     *int     `json:"voltage,omitempty"`
	Technology  *string  `json:"technology,omitempty"`
}

func ParseBattery(output string) BatteryInfo {
	var info BatteryInfo

	for _, line := range lines(output) {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "level: "):
			info.Level = parseInt(line[len("level: "):])
		case strings.HasPrefix(line, "status: "):
			info.Status = ptr(line[len("status: "):])
		case strings.HasPrefix(line, "health: "):
			info.Health = ptr(line[len("health: "):])
		case strings.HasPrefix(line, "temperature: "):
			if tenths := parseInt(line[len("temperature: "):]); tenths != nil {
				info.Temperature = ptr(float64(*tenths) / 10)
			}
		case strings.HasPrefix(line, "voltage: "):
			info.Voltage = parseInt(line[len("voltage: "):])
		case strings.HasPrefix(line, "technology: "):
			info.Technology = ptr(line[len("technology: "):])
		}
	}
	return info
}

func parseInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}
