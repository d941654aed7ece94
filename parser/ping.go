package parser

import (
	"strconv"
	"strings"
)

// Throughput bands, keyed off the mean round-trip time of a short ping.
const (
	ThroughputGood = "Good (>10 Mbps)"
	ThroughputFair = "Fair (1-10 Mbps)"
	ThroughputSlow = "Slow (<1 Mbps)"
)

// ParsePingAverage reads the mean RTT in milliseconds from the summary line of
// `ping -c N host`:
//
//	rtt min/avg/max/mdev = 10.123/20.456/30.789/5.012 ms
func ParsePingAverage(output string) *float64 {
	for _, line := range lines(output) {
		if !strings.Contains(line, "min/avg/max") {
			continue
		}
		_, values, ok := strings.Cut(line, "= ")
		if !ok {
			return nil
		}
		values, _, _ = strings.Cut(strings.TrimSpace(values), " ")
		parts := strings.Split(values, "/")
		if len(parts) < 2 {
			return nil
		}
		avg, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil
		}
		return &avg
	}
	return nil
}

func ThroughputBand(avgMillis float64) string {
	switch {
	case avgMillis < 50:
		return ThroughputGood
	case avgMillis < 100:
		return ThroughputFair
	default:
		return ThroughputSlow
	}
}

// EstimateThroughput bands the ping summary, or returns nil when the output
// has no parseable summary.
func EstimateThroughput(output string) *string {
	avg := ParsePingAverage(output)
	if avg == nil {
		return nil
	}
	return ptr(ThroughputBand(*avg))
}
