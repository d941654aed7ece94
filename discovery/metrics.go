package discovery

import "github.com/prometheus/client_golang/prometheus"

var discoveredDevices = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "droidkit_discovery_devices",
	Help: "Devices found by the most recent discovery window.",
})

func init() {
	prometheus.MustRegister(discoveredDevices)
}
