package service

import "github.com/prometheus/client_golang/prometheus"

var jobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "droidkit_jobs_total",
	Help: "Jobs handled by the worker pool, by final status.",
}, []string{"status"})

func init() {
	prometheus.MustRegister(jobsTotal)
}
