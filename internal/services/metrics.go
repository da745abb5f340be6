package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// registrations counts registration outcomes by kind (user|gym) and
	// status (created|already_exists).
	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "User and gym registrations by outcome.",
		},
		[]string{"kind", "status"},
	)

	// routesAllocated counts committed route number allocations (replays excluded).
	routesAllocated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "routes_allocated_total",
			Help: "Route numbers allocated.",
		},
	)
)

func init() {
	prometheus.MustRegister(registrations, routesAllocated)
}
