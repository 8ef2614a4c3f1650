package resilience

import "github.com/prometheus/client_golang/prometheus"

// Upstream breaker collectors, labelled by target (e.g. "metalpriceapi").
var (
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "perhiasan",
		Subsystem: "upstream",
		Name:      "breaker_state",
		Help:      "Breaker state per upstream: 0 closed, 1 open, 2 half-open.",
	}, []string{"target"})
	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perhiasan",
		Subsystem: "upstream",
		Name:      "breaker_transitions_total",
		Help:      "Breaker state changes per upstream.",
	}, []string{"target", "from", "to"})
	BreakerRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "perhiasan",
		Subsystem: "upstream",
		Name:      "breaker_rejections_total",
		Help:      "Calls short-circuited while the breaker was open.",
	}, []string{"target"})
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerRejections)
}
