package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	processRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bedrockd",
		Name:      "process_running",
		Help:      "Whether the server process is running (1) or not (0)",
	})

	processStateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bedrockd",
		Name:      "process_state_changes_total",
		Help:      "Supervisor state transitions, by new state",
	}, []string{"state"})

	playersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bedrockd",
		Name:      "players_connected",
		Help:      "Players currently on the roster",
	})
)

// SetProcessState records a supervisor transition into state.
func SetProcessState(state string, running bool) {
	processStateChanges.WithLabelValues(state).Inc()
	if running {
		processRunning.Set(1)
	} else {
		processRunning.Set(0)
	}
}

// SetPlayersConnected sets the roster size.
func SetPlayersConnected(n int) {
	playersConnected.Set(float64(n))
}
