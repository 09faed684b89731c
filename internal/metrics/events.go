// Package metrics provides Prometheus metrics for the server event pipeline
// and the supervised process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smazurov/bedrockd/internal/bedrock"
)

var (
	linesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bedrockd",
		Name:      "lines_total",
		Help:      "Lines read from the server's output",
	})

	linesUnparsable = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bedrockd",
		Name:      "lines_unparsable_total",
		Help:      "Output lines that matched no log pattern",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bedrockd",
		Name:      "events_total",
		Help:      "Events classified from server output, by kind",
	}, []string{"kind"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bedrockd",
		Name:      "events_dropped_total",
		Help:      "Live events missed by saturated subscribers",
	})
)

// LineRecorder counts output lines and the events classified from them.
// It satisfies process.OutputHandler.
type LineRecorder struct{}

// HandleLine records one output line.
func (LineRecorder) HandleLine(_ string, evs []bedrock.Event) {
	linesTotal.Inc()

	parsed := false
	for _, ev := range evs {
		if ev.Kind() == bedrock.KindLog {
			parsed = true
		}
		eventsTotal.WithLabelValues(string(ev.Kind())).Inc()
	}
	if !parsed {
		linesUnparsable.Inc()
	}
}

// RecordEvent counts an event that did not come from a line, such as
// ProcessStopped.
func RecordEvent(kind bedrock.Kind) {
	eventsTotal.WithLabelValues(string(kind)).Inc()
}

// RecordDrop counts one event dropped by the bus.
func RecordDrop() {
	eventsDropped.Inc()
}
