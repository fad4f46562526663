// Package metrics exposes the authoritative server's Prometheus vectors.
// Cardinality is kept bounded: no per-player or per-entity labels.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shootercore_tick_duration_seconds",
		Help:    "Time spent running one simulation tick.",
		Buckets: []float64{0.001, 0.002, 0.004, 0.008, 0.016, 0.032},
	})

	PacketsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shootercore_packets_received_total",
		Help: "UDP packets received, by category.",
	}, []string{"category"})

	PacketsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shootercore_packets_sent_total",
		Help: "UDP packets sent, by category.",
	}, []string{"category"})

	BytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shootercore_bytes_received_total",
		Help: "UDP payload bytes received.",
	})

	BytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shootercore_bytes_sent_total",
		Help: "UDP payload bytes sent.",
	})

	PacketsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shootercore_packets_dropped_total",
		Help: "Packets dropped before reaching the simulation, by reason.",
	}, []string{"reason"}) // "flood", "stale_sequence", "malformed", "queue_full"

	DesyncEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shootercore_desync_events_total",
		Help: "Desync events fired, by reason.",
	}, []string{"reason"}) // "checksum_mismatch", "timeout"

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shootercore_active_rooms",
		Help: "Currently active game rooms.",
	})

	ActivePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shootercore_active_players",
		Help: "Currently connected players across all rooms.",
	})
)

// RecordTick observes one tick's wall-clock duration.
func RecordTick(d time.Duration) {
	TickDuration.Observe(d.Seconds())
}

// RecordReceived accounts one inbound packet of the given category.
func RecordReceived(category string, bytes int) {
	PacketsReceived.WithLabelValues(category).Inc()
	BytesReceived.Add(float64(bytes))
}

// RecordSent accounts one outbound packet of the given category.
func RecordSent(category string, bytes int) {
	PacketsSent.WithLabelValues(category).Inc()
	BytesSent.Add(float64(bytes))
}

// RecordDropped accounts one packet dropped before reaching the simulation.
func RecordDropped(reason string) {
	PacketsDropped.WithLabelValues(reason).Inc()
}

// RecordDesync accounts one fired desync event.
func RecordDesync(reason string) {
	DesyncEvents.WithLabelValues(reason).Inc()
}

// SetActiveRooms updates the active-room gauge.
func SetActiveRooms(n int) {
	ActiveRooms.Set(float64(n))
}

// SetActivePlayers updates the active-player gauge.
func SetActivePlayers(n int) {
	ActivePlayers.Set(float64(n))
}
