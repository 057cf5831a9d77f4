package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
	"github.com/taoreta-ed/redes2-25-2/internal/transport/protocol"
)

const namespace = "buscaminas"

// Metrics - prometheus collectors for the game server.
type Metrics struct {
	sessionsStarted     *prometheus.CounterVec
	sessionsEnded       *prometheus.CounterVec
	sessionDuration     *prometheus.HistogramVec
	activeSessions      prometheus.Gauge
	messagesHandled     *prometheus.CounterVec
	cellsRevealed       prometheus.Counter
	frameErrors         prometheus.Counter
	connectionsRejected prometheus.Counter
}

// New - registers the collectors on registry. Registering twice on the same
// registry panics.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		sessionsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions started by difficulty",
		}, []string{"difficulty"}),

		sessionsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions ended by final state",
		}, []string{"state"}),

		sessionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Play time of finished sessions",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"state"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently in play",
		}),

		messagesHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Client frames handled by type",
		}, []string{"type"}),

		cellsRevealed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_revealed_total",
			Help:      "Cells uncovered, cascades included",
		}),

		frameErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_errors_total",
			Help:      "Frames rejected as malformed",
		}),

		connectionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections closed because a session was already active",
		}),
	}
}

func (that *Metrics) SessionStarted(difficulty entity.Difficulty) {
	that.sessionsStarted.WithLabelValues(string(difficulty)).Inc()
	that.activeSessions.Inc()
}

func (that *Metrics) SessionEnded(state entity.SessionState, elapsed time.Duration) {
	that.sessionsEnded.WithLabelValues(string(state)).Inc()
	that.sessionDuration.WithLabelValues(string(state)).Observe(elapsed.Seconds())
	that.activeSessions.Dec()
}

func (that *Metrics) MessageHandled(msgType protocol.Type) {
	that.messagesHandled.WithLabelValues(string(msgType)).Inc()
}

func (that *Metrics) CellsRevealed(count int) {
	that.cellsRevealed.Add(float64(count))
}

func (that *Metrics) FrameRejected() {
	that.frameErrors.Inc()
}

func (that *Metrics) ConnectionRejected() {
	that.connectionsRejected.Inc()
}
