// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mutualaid_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mutualaid_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthzDecisions counts authorization outcomes.
	AuthzDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mutualaid_authz_decisions_total",
		Help: "Authorization decisions by resource kind, action and outcome",
	}, []string{"kind", "action", "outcome"})

	// RegistrationEvents counts registration attempts per phase and outcome.
	RegistrationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mutualaid_registration_events_total",
		Help: "Registration attempts by phase and outcome",
	}, []string{"phase", "outcome"})

	// NotificationsPublished counts realtime events published to Redis.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mutualaid_notifications_published_total",
		Help: "Realtime notifications published by event type",
	}, []string{"event_type"})

	// WebSocketConnections is the gauge of open notification sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mutualaid_websocket_connections",
		Help: "Number of active notification WebSocket connections",
	})

	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mutualaid_websocket_backpressure_drops_total",
		Help: "Outbound WebSocket messages dropped, by reason",
	}, []string{"reason"})
)

const queryStartKey = "observability:query_start"

// RegisterDatabaseMetrics installs GORM callbacks that observe query latency.
func RegisterDatabaseMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, before, after func(*gorm.DB)) error
	}{
		{"create", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Create().Before("gorm:create").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register(name+":after", a)
		}},
		{"query", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Query().Before("gorm:query").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register(name+":after", a)
		}},
		{"update", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Update().Before("gorm:update").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register(name+":after", a)
		}},
		{"delete", func(name string, b, a func(*gorm.DB)) error {
			if err := cb.Delete().Before("gorm:delete").Register(name+":before", b); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register(name+":after", a)
		}},
	}
	for _, s := range steps {
		if err := s.register("metrics:"+s.op, before, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
