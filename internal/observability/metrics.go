package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of failed Redis commands",
	}, []string{"command"})

	// PageCacheLookups counts page cache lookups by page and result (hit, miss, error).
	PageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_page_cache_lookups_total",
		Help: "Total number of rendered page cache lookups",
	}, []string{"page", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ContentCreated counts posts, comments and follows created.
	ContentCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_content_created_total",
		Help: "Total number of created posts, comments and follow edges",
	}, []string{"kind"})
)

const queryStartKey = "observability:query_start"

// InstrumentDB registers gorm callbacks that feed DatabaseQueryLatency.
func InstrumentDB(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			if start, ok := v.(time.Time); ok {
				DatabaseQueryLatency.WithLabelValues(operation, tx.Statement.Table).Observe(time.Since(start).Seconds())
			}
		}
	}

	cb := db.Callback()
	steps := []struct {
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}{
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
	}
	for _, s := range steps {
		if err := s.before("observability:before_"+s.operation, before); err != nil {
			return err
		}
		if err := s.after("observability:after_"+s.operation, after(s.operation)); err != nil {
			return err
		}
	}
	return nil
}
