package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the stats service
type Metrics struct {
	// Client pool metrics
	ClientSelections *prometheus.CounterVec
	PoolExhaustions  *prometheus.CounterVec
	ClientErrors     *prometheus.CounterVec

	// Stats cache metrics
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	RefreshWon       prometheus.Counter
	RefreshLost      prometheus.Counter
	RefreshDuration  prometheus.Histogram
	StaleFlagsReaped prometheus.Counter

	// Ad-attribution scanner metrics
	ScanCycles        prometheus.Counter
	ScanChannelErrors prometheus.Counter
	EventsProcessed   *prometheus.CounterVec
	LeadsAttributed   prometheus.Counter
	SubscriptionsLeft prometheus.Counter
	ScanCycleDuration prometheus.Histogram

	// Kafka metrics
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    prometheus.Counter
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		ClientSelections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stats_service_client_selections_total",
				Help: "Total number of client selections per pool",
			},
			[]string{"pool"},
		),
		PoolExhaustions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stats_service_pool_exhaustions_total",
				Help: "Total number of selections that found no eligible client",
			},
			[]string{"pool"},
		),
		ClientErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stats_service_client_errors_total",
				Help: "Total number of errors recorded against clients",
			},
			[]string{"code"},
		),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_cache_hits_total",
			Help: "Total number of fresh cache lookups",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_cache_misses_total",
			Help: "Total number of absent or stale cache lookups",
		}),
		RefreshWon: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_cache_refresh_won_total",
			Help: "Total number of refreshes that won the single-flight flag",
		}),
		RefreshLost: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_cache_refresh_lost_total",
			Help: "Total number of refreshes skipped because one was in flight",
		}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_service_cache_refresh_duration_seconds",
			Help:    "Duration of stats collection for a cache refresh",
			Buckets: prometheus.DefBuckets,
		}),
		StaleFlagsReaped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_cache_stale_flags_reaped_total",
			Help: "Total number of stuck refresh flags released by the reaper",
		}),

		ScanCycles: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_scan_cycles_total",
			Help: "Total number of ad-attribution scan cycles",
		}),
		ScanChannelErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_scan_channel_errors_total",
			Help: "Total number of per-channel scan failures",
		}),
		EventsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stats_service_admin_log_events_total",
				Help: "Total number of admin log events processed by action",
			},
			[]string{"action"},
		),
		LeadsAttributed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_leads_attributed_total",
			Help: "Total number of join events attributed to an ad purchase",
		}),
		SubscriptionsLeft: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_subscriptions_left_total",
			Help: "Total number of subscriptions marked left or kicked",
		}),
		ScanCycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_service_scan_cycle_duration_seconds",
			Help:    "Duration of a full ad-attribution scan cycle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),

		KafkaMessagesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_kafka_messages_produced_total",
			Help: "Total number of attribution events published to Kafka",
		}),
		KafkaProduceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stats_service_kafka_produce_errors_total",
			Help: "Total number of Kafka publish failures",
		}),
	}
}
