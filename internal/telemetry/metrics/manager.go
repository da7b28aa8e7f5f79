package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterStoreSync           *prometheus.CounterVec
	CounterVersionConflicts    prometheus.Counter
	CounterCircuitsFinished    prometheus.Counter

	// gauges
	GaugeRequests       prometheus.Gauge
	GaugeLifeSignal     prometheus.Gauge
	GaugePlanSessions   prometheus.Gauge
	GaugeActiveTimers   prometheus.Gauge
	GaugeKeepAwake      prometheus.Gauge
	GaugeSyncQueueDepth prometheus.Gauge

	// histograms
	HistStoreSyncDuration    *prometheus.HistogramVec
	HistogramRequestDuration *prometheus.HistogramVec
	HistBackupDuration       prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("gymplan", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("gymplan", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterStoreSync := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_sync",
		Help:      "The total number of plan document writes, by operation and result",
	}, []string{"op", "result"})
	counterVersionConflicts := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_version_conflicts",
		Help:      "The total number of plan document version conflicts",
	})
	counterCircuitsFinished := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "circuits_finished",
		Help:      "The total number of circuit timers run to the end",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugePlanSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "plan_sessions",
		Help:      "Number of loaded user plan sessions",
	})
	gaugeActiveTimers := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_timers",
		Help:      "Number of open timer sessions",
	})
	gaugeKeepAwake := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "keep_awake_timers",
		Help:      "Number of running timers currently holding the keep-awake lock",
	})
	gaugeSyncQueueDepth := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sync_queue_depth",
		Help:      "Number of plan document writes waiting in sync queues",
	})

	histStoreSyncDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_sync_duration_seconds",
		Help:      "Duration of plan document writes in seconds",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"op"})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histBackupDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backup_duration_seconds",
		Help:      "Total duration of a single plan documents backup in seconds",
		Buckets:   []float64{0.01, 0.1, 1, 10, 60, 120, 240, 480},
	})

	return &Manager{
		CounterRequests:            counterRequests,
		CounterHandleRequestPanic:  counterHandleRequestPanic,
		CounterRateLimitedRequests: counterRateLimitedRequests,
		CounterStoreSync:           counterStoreSync,
		CounterVersionConflicts:    counterVersionConflicts,
		CounterCircuitsFinished:    counterCircuitsFinished,
		GaugeRequests:              gaugeRequests,
		GaugeLifeSignal:            gaugeLifeSignal,
		GaugePlanSessions:          gaugePlanSessions,
		GaugeActiveTimers:          gaugeActiveTimers,
		GaugeKeepAwake:             gaugeKeepAwake,
		GaugeSyncQueueDepth:        gaugeSyncQueueDepth,
		HistStoreSyncDuration:      histStoreSyncDuration,
		HistogramRequestDuration:   histogramRequestDuration,
		HistBackupDuration:         histBackupDuration,
	}
}
