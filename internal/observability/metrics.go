package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sheetFetchCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repcycle",
		Subsystem: "sheets",
		Name:      "fetches_total",
		Help:      "Sheet fetches by group and result.",
	}, []string{"group", "result"})

	sheetFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "repcycle",
		Subsystem: "sheets",
		Name:      "fetch_duration_seconds",
		Help:      "Time spent downloading and parsing one sheet.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"group"})

	rowsDroppedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repcycle",
		Subsystem: "sheets",
		Name:      "rows_dropped_total",
		Help:      "Malformed sheet rows skipped during parsing.",
	}, []string{"group"})

	writeBackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repcycle",
		Subsystem: "completion",
		Name:      "write_backs_total",
		Help:      "Completion write-backs by group and result.",
	}, []string{"group", "result"})

	retrainCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repcycle",
		Subsystem: "difficulty",
		Name:      "retrains_total",
		Help:      "Difficulty model retrain runs by result.",
	}, []string{"result"})

	lastLoadGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "repcycle",
		Subsystem: "tracker",
		Name:      "last_load_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful load of all sheets.",
	})
)

func init() {
	prometheus.MustRegister(sheetFetchCounter, sheetFetchDuration, rowsDroppedCounter, writeBackCounter, retrainCounter, lastLoadGauge)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSheetFetch counts one sheet download and observes its duration.
func RecordSheetFetch(group string, took time.Duration, err error) {
	sheetFetchCounter.WithLabelValues(group, result(err)).Inc()
	sheetFetchDuration.WithLabelValues(group).Observe(took.Seconds())
}

// RecordRowsDropped adds n skipped rows for group.
func RecordRowsDropped(group string, n int) {
	if n <= 0 {
		return
	}
	rowsDroppedCounter.WithLabelValues(group).Add(float64(n))
}

// RecordWriteBack counts one completion write-back attempt.
func RecordWriteBack(group string, err error) {
	writeBackCounter.WithLabelValues(group, result(err)).Inc()
}

// RecordRetrain counts one difficulty retrain run.
func RecordRetrain(err error) {
	retrainCounter.WithLabelValues(result(err)).Inc()
}

// RecordLoad updates the load watermark gauge.
func RecordLoad(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastLoadGauge.Set(float64(ts.Unix()))
}
