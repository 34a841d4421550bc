package classify

import (
	"time"

	"github.com/HerbHall/netmeter/pkg/template"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	classificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmeter_classifications_total",
			Help: "Identity classifications by resulting match rule.",
		},
		[]string{"match_rule"},
	)
	classifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netmeter_classify_duration_seconds",
			Help:    "Time spent classifying one identity.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)
	snapshotSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "netmeter_template_snapshot_size",
			Help: "Number of templates in the classification snapshot.",
		},
	)
)

func init() {
	prometheus.MustRegister(classificationsTotal)
	prometheus.MustRegister(classifyDuration)
	prometheus.MustRegister(snapshotSize)
}

type classifyTimer struct {
	start time.Time
}

func startClassifyTimer() classifyTimer {
	return classifyTimer{start: time.Now()}
}

func (t classifyTimer) done() {
	classifyDuration.Observe(time.Since(t.start).Seconds())
}

func recordClassification(matched *template.Template) {
	rule := "none"
	if matched != nil {
		rule = matched.MatchRule().String()
	}
	classificationsTotal.WithLabelValues(rule).Inc()
}

func setSnapshotSize(n int) {
	snapshotSize.Set(float64(n))
}
