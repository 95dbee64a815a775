package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	NoveltyScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tradegate",
			Subsystem: "gate",
			Name:      "novelty_score",
			Help:      "Novelty score distribution of evaluated proposals",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	SlippageApplied = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradegate",
			Subsystem: "gate",
			Name:      "slippage",
			Help:      "Effective slippage by rule label",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.0075, 0.01},
		},
		[]string{"rule"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(NoveltyScore, SlippageApplied)
	})
}
