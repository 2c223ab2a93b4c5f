package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"NeuroBand/internal/domain/models"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neuroband",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of EEG endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neuroband",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by EEG endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	// BandPower exposes the most recent mean band power per channel.
	BandPower = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "neuroband",
			Subsystem: "analysis",
			Name:      "band_power",
			Help:      "Mean PSD of the latest analyzed signal by band and channel",
		},
		[]string{"band", "channel"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors, BandPower)
	})
}

// ObserveResult replaces the band power series with those of res.
func ObserveResult(res *models.AnalysisResult) {
	if res == nil || res.BandPowers == nil {
		return
	}
	BandPower.Reset()
	for pair := res.BandPowers.Oldest(); pair != nil; pair = pair.Next() {
		for i, v := range pair.Value {
			if i < len(res.Channels) {
				BandPower.WithLabelValues(pair.Key, res.Channels[i]).Set(v)
			}
		}
	}
}
