package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	urlHitCount *prometheus.CounterVec
	urlLatency  *prometheus.HistogramVec
)

func ConfigureMetrics() {
	urlHitCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_service_url_hits",
			Help: "url hit counts",
		}, []string{"url", "method"},
	)
	urlLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "rental_service_url_latency",
			Help: "url latencies",
		}, []string{"url", "method"},
	)
	prometheus.MustRegister(urlHitCount)
	prometheus.MustRegister(urlLatency)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if urlHitCount != nil {
			urlHitCount.WithLabelValues(r.URL.Path, r.Method).Inc()
		}
		start := time.Now()
		next.ServeHTTP(w, r)
		if urlLatency != nil {
			urlLatency.WithLabelValues(r.URL.Path, r.Method).Observe(time.Since(start).Seconds())
		}
	})
}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Trace().
			Str("method", r.Method).
			Str("url", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}
