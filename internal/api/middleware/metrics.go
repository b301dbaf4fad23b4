// metrics.go — Prometheus HTTP метрики audioqr.
// Регистрирует метрики: aq_http_requests_total, aq_http_request_duration_seconds.
// Бизнес-метрики записей и операций обновляются из сервисного слоя,
// метрики синтеза речи регистрируются в пакете tts.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aq_http_requests_total",
			Help: "Общее количество HTTP-запросов к audioqr",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aq_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к audioqr в секундах",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 10, 30, 120},
		},
		[]string{"method", "path"},
	)
)

// Бизнес-метрики (экспортируются для обновления из сервисного слоя)
var (
	// RecordsTotal — текущее количество записей QR-кодов (gauge).
	RecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aq_records_total",
			Help: "Текущее количество записей QR-кодов",
		},
	)

	// OperationsTotal — общее количество операций с записями.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aq_operations_total",
			Help: "Общее количество операций с записями QR-кодов",
		},
		[]string{"operation", "result"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Лейбл path — шаблон маршрута chi ({id}, {filename}), а не фактический путь,
// чтобы не раздувать кардинальность.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			path := routePattern(r)
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// routePattern возвращает шаблон маршрута, обработавшего запрос.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
