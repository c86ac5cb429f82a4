package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Результаты операций для метки result.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics — метрики одного запуска CLI.
//
// CLI живёт секунды, поэтому метрики не отдаются по /metrics, а пишутся
// в файл в формате textfile collector node_exporter.
type Metrics struct {
	Registry *prometheus.Registry

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
}

// NewMetrics создаёт метрики на отдельном реестре.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "n8n_deploy_http_requests_total",
			Help: "Total HTTP requests sent to the n8n API",
		}, []string{"code", "method"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "n8n_deploy_http_request_duration_seconds",
			Help:    "Duration of HTTP requests to the n8n API",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "n8n_deploy_operations_total",
			Help: "Workflow operations by result",
		}, []string{"operation", "result"}),
	}
}

// InstrumentRoundTripper оборачивает транспорт счётчиком и гистограммой запросов.
// nil означает http.DefaultTransport.
func (m *Metrics) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.requests,
		promhttp.InstrumentRoundTripperDuration(m.duration, next),
	)
}

// ObserveOperation учитывает завершение операции.
func (m *Metrics) ObserveOperation(op string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// WriteTextfile записывает все метрики в файл. Пустой путь — no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
