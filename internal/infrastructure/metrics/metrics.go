package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"jan-server/services/consent-api/internal/domain/ledger"
)

// Consent-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "uploads_total",
			Help:      "Total recording uploads",
		},
		[]string{"content_type", "status"},
	)

	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "upload_bytes_total",
			Help:      "Total recording bytes stored",
		},
		[]string{"content_type"},
	)

	// Storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "storage_operations_total",
			Help:      "Total object storage operations",
		},
		[]string{"backend", "operation", "status"},
	)

	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "storage_duration_seconds",
			Help:      "Object storage operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 15},
		},
		[]string{"backend", "operation"},
	)

	// Ledger appends by outcome
	LedgerAppendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "ledger_appends_total",
			Help:      "Total ledger append attempts",
		},
		[]string{"status"},
	)

	// Capture sessions by how they ended
	CaptureSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "capture_sessions_total",
			Help:      "Total capture sessions by outcome",
		},
		[]string{"outcome"},
	)

	ActiveCaptureSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jan",
			Subsystem: "consent_api",
			Name:      "capture_sessions_active",
			Help:      "Capture sessions currently recording",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records a recording upload
func RecordUpload(contentType, status string, bytes int64) {
	UploadsTotal.WithLabelValues(contentType, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(contentType).Add(float64(bytes))
	}
}

// RecordStorageOperation records a storage backend call
func RecordStorageOperation(backend, operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	StorageDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

// RecordLedgerAppend records the outcome of one ledger append
func RecordLedgerAppend(status string) {
	LedgerAppendsTotal.WithLabelValues(status).Inc()
}

// RecordCaptureSession records a finished capture session
func RecordCaptureSession(outcome string) {
	CaptureSessionsTotal.WithLabelValues(outcome).Inc()
}

// CaptureObserver feeds capture session lifecycle events into the session
// metrics. The zero value is ready to use.
type CaptureObserver struct{}

func (CaptureObserver) SessionStarted() {
	ActiveCaptureSessions.Inc()
}

func (CaptureObserver) SessionFinished(outcome string) {
	ActiveCaptureSessions.Dec()
	RecordCaptureSession(outcome)
}

// LedgerAppender matches the ledger writer.
type LedgerAppender interface {
	Append(ctx context.Context, entry ledger.Entry) error
}

type instrumentedLedger struct {
	next LedgerAppender
}

// InstrumentLedger counts ledger appends by outcome.
func InstrumentLedger(next LedgerAppender) LedgerAppender {
	return instrumentedLedger{next: next}
}

func (l instrumentedLedger) Append(ctx context.Context, entry ledger.Entry) error {
	err := l.next.Append(ctx, entry)
	switch {
	case err == nil:
		RecordLedgerAppend("success")
	case errors.Is(err, ledger.ErrReadFailed):
		RecordLedgerAppend("read_failed")
	default:
		RecordLedgerAppend("write_failed")
	}
	return err
}
