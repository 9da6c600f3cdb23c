package stream

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ssargent/typeline/pkg/errors"
)

// Metrics holds the Prometheus collectors shared by readers and writers.
// A nil *Metrics records nothing.
type Metrics struct {
	rowsRead       *prometheus.CounterVec
	rowsWritten    *prometheus.CounterVec
	linesSkipped   *prometheus.CounterVec
	rowErrors      *prometheus.CounterVec
	decodeDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		rowsRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typeline_rows_read_total",
				Help: "Total number of records decoded from delimited text",
			},
			[]string{"schema"},
		),

		rowsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typeline_rows_written_total",
				Help: "Total number of records encoded to delimited text",
			},
			[]string{"schema"},
		),

		linesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typeline_lines_skipped_total",
				Help: "Total number of blank and comment lines skipped by readers",
			},
			[]string{"schema"},
		),

		rowErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typeline_row_errors_total",
				Help: "Total number of rows that failed to encode or decode",
			},
			[]string{"phase", "kind"},
		),

		decodeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "typeline_decode_duration_seconds",
				Help:    "Time spent decoding one row into a record",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"schema"},
		),
	}
}

func (m *Metrics) recordRead(schema string, start time.Time) {
	if m == nil {
		return
	}
	m.rowsRead.WithLabelValues(schema).Inc()
	m.decodeDuration.WithLabelValues(schema).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordWritten(schema string) {
	if m == nil {
		return
	}
	m.rowsWritten.WithLabelValues(schema).Inc()
}

func (m *Metrics) recordSkipped(schema string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.linesSkipped.WithLabelValues(schema).Add(float64(n))
}

func (m *Metrics) recordError(err error) {
	if m == nil {
		return
	}
	phase, kind := "unknown", "unknown"
	var e *errors.Error
	if errors.As(err, &e) {
		phase, kind = string(e.Phase), string(e.Kind)
	}
	m.rowErrors.WithLabelValues(phase, kind).Inc()
}
