// Package metrics exposes agent events as Prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wavecap/wavecap/internal/app"
	"github.com/wavecap/wavecap/internal/domain"
)

const namespace = "wavecap"

// Collector counts agent events on a private registry.
type Collector struct {
	registry *prometheus.Registry

	messages         prometheus.Counter
	decodeErrors     prometheus.Counter
	waveformRejected prometheus.Counter
	records          *prometheus.CounterVec // partial=true|false
	sinkErrors       *prometheus.CounterVec // sink
	batchFill        prometheus.Gauge
	batchSize        prometheus.Gauge
}

var _ app.EventEmitter = (*Collector)(nil)

// NewCollector creates a collector and registers its metrics together with
// the Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages read from the broker",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Messages dropped because the payload could not be decoded",
		}),
		waveformRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waveform_rejected_total",
			Help:      "Ascans discarded because their length differed from the latched length",
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Averaged records emitted",
		}, []string{"partial"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed record writes by sink",
		}, []string{"sink"}),
		batchFill: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "pending_messages",
			Help:      "Messages accumulated in the current batch",
		}),
		batchSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "size",
			Help:      "Configured number of messages per average",
		}),
	}

	c.registry.MustRegister(
		c.messages,
		c.decodeErrors,
		c.waveformRejected,
		c.records,
		c.sinkErrors,
		c.batchFill,
		c.batchSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) OnMessageReceived() {
	c.messages.Inc()
}

func (c *Collector) OnDecodeError(error) {
	c.decodeErrors.Inc()
}

func (c *Collector) OnWaveformRejected(error) {
	c.waveformRejected.Inc()
}

func (c *Collector) OnBatchProgress(pending, batchSize int) {
	c.batchFill.Set(float64(pending))
	c.batchSize.Set(float64(batchSize))
}

func (c *Collector) OnRecordEmitted(_ domain.AveragedRecord, partial bool) {
	c.records.WithLabelValues(strconv.FormatBool(partial)).Inc()
	c.batchFill.Set(0)
}

func (c *Collector) OnSinkError(sink string, _ error) {
	c.sinkErrors.WithLabelValues(sink).Inc()
}
