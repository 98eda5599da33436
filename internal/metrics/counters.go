// Package metrics counts inbound and outbound protocol traffic. Totals are
// exported to Prometheus; per-second rates are recomputed by Update.
package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters tracks packet traffic for one session.
type Counters struct {
	inPackets     atomic.Int64
	inBytes       atomic.Int64
	outPackets    atomic.Int64
	outBytes      atomic.Int64
	unknown       atomic.Int64
	shortReads    atomic.Int64
	framingErrors atomic.Int64

	mu         sync.Mutex
	lastUpdate time.Time
	last       [4]int64
	rates      Rates

	promInPackets     prometheus.Counter
	promInBytes       prometheus.Counter
	promOutPackets    prometheus.Counter
	promOutBytes      prometheus.Counter
	promUnknown       *prometheus.CounterVec
	promShortReads    *prometheus.CounterVec
	promFramingErrors prometheus.Counter
	promDispatch      prometheus.Histogram
}

// Rates are per-second traffic figures over the last Update interval.
type Rates struct {
	InPackets  int64 `json:"in_packets"`
	InBytes    int64 `json:"in_bytes"`
	OutPackets int64 `json:"out_packets"`
	OutBytes   int64 `json:"out_bytes"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	InPackets     int64 `json:"in_packets"`
	InBytes       int64 `json:"in_bytes"`
	OutPackets    int64 `json:"out_packets"`
	OutBytes      int64 `json:"out_bytes"`
	Unknown       int64 `json:"unknown"`
	ShortReads    int64 `json:"short_reads"`
	FramingErrors int64 `json:"framing_errors"`
	Rates         Rates `json:"rates"`
}

// New creates Counters registered with reg under namespace. A nil reg
// uses a private registry.
func New(reg prometheus.Registerer, namespace string) *Counters {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "manawire"
	}
	factory := promauto.With(reg)

	return &Counters{
		promInPackets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "in_packets_total",
			Help:      "Messages framed from the server stream",
		}),
		promInBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "in_bytes_total",
			Help:      "Bytes consumed from the server stream",
		}),
		promOutPackets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "out_packets_total",
			Help:      "Messages queued for the server",
		}),
		promOutBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "out_bytes_total",
			Help:      "Bytes queued for the server",
		}),
		promUnknown: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_packets_total",
			Help:      "Messages without a registered handler",
		}, []string{"opcode"}),
		promShortReads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_reads_total",
			Help:      "Messages whose handler read past the declared length",
		}, []string{"opcode"}),
		promFramingErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "framing_errors_total",
			Help:      "Fatal framing errors",
		}),
		promDispatch: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent in Recv handlers",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
	}
}

func opcodeLabel(op uint16) string {
	return fmt.Sprintf("0x%04x", op)
}

// IncIn counts one inbound message of n bytes.
func (c *Counters) IncIn(n int) {
	c.inPackets.Add(1)
	c.inBytes.Add(int64(n))
	c.promInPackets.Inc()
	c.promInBytes.Add(float64(n))
}

// IncOut counts one outbound message of n bytes.
func (c *Counters) IncOut(n int) {
	c.outPackets.Add(1)
	c.outBytes.Add(int64(n))
	c.promOutPackets.Inc()
	c.promOutBytes.Add(float64(n))
}

// Unknown counts a message without a handler.
func (c *Counters) Unknown(op uint16) {
	c.unknown.Add(1)
	c.promUnknown.WithLabelValues(opcodeLabel(op)).Inc()
}

// ShortRead counts a message that was read past its end.
func (c *Counters) ShortRead(op uint16) {
	c.shortReads.Add(1)
	c.promShortReads.WithLabelValues(opcodeLabel(op)).Inc()
}

// FramingError counts a fatal framing error.
func (c *Counters) FramingError() {
	c.framingErrors.Add(1)
	c.promFramingErrors.Inc()
}

// ObserveDispatch records handler run time.
func (c *Counters) ObserveDispatch(d time.Duration) {
	c.promDispatch.Observe(d.Seconds())
}

// Update recomputes the per-second rates when at least a second has
// passed since the previous update.
func (c *Counters) Update(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastUpdate.IsZero() {
		c.lastUpdate = now
		c.last = c.totals()
		return
	}
	elapsed := now.Sub(c.lastUpdate)
	if elapsed < time.Second {
		return
	}
	cur := c.totals()
	secs := int64(elapsed / time.Second)
	c.rates = Rates{
		InPackets:  (cur[0] - c.last[0]) / secs,
		InBytes:    (cur[1] - c.last[1]) / secs,
		OutPackets: (cur[2] - c.last[2]) / secs,
		OutBytes:   (cur[3] - c.last[3]) / secs,
	}
	c.last = cur
	c.lastUpdate = now
}

func (c *Counters) totals() [4]int64 {
	return [4]int64{
		c.inPackets.Load(),
		c.inBytes.Load(),
		c.outPackets.Load(),
		c.outBytes.Load(),
	}
}

// Snapshot returns the current totals and rates.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	rates := c.rates
	c.mu.Unlock()

	return Snapshot{
		InPackets:     c.inPackets.Load(),
		InBytes:       c.inBytes.Load(),
		OutPackets:    c.outPackets.Load(),
		OutBytes:      c.outBytes.Load(),
		Unknown:       c.unknown.Load(),
		ShortReads:    c.shortReads.Load(),
		FramingErrors: c.framingErrors.Load(),
		Rates:         rates,
	}
}

// HumanIn formats inbound totals, e.g. "1,204 packets / 38 kB".
func (s Snapshot) HumanIn() string {
	return fmt.Sprintf("%s packets / %s", humanize.Comma(s.InPackets), humanize.Bytes(uint64(s.InBytes)))
}

// HumanOut formats outbound totals.
func (s Snapshot) HumanOut() string {
	return fmt.Sprintf("%s packets / %s", humanize.Comma(s.OutPackets), humanize.Bytes(uint64(s.OutBytes)))
}

// HumanRates formats the per-second rates.
func (s Snapshot) HumanRates() string {
	return fmt.Sprintf("in %s/s, out %s/s",
		humanize.Bytes(uint64(s.Rates.InBytes)), humanize.Bytes(uint64(s.Rates.OutBytes)))
}
