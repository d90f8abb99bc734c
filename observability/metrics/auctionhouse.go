package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"auctionhouse/core/events"
)

// AuctionHouseMetrics records settlement activity of the auction house engine.
type AuctionHouseMetrics struct {
	transactions *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	instructions *prometheus.CounterVec
	sales        *prometheus.CounterVec
	saleVolume   *prometheus.CounterVec
	saleFees     *prometheus.CounterVec
	events       *prometheus.CounterVec
}

var (
	auctionHouseOnce     sync.Once
	auctionHouseRegistry *AuctionHouseMetrics
)

// AuctionHouse returns the process-wide metrics registered on the default
// Prometheus registry.
func AuctionHouse() *AuctionHouseMetrics {
	auctionHouseOnce.Do(func() {
		auctionHouseRegistry = NewAuctionHouseMetrics(prometheus.DefaultRegisterer)
	})
	return auctionHouseRegistry
}

// NewAuctionHouseMetrics builds a metrics set and registers it on reg.
func NewAuctionHouseMetrics(reg prometheus.Registerer) *AuctionHouseMetrics {
	m := &AuctionHouseMetrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auctionhouse",
			Name:      "transactions_total",
			Help:      "Processed transactions segmented by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "auctionhouse",
			Name:      "transaction_duration_seconds",
			Help:      "Time spent verifying and applying a transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auctionhouse",
			Name:      "instructions_total",
			Help:      "Executed instructions segmented by name and outcome.",
		}, []string{"instruction", "outcome"}),
		sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auctionhouse",
			Name:      "sales_total",
			Help:      "Settled sales per treasury mint.",
		}, []string{"treasury_mint"}),
		saleVolume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auctionhouse",
			Name:      "sale_volume_total",
			Help:      "Sum of settled sale prices in base units per treasury mint.",
		}, []string{"treasury_mint"}),
		saleFees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auctionhouse",
			Name:      "sale_fees_total",
			Help:      "Marketplace fees paid into the treasury per treasury mint.",
		}, []string{"treasury_mint"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "auctionhouse",
			Name:      "events_total",
			Help:      "Emitted events segmented by type.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.transactions,
			m.latency,
			m.instructions,
			m.sales,
			m.saleVolume,
			m.saleFees,
			m.events,
		)
	}
	return m
}

func label(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}

func (m *AuctionHouseMetrics) ObserveTransaction(outcome string, instructions int, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome = label(outcome)
	m.transactions.WithLabelValues(outcome).Inc()
	m.latency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *AuctionHouseMetrics) ObserveInstruction(name, outcome string) {
	if m == nil {
		return
	}
	m.instructions.WithLabelValues(label(name), label(outcome)).Inc()
}

func (m *AuctionHouseMetrics) ObserveSale(treasuryMint string, price, fee uint64) {
	if m == nil {
		return
	}
	mint := label(treasuryMint)
	m.sales.WithLabelValues(mint).Inc()
	m.saleVolume.WithLabelValues(mint).Add(float64(price))
	m.saleFees.WithLabelValues(mint).Add(float64(fee))
}

func (m *AuctionHouseMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(label(eventType)).Inc()
}

// EventCounter counts every event by type before handing it to Next.
type EventCounter struct {
	Next    events.Emitter
	Metrics *AuctionHouseMetrics
}

// Emit implements events.Emitter.
func (c EventCounter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	c.Metrics.ObserveEvent(evt.EventType())
	if c.Next != nil {
		c.Next.Emit(evt)
	}
}
