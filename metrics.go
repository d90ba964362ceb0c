package lob

import (
	"context"
	"time"

	"github.com/0x5487/limit-order-book/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

const collectTimeout = 500 * time.Millisecond

// Collector exposes the per-market book statistics of a MatchingEngine to Prometheus.
// Values are read through the market queries, so scraping never touches a book directly.
type Collector struct {
	engine *MatchingEngine

	restingOrders  *prometheus.Desc
	levels         *prometheus.Desc
	restingVolume  *prometheus.Desc
	spread         *prometheus.Desc
	pendingEvents  *prometheus.Desc
	suspended      *prometheus.Desc
	ordersAdded    *prometheus.Desc
	ordersModified *prometheus.Desc
	ordersCancel   *prometheus.Desc
	ordersRejected *prometheus.Desc
	fills          *prometheus.Desc
	tradedVolume   *prometheus.Desc
	latency        *prometheus.Desc
}

// NewCollector creates a collector for engine. Register it with a prometheus.Registerer.
func NewCollector(engine *MatchingEngine) *Collector {
	market := []string{"market"}
	marketSide := []string{"market", "side"}
	return &Collector{
		engine:         engine,
		restingOrders:  prometheus.NewDesc("lob_resting_orders", "Number of resting orders.", marketSide, nil),
		levels:         prometheus.NewDesc("lob_price_levels", "Number of non-empty price levels.", marketSide, nil),
		restingVolume:  prometheus.NewDesc("lob_resting_volume", "Resting quantity in lots.", marketSide, nil),
		spread:         prometheus.NewDesc("lob_spread_ticks", "Best ask minus best bid in ticks, 0 if a side is empty.", market, nil),
		pendingEvents:  prometheus.NewDesc("lob_pending_events", "Events waiting in the market ring buffer.", market, nil),
		suspended:      prometheus.NewDesc("lob_market_suspended", "1 if the market is suspended.", market, nil),
		ordersAdded:    prometheus.NewDesc("lob_orders_added_total", "Accepted order submissions.", market, nil),
		ordersModified: prometheus.NewDesc("lob_orders_modified_total", "Applied modifications.", market, nil),
		ordersCancel:   prometheus.NewDesc("lob_orders_cancelled_total", "Cancelled orders.", market, nil),
		ordersRejected: prometheus.NewDesc("lob_orders_rejected_total", "Rejected requests.", market, nil),
		fills:          prometheus.NewDesc("lob_fills_total", "Executions.", market, nil),
		tradedVolume:   prometheus.NewDesc("lob_traded_volume_total", "Executed quantity in lots.", market, nil),
		latency:        prometheus.NewDesc("lob_book_latency_seconds_total", "Cumulative time spent in mutating book calls.", market, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.restingOrders, c.levels, c.restingVolume, c.spread, c.pendingEvents, c.suspended,
		c.ordersAdded, c.ordersModified, c.ordersCancel, c.ordersRejected, c.fills, c.tradedVolume, c.latency,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector. Markets that do not answer in time are skipped.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, symbol := range c.engine.Markets() {
		market := c.engine.Market(symbol)
		if market == nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
		stats, err := market.Stats(ctx)
		cancel()
		if err != nil {
			logger.Warn("metrics collect failed", "market_id", symbol, "error", err)
			continue
		}
		c.collectMarket(ch, stats)
	}
}

func (c *Collector) collectMarket(ch chan<- prometheus.Metric, s *MarketStats) {
	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v float64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, v, s.Symbol)
	}

	buy, sell := Buy.String(), Sell.String()
	gauge(c.restingOrders, float64(s.Book.BidOrders), s.Symbol, buy)
	gauge(c.restingOrders, float64(s.Book.AskOrders), s.Symbol, sell)
	gauge(c.levels, float64(s.Book.BidLevels), s.Symbol, buy)
	gauge(c.levels, float64(s.Book.AskLevels), s.Symbol, sell)
	gauge(c.restingVolume, float64(s.Book.BidVolume), s.Symbol, buy)
	gauge(c.restingVolume, float64(s.Book.AskVolume), s.Symbol, sell)
	gauge(c.spread, float64(s.Book.Spread), s.Symbol)
	gauge(c.pendingEvents, float64(s.PendingEvents), s.Symbol)

	var suspended float64
	if s.State == protocol.OrderBookStateSuspended {
		suspended = 1
	}
	gauge(c.suspended, suspended, s.Symbol)

	counter(c.ordersAdded, float64(s.Metrics.OrdersAdded))
	counter(c.ordersModified, float64(s.Metrics.OrdersModified))
	counter(c.ordersCancel, float64(s.Metrics.OrdersCancelled))
	counter(c.ordersRejected, float64(s.Metrics.OrdersRejected))
	counter(c.fills, float64(s.Metrics.OrdersMatched))
	counter(c.tradedVolume, float64(s.Metrics.TotalVolume))
	counter(c.latency, s.Metrics.TotalLatency.Seconds())
}
