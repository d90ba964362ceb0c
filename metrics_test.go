package lob

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/0x5487/limit-order-book/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	ctx := context.Background()
	engine, publishLog := createTestEngine(t, "BTC-USDT", "ETH-USDT")

	orders := []*protocol.PlaceOrderCommand{
		{OrderID: 1, Side: Buy, OrderType: Limit, Price: 100, Size: 10},
		{OrderID: 2, Side: Buy, OrderType: Limit, Price: 99, Size: 5},
		{OrderID: 3, Side: Sell, OrderType: Limit, Price: 103, Size: 7},
		{OrderID: 4, Side: Sell, OrderType: Market, Size: 4},
	}
	for _, o := range orders {
		require.NoError(t, engine.PlaceOrder(ctx, "BTC-USDT", o))
	}
	_ = lastLog(t, publishLog, 4)

	collector := NewCollector(engine)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(collector))

	assert.Equal(t, 32, testutil.CollectAndCount(collector))
	assert.Equal(t, 4, testutil.CollectAndCount(collector, "lob_resting_orders"))

	expected := `
# HELP lob_resting_volume Resting quantity in lots.
# TYPE lob_resting_volume gauge
lob_resting_volume{market="BTC-USDT",side="buy"} 11
lob_resting_volume{market="BTC-USDT",side="sell"} 7
lob_resting_volume{market="ETH-USDT",side="buy"} 0
lob_resting_volume{market="ETH-USDT",side="sell"} 0
# HELP lob_fills_total Executions.
# TYPE lob_fills_total counter
lob_fills_total{market="BTC-USDT"} 1
lob_fills_total{market="ETH-USDT"} 0
# HELP lob_spread_ticks Best ask minus best bid in ticks, 0 if a side is empty.
# TYPE lob_spread_ticks gauge
lob_spread_ticks{market="BTC-USDT"} 3
lob_spread_ticks{market="ETH-USDT"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"lob_resting_volume", "lob_fills_total", "lob_spread_ticks"))

	require.NoError(t, engine.SuspendMarket("admin", "ETH-USDT"))
	assert.Eventually(t, func() bool {
		return engine.Market("ETH-USDT").State() == protocol.OrderBookStateSuspended
	}, time.Second, time.Millisecond)

	expected = `
# HELP lob_market_suspended 1 if the market is suspended.
# TYPE lob_market_suspended gauge
lob_market_suspended{market="BTC-USDT"} 0
lob_market_suspended{market="ETH-USDT"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lob_market_suspended"))
}

func TestCollector_SkipsStoppedMarkets(t *testing.T) {
	engine := NewMatchingEngine(nil)
	require.NoError(t, engine.CreateMarket("admin", "BTC-USDT", 0))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.Shutdown(ctx))

	assert.Equal(t, 0, testutil.CollectAndCount(NewCollector(engine)))
}
