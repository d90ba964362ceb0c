package lob

import (
	"math/rand"
	"testing"
)

const benchMid = Price(10_000)

// benchPrice draws a price with 80% of the flow in the ten ticks around the mid.
func benchPrice(rng *rand.Rand, side Side) Price {
	offset := Price(rng.Intn(10) + 1)
	if rng.Intn(100) >= 80 {
		offset = Price(rng.Intn(490) + 11)
	}
	if side == Buy {
		return benchMid - offset
	}
	return benchMid + offset
}

func newBenchBook(kind PriceIndexKind) *OrderBook {
	return NewOrderBook("BTC-USDT", WithPriceIndex(kind), WithPublishLog(NewDiscardPublishLog()), WithCapacity(1<<16))
}

func BenchmarkAddOrder(b *testing.B) {
	for _, kind := range indexKinds {
		b.Run(kind.String(), func(b *testing.B) {
			ob := newBenchBook(kind)
			rng := rand.New(rand.NewSource(42))

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				side := Side(i%2 + 1)
				_, _ = ob.AddOrder(side, benchPrice(rng, side), 1, Limit)
			}
		})
	}
}

func BenchmarkAddCancel(b *testing.B) {
	for _, kind := range indexKinds {
		b.Run(kind.String(), func(b *testing.B) {
			ob := newBenchBook(kind)
			rng := rand.New(rand.NewSource(42))

			// a resting book so cancels hit populated levels
			for i := 0; i < 10_000; i++ {
				side := Side(i%2 + 1)
				_, _ = ob.AddOrder(side, benchPrice(rng, side), 10, Limit)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				side := Side(i%2 + 1)
				id, _ := ob.AddOrder(side, benchPrice(rng, side), 1, Limit)
				_ = ob.CancelOrder(id)
			}
		})
	}
}

func BenchmarkMatch(b *testing.B) {
	for _, kind := range indexKinds {
		b.Run(kind.String(), func(b *testing.B) {
			ob := newBenchBook(kind)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				// every other order crosses the one resting before it
				_, _ = ob.AddOrder(Sell, benchMid, 1, Limit)
				_, _ = ob.AddOrder(Buy, benchMid, 1, Limit)
				if i%1024 == 0 {
					ob.ClearTrades()
				}
			}
		})
	}
}

func BenchmarkMixedFlow(b *testing.B) {
	for _, kind := range indexKinds {
		b.Run(kind.String(), func(b *testing.B) {
			ob := newBenchBook(kind)
			rng := rand.New(rand.NewSource(7))
			live := make([]OrderID, 0, 1<<16)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				side := Side(rng.Intn(2) + 1)
				switch op := rng.Intn(100); {
				case op < 60 || len(live) == 0:
					// aggressive prices cross the mid and trade
					price := benchPrice(rng, side.Opposite())
					id, err := ob.AddOrder(side, price, Quantity(rng.Intn(10)+1), Limit)
					if err == nil {
						live = append(live, id)
					}
				case op < 85:
					j := rng.Intn(len(live))
					_ = ob.CancelOrder(live[j])
					live[j] = live[len(live)-1]
					live = live[:len(live)-1]
				case op < 95:
					_ = ob.ModifyOrder(live[rng.Intn(len(live))], Quantity(rng.Intn(10)+1))
				default:
					_, _ = ob.ProcessMarketOrder(side, Quantity(rng.Intn(20)+1))
				}
				if ob.TradeCount() > 1<<16 {
					ob.ClearTrades()
				}
			}
			b.ReportMetric(float64(ob.OrderCount()), "resting")
		})
	}
}

func BenchmarkDepth(b *testing.B) {
	ob := newBenchBook(SkiplistIndex)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50_000; i++ {
		side := Side(i%2 + 1)
		_, _ = ob.AddOrder(side, benchPrice(rng, side), 1, Limit)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ob.Depth(defaultDepthLimit)
	}
}
