package lob

import "github.com/0x5487/limit-order-book/protocol"

func (ob *OrderBook) refreshBest() {
	if ob.cacheValid {
		return
	}
	ob.bestBid = ob.bids.bestPrice()
	ob.bestAsk = ob.asks.bestPrice()
	ob.cacheValid = true
}

// BestBid returns the highest bid price or NoPrice.
func (ob *OrderBook) BestBid() Price {
	ob.refreshBest()
	return ob.bestBid
}

// BestAsk returns the lowest ask price or NoPrice.
func (ob *OrderBook) BestAsk() Price {
	ob.refreshBest()
	return ob.bestAsk
}

// BestBidQuantity returns the aggregate quantity at the best bid.
func (ob *OrderBook) BestBidQuantity() Quantity {
	if level := ob.bids.best(); level != nil {
		return level.totalQuantity
	}
	return 0
}

// BestAskQuantity returns the aggregate quantity at the best ask.
func (ob *OrderBook) BestAskQuantity() Quantity {
	if level := ob.asks.best(); level != nil {
		return level.totalQuantity
	}
	return 0
}

// MidPrice returns (best bid + best ask) / 2 in ticks, or 0 if either side is empty.
func (ob *OrderBook) MidPrice() float64 {
	ob.refreshBest()
	if ob.bestBid == NoPrice || ob.bestAsk == NoPrice {
		return 0
	}
	return (float64(ob.bestBid) + float64(ob.bestAsk)) / 2
}

// Spread returns best ask - best bid in ticks, or 0 if either side is empty.
func (ob *OrderBook) Spread() Price {
	ob.refreshBest()
	if ob.bestBid == NoPrice || ob.bestAsk == NoPrice {
		return 0
	}
	return ob.bestAsk - ob.bestBid
}

// IsCrossed reports whether the best bid is at or above the best ask.
// Matching never leaves the book crossed, so true indicates a bug.
func (ob *OrderBook) IsCrossed() bool {
	ob.refreshBest()
	return ob.bestBid != NoPrice && ob.bestAsk != NoPrice && ob.bestBid >= ob.bestAsk
}

// BidLevels returns up to n bid levels, highest price first. n <= 0 returns all levels.
func (ob *OrderBook) BidLevels(n int) []Level {
	return ob.bids.topN(n)
}

// AskLevels returns up to n ask levels, lowest price first. n <= 0 returns all levels.
func (ob *OrderBook) AskLevels(n int) []Level {
	return ob.asks.topN(n)
}

// Depth returns the L2 view in the protocol format. UpdateID is the last BookLog sequence.
func (ob *OrderBook) Depth(limit uint32) *protocol.GetDepthResponse {
	return &protocol.GetDepthResponse{
		UpdateID: ob.seqID,
		Asks:     toDepthItems(ob.asks.topN(int(limit))),
		Bids:     toDepthItems(ob.bids.topN(int(limit))),
	}
}

func toDepthItems(levels []Level) []*protocol.DepthItem {
	items := make([]*protocol.DepthItem, 0, len(levels))
	for _, l := range levels {
		items = append(items, &protocol.DepthItem{
			Price: int64(l.Price),
			Size:  int64(l.Quantity),
			Count: int64(l.OrderCount),
		})
	}
	return items
}

// GetOrder returns a copy of a resting order.
func (ob *OrderBook) GetOrder(id OrderID) (Order, error) {
	h, ok := ob.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return ob.arena.get(h).Order, nil
}

// OrdersAtLevel returns the orders resting at price in FIFO order.
func (ob *OrderBook) OrdersAtLevel(side Side, price Price) []Order {
	level := ob.sideOf(side).level(price)
	if level == nil {
		return nil
	}
	orders := make([]Order, 0, level.count)
	level.each(ob.arena, func(_ handle, node *orderNode) bool {
		orders = append(orders, node.Order)
		return true
	})
	return orders
}

// QueuePosition returns the quantity resting ahead of the order at its price level.
func (ob *OrderBook) QueuePosition(id OrderID) (Quantity, error) {
	h, ok := ob.orders[id]
	if !ok {
		return 0, ErrNotFound
	}

	var ahead Quantity
	node := ob.arena.get(h)
	for prev := node.prev; prev != nilHandle; {
		p := ob.arena.get(prev)
		ahead += p.RemainingQuantity
		prev = p.prev
	}
	return ahead, nil
}

// OrderCount returns the number of resting orders.
func (ob *OrderBook) OrderCount() int {
	return len(ob.orders)
}

// Trades returns a copy of the execution log.
func (ob *OrderBook) Trades() []Execution {
	trades := make([]Execution, len(ob.trades))
	copy(trades, ob.trades)
	return trades
}

// TradeCount returns the number of executions since the last ClearTrades.
func (ob *OrderBook) TradeCount() int {
	return len(ob.trades)
}

// ClearTrades empties the execution log. Trade ids keep increasing.
func (ob *OrderBook) ClearTrades() {
	ob.trades = ob.trades[:0]
}

// Stats returns a summary of the book.
func (ob *OrderBook) Stats() BookStats {
	ob.refreshBest()
	return BookStats{
		BestBid:     ob.bestBid,
		BestAsk:     ob.bestAsk,
		BidVolume:   ob.bids.volume(),
		AskVolume:   ob.asks.volume(),
		Spread:      ob.Spread(),
		MidPrice:    ob.MidPrice(),
		BidLevels:   ob.bids.depthCount(),
		AskLevels:   ob.asks.depthCount(),
		BidOrders:   ob.bids.orders(),
		AskOrders:   ob.asks.orders(),
		TotalOrders: len(ob.orders),
		TotalTrades: len(ob.trades),
	}
}

// Metrics returns the activity counters by value.
func (ob *OrderBook) Metrics() Metrics {
	return ob.metrics
}

// ResetMetrics zeroes the activity counters.
func (ob *OrderBook) ResetMetrics() {
	ob.metrics = Metrics{}
}

// Clear removes every resting order and the execution log. Each dropped order
// is published as a cancel so downstream depth views stay in step. Counters, ids
// and sequences are kept so later events stay unique.
func (ob *OrderBook) Clear() {
	if ob.publisher != nil {
		ts := ob.now()
		for _, s := range []*bookSide{ob.bids, ob.asks} {
			for _, order := range ob.sideOrders(s) {
				order.Status = StatusCancelled
				ob.pending = append(ob.pending, NewCancelLog(ob.nextSeqID(), ob.symbol, &order, ts))
			}
		}
	}
	ob.reset()
	ob.flush()
}

func (ob *OrderBook) reset() {
	ob.bids.reset()
	ob.asks.reset()
	ob.arena.reset()
	clear(ob.orders)
	ob.trades = ob.trades[:0]
	ob.cacheValid = false
}

// Symbol returns the symbol the book trades.
func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

// TickSize returns the price increment in ticks.
func (ob *OrderBook) TickSize() Price {
	return ob.tickSize
}

// LastSequenceID returns the sequence id of the last BookLog produced.
func (ob *OrderBook) LastSequenceID() uint64 {
	return ob.seqID
}
