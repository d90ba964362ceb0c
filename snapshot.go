package lob

import "fmt"

// BookSnapshot is an immutable in-memory copy of a book. Orders are listed in
// priority order: best price first, oldest first within a price.
type BookSnapshot struct {
	Symbol      string    `json:"symbol"`
	TickSize    Price     `json:"tick_size"`
	SeqID       uint64    `json:"seq_id"`   // Last BookLog sequence ID
	TradeID     uint64    `json:"trade_id"` // Last trade ID
	NextOrderID OrderID   `json:"next_order_id"`
	ArrivalSeq  uint64    `json:"arrival_seq"`
	Bids        []Order   `json:"bids"`
	Asks        []Order   `json:"asks"`
	Stats       BookStats `json:"stats"`
	Metrics     Metrics   `json:"metrics"`
}

// Snapshot copies the resting orders and counters of the book.
func (ob *OrderBook) Snapshot() *BookSnapshot {
	return &BookSnapshot{
		Symbol:      ob.symbol,
		TickSize:    ob.tickSize,
		SeqID:       ob.seqID,
		TradeID:     ob.tradeID,
		NextOrderID: ob.nextOrderID,
		ArrivalSeq:  ob.arrivalSeq,
		Bids:        ob.sideOrders(ob.bids),
		Asks:        ob.sideOrders(ob.asks),
		Stats:       ob.Stats(),
		Metrics:     ob.metrics,
	}
}

func (ob *OrderBook) sideOrders(s *bookSide) []Order {
	orders := make([]Order, 0, s.orders())
	s.index.ascend(func(level *priceLevel) bool {
		level.each(ob.arena, func(_ handle, node *orderNode) bool {
			orders = append(orders, node.Order)
			return true
		})
		return true
	})
	return orders
}

// Restore replaces the book content with snap. The execution log is emptied.
// The snapshot is validated first; on error the book is left as it was.
func (ob *OrderBook) Restore(snap *BookSnapshot) error {
	if err := ob.checkSnapshot(snap); err != nil {
		return err
	}

	ob.reset()
	if snap.TickSize > 0 {
		ob.tickSize = snap.TickSize
	}
	ob.symbol = snap.Symbol
	ob.seqID = snap.SeqID
	ob.tradeID = snap.TradeID
	ob.nextOrderID = max(snap.NextOrderID, 1)
	ob.arrivalSeq = snap.ArrivalSeq
	ob.metrics = snap.Metrics

	ob.restoreSide(snap.Bids)
	ob.restoreSide(snap.Asks)
	return nil
}

func (ob *OrderBook) checkSnapshot(snap *BookSnapshot) error {
	if snap == nil {
		return ErrInvalidSnapshot
	}

	tick := ob.tickSize
	if snap.TickSize > 0 {
		tick = snap.TickSize
	}

	seen := make(map[OrderID]struct{}, len(snap.Bids)+len(snap.Asks))
	best := map[Side]Price{}
	for _, side := range []Side{Buy, Sell} {
		orders := snap.Bids
		if side == Sell {
			orders = snap.Asks
		}
		for i := range orders {
			order := &orders[i]
			switch {
			case order.Side != side:
				return fmt.Errorf("%w: order %d on wrong side", ErrInvalidSnapshot, order.ID)
			case !validID(order.ID) || order.RemainingQuantity <= 0:
				return fmt.Errorf("%w: order %d", ErrInvalidSnapshot, order.ID)
			case order.Price <= 0 || order.Price%tick != 0:
				return fmt.Errorf("%w: order %d price %d", ErrInvalidSnapshot, order.ID, order.Price)
			}
			if _, ok := seen[order.ID]; ok {
				return fmt.Errorf("%w: duplicate order %d", ErrInvalidSnapshot, order.ID)
			}
			seen[order.ID] = struct{}{}

			b, ok := best[side]
			if !ok || (side == Buy && order.Price > b) || (side == Sell && order.Price < b) {
				best[side] = order.Price
			}
		}
	}

	bid, hasBid := best[Buy]
	ask, hasAsk := best[Sell]
	if hasBid && hasAsk && bid >= ask {
		return fmt.Errorf("%w: crossed book", ErrInvalidSnapshot)
	}
	return nil
}

func (ob *OrderBook) restoreSide(orders []Order) {
	for i := range orders {
		order := orders[i]
		order.Type = Limit
		h := ob.arena.alloc(order)
		ob.sideOf(order.Side).insert(h)
		ob.orders[order.ID] = h
		if order.ID >= ob.nextOrderID {
			ob.nextOrderID = order.ID + 1
		}
		if order.Sequence > ob.arrivalSeq {
			ob.arrivalSeq = order.Sequence
		}
	}
}
