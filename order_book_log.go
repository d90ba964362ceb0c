package lob

import "sync"

// BookLog represents an event in the order book.
// SequenceID increases by one for every event of a book and is used for ordering,
// deduplication, and rebuild synchronization in downstream systems.
// Use LogType to determine if the event affects order book state:
// - Open, Match, Cancel, Amend: affect order book state
// - Reject: does not affect order book state
type BookLog struct {
	SequenceID   uint64       `json:"seq_id"`
	TradeID      uint64       `json:"trade_id,omitempty"` // Only set for Match events
	Type         LogType      `json:"type"`
	MarketID     string       `json:"market_id"`
	Side         Side         `json:"side"`
	Price        Price        `json:"price"`
	Size         Quantity     `json:"size"`
	OldPrice     Price        `json:"old_price,omitempty"`
	OldSize      Quantity     `json:"old_size,omitempty"`
	OrderID      OrderID      `json:"order_id"`
	OrderType    OrderType    `json:"order_type,omitempty"`
	MakerOrderID OrderID      `json:"maker_order_id,omitempty"`
	RejectReason RejectReason `json:"reject_reason,omitempty"` // Only set for Reject events
	Timestamp    int64        `json:"timestamp"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	*log = BookLog{}
	bookLogPool.Put(log)
}

// NewOpenLog records an order resting in the book. Size is the resting quantity.
func NewOpenLog(seqID uint64, marketID string, order *Order) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeOpen
	log.MarketID = marketID
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.RemainingQuantity
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.Timestamp = order.Timestamp
	return log
}

// NewMatchLog records one fill. Side and OrderID belong to the taker.
func NewMatchLog(seqID uint64, marketID string, exec *Execution, takerType OrderType) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.TradeID = exec.TradeID
	log.Type = LogTypeMatch
	log.MarketID = marketID
	log.Side = exec.AggressorSide
	log.Price = exec.Price
	log.Size = exec.Quantity
	log.OrderID = exec.AggressorOrderID
	log.OrderType = takerType
	log.MakerOrderID = exec.RestingOrderID
	log.Timestamp = exec.Timestamp
	return log
}

// NewCancelLog records the removal of a resting order. Size is the quantity removed.
func NewCancelLog(seqID uint64, marketID string, order *Order, ts int64) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeCancel
	log.MarketID = marketID
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.RemainingQuantity
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.Timestamp = ts
	return log
}

// NewAmendLog records a modify. Price and Size are the new values, OldPrice and OldSize
// the resting values before the change.
func NewAmendLog(seqID uint64, marketID string, order *Order, oldPrice Price, oldSize Quantity, ts int64) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeAmend
	log.MarketID = marketID
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.RemainingQuantity
	log.OldPrice = oldPrice
	log.OldSize = oldSize
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.Timestamp = ts
	return log
}

func NewRejectLog(seqID uint64, marketID string, orderID OrderID, side Side, reason RejectReason, ts int64) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeReject
	log.MarketID = marketID
	log.Side = side
	log.OrderID = orderID
	log.RejectReason = reason
	log.Timestamp = ts
	return log
}
