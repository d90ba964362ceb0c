package lob

import (
	"time"

	"github.com/0x5487/limit-order-book/protocol"
)

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell

	// Bid and Ask are market-data names for Buy and Sell.
	Bid = Buy
	Ask = Sell
)

type OrderType = protocol.OrderType

const (
	Market OrderType = protocol.OrderTypeMarket
	Limit  OrderType = protocol.OrderTypeLimit
)

type LogType = protocol.LogType

const (
	LogTypeOpen   LogType = protocol.LogTypeOpen
	LogTypeMatch  LogType = protocol.LogTypeMatch
	LogTypeCancel LogType = protocol.LogTypeCancel
	LogTypeAmend  LogType = protocol.LogTypeAmend
	LogTypeReject LogType = protocol.LogTypeReject
)

type RejectReason = protocol.RejectReason

// OrderID identifies an order for the lifetime of a book.
type OrderID uint64

// Price is a price expressed in integer ticks.
type Price int64

// Quantity is an order size in integer lots.
type Quantity int64

// OrderStatus is the lifecycle state of an order.
type OrderStatus uint8

const (
	StatusNew OrderStatus = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Order represents the state of an order in the order book.
// Values returned by the book are copies; mutating them has no effect on the book.
type Order struct {
	ID                OrderID     `json:"id"`
	Side              Side        `json:"side"`
	Type              OrderType   `json:"type"`
	Price             Price       `json:"price"`
	Quantity          Quantity    `json:"quantity"`  // Size at submission (or at the last priority-losing modify)
	RemainingQuantity Quantity    `json:"remaining"` // Open size
	FilledQuantity    Quantity    `json:"filled"`
	Sequence          uint64      `json:"sequence"` // FIFO tie-break within a level
	Status            OrderStatus `json:"status"`
	Timestamp         int64       `json:"timestamp"` // Unix nano, arrival time
}

// Execution is one fill between an incoming (aggressor) order and a resting order.
// Price is always the resting order's price.
type Execution struct {
	TradeID          uint64   `json:"trade_id"`
	AggressorOrderID OrderID  `json:"aggressor_order_id"`
	RestingOrderID   OrderID  `json:"resting_order_id"`
	AggressorSide    Side     `json:"aggressor_side"`
	Price            Price    `json:"price"`
	Quantity         Quantity `json:"quantity"`
	Timestamp        int64    `json:"timestamp"`
}

// Level is an aggregated price level in the L2 view.
type Level struct {
	Price      Price    `json:"price"`
	Quantity   Quantity `json:"quantity"`
	OrderCount int      `json:"order_count"`
}

// BookStats is a point-in-time summary of the book.
type BookStats struct {
	BestBid     Price    `json:"best_bid"`
	BestAsk     Price    `json:"best_ask"`
	BidVolume   Quantity `json:"bid_volume"`
	AskVolume   Quantity `json:"ask_volume"`
	Spread      Price    `json:"spread"`
	MidPrice    float64  `json:"mid_price"`
	BidLevels   int      `json:"bid_levels"`
	AskLevels   int      `json:"ask_levels"`
	BidOrders   int      `json:"bid_orders"`
	AskOrders   int      `json:"ask_orders"`
	TotalOrders int      `json:"total_orders"`
	TotalTrades int      `json:"total_trades"`
}

// Metrics are the per-book activity counters.
type Metrics struct {
	OrdersAdded     uint64        `json:"orders_added"`
	OrdersModified  uint64        `json:"orders_modified"`
	OrdersCancelled uint64        `json:"orders_cancelled"`
	OrdersRejected  uint64        `json:"orders_rejected"`
	OrdersMatched   uint64        `json:"orders_matched"` // number of fills
	TotalVolume     uint64        `json:"total_volume"`
	TotalLatency    time.Duration `json:"total_latency"`
}

// InputEvent is the internal wrapper for all events entering a MarketActor.
type InputEvent struct {
	// Cmd is the external command carrier.
	Cmd *protocol.Command

	// Internal Query fields (Read Path)
	Query any
	Resp  chan any
}
