package protocol

// DepthItem is one aggregated price level in a depth response.
type DepthItem struct {
	Price int64 `json:"price"`
	Size  int64 `json:"size"`
	Count int64 `json:"count"`
}

// GetDepthResponse represents the state of the order book depth.
type GetDepthResponse struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// Side represents the order side (Buy/Sell).
type Side int8

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

// String returns the lower-case name of the side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Opposite returns the contra side. Unknown sides are returned unchanged.
func (s Side) Opposite() Side {
	switch s {
	case SideBuy:
		return SideSell
	case SideSell:
		return SideBuy
	default:
		return s
	}
}

// OrderType represents the type of order.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// LogType represents the type of event log.
type LogType string

const (
	LogTypeOpen   LogType = "open"
	LogTypeMatch  LogType = "match"
	LogTypeCancel LogType = "cancel"
	LogTypeAmend  LogType = "amend"
	LogTypeReject LogType = "reject"
)

// RejectReason represents the reason why an order was rejected.
type RejectReason string

const (
	RejectReasonNone            RejectReason = ""
	RejectReasonNoLiquidity     RejectReason = "no_liquidity" // Market: remainder discarded, opposite side empty
	RejectReasonDuplicateID     RejectReason = "duplicate_order_id"
	RejectReasonInvalidQuantity RejectReason = "invalid_quantity"
	RejectReasonInvalidPrice    RejectReason = "invalid_price"
	RejectReasonInvalidParam    RejectReason = "invalid_param"
	RejectReasonOrderNotFound   RejectReason = "order_not_found"
	RejectReasonInvalidPayload  RejectReason = "invalid_payload"
	RejectReasonMarketSuspended RejectReason = "market_suspended"
)
