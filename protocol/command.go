package protocol

// CommandType defines the type of the command (using uint8 for memory alignment and performance)
type CommandType uint8

// Command Type Numbering Strategy:
// - 0-50:  Market Management Commands (internal, low-frequency admin operations)
// - 51+:   Trading Commands (external, high-frequency hot path)
const (
	CmdUnknown       CommandType = 0
	CmdCreateMarket  CommandType = 1
	CmdSuspendMarket CommandType = 2
	CmdResumeMarket  CommandType = 3

	CmdPlaceOrder  CommandType = 51
	CmdCancelOrder CommandType = 52
	CmdModifyOrder CommandType = 53
)

// MetadataRequestID is the metadata key carrying the request correlation id.
const MetadataRequestID = "request_id"

// OrderBookState represents the lifecycle state of a market.
type OrderBookState uint8

const (
	// OrderBookStateRunning indicates the market accepts all trading operations.
	OrderBookStateRunning OrderBookState = 0
	// OrderBookStateSuspended indicates the market is paused; only cancel operations are allowed.
	OrderBookStateSuspended OrderBookState = 1
)

// String returns the lower-case name of the state.
func (s OrderBookState) String() string {
	switch s {
	case OrderBookStateRunning:
		return "running"
	case OrderBookStateSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Command is the standard carrier for commands entering the Matching Engine.
type Command struct {
	// Version is the protocol version for backward compatibility.
	Version uint8 `json:"version"`

	// MarketID is the target market for this command (Routing Header).
	MarketID string `json:"market_id"`

	// SeqID is used for global ordering and deduplication.
	SeqID uint64 `json:"seq_id"`

	// Type identifies the payload type for fast routing.
	Type CommandType `json:"type"`

	// Payload contains the serialized business data (e.g., JSON bytes of PlaceOrderCommand).
	// Decoding is deferred to the market that owns the book.
	Payload []byte `json:"payload"`

	// Metadata stores non-business context (e.g., request id).
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RequestID returns the request correlation id, or an empty string.
func (c *Command) RequestID() string {
	if c == nil || c.Metadata == nil {
		return ""
	}
	return c.Metadata[MetadataRequestID]
}

// PlaceOrderCommand is the payload for placing a new order.
// Price and Size are integer ticks and lots. OrderID 0 lets the book assign one.
type PlaceOrderCommand struct {
	OrderID   uint64    `json:"order_id"`
	Side      Side      `json:"side"`
	OrderType OrderType `json:"order_type"`
	Price     int64     `json:"price"`
	Size      int64     `json:"size"`
	Timestamp int64     `json:"timestamp"`
}

// CancelOrderCommand is the payload for cancelling an existing order.
type CancelOrderCommand struct {
	OrderID   uint64 `json:"order_id"`
	Timestamp int64  `json:"timestamp"`
}

// ModifyOrderCommand is the payload for modifying an existing order.
// NewPrice 0 keeps the current price.
type ModifyOrderCommand struct {
	OrderID   uint64 `json:"order_id"`
	NewPrice  int64  `json:"new_price,omitempty"`
	NewSize   int64  `json:"new_size"`
	Timestamp int64  `json:"timestamp"`
}

// CreateMarketCommand is the payload for creating a new market/order book.
type CreateMarketCommand struct {
	UserID   string `json:"user_id"`   // Operator ID for audit trail
	MarketID string `json:"market_id"` // Unique market identifier
	TickSize int64  `json:"tick_size"` // Price increment in ticks, 0 means 1
}

// SuspendMarketCommand is the payload for suspending a market.
type SuspendMarketCommand struct {
	UserID   string `json:"user_id"`
	MarketID string `json:"market_id"`
	Reason   string `json:"reason"`
}

// ResumeMarketCommand is the payload for resuming a suspended market.
type ResumeMarketCommand struct {
	UserID   string `json:"user_id"`
	MarketID string `json:"market_id"`
}
