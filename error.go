package lob

import (
	"errors"

	"github.com/0x5487/limit-order-book/protocol"
)

var (
	ErrDuplicateID     = errors.New("order id is already live in the book")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must be a positive multiple of the tick size")
	ErrInvalidParam    = errors.New("the param is invalid")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
	ErrShutdown        = errors.New("order book is shutting down")
	ErrMarketExists    = errors.New("market already exists")
	ErrMarketSuspended = errors.New("market is suspended")
	ErrInvalidSnapshot = errors.New("snapshot is invalid")
	ErrSequenceGap     = errors.New("book log sequence gap")
	ErrInvalidPayload  = errors.New("command payload cannot be decoded")
)

// rejectReason maps a book error to the reason carried by reject logs.
func rejectReason(err error) RejectReason {
	switch {
	case errors.Is(err, ErrDuplicateID):
		return protocol.RejectReasonDuplicateID
	case errors.Is(err, ErrInvalidQuantity):
		return protocol.RejectReasonInvalidQuantity
	case errors.Is(err, ErrInvalidPrice):
		return protocol.RejectReasonInvalidPrice
	case errors.Is(err, ErrNotFound):
		return protocol.RejectReasonOrderNotFound
	case errors.Is(err, ErrInvalidPayload):
		return protocol.RejectReasonInvalidPayload
	case errors.Is(err, ErrMarketSuspended):
		return protocol.RejectReasonMarketSuspended
	default:
		return protocol.RejectReasonInvalidParam
	}
}
