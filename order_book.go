package lob

import (
	"math"
	"time"

	"github.com/0x5487/limit-order-book/protocol"
)

// OrderBook is a single-symbol limit order book with price-time priority matching.
// It is not safe for concurrent use; drive it from one goroutine or through a MarketActor.
type OrderBook struct {
	symbol    string
	tickSize  Price
	indexKind PriceIndexKind
	clock     func() time.Time
	publisher PublishLog

	arena  *arena
	bids   *bookSide
	asks   *bookSide
	orders map[OrderID]handle

	trades      []Execution
	nextOrderID OrderID
	arrivalSeq  uint64
	seqID       uint64 // BookLog sequence
	tradeID     uint64

	cacheValid bool
	bestBid    Price
	bestAsk    Price

	metrics Metrics
	pending []*BookLog
}

// NewOrderBook creates an empty book for symbol.
func NewOrderBook(symbol string, opts ...Option) *OrderBook {
	o := defaultBookOptions()
	for _, opt := range opts {
		opt(&o)
	}

	a := newArena(o.capacity)
	return &OrderBook{
		symbol:      symbol,
		tickSize:    o.tickSize,
		indexKind:   o.indexKind,
		clock:       o.clock,
		publisher:   o.publisher,
		arena:       a,
		bids:        newBookSide(Buy, a, o.indexKind, o.capacity),
		asks:        newBookSide(Sell, a, o.indexKind, o.capacity),
		orders:      make(map[OrderID]handle, o.capacity),
		trades:      make([]Execution, 0, o.capacity),
		nextOrderID: 1,
		pending:     make([]*BookLog, 0, 8),
	}
}

// AddOrder submits an order with an engine-assigned id.
// A limit order matches while it crosses and rests its remainder. A market order
// matches until filled or until the opposite side is empty; its remainder is discarded.
func (ob *OrderBook) AddOrder(side Side, price Price, quantity Quantity, typ OrderType) (OrderID, error) {
	start := time.Now()
	defer ob.observe(start)

	id, err := ob.submit(ob.nextOrderID, side, price, quantity, typ, ob.now())
	ob.flush()
	return id, err
}

// AddOrderWithID submits an order with a caller-assigned id. The id must be
// between 1 and math.MaxUint64-1 and must not belong to a live order.
func (ob *OrderBook) AddOrderWithID(id OrderID, side Side, price Price, quantity Quantity, typ OrderType) (OrderID, error) {
	start := time.Now()
	defer ob.observe(start)

	id, err := ob.submit(id, side, price, quantity, typ, ob.now())
	ob.flush()
	return id, err
}

// ProcessMarketOrder submits a market order and returns the fills it generated.
func (ob *OrderBook) ProcessMarketOrder(side Side, quantity Quantity) ([]Execution, error) {
	start := time.Now()
	defer ob.observe(start)

	first := len(ob.trades)
	_, err := ob.submit(ob.nextOrderID, side, NoPrice, quantity, Market, ob.now())
	ob.flush()
	if err != nil {
		return nil, err
	}

	fills := make([]Execution, len(ob.trades)-first)
	copy(fills, ob.trades[first:])
	return fills, nil
}

// CancelOrder removes a resting order. Unknown ids return ErrNotFound and change nothing.
func (ob *OrderBook) CancelOrder(id OrderID) error {
	start := time.Now()
	defer ob.observe(start)

	ts := ob.now()
	h, ok := ob.orders[id]
	if !ok {
		ob.reject(id, 0, ErrNotFound, ts)
		ob.flush()
		return ErrNotFound
	}

	order := ob.unlink(h)
	order.Status = StatusCancelled
	ob.metrics.OrdersCancelled++
	if ob.publisher != nil {
		ob.pending = append(ob.pending, NewCancelLog(ob.nextSeqID(), ob.symbol, &order, ts))
	}
	ob.flush()
	return nil
}

// ModifyOrder changes the quantity of a resting order at its current price.
func (ob *OrderBook) ModifyOrder(id OrderID, newQuantity Quantity) error {
	return ob.AmendOrder(id, NoPrice, newQuantity)
}

// AmendOrder changes the price and quantity of a resting order. NoPrice keeps the current price.
//
// A decrease at the same price keeps the queue position. An increase, even at the
// same price, or any price change re-enters the order with a fresh arrival sequence,
// so it loses time priority and matches again if it now crosses.
func (ob *OrderBook) AmendOrder(id OrderID, newPrice Price, newQuantity Quantity) error {
	start := time.Now()
	defer ob.observe(start)

	ts := ob.now()
	err := ob.amend(id, newPrice, newQuantity, ts)
	ob.flush()
	return err
}

func (ob *OrderBook) amend(id OrderID, newPrice Price, newQuantity Quantity, ts int64) error {
	h, ok := ob.orders[id]
	if !ok {
		ob.reject(id, 0, ErrNotFound, ts)
		return ErrNotFound
	}

	node := ob.arena.get(h)
	side := node.Side
	if newQuantity <= 0 {
		ob.reject(id, side, ErrInvalidQuantity, ts)
		return ErrInvalidQuantity
	}
	if newPrice == NoPrice {
		newPrice = node.Price
	} else if !ob.validPrice(newPrice) {
		ob.reject(id, side, ErrInvalidPrice, ts)
		return ErrInvalidPrice
	}

	oldPrice := node.Price
	oldSize := node.RemainingQuantity
	if newPrice == oldPrice && newQuantity == oldSize {
		return nil
	}

	ob.metrics.OrdersModified++
	ob.cacheValid = false

	if newPrice == oldPrice && newQuantity < oldSize {
		ob.sideOf(side).reduce(h, newQuantity)
		node.Quantity = node.FilledQuantity + newQuantity
		if ob.publisher != nil {
			ob.pending = append(ob.pending, NewAmendLog(ob.nextSeqID(), ob.symbol, &node.Order, oldPrice, oldSize, ts))
		}
		return nil
	}

	order := ob.unlink(h)
	order.Price = newPrice
	order.Quantity = order.FilledQuantity + newQuantity
	order.RemainingQuantity = newQuantity
	order.Timestamp = ts
	ob.arrivalSeq++
	order.Sequence = ob.arrivalSeq

	if ob.publisher != nil {
		ob.pending = append(ob.pending, NewAmendLog(ob.nextSeqID(), ob.symbol, &order, oldPrice, oldSize, ts))
	}

	ob.match(&order)
	ob.rest(&order)
	return nil
}

// submit validates and executes one order. Rejections leave the book untouched.
func (ob *OrderBook) submit(id OrderID, side Side, price Price, quantity Quantity, typ OrderType, ts int64) (OrderID, error) {
	if err := ob.validate(id, side, price, quantity, typ); err != nil {
		ob.reject(id, side, err, ts)
		return 0, err
	}

	if id >= ob.nextOrderID {
		ob.nextOrderID = id + 1
	}
	if typ == Market {
		price = NoPrice
	}

	ob.arrivalSeq++
	order := Order{
		ID:                id,
		Side:              side,
		Type:              typ,
		Price:             price,
		Quantity:          quantity,
		RemainingQuantity: quantity,
		Sequence:          ob.arrivalSeq,
		Status:            StatusNew,
		Timestamp:         ts,
	}
	ob.metrics.OrdersAdded++

	ob.match(&order)

	if typ == Market {
		if order.RemainingQuantity > 0 && ob.publisher != nil {
			ob.pending = append(ob.pending, NewRejectLog(ob.nextSeqID(), ob.symbol, id, side, protocol.RejectReasonNoLiquidity, ts))
		}
		return id, nil
	}

	ob.rest(&order)
	return id, nil
}

func (ob *OrderBook) validate(id OrderID, side Side, price Price, quantity Quantity, typ OrderType) error {
	if !validID(id) {
		return ErrInvalidParam
	}
	if side != Buy && side != Sell {
		return ErrInvalidParam
	}
	if typ != Limit && typ != Market {
		return ErrInvalidParam
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if typ == Limit && !ob.validPrice(price) {
		return ErrInvalidPrice
	}
	if _, ok := ob.orders[id]; ok {
		return ErrDuplicateID
	}
	return nil
}

// validID excludes 0 and the largest id, so nextOrderID never wraps.
func validID(id OrderID) bool {
	return id != 0 && id != math.MaxUint64
}

func (ob *OrderBook) validPrice(price Price) bool {
	return price > 0 && price%ob.tickSize == 0
}

// match consumes opposite liquidity for taker, best level first and oldest order first.
// Every fill executes at the resting order's price.
func (ob *OrderBook) match(taker *Order) {
	opposite := ob.sideOf(taker.Side.Opposite())

	for taker.RemainingQuantity > 0 {
		level := opposite.best()
		if level == nil {
			break
		}
		if taker.Type == Limit && !crosses(taker.Side, taker.Price, level.price) {
			break
		}

		h := level.front()
		maker := ob.arena.get(h)
		fill := min(taker.RemainingQuantity, maker.RemainingQuantity)

		ob.tradeID++
		exec := Execution{
			TradeID:          ob.tradeID,
			AggressorOrderID: taker.ID,
			RestingOrderID:   maker.ID,
			AggressorSide:    taker.Side,
			Price:            level.price,
			Quantity:         fill,
			Timestamp:        taker.Timestamp,
		}
		ob.trades = append(ob.trades, exec)
		ob.metrics.OrdersMatched++
		ob.metrics.TotalVolume += uint64(fill)
		if ob.publisher != nil {
			ob.pending = append(ob.pending, NewMatchLog(ob.nextSeqID(), ob.symbol, &exec, taker.Type))
		}

		taker.RemainingQuantity -= fill
		taker.FilledQuantity += fill
		maker.FilledQuantity += fill

		if fill == maker.RemainingQuantity {
			// the full remaining quantity leaves the level together with the order
			makerID := maker.ID
			opposite.remove(h)
			delete(ob.orders, makerID)
			ob.arena.release(h)
		} else {
			maker.Status = StatusPartiallyFilled
			opposite.reduce(h, maker.RemainingQuantity-fill)
		}
		ob.cacheValid = false
	}

	switch {
	case taker.RemainingQuantity == 0:
		taker.Status = StatusFilled
	case taker.FilledQuantity > 0:
		taker.Status = StatusPartiallyFilled
	}
}

// rest inserts the unfilled remainder of a limit order into its own side.
func (ob *OrderBook) rest(order *Order) {
	if order.RemainingQuantity <= 0 {
		return
	}

	h := ob.arena.alloc(*order)
	ob.sideOf(order.Side).insert(h)
	ob.orders[order.ID] = h
	ob.cacheValid = false

	if ob.publisher != nil {
		ob.pending = append(ob.pending, NewOpenLog(ob.nextSeqID(), ob.symbol, order))
	}
}

// unlink removes h from its side, the index, and the arena, returning a copy of the order.
func (ob *OrderBook) unlink(h handle) Order {
	node := ob.arena.get(h)
	order := node.Order
	ob.sideOf(order.Side).remove(h)
	delete(ob.orders, order.ID)
	ob.arena.release(h)
	ob.cacheValid = false
	return order
}

func (ob *OrderBook) reject(id OrderID, side Side, err error, ts int64) {
	ob.metrics.OrdersRejected++
	if ob.publisher != nil {
		ob.pending = append(ob.pending, NewRejectLog(ob.nextSeqID(), ob.symbol, id, side, rejectReason(err), ts))
	}
}

// RejectOrder records a rejection decided outside the book, such as a command
// refused by a suspended market. Book state is not touched.
func (ob *OrderBook) RejectOrder(id OrderID, side Side, err error) {
	ob.reject(id, side, err, ob.now())
	ob.flush()
}

// flush publishes the logs of the current call and recycles them.
func (ob *OrderBook) flush() {
	if len(ob.pending) == 0 {
		return
	}
	ob.publisher.Publish(ob.pending...)
	for i, log := range ob.pending {
		releaseBookLog(log)
		ob.pending[i] = nil
	}
	ob.pending = ob.pending[:0]
}

func (ob *OrderBook) observe(start time.Time) {
	ob.metrics.TotalLatency += time.Since(start)
}

func (ob *OrderBook) nextSeqID() uint64 {
	ob.seqID++
	return ob.seqID
}

func (ob *OrderBook) now() int64 {
	return ob.clock().UnixNano()
}

func (ob *OrderBook) sideOf(side Side) *bookSide {
	if side == Buy {
		return ob.bids
	}
	return ob.asks
}

// crosses reports whether an order at price can trade against the best opposite price.
func crosses(side Side, price, best Price) bool {
	if side == Buy {
		return price >= best
	}
	return price <= best
}
