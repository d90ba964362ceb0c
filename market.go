package lob

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/0x5487/limit-order-book/protocol"
)

// MarketStats is the read model returned by MarketActor.Stats.
type MarketStats struct {
	Symbol        string                  `json:"symbol"`
	State         protocol.OrderBookState `json:"state"`
	LastCmdSeqID  uint64                  `json:"last_cmd_seq_id"`
	PendingEvents int64                   `json:"pending_events"`
	Book          BookStats               `json:"book"`
	Metrics       Metrics                 `json:"metrics"`
}

type depthQuery struct{ limit uint32 }

type statsQuery struct{}

type snapshotQuery struct{}

type restoreQuery struct{ snap *BookSnapshot }

// MarketActor owns the OrderBook of one symbol. Its consumer goroutine is the only
// code that touches the book; commands and queries reach it through a ring buffer.
type MarketActor struct {
	symbol       string
	book         *OrderBook
	ring         *RingBuffer[InputEvent]
	serializer   protocol.Serializer
	lastCmdSeqID atomic.Uint64
	state        atomic.Uint32
	isShutdown   atomic.Bool

	// eventTime is the timestamp of the command being processed, 0 for wall clock
	eventTime int64
	clock     func() time.Time
}

// NewMarketActor creates a market actor. Call Start before enqueueing.
// Command timestamps, when set, drive the book clock; otherwise the clock option is used.
func NewMarketActor(symbol string, opts ...Option) *MarketActor {
	o := defaultBookOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m := &MarketActor{
		symbol:     symbol,
		serializer: protocol.DefaultJSONSerializer{},
		clock:      o.clock,
	}
	m.book = NewOrderBook(symbol, append(slices.Clone(opts), WithClock(m.now))...)
	m.ring = NewRingBuffer[InputEvent](defaultRingCapacity, m)
	return m
}

func (m *MarketActor) now() time.Time {
	if m.eventTime != 0 {
		return time.Unix(0, m.eventTime)
	}
	return m.clock()
}

// Start launches the consumer goroutine.
func (m *MarketActor) Start() {
	m.ring.Start()
}

func (m *MarketActor) Symbol() string {
	return m.symbol
}

func (m *MarketActor) State() protocol.OrderBookState {
	return protocol.OrderBookState(m.state.Load())
}

// LastCmdSeqID returns the last command sequence id applied by the market.
func (m *MarketActor) LastCmdSeqID() uint64 {
	return m.lastCmdSeqID.Load()
}

// EnqueueCommand hands cmd to the consumer goroutine. It does not wait for the result;
// the outcome is visible through the PublishLog and the query methods.
func (m *MarketActor) EnqueueCommand(cmd *protocol.Command) error {
	if m.isShutdown.Load() {
		return ErrShutdown
	}
	if !m.ring.Publish(InputEvent{Cmd: cmd}) {
		return ErrShutdown
	}
	return nil
}

// Depth returns up to limit levels per side.
func (m *MarketActor) Depth(ctx context.Context, limit uint32) (*protocol.GetDepthResponse, error) {
	resp, err := m.query(ctx, depthQuery{limit: limit})
	if err != nil {
		return nil, err
	}
	depth, _ := resp.(*protocol.GetDepthResponse)
	return depth, nil
}

// Stats returns the book summary, counters, and market state.
func (m *MarketActor) Stats(ctx context.Context) (*MarketStats, error) {
	resp, err := m.query(ctx, statsQuery{})
	if err != nil {
		return nil, err
	}
	stats, _ := resp.(*MarketStats)
	return stats, nil
}

// Snapshot returns a copy of the book taken between two commands.
func (m *MarketActor) Snapshot(ctx context.Context) (*BookSnapshot, error) {
	resp, err := m.query(ctx, snapshotQuery{})
	if err != nil {
		return nil, err
	}
	snap, _ := resp.(*BookSnapshot)
	return snap, nil
}

// Restore rewinds the book to snap.
func (m *MarketActor) Restore(ctx context.Context, snap *BookSnapshot) error {
	resp, err := m.query(ctx, restoreQuery{snap: snap})
	if err != nil {
		return err
	}
	if err, ok := resp.(error); ok {
		return err
	}
	return nil
}

func (m *MarketActor) query(ctx context.Context, q any) (any, error) {
	if m.isShutdown.Load() {
		return nil, ErrShutdown
	}
	if ctx.Err() != nil {
		return nil, ErrTimeout
	}

	resp := make(chan any, 1)
	if !m.ring.Publish(InputEvent{Query: q, Resp: resp}) {
		return nil, ErrShutdown
	}

	select {
	case r := <-resp:
		return r, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	case <-m.ring.Done():
		// the consumer may have answered right before returning
		select {
		case r := <-resp:
			return r, nil
		default:
			return nil, ErrShutdown
		}
	}
}

// Shutdown stops accepting events and waits until the queued ones are processed.
func (m *MarketActor) Shutdown(ctx context.Context) error {
	m.isShutdown.Store(true)
	if err := m.ring.Shutdown(ctx); err != nil {
		return fmt.Errorf("market %s: %w", m.symbol, err)
	}
	return nil
}

// OnEvent runs on the consumer goroutine.
func (m *MarketActor) OnEvent(ev *InputEvent) {
	if ev.Query != nil {
		m.handleQuery(ev.Query, ev.Resp)
	} else if ev.Cmd != nil {
		m.handleCommand(ev.Cmd)
	}
	// drop references held by the slot
	*ev = InputEvent{}
}

func (m *MarketActor) handleQuery(q any, resp chan any) {
	var result any
	switch q := q.(type) {
	case depthQuery:
		result = m.book.Depth(q.limit)
	case statsQuery:
		result = &MarketStats{
			Symbol:        m.symbol,
			State:         m.State(),
			LastCmdSeqID:  m.lastCmdSeqID.Load(),
			PendingEvents: m.ring.GetPendingEvents(),
			Book:          m.book.Stats(),
			Metrics:       m.book.Metrics(),
		}
	case snapshotQuery:
		result = m.book.Snapshot()
	case restoreQuery:
		if err := m.book.Restore(q.snap); err != nil {
			result = err
		}
	}

	if resp != nil {
		resp <- result
	}
}

func (m *MarketActor) handleCommand(cmd *protocol.Command) {
	if cmd.SeqID > 0 {
		if cmd.SeqID <= m.lastCmdSeqID.Load() {
			logger.Debug("duplicate command ignored", "market_id", m.symbol, "seq_id", cmd.SeqID, "request_id", cmd.RequestID())
			return
		}
		m.lastCmdSeqID.Store(cmd.SeqID)
	}

	switch cmd.Type {
	case protocol.CmdPlaceOrder:
		m.handlePlaceOrder(cmd)
	case protocol.CmdCancelOrder:
		m.handleCancelOrder(cmd)
	case protocol.CmdModifyOrder:
		m.handleModifyOrder(cmd)
	case protocol.CmdSuspendMarket:
		m.state.Store(uint32(protocol.OrderBookStateSuspended))
		logger.Info("market suspended", "market_id", m.symbol)
	case protocol.CmdResumeMarket:
		m.state.Store(uint32(protocol.OrderBookStateRunning))
		logger.Info("market resumed", "market_id", m.symbol)
	default:
		logger.Warn("unknown command type", "market_id", m.symbol, "type", cmd.Type, "request_id", cmd.RequestID())
	}
}

func (m *MarketActor) handlePlaceOrder(cmd *protocol.Command) {
	payload := &protocol.PlaceOrderCommand{}
	if err := m.serializer.Unmarshal(cmd.Payload, payload); err != nil {
		logger.Error("failed to unmarshal PlaceOrder command", "market_id", m.symbol, "error", err, "request_id", cmd.RequestID())
		m.book.RejectOrder(0, 0, ErrInvalidPayload)
		return
	}

	id := OrderID(payload.OrderID)
	if m.State() == protocol.OrderBookStateSuspended {
		m.book.RejectOrder(id, payload.Side, ErrMarketSuspended)
		return
	}

	m.eventTime = payload.Timestamp
	defer func() { m.eventTime = 0 }()

	var err error
	if id == 0 {
		_, err = m.book.AddOrder(payload.Side, Price(payload.Price), Quantity(payload.Size), payload.OrderType)
	} else {
		_, err = m.book.AddOrderWithID(id, payload.Side, Price(payload.Price), Quantity(payload.Size), payload.OrderType)
	}
	if err != nil {
		logger.Debug("order rejected", "market_id", m.symbol, "order_id", payload.OrderID, "error", err, "request_id", cmd.RequestID())
	}
}

func (m *MarketActor) handleCancelOrder(cmd *protocol.Command) {
	payload := &protocol.CancelOrderCommand{}
	if err := m.serializer.Unmarshal(cmd.Payload, payload); err != nil {
		logger.Error("failed to unmarshal CancelOrder command", "market_id", m.symbol, "error", err, "request_id", cmd.RequestID())
		m.book.RejectOrder(0, 0, ErrInvalidPayload)
		return
	}

	m.eventTime = payload.Timestamp
	defer func() { m.eventTime = 0 }()

	if err := m.book.CancelOrder(OrderID(payload.OrderID)); err != nil {
		logger.Debug("cancel rejected", "market_id", m.symbol, "order_id", payload.OrderID, "error", err, "request_id", cmd.RequestID())
	}
}

func (m *MarketActor) handleModifyOrder(cmd *protocol.Command) {
	payload := &protocol.ModifyOrderCommand{}
	if err := m.serializer.Unmarshal(cmd.Payload, payload); err != nil {
		logger.Error("failed to unmarshal ModifyOrder command", "market_id", m.symbol, "error", err, "request_id", cmd.RequestID())
		m.book.RejectOrder(0, 0, ErrInvalidPayload)
		return
	}

	id := OrderID(payload.OrderID)
	if m.State() == protocol.OrderBookStateSuspended {
		m.book.RejectOrder(id, 0, ErrMarketSuspended)
		return
	}

	m.eventTime = payload.Timestamp
	defer func() { m.eventTime = 0 }()

	if err := m.book.AmendOrder(id, Price(payload.NewPrice), Quantity(payload.NewSize)); err != nil {
		logger.Debug("modify rejected", "market_id", m.symbol, "order_id", payload.OrderID, "error", err, "request_id", cmd.RequestID())
	}
}
