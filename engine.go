package lob

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/0x5487/limit-order-book/protocol"
	"github.com/rs/xid"
)

// MatchingEngine manages one MarketActor per symbol.
type MatchingEngine struct {
	isShutdown  atomic.Bool
	markets     sync.Map
	mu          sync.Mutex // serializes market creation
	publishLog  PublishLog
	serializer  protocol.Serializer
	defaultOpts []Option
}

// NewMatchingEngine creates a new matching engine instance. Every market
// publishes to publishLog; opts are applied to each new book.
func NewMatchingEngine(publishLog PublishLog, opts ...Option) *MatchingEngine {
	return &MatchingEngine{
		publishLog:  publishLog,
		serializer:  protocol.DefaultJSONSerializer{},
		defaultOpts: opts,
	}
}

// EnqueueCommand routes the command to the correct MarketActor based on the MarketID.
func (engine *MatchingEngine) EnqueueCommand(cmd *protocol.Command) error {
	if engine.isShutdown.Load() {
		return ErrShutdown
	}
	if cmd == nil {
		return ErrInvalidParam
	}

	if cmd.Type == protocol.CmdCreateMarket {
		return engine.handleCreateMarket(cmd)
	}

	if len(cmd.MarketID) == 0 {
		return ErrNotFound
	}

	market := engine.Market(cmd.MarketID)
	if market == nil {
		return ErrNotFound
	}

	return market.EnqueueCommand(cmd)
}

// PlaceOrder submits an order to the market of symbol.
// Returns ErrShutdown if the engine is shutting down or ErrNotFound if market doesn't exist.
func (engine *MatchingEngine) PlaceOrder(ctx context.Context, symbol string, cmd *protocol.PlaceOrderCommand) error {
	return engine.send(ctx, symbol, protocol.CmdPlaceOrder, cmd)
}

// CancelOrder cancels an order in the market of symbol.
func (engine *MatchingEngine) CancelOrder(ctx context.Context, symbol string, cmd *protocol.CancelOrderCommand) error {
	return engine.send(ctx, symbol, protocol.CmdCancelOrder, cmd)
}

// ModifyOrder changes the price or size of an order in the market of symbol.
func (engine *MatchingEngine) ModifyOrder(ctx context.Context, symbol string, cmd *protocol.ModifyOrderCommand) error {
	return engine.send(ctx, symbol, protocol.CmdModifyOrder, cmd)
}

func (engine *MatchingEngine) send(ctx context.Context, symbol string, typ protocol.CommandType, payload any) error {
	if err := ctx.Err(); err != nil {
		return ErrTimeout
	}

	bytes, err := engine.serializer.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	return engine.EnqueueCommand(&protocol.Command{
		MarketID: symbol,
		Type:     typ,
		Payload:  bytes,
		Metadata: map[string]string{protocol.MetadataRequestID: xid.New().String()},
	})
}

// CreateMarket creates and starts the market of symbol.
// tickSize 0 uses the engine default.
func (engine *MatchingEngine) CreateMarket(userID string, symbol string, tickSize Price) error {
	cmd := &protocol.CreateMarketCommand{
		UserID:   userID,
		MarketID: symbol,
		TickSize: int64(tickSize),
	}
	bytes, err := engine.serializer.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return engine.EnqueueCommand(&protocol.Command{
		Type:     protocol.CmdCreateMarket,
		MarketID: symbol,
		Payload:  bytes,
	})
}

// SuspendMarket sends a command to suspend a market. A suspended market only accepts cancels.
func (engine *MatchingEngine) SuspendMarket(userID string, symbol string) error {
	return engine.lifecycle(protocol.CmdSuspendMarket, symbol, &protocol.SuspendMarketCommand{
		UserID:   userID,
		MarketID: symbol,
		Reason:   string(protocol.RejectReasonMarketSuspended),
	})
}

// ResumeMarket sends a command to resume a market.
func (engine *MatchingEngine) ResumeMarket(userID string, symbol string) error {
	return engine.lifecycle(protocol.CmdResumeMarket, symbol, &protocol.ResumeMarketCommand{
		UserID:   userID,
		MarketID: symbol,
	})
}

func (engine *MatchingEngine) lifecycle(typ protocol.CommandType, symbol string, payload any) error {
	bytes, err := engine.serializer.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	return engine.EnqueueCommand(&protocol.Command{
		Type:     typ,
		MarketID: symbol,
		Payload:  bytes,
	})
}

// Market retrieves the market of symbol.
// Returns nil if the market does not exist.
func (engine *MatchingEngine) Market(symbol string) *MarketActor {
	m, found := engine.markets.Load(symbol)
	if !found {
		return nil
	}

	market, _ := m.(*MarketActor)
	return market
}

// Markets returns the symbols of every market, sorted.
func (engine *MatchingEngine) Markets() []string {
	var symbols []string
	engine.markets.Range(func(key, _ any) bool {
		symbols = append(symbols, key.(string))
		return true
	})
	slices.Sort(symbols)
	return symbols
}

// Shutdown gracefully shuts down all markets in the engine.
// It blocks until all markets have drained or the context is cancelled.
// Returns nil if all markets shut down successfully, or an aggregated error otherwise.
func (engine *MatchingEngine) Shutdown(ctx context.Context) error {
	engine.isShutdown.Store(true)

	var wg sync.WaitGroup
	var errs []error
	var errMu sync.Mutex

	engine.markets.Range(func(_, value any) bool {
		wg.Add(1)
		go func(market *MarketActor) {
			defer wg.Done()
			if err := market.Shutdown(ctx); err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}(value.(*MarketActor))
		return true
	})

	wg.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("matching engine stopped")
	return nil
}

// handleCreateMarket handles the creation of a new market.
func (engine *MatchingEngine) handleCreateMarket(cmd *protocol.Command) error {
	payload := &protocol.CreateMarketCommand{}
	if err := engine.serializer.Unmarshal(cmd.Payload, payload); err != nil {
		logger.Error("failed to unmarshal CreateMarket command", "error", err)
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if payload.MarketID == "" || payload.TickSize < 0 {
		return ErrInvalidParam
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if _, exists := engine.markets.Load(payload.MarketID); exists {
		logger.Warn("market already exists", "market_id", payload.MarketID)
		return ErrMarketExists
	}

	opts := slices.Clone(engine.defaultOpts)
	if engine.publishLog != nil {
		opts = append(opts, WithPublishLog(engine.publishLog))
	}
	if payload.TickSize > 0 {
		opts = append(opts, WithTickSize(Price(payload.TickSize)))
	}

	market := NewMarketActor(payload.MarketID, opts...)
	market.Start()
	engine.markets.Store(payload.MarketID, market)
	logger.Info("market created", "market_id", payload.MarketID, "user_id", payload.UserID, "tick_size", payload.TickSize)
	return nil
}
