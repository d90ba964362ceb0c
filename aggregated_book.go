package lob

import (
	"fmt"
	"sync/atomic"

	"github.com/igrmk/treemap/v2"
)

// AggregatedBook maintains a simplified view of the order book,
// tracking only price levels and their aggregated sizes (depth).
// It rebuilds L2 state from the BookLog stream of one book, for example on the
// consumer side of a PublishLog.
type AggregatedBook struct {
	seqID atomic.Uint64 // Last processed SequenceID for gap detection and deduplication
	ask   *treemap.TreeMap[Price, Quantity]
	bid   *treemap.TreeMap[Price, Quantity]
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask and bid sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: treemap.NewWithKeyCompare[Price, Quantity](func(a, b Price) bool {
			return a < b
		}),
		bid: treemap.NewWithKeyCompare[Price, Quantity](func(a, b Price) bool {
			return a > b
		}),
	}
}

// SequenceID returns the last processed sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID.Load()
}

// Replay applies a BookLog event to update the aggregated book state.
// Logs at or below the last processed sequence are ignored. A log that skips a
// sequence returns ErrSequenceGap and is not applied: the caller should rebuild
// from a snapshot.
func (ab *AggregatedBook) Replay(log *BookLog) error {
	last := ab.seqID.Load()
	if log.SequenceID <= last {
		return nil
	}
	if log.SequenceID != last+1 {
		return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, last+1, log.SequenceID)
	}

	change := CalculateDepthChange(log)
	if change.SizeDiff != 0 {
		ab.apply(change)
	}
	ab.seqID.Store(log.SequenceID)
	return nil
}

func (ab *AggregatedBook) apply(change DepthChange) {
	tree := ab.tree(change.Side)
	if tree == nil {
		return
	}

	size, _ := tree.Get(change.Price)
	size += change.SizeDiff
	if size <= 0 {
		tree.Del(change.Price)
		return
	}
	tree.Set(change.Price, size)
}

// OnRebuild resets the aggregated book from a snapshot.
// This should be called before replaying the logs that follow the snapshot.
func (ab *AggregatedBook) OnRebuild(snap *BookSnapshot) error {
	if snap == nil {
		return ErrInvalidSnapshot
	}

	ab.ask.Clear()
	ab.bid.Clear()
	for _, o := range snap.Bids {
		size, _ := ab.bid.Get(o.Price)
		ab.bid.Set(o.Price, size+o.RemainingQuantity)
	}
	for _, o := range snap.Asks {
		size, _ := ab.ask.Get(o.Price)
		ab.ask.Set(o.Price, size+o.RemainingQuantity)
	}
	ab.seqID.Store(snap.SeqID)
	return nil
}

// Depth returns the aggregated size at a specific price level for the given side.
// Returns zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price Price) (Quantity, error) {
	tree := ab.tree(side)
	if tree == nil {
		return 0, ErrInvalidParam
	}
	size, _ := tree.Get(price)
	return size, nil
}

// Levels returns up to n levels of a side in priority order. n <= 0 returns all.
// OrderCount is not tracked by the aggregated view and is always zero.
func (ab *AggregatedBook) Levels(side Side, n int) []Level {
	tree := ab.tree(side)
	if tree == nil {
		return nil
	}

	levels := make([]Level, 0, tree.Len())
	for it := tree.Iterator(); it.Valid(); it.Next() {
		if n > 0 && len(levels) == n {
			break
		}
		levels = append(levels, Level{Price: it.Key(), Quantity: it.Value()})
	}
	return levels
}

func (ab *AggregatedBook) tree(side Side) *treemap.TreeMap[Price, Quantity] {
	switch side {
	case Buy:
		return ab.bid
	case Sell:
		return ab.ask
	default:
		return nil
	}
}
