package lob

import "time"

type bookOptions struct {
	tickSize  Price
	indexKind PriceIndexKind
	clock     func() time.Time
	publisher PublishLog
	capacity  int
}

func defaultBookOptions() bookOptions {
	return bookOptions{
		tickSize:  1,
		indexKind: SkiplistIndex,
		clock:     time.Now,
		capacity:  defaultCapacity,
	}
}

// Option configures an OrderBook.
type Option func(*bookOptions)

// WithTickSize sets the tick size in ticks. Limit prices must be a multiple of it.
// Values below 1 are ignored.
func WithTickSize(tick Price) Option {
	return func(o *bookOptions) {
		if tick > 0 {
			o.tickSize = tick
		}
	}
}

// WithPriceIndex selects the sorted structure of both sides.
func WithPriceIndex(kind PriceIndexKind) Option {
	return func(o *bookOptions) {
		o.indexKind = kind
	}
}

// WithClock replaces time.Now as the source of order and execution timestamps.
// Backtests pass the simulated clock here.
func WithClock(clock func() time.Time) Option {
	return func(o *bookOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithPublishLog sets the sink for book events. Without it no BookLog is produced.
func WithPublishLog(publisher PublishLog) Option {
	return func(o *bookOptions) {
		o.publisher = publisher
	}
}

// WithCapacity presizes the order arena and index.
func WithCapacity(n int) Option {
	return func(o *bookOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}
