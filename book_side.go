package lob

// bookSide is one side of the book. Volume and order count are maintained
// incrementally so stats never walk the levels.
type bookSide struct {
	side          Side
	arena         *arena
	index         priceIndex
	totalQuantity Quantity
	orderCount    int
}

func newBookSide(side Side, a *arena, kind PriceIndexKind, capacity int) *bookSide {
	return &bookSide{
		side:  side,
		arena: a,
		index: newPriceIndex(kind, side, capacity),
	}
}

// getOrCreate returns the level at price, registering a new one if needed.
func (s *bookSide) getOrCreate(price Price) *priceLevel {
	if level := s.index.get(price); level != nil {
		return level
	}
	level := newPriceLevel(s.side, price)
	s.index.insert(level)
	return level
}

// removeIfEmpty drops the level from the index once it holds no orders.
func (s *bookSide) removeIfEmpty(level *priceLevel) {
	if level.empty() {
		s.index.remove(level.price)
	}
}

// insert rests h at the tail of its price level.
func (s *bookSide) insert(h handle) {
	node := s.arena.get(h)
	level := s.getOrCreate(node.Price)
	s.totalQuantity += node.RemainingQuantity
	s.orderCount++
	level.append(s.arena, h)
}

// remove unlinks h from its level and drops the level if it is now empty.
// The arena slot is not released.
func (s *bookSide) remove(h handle) {
	node := s.arena.get(h)
	level := s.index.get(node.Price)
	if level == nil {
		return
	}
	s.totalQuantity -= node.RemainingQuantity
	s.orderCount--
	level.remove(s.arena, h)
	s.removeIfEmpty(level)
}

// reduce lowers the remaining quantity of h without changing its queue position.
func (s *bookSide) reduce(h handle, newRemaining Quantity) {
	node := s.arena.get(h)
	level := s.index.get(node.Price)
	if level == nil {
		return
	}
	s.totalQuantity -= level.reduce(s.arena, h, newRemaining)
}

func (s *bookSide) best() *priceLevel {
	return s.index.best()
}

// bestPrice returns NoPrice when the side is empty.
func (s *bookSide) bestPrice() Price {
	level := s.index.best()
	if level == nil {
		return NoPrice
	}
	return level.price
}

// topN returns up to n levels in priority order. n <= 0 returns every level.
func (s *bookSide) topN(n int) []Level {
	size := s.index.len()
	if n > 0 && n < size {
		size = n
	}
	levels := make([]Level, 0, size)
	s.index.ascend(func(level *priceLevel) bool {
		levels = append(levels, Level{
			Price:      level.price,
			Quantity:   level.totalQuantity,
			OrderCount: level.count,
		})
		return len(levels) < size
	})
	return levels
}

func (s *bookSide) level(price Price) *priceLevel {
	return s.index.get(price)
}

func (s *bookSide) depthCount() int {
	return s.index.len()
}

func (s *bookSide) volume() Quantity {
	return s.totalQuantity
}

func (s *bookSide) orders() int {
	return s.orderCount
}

func (s *bookSide) empty() bool {
	return s.index.len() == 0
}

func (s *bookSide) reset() {
	s.index.reset()
	s.totalQuantity = 0
	s.orderCount = 0
}
