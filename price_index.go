package lob

import (
	"github.com/0x5487/limit-order-book/structure"
	"github.com/huandu/skiplist"
)

// PriceIndexKind selects the sorted structure behind each book side.
type PriceIndexKind uint8

const (
	// SkiplistIndex keeps levels in a huandu skiplist. This is the default.
	SkiplistIndex PriceIndexKind = iota
	// TreeIndex keeps levels in an arena-backed left-leaning red-black tree.
	TreeIndex
)

func (k PriceIndexKind) String() string {
	switch k {
	case SkiplistIndex:
		return "skiplist"
	case TreeIndex:
		return "tree"
	default:
		return "unknown"
	}
}

// ParsePriceIndexKind parses the names returned by String.
func ParsePriceIndexKind(s string) (PriceIndexKind, error) {
	switch s {
	case "", "skiplist":
		return SkiplistIndex, nil
	case "tree", "llrb":
		return TreeIndex, nil
	default:
		return SkiplistIndex, ErrInvalidParam
	}
}

// priceIndex keeps the non-empty levels of one side in priority order:
// descending price for bids, ascending for asks.
type priceIndex interface {
	insert(level *priceLevel)
	remove(price Price)
	get(price Price) *priceLevel
	// best returns the first level in priority order or nil.
	best() *priceLevel
	// ascend visits levels in priority order until fn returns false.
	ascend(fn func(level *priceLevel) bool)
	len() int
	reset()
}

func newPriceIndex(kind PriceIndexKind, side Side, capacity int) priceIndex {
	if kind == TreeIndex {
		return newTreeIndex(side, capacity)
	}
	return newSkiplistIndex(side)
}

type skiplistIndex struct {
	side   Side
	list   *skiplist.SkipList
	levels map[Price]*skiplist.Element
}

func newSkiplistIndex(side Side) *skiplistIndex {
	return &skiplistIndex{
		side:   side,
		list:   newLevelList(side),
		levels: make(map[Price]*skiplist.Element),
	}
}

// newLevelList orders bids from highest price and asks from lowest price.
func newLevelList(side Side) *skiplist.SkipList {
	if side == Buy {
		return skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			p1, _ := lhs.(Price)
			p2, _ := rhs.(Price)

			if p1 < p2 {
				return 1
			} else if p1 > p2 {
				return -1
			}

			return 0
		}))
	}

	return skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
		p1, _ := lhs.(Price)
		p2, _ := rhs.(Price)

		if p1 > p2 {
			return 1
		} else if p1 < p2 {
			return -1
		}

		return 0
	}))
}

func (s *skiplistIndex) insert(level *priceLevel) {
	s.levels[level.price] = s.list.Set(level.price, level)
}

func (s *skiplistIndex) remove(price Price) {
	el, ok := s.levels[price]
	if !ok {
		return
	}
	s.list.RemoveElement(el)
	delete(s.levels, price)
}

func (s *skiplistIndex) get(price Price) *priceLevel {
	el, ok := s.levels[price]
	if !ok {
		return nil
	}
	level, _ := el.Value.(*priceLevel)
	return level
}

func (s *skiplistIndex) best() *priceLevel {
	el := s.list.Front()
	if el == nil {
		return nil
	}
	level, _ := el.Value.(*priceLevel)
	return level
}

func (s *skiplistIndex) ascend(fn func(level *priceLevel) bool) {
	for el := s.list.Front(); el != nil; el = el.Next() {
		level, _ := el.Value.(*priceLevel)
		if !fn(level) {
			return
		}
	}
}

func (s *skiplistIndex) len() int {
	return len(s.levels)
}

func (s *skiplistIndex) reset() {
	s.list = newLevelList(s.side)
	clear(s.levels)
}

// treeIndex stores prices in a PriceTree. Bid prices are negated so the tree
// minimum is always the best level of either side.
type treeIndex struct {
	side   Side
	tree   *structure.PriceTree
	levels map[Price]*priceLevel
}

func newTreeIndex(side Side, capacity int) *treeIndex {
	return &treeIndex{
		side:   side,
		tree:   structure.NewPriceTree(int32(capacity)),
		levels: make(map[Price]*priceLevel, capacity),
	}
}

func (t *treeIndex) key(price Price) int64 {
	if t.side == Buy {
		return -int64(price)
	}
	return int64(price)
}

func (t *treeIndex) price(key int64) Price {
	if t.side == Buy {
		return Price(-key)
	}
	return Price(key)
}

func (t *treeIndex) insert(level *priceLevel) {
	t.tree.Insert(t.key(level.price))
	t.levels[level.price] = level
}

func (t *treeIndex) remove(price Price) {
	if _, ok := t.levels[price]; !ok {
		return
	}
	t.tree.Delete(t.key(price))
	delete(t.levels, price)
}

func (t *treeIndex) get(price Price) *priceLevel {
	return t.levels[price]
}

func (t *treeIndex) best() *priceLevel {
	key, ok := t.tree.Min()
	if !ok {
		return nil
	}
	return t.levels[t.price(key)]
}

func (t *treeIndex) ascend(fn func(level *priceLevel) bool) {
	t.tree.Ascend(func(key int64) bool {
		return fn(t.levels[t.price(key)])
	})
}

func (t *treeIndex) len() int {
	return len(t.levels)
}

func (t *treeIndex) reset() {
	t.tree.Reset()
	clear(t.levels)
}
