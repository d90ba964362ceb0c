package lob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var indexKinds = []PriceIndexKind{SkiplistIndex, TreeIndex}

func restOrder(s *bookSide, id OrderID, price Price, qty Quantity) handle {
	h := s.arena.alloc(Order{ID: id, Side: s.side, Type: Limit, Price: price, Quantity: qty, RemainingQuantity: qty})
	s.insert(h)
	return h
}

func TestArena(t *testing.T) {
	a := newArena(2)

	h1 := a.alloc(Order{ID: 1})
	h2 := a.alloc(Order{ID: 2})
	h3 := a.alloc(Order{ID: 3})
	assert.Equal(t, 3, a.len())
	assert.Equal(t, OrderID(2), a.get(h2).ID)

	a.release(h2)
	a.release(h2)
	assert.Equal(t, 2, a.len())

	// freed slot is reused
	h4 := a.alloc(Order{ID: 4})
	assert.Equal(t, h2, h4)
	assert.Equal(t, OrderID(4), a.get(h4).ID)
	assert.Equal(t, nilHandle, a.get(h4).prev)
	assert.Equal(t, OrderID(1), a.get(h1).ID)
	assert.Equal(t, OrderID(3), a.get(h3).ID)

	a.reset()
	assert.Equal(t, 0, a.len())
}

func TestPriceLevel(t *testing.T) {
	a := newArena(8)
	level := newPriceLevel(Buy, 100)

	h1 := a.alloc(Order{ID: 1, RemainingQuantity: 10})
	h2 := a.alloc(Order{ID: 2, RemainingQuantity: 20})
	h3 := a.alloc(Order{ID: 3, RemainingQuantity: 30})
	level.append(a, h1)
	level.append(a, h2)
	level.append(a, h3)

	assert.Equal(t, Quantity(60), level.totalQuantity)
	assert.Equal(t, 3, level.count)
	assert.Equal(t, h1, level.front())

	t.Run("reduce keeps position", func(t *testing.T) {
		removed := level.reduce(a, h1, 4)
		assert.Equal(t, Quantity(6), removed)
		assert.Equal(t, Quantity(54), level.totalQuantity)
		assert.Equal(t, h1, level.front())
	})

	t.Run("remove middle", func(t *testing.T) {
		level.remove(a, h2)
		assert.Equal(t, Quantity(34), level.totalQuantity)
		assert.Equal(t, 2, level.count)

		var ids []OrderID
		level.each(a, func(_ handle, node *orderNode) bool {
			ids = append(ids, node.ID)
			return true
		})
		assert.Equal(t, []OrderID{1, 3}, ids)
	})

	t.Run("remove head and tail", func(t *testing.T) {
		level.remove(a, h1)
		assert.Equal(t, h3, level.front())
		level.remove(a, h3)
		assert.True(t, level.empty())
		assert.Equal(t, nilHandle, level.front())
		assert.Equal(t, nilHandle, level.tail)
		assert.Equal(t, Quantity(0), level.totalQuantity)
	})
}

func TestBookSide_Bids(t *testing.T) {
	for _, kind := range indexKinds {
		t.Run(kind.String(), func(t *testing.T) {
			s := newBookSide(Buy, newArena(8), kind, 8)
			assert.Equal(t, NoPrice, s.bestPrice())

			restOrder(s, 101, 10, 5)
			h201 := restOrder(s, 201, 20, 10)
			restOrder(s, 301, 30, 10)
			restOrder(s, 202, 20, 100)

			assert.Equal(t, 4, s.orders())
			assert.Equal(t, 3, s.depthCount())
			assert.Equal(t, Quantity(125), s.volume())
			assert.Equal(t, Price(30), s.bestPrice())

			assert.Equal(t, []Level{
				{Price: 30, Quantity: 10, OrderCount: 1},
				{Price: 20, Quantity: 110, OrderCount: 2},
			}, s.topN(2))
			assert.Len(t, s.topN(0), 3)
			assert.Len(t, s.topN(10), 3)

			s.reduce(h201, 1)
			assert.Equal(t, Quantity(101), s.level(20).totalQuantity)
			assert.Equal(t, Quantity(116), s.volume())

			s.remove(h201)
			assert.Equal(t, 1, s.level(20).count)
			assert.Equal(t, Quantity(115), s.volume())
		})
	}
}

func TestBookSide_Asks(t *testing.T) {
	for _, kind := range indexKinds {
		t.Run(kind.String(), func(t *testing.T) {
			s := newBookSide(Sell, newArena(8), kind, 8)

			h1 := restOrder(s, 1, 105, 30)
			restOrder(s, 2, 106, 40)
			restOrder(s, 3, 110, 1)
			assert.Equal(t, Price(105), s.bestPrice())

			levels := s.topN(0)
			require.Len(t, levels, 3)
			assert.Equal(t, []Price{105, 106, 110}, []Price{levels[0].Price, levels[1].Price, levels[2].Price})

			// removing the only order drops the level
			s.remove(h1)
			assert.Nil(t, s.level(105))
			assert.Equal(t, 2, s.depthCount())
			assert.Equal(t, Price(106), s.bestPrice())

			s.reset()
			assert.True(t, s.empty())
			assert.Equal(t, 0, s.orders())
			assert.Equal(t, Quantity(0), s.volume())
			assert.Equal(t, NoPrice, s.bestPrice())
		})
	}
}

func TestParsePriceIndexKind(t *testing.T) {
	kind, err := ParsePriceIndexKind("tree")
	require.NoError(t, err)
	assert.Equal(t, TreeIndex, kind)

	kind, err = ParsePriceIndexKind("")
	require.NoError(t, err)
	assert.Equal(t, SkiplistIndex, kind)

	_, err = ParsePriceIndexKind("btree")
	assert.ErrorIs(t, err, ErrInvalidParam)
}
