package main

import (
	"math/rand"

	"github.com/0x5487/limit-order-book/protocol"
)

type OpKind uint8

const (
	OpLimit OpKind = iota
	OpMarket
	OpCancel
	OpModify
)

func (k OpKind) String() string {
	switch k {
	case OpLimit:
		return "limit"
	case OpMarket:
		return "market"
	case OpCancel:
		return "cancel"
	case OpModify:
		return "modify"
	default:
		return "unknown"
	}
}

// Op is one generated request. Prices are in ticks.
type Op struct {
	Kind    OpKind
	OrderID uint64
	Side    protocol.Side
	Price   int64
	Size    int64
}

// FlowGenerator produces a reproducible order flow around a random-walk mid price.
// It does not observe fills, so cancels and modifies may target orders that are
// already gone; the book rejects those like any late request.
type FlowGenerator struct {
	rng    *rand.Rand
	cfg    *Config
	mid    int64
	nextID uint64
	live   []uint64
}

const maxTracked = 4096

func NewFlowGenerator(cfg *Config) *FlowGenerator {
	return &FlowGenerator{
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		cfg:    cfg,
		mid:    cfg.startTicks,
		nextID: 1,
	}
}

// Mid returns the current reference price in ticks.
func (g *FlowGenerator) Mid() int64 {
	return g.mid
}

func (g *FlowGenerator) Next() Op {
	g.drift()

	r := g.rng.Float64()
	switch {
	case r < g.cfg.CancelRatio && len(g.live) > 0:
		i := g.rng.Intn(len(g.live))
		id := g.live[i]
		g.live[i] = g.live[len(g.live)-1]
		g.live = g.live[:len(g.live)-1]
		return Op{Kind: OpCancel, OrderID: id}
	case r < g.cfg.CancelRatio+g.cfg.ModifyRatio && len(g.live) > 0:
		op := Op{Kind: OpModify, OrderID: g.live[g.rng.Intn(len(g.live))], Size: g.size()}
		if g.rng.Intn(2) == 0 {
			op.Price = g.price(g.side())
		}
		return op
	case r < g.cfg.CancelRatio+g.cfg.ModifyRatio+g.cfg.MarketRatio:
		return Op{Kind: OpMarket, OrderID: g.id(), Side: g.side(), Size: g.size()}
	}

	side := g.side()
	op := Op{Kind: OpLimit, OrderID: g.id(), Side: side, Price: g.price(side), Size: g.size()}
	if len(g.live) < maxTracked {
		g.live = append(g.live, op.OrderID)
	} else {
		g.live[g.rng.Intn(len(g.live))] = op.OrderID
	}
	return op
}

func (g *FlowGenerator) drift() {
	switch g.rng.Intn(20) {
	case 0:
		g.mid++
	case 1:
		if g.mid > g.cfg.SpreadTicks+1 {
			g.mid--
		}
	}
}

// price is mostly passive: a buy lands below the mid, a sell above, with one in
// ten crossing it.
func (g *FlowGenerator) price(side protocol.Side) int64 {
	offset := g.rng.Int63n(g.cfg.SpreadTicks) + 1
	if g.rng.Intn(10) == 0 {
		offset = -offset / 4
	}
	if side == protocol.SideBuy {
		return max(g.mid-offset, 1)
	}
	return g.mid + offset
}

func (g *FlowGenerator) side() protocol.Side {
	if g.rng.Intn(2) == 0 {
		return protocol.SideBuy
	}
	return protocol.SideSell
}

func (g *FlowGenerator) size() int64 {
	return g.rng.Int63n(g.cfg.MaxQuantity) + 1
}

func (g *FlowGenerator) id() uint64 {
	id := g.nextID
	g.nextID++
	return id
}
