package main

import (
	"testing"

	"github.com/0x5487/limit-order-book/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func TestFlowGenerator_Deterministic(t *testing.T) {
	cfg := testConfig(t)

	a, b := NewFlowGenerator(cfg), NewFlowGenerator(cfg)
	for i := 0; i < 1000; i++ {
		require.Equal(t, a.Next(), b.Next())
	}

	cfg.Seed = 2
	c := NewFlowGenerator(cfg)
	diff := false
	for i := 0; i < 100 && !diff; i++ {
		diff = a.Next() != c.Next()
	}
	assert.True(t, diff)
}

func TestFlowGenerator_Ops(t *testing.T) {
	cfg := testConfig(t)
	gen := NewFlowGenerator(cfg)

	counts := map[OpKind]int{}
	placed := map[uint64]bool{}
	var lastID uint64
	for i := 0; i < 20_000; i++ {
		op := gen.Next()
		counts[op.Kind]++

		switch op.Kind {
		case OpLimit, OpMarket:
			assert.Greater(t, op.OrderID, lastID)
			lastID = op.OrderID
			assert.Contains(t, []protocol.Side{protocol.SideBuy, protocol.SideSell}, op.Side)
			if op.Kind == OpLimit {
				placed[op.OrderID] = true
				assert.Positive(t, op.Price)
			}
		case OpCancel, OpModify:
			assert.True(t, placed[op.OrderID], "op %s targets unknown order %d", op.Kind, op.OrderID)
		}
		assert.True(t, op.Kind == OpCancel || (op.Size >= 1 && op.Size <= cfg.MaxQuantity))
	}

	// ratios are approximate because cancels need a live order
	assert.InDelta(t, 0.25, float64(counts[OpCancel])/20_000, 0.03)
	assert.InDelta(t, 0.10, float64(counts[OpModify])/20_000, 0.03)
	assert.InDelta(t, 0.05, float64(counts[OpMarket])/20_000, 0.02)
	assert.Less(t, len(gen.live), maxTracked+1)
	assert.Positive(t, gen.Mid())
}
