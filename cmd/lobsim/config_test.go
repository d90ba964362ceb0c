package main

import (
	"os"
	"path/filepath"
	"testing"

	lob "github.com/0x5487/limit-order-book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lobsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "BTC-USDT", cfg.Symbol)
	assert.Equal(t, 100_000, cfg.Orders)
	assert.Equal(t, int64(10_000), cfg.startTicks)
	assert.Equal(t, "0.01", cfg.tick.String())
	assert.Equal(t, lob.SkiplistIndex, cfg.indexKind)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
symbol: ETH-USDT
tick_size: "0.5"
start_price: "2000"
orders: 500
price_index: tree
cancel_ratio: 0.3
`)
	t.Setenv("LOBSIM_ORDERS", "750")
	t.Setenv("LOBSIM_SEED", "99")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ETH-USDT", cfg.Symbol)
	assert.Equal(t, int64(4000), cfg.startTicks)
	assert.Equal(t, lob.TreeIndex, cfg.indexKind)
	assert.InDelta(t, 0.3, cfg.CancelRatio, 1e-9)
	assert.Equal(t, 750, cfg.Orders)
	assert.Equal(t, int64(99), cfg.Seed)
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"zero tick", "tick_size: \"0\""},
		{"bad tick", "tick_size: abc"},
		{"off tick start", "tick_size: \"0.05\"\nstart_price: \"100.01\""},
		{"unknown index", "price_index: btree"},
		{"no orders", "orders: 0"},
		{"too many ratios", "cancel_ratio: 0.6\nmodify_ratio: 0.5"},
		{"negative ratio", "market_ratio: -0.1"},
		{"start below spread", "start_price: \"0.10\"\nspread_ticks: 50"},
		{"empty symbol", "symbol: \"\""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			assert.ErrorIs(t, err, errInvalidConfig)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
