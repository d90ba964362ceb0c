package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	require.NoError(t, app.RunContext(context.Background(), append([]string{"lobsim"}, args...)))
	return out.String()
}

func TestSimulate(t *testing.T) {
	for _, index := range []string{"skiplist", "tree"} {
		t.Run(index, func(t *testing.T) {
			out := runApp(t, "simulate", "--orders", "3000", "--seed", "5", "--price-index", index)

			assert.Contains(t, out, "BTC-USDT")
			assert.Contains(t, out, "requests=3000")
			assert.Contains(t, out, "l2 rebuild from logs: consistent")
			assert.Contains(t, out, "state=running")
		})
	}
}

func TestSimulate_SameSeedSameBook(t *testing.T) {
	a := runApp(t, "simulate", "--orders", "2000", "--seed", "11")
	b := runApp(t, "simulate", "--orders", "2000", "--seed", "11", "--price-index", "tree")

	// everything but the timing line is identical
	trim := func(s string) string {
		i := bytes.Index([]byte(s), []byte("requests="))
		require.Positive(t, i)
		return s[:i]
	}
	assert.Equal(t, trim(a), trim(b))
}

func TestBench(t *testing.T) {
	out := runApp(t, "bench", "--orders", "5000")
	assert.Contains(t, out, "index=skiplist requests=5000")
	assert.Contains(t, out, "throughput=")
}

func TestInvalidFlags(t *testing.T) {
	app := newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard

	err := app.RunContext(context.Background(), []string{"lobsim", "bench", "--price-index", "heap"})
	assert.ErrorIs(t, err, errInvalidConfig)
}
