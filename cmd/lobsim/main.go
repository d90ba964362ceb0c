package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	lob "github.com/0x5487/limit-order-book"
	"github.com/0x5487/limit-order-book/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "lobsim"
	app.Usage = "limit order book backtest simulator"
	app.Version = lob.EngineVersion
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML config file",
			EnvVars: []string{"LOBSIM_CONFIG"},
		},
	}

	runFlags := []cli.Flag{
		&cli.IntFlag{Name: "orders", Usage: "number of generated requests"},
		&cli.Int64Flag{Name: "seed", Usage: "random seed of the order flow"},
		&cli.StringFlag{Name: "price-index", Usage: "price level index: skiplist or tree"},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "simulate",
			Usage: "drive a generated order flow through the matching engine and print the book",
			Flags: append(slices.Clone(runFlags),
				&cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address until interrupted"},
			),
			Action: simulateAction,
		},
		{
			Name:   "bench",
			Usage:  "drive a generated order flow directly against one order book and report throughput",
			Flags:  runFlags,
			Action: benchAction,
		},
	}
	return app
}

func loadConfig(c *cli.Context) (*Config, error) {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	dirty := false
	if c.IsSet("orders") {
		cfg.Orders = c.Int("orders")
		dirty = true
	}
	if c.IsSet("seed") {
		cfg.Seed = c.Int64("seed")
		dirty = true
	}
	if c.IsSet("price-index") {
		cfg.PriceIndex = c.String("price-index")
		dirty = true
	}
	if dirty {
		if err := cfg.resolve(); err != nil {
			return nil, err
		}
	}

	logger := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: cfg.slogLevel()}))
	lob.SetLogger(logger)
	slog.SetDefault(logger)
	return cfg, nil
}

// tape counts the published logs and rebuilds L2 depth from them.
type tape struct {
	mu     sync.Mutex
	counts map[lob.LogType]int
	book   *lob.AggregatedBook
	err    error
}

func newTape() *tape {
	return &tape{
		counts: make(map[lob.LogType]int),
		book:   lob.NewAggregatedBook(),
	}
}

func (t *tape) Publish(logs ...*lob.BookLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, log := range logs {
		t.counts[log.Type]++
		if err := t.book.Replay(log); err != nil && t.err == nil {
			t.err = err
		}
	}
}

func simulateAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	tp := newTape()
	engine := lob.NewMatchingEngine(tp, lob.WithPriceIndex(cfg.indexKind))
	if err := engine.CreateMarket("lobsim", cfg.Symbol, 0); err != nil {
		return fmt.Errorf("create market: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := engine.Shutdown(sctx); err != nil {
			slog.Error("engine shutdown", "error", err)
		}
	}()

	gen := NewFlowGenerator(cfg)
	clock := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC).UnixNano()
	start := time.Now()
	for i := 0; i < cfg.Orders; i++ {
		ts := clock + int64(i)*int64(time.Millisecond)
		if err := send(ctx, engine, cfg.Symbol, gen.Next(), ts); err != nil {
			return err
		}
	}

	market := engine.Market(cfg.Symbol)
	stats, err := market.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	elapsed := time.Since(start)

	depth, err := market.Depth(ctx, uint32(cfg.Depth))
	if err != nil {
		return fmt.Errorf("depth: %w", err)
	}

	w := c.App.Writer
	printDepth(w, cfg, depth)
	printStats(w, cfg, stats, elapsed)

	tp.mu.Lock()
	fmt.Fprintf(w, "logs: open=%d match=%d cancel=%d amend=%d reject=%d\n",
		tp.counts[lob.LogTypeOpen], tp.counts[lob.LogTypeMatch], tp.counts[lob.LogTypeCancel],
		tp.counts[lob.LogTypeAmend], tp.counts[lob.LogTypeReject])
	err = checkRebuild(tp, depth)
	tp.mu.Unlock()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "l2 rebuild from logs: consistent")

	if addr := c.String("metrics-addr"); addr != "" {
		return serveMetrics(ctx, engine, addr)
	}
	return nil
}

func send(ctx context.Context, engine *lob.MatchingEngine, symbol string, op Op, ts int64) error {
	var err error
	switch op.Kind {
	case OpLimit, OpMarket:
		typ := protocol.OrderTypeLimit
		if op.Kind == OpMarket {
			typ = protocol.OrderTypeMarket
		}
		err = engine.PlaceOrder(ctx, symbol, &protocol.PlaceOrderCommand{
			OrderID:   op.OrderID,
			Side:      op.Side,
			OrderType: typ,
			Price:     op.Price,
			Size:      op.Size,
			Timestamp: ts,
		})
	case OpCancel:
		err = engine.CancelOrder(ctx, symbol, &protocol.CancelOrderCommand{OrderID: op.OrderID, Timestamp: ts})
	case OpModify:
		err = engine.ModifyOrder(ctx, symbol, &protocol.ModifyOrderCommand{
			OrderID:   op.OrderID,
			NewPrice:  op.Price,
			NewSize:   op.Size,
			Timestamp: ts,
		})
	}
	if err != nil {
		return fmt.Errorf("%s order %d: %w", op.Kind, op.OrderID, err)
	}
	return nil
}

// checkRebuild compares the depth rebuilt from the log stream with the book.
func checkRebuild(tp *tape, depth *protocol.GetDepthResponse) error {
	if tp.err != nil {
		return fmt.Errorf("replay logs: %w", tp.err)
	}
	if tp.book.SequenceID() != depth.UpdateID {
		return fmt.Errorf("replay logs: at sequence %d, book at %d", tp.book.SequenceID(), depth.UpdateID)
	}

	compare := func(side lob.Side, items []*protocol.DepthItem) error {
		levels := tp.book.Levels(side, len(items))
		if len(levels) != len(items) {
			return fmt.Errorf("replay logs: %s has %d levels, book has %d", side, len(levels), len(items))
		}
		for i, item := range items {
			if int64(levels[i].Price) != item.Price || int64(levels[i].Quantity) != item.Size {
				return fmt.Errorf("replay logs: %s level %d is %d@%d, book has %d@%d",
					side, i, levels[i].Quantity, levels[i].Price, item.Size, item.Price)
			}
		}
		return nil
	}
	return errors.Join(compare(lob.Buy, depth.Bids), compare(lob.Sell, depth.Asks))
}

func printDepth(w io.Writer, cfg *Config, depth *protocol.GetDepthResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\tbid size\tbid\task\task size\t\n", cfg.Symbol)
	for i := 0; i < max(len(depth.Bids), len(depth.Asks)); i++ {
		var bid, bidSize, ask, askSize string
		if i < len(depth.Bids) {
			bid = protocol.FromTicks(depth.Bids[i].Price, cfg.tick).StringFixed(int32(-cfg.tick.Exponent()))
			bidSize = fmt.Sprint(depth.Bids[i].Size)
		}
		if i < len(depth.Asks) {
			ask = protocol.FromTicks(depth.Asks[i].Price, cfg.tick).StringFixed(int32(-cfg.tick.Exponent()))
			askSize = fmt.Sprint(depth.Asks[i].Size)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", i+1, bidSize, bid, ask, askSize)
	}
	tw.Flush()
}

func printStats(w io.Writer, cfg *Config, s *lob.MarketStats, elapsed time.Duration) {
	mid := cfg.tick.Mul(decimal.NewFromFloat(s.Book.MidPrice))
	fmt.Fprintf(w, "state=%s resting=%d (bids %d / asks %d) levels=%d/%d spread=%d ticks mid=%s\n",
		s.State, s.Book.TotalOrders, s.Book.BidOrders, s.Book.AskOrders,
		s.Book.BidLevels, s.Book.AskLevels, s.Book.Spread, mid)
	fmt.Fprintf(w, "added=%d modified=%d cancelled=%d rejected=%d fills=%d volume=%d\n",
		s.Metrics.OrdersAdded, s.Metrics.OrdersModified, s.Metrics.OrdersCancelled,
		s.Metrics.OrdersRejected, s.Metrics.OrdersMatched, s.Metrics.TotalVolume)
	fmt.Fprintf(w, "requests=%d elapsed=%s\n", cfg.Orders, elapsed.Round(time.Microsecond))
}

func serveMetrics(ctx context.Context, engine *lob.MatchingEngine, addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(lob.NewCollector(engine))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func benchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	book := lob.NewOrderBook(cfg.Symbol,
		lob.WithPriceIndex(cfg.indexKind),
		lob.WithPublishLog(lob.NewDiscardPublishLog()),
		lob.WithCapacity(min(cfg.Orders, 1<<20)),
	)

	// generate up front so the timing covers the book only
	gen := NewFlowGenerator(cfg)
	ops := make([]Op, cfg.Orders)
	for i := range ops {
		ops[i] = gen.Next()
	}

	start := time.Now()
	for _, op := range ops {
		apply(book, op)
		if book.TradeCount() > 1<<16 {
			book.ClearTrades()
		}
	}
	elapsed := time.Since(start)

	m := book.Metrics()
	w := c.App.Writer
	fmt.Fprintf(w, "index=%s requests=%d elapsed=%s throughput=%.0f req/s\n",
		cfg.indexKind, len(ops), elapsed.Round(time.Microsecond), float64(len(ops))/elapsed.Seconds())
	fmt.Fprintf(w, "avg latency=%s fills=%d volume=%d resting=%d rejected=%d\n",
		m.TotalLatency/time.Duration(len(ops)), m.OrdersMatched, m.TotalVolume, book.OrderCount(), m.OrdersRejected)
	return nil
}

func apply(book *lob.OrderBook, op Op) {
	switch op.Kind {
	case OpLimit:
		_, _ = book.AddOrderWithID(lob.OrderID(op.OrderID), op.Side, lob.Price(op.Price), lob.Quantity(op.Size), lob.Limit)
	case OpMarket:
		_, _ = book.AddOrderWithID(lob.OrderID(op.OrderID), op.Side, lob.NoPrice, lob.Quantity(op.Size), lob.Market)
	case OpCancel:
		_ = book.CancelOrder(lob.OrderID(op.OrderID))
	case OpModify:
		_ = book.AmendOrder(lob.OrderID(op.OrderID), lob.Price(op.Price), lob.Quantity(op.Size))
	}
}
