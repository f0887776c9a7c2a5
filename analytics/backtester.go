package analytics

import (
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
	"github.com/veersh31/microstructurex/generator"
	"github.com/veersh31/microstructurex/replay"
	"github.com/veersh31/microstructurex/strategy"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger allows setting a custom logger, matching the engine and replay
// packages' own override pattern.
func SetLogger(l *slog.Logger) {
	logger = l
}

// cancelRequester is implemented by strategies (currently only Posting)
// that need a stale child order cancelled before their next returned order
// is submitted.
type cancelRequester interface {
	PendingCancel() (string, bool)
}

// BacktestResults summarizes one strategy run against a book, grounded in
// the source's backtest results dataclass.
type BacktestResults struct {
	ArrivalSnapshot engine.OrderBookSnapshot
	FinalSnapshot   engine.OrderBookSnapshot

	ExecutedQuantity decimal.Decimal
	FillRate         float64 // executed / target, in [0, 1]

	ArrivalPrice     decimal.Decimal
	AveragePrice     decimal.Decimal
	SlippageAbsolute decimal.Decimal // signed: positive means the strategy paid up
	SlippageBps      decimal.Decimal

	// ArrivalImpactEstimate is the fractional price impact MarketImpactModel
	// projects for the parent order's full target quantity against the
	// liquidity visible at arrival time (§12.1).
	ArrivalImpactEstimate float64

	Trades []engine.Trade

	// Metrics is populated only when more than 10 snapshots were observed,
	// matching the source's requirement that market metrics need a minimum
	// sample size to be meaningful.
	Metrics    MicrostructureMetrics
	HasMetrics bool
}

// Backtester replays synthetic or recorded order flow into a fresh
// LimitOrderBook while periodically driving an ExecutionStrategy against
// the evolving book state, grounded in the source's Backtester class.
type Backtester struct {
	book             *engine.LimitOrderBook
	snapshotInterval float64
	impact           *MarketImpactModel
}

// NewBacktester constructs a Backtester over a fresh book for symbol.
// snapshotInterval controls how often (in simulated seconds) the strategy
// is given a chance to generate orders. It uses a default square-root
// impact model; call SetImpactModel to override it.
func NewBacktester(symbol string, snapshotInterval float64) *Backtester {
	return &Backtester{
		book:             engine.NewLimitOrderBook(symbol),
		snapshotInterval: snapshotInterval,
		impact:           NewMarketImpactModel(SquareRoot, 1.0, 0.02),
	}
}

// SetImpactModel overrides the default impact model used to estimate
// ArrivalImpactEstimate.
func (b *Backtester) SetImpactModel(m *MarketImpactModel) {
	b.impact = m
}

// BacktestStrategy replays marketEvents into the backtester's book while
// driving strat's GenerateOrders on every snapshot, attributing every fill
// of a live child order back to strat via UpdateExecution, and returns the
// resulting BacktestResults (§4.7).
func (b *Backtester) BacktestStrategy(strat strategy.ExecutionStrategy, marketEvents []generator.Event) BacktestResults {
	r := replay.New(b.book, 0, b.snapshotInterval)

	targetQuantity := strat.RemainingQuantity()

	var (
		arrivalSnap    engine.OrderBookSnapshot
		haveArrival    bool
		lastSnap       engine.OrderBookSnapshot
		snapshotCount  int
		allSnapshots   []engine.OrderBookSnapshot
		allTrades      []engine.Trade
		strategyTrades []engine.Trade
	)

	// childOrderIDs tracks every order this strategy has resting or has
	// submitted, so fills matched later by unrelated replay events (a
	// resting Posting order, for instance) are still attributed back to
	// the strategy instead of only fills returned by the immediate
	// AddOrder call that submitted them.
	childOrderIDs := make(map[string]bool)

	attribute := func(trades []engine.Trade) {
		for _, tr := range trades {
			if childOrderIDs[tr.BuyOrderID] || childOrderIDs[tr.SellOrderID] {
				strat.UpdateExecution(tr.Quantity, tr.Price)
				strategyTrades = append(strategyTrades, tr)
			}
		}
	}

	r.OnTrade(func(trades []engine.Trade) {
		allTrades = append(allTrades, trades...)
		attribute(trades)
	})

	r.OnSnapshot(func(snap engine.OrderBookSnapshot) {
		if !haveArrival {
			arrivalSnap = snap
			haveArrival = true
		}
		lastSnap = snap
		snapshotCount++
		allSnapshots = append(allSnapshots, snap)

		elapsed := float64(snap.Timestamp) / 1e9

		// Generate first, then cancel any order the strategy just marked
		// stale, and only then submit the replacement: cancelling before
		// submission is what keeps at most one child order resting at a
		// time (§4.5), matching the read order strategy.Posting expects
		// from PendingCancel.
		orders := strat.GenerateOrders(elapsed, snap)

		if canceller, ok := strat.(cancelRequester); ok {
			if id, pending := canceller.PendingCancel(); pending {
				b.book.CancelOrder(id)
				delete(childOrderIDs, id)
			}
		}

		for _, order := range orders {
			childOrderIDs[order.ID] = true
			trades := b.book.AddOrder(order)
			attribute(trades)
		}
	})

	r.Run(marketEvents)

	if !haveArrival {
		arrivalSnap = b.book.GetSnapshot(engine.DefaultSnapshotLevels)
		lastSnap = arrivalSnap
	}

	results := b.computeResults(strat, arrivalSnap, lastSnap, allSnapshots, allTrades, strategyTrades, snapshotCount, targetQuantity)

	logger.Info("backtest complete",
		"symbol", b.book.Symbol,
		"executed_quantity", results.ExecutedQuantity.String(),
		"fill_rate", results.FillRate,
		"average_price", results.AveragePrice.String(),
		"slippage_bps", results.SlippageBps.String(),
		"trade_count", len(results.Trades),
	)

	return results
}

func (b *Backtester) computeResults(strat strategy.ExecutionStrategy, arrival, final engine.OrderBookSnapshot, snapshots []engine.OrderBookSnapshot, marketTrades, strategyTrades []engine.Trade, snapshotCount int, targetQuantity decimal.Decimal) BacktestResults {
	results := BacktestResults{
		ArrivalSnapshot: arrival,
		FinalSnapshot:   final,
		AveragePrice:    strat.AveragePrice(),
		Trades:          strategyTrades,
	}

	executed := decimal.Zero
	for _, tr := range strategyTrades {
		executed = executed.Add(tr.Quantity)
	}
	results.ExecutedQuantity = executed

	if targetQuantity.IsPositive() {
		rate, _ := executed.Div(targetQuantity).Float64()
		results.FillRate = rate
	}

	if arrival.HasMid {
		results.ArrivalPrice = arrival.MidPrice
	}

	if executed.IsPositive() && results.ArrivalPrice.IsPositive() {
		// Buy slippage is positive when the strategy paid above arrival;
		// sell slippage is positive when it received below arrival (§4.7).
		if strat.OrderSide() == engine.Buy {
			results.SlippageAbsolute = results.AveragePrice.Sub(results.ArrivalPrice)
		} else {
			results.SlippageAbsolute = results.ArrivalPrice.Sub(results.AveragePrice)
		}
		results.SlippageBps = results.SlippageAbsolute.Div(results.ArrivalPrice).Mul(decimal.NewFromInt(10000))
	}

	if b.impact != nil {
		qty, _ := targetQuantity.Float64()
		adv := totalVisibleDepth(arrival, 5)
		results.ArrivalImpactEstimate = b.impact.EstimateImpact(qty, adv)
	}

	if snapshotCount > 10 {
		secondsBetween := b.snapshotInterval
		results.Metrics = NewMetricsCalculator().ComputeFromSnapshots(snapshots, marketTrades, secondsBetween)
		results.HasMetrics = true
	}

	return results
}

// totalVisibleDepth approximates available daily volume from the liquidity
// resting at arrival, since no external ADV feed exists in this repo's
// scope: it stands in for the "average daily volume" MarketImpactModel
// expects as its participation-rate denominator (§12.1).
func totalVisibleDepth(snap engine.OrderBookSnapshot, n int) float64 {
	return sumTopN(snap.Bids, n) + sumTopN(snap.Asks, n)
}
