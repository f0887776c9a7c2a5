// Command backtest wires the synthetic order generator, replay engine,
// an execution strategy and offline analytics together end to end: it
// generates a synthetic market, runs a chosen execution strategy against
// it, and prints the resulting backtest report (§4.4-§4.7).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
	"github.com/veersh31/microstructurex/analytics"
	"github.com/veersh31/microstructurex/generator"
	"github.com/veersh31/microstructurex/strategy"
)

// Flag parsing has no third-party equivalent anywhere in the corpus (no
// repo pulls in a CLI framework such as cobra or urfave/cli), so the
// standard library's flag package is used here unmodified, per the
// ambient-stack justification recorded in DESIGN.md.
func main() {
	var (
		symbol          = flag.String("symbol", "SYNTH", "traded symbol")
		basePrice       = flag.Float64("base-price", 100.0, "starting mid price")
		tickSize        = flag.Float64("tick-size", 0.01, "minimum price increment")
		arrivalRate     = flag.Float64("arrival-rate", 5.0, "mean synthetic orders per second")
		cancelProb      = flag.Float64("cancel-prob", 0.15, "probability a synthetic event is a cancel")
		quantityMu      = flag.Float64("quantity-mu", 3.0, "log-normal quantity mu")
		quantitySigma   = flag.Float64("quantity-sigma", 1.0, "log-normal quantity sigma")
		meanSpreadTicks = flag.Float64("mean-spread-ticks", 5.0, "mean passive-order offset in ticks")
		volatility      = flag.Float64("volatility", 0.1, "mid-price random-walk volatility")
		seed            = flag.Int64("seed", 1, "generator RNG seed")
		duration        = flag.Float64("duration", 120, "simulated duration in seconds")
		snapshotEvery   = flag.Float64("snapshot-interval", 1.0, "seconds between strategy decision points")

		strategyName = flag.String("strategy", "twap", "twap|vwap|pov|posting")
		side         = flag.String("side", "buy", "buy|sell")
		targetQty    = flag.Float64("quantity", 1000, "parent order target quantity")
		aggression   = flag.Float64("aggression", 0.4, "aggression in [0,1] for twap/vwap/pov")
	)
	flag.Parse()

	cfg := generator.Config{
		Symbol:          *symbol,
		BasePrice:       decimal.NewFromFloat(*basePrice),
		TickSize:        decimal.NewFromFloat(*tickSize),
		ArrivalRate:     *arrivalRate,
		CancelProb:      *cancelProb,
		QuantityMu:      *quantityMu,
		QuantitySigma:   *quantitySigma,
		MeanSpreadTicks: *meanSpreadTicks,
		Volatility:      *volatility,
		Seed:            *seed,
		DurationSeconds: *duration,
	}

	orderSide := engine.Buy
	if *side == "sell" {
		orderSide = engine.Sell
	}
	qty := decimal.NewFromFloat(*targetQty)

	strat, err := buildStrategy(*strategyName, *symbol, orderSide, qty, *duration, *aggression)
	if err != nil {
		slog.Error("failed to build strategy", "error", err)
		os.Exit(1)
	}

	events := generator.New(cfg).Generate()

	bt := analytics.NewBacktester(*symbol, *snapshotEvery)
	results := bt.BacktestStrategy(strat, events)

	printReport(results)
}

func buildStrategy(name, symbol string, side engine.Side, qty decimal.Decimal, duration, aggression float64) (strategy.ExecutionStrategy, error) {
	switch name {
	case "twap":
		return strategy.NewTWAP(symbol, side, qty, duration, 10, aggression), nil
	case "vwap":
		return strategy.NewVWAP(symbol, side, qty, duration, aggression, nil), nil
	case "pov":
		return strategy.NewPOV(symbol, side, qty, 0.1, aggression), nil
	case "posting":
		return strategy.NewPosting(symbol, side, qty, 0.3, 0.002), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func printReport(results analytics.BacktestResults) {
	report := struct {
		ExecutedQuantity string  `json:"executed_quantity"`
		FillRate         float64 `json:"fill_rate"`
		ArrivalPrice     string  `json:"arrival_price"`
		AveragePrice     string  `json:"average_price"`
		SlippageBps      string  `json:"slippage_bps"`
		ArrivalImpact    float64 `json:"arrival_impact_estimate"`
		TradeCount       int     `json:"trade_count"`
		HasMetrics       bool    `json:"has_metrics"`
	}{
		ExecutedQuantity: results.ExecutedQuantity.String(),
		FillRate:         results.FillRate,
		ArrivalPrice:     results.ArrivalPrice.String(),
		AveragePrice:     results.AveragePrice.String(),
		SlippageBps:      results.SlippageBps.String(),
		ArrivalImpact:    results.ArrivalImpactEstimate,
		TradeCount:       len(results.Trades),
		HasMetrics:       results.HasMetrics,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)

	if results.HasMetrics {
		metricsEnc := json.NewEncoder(os.Stdout)
		metricsEnc.SetIndent("", "  ")
		_ = metricsEnc.Encode(results.Metrics)
	}
}
