// Package analytics computes offline microstructure metrics and drives
// backtests of execution strategies against recorded or synthetic order
// flow (§4.6, §4.7, §12.1).
package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
)

// MicrostructureMetrics aggregates statistics computed from a sequence of
// snapshots and trades, grounded in the source's microstructure metrics
// dataclass. Fields use plain float64: these are derived analytics, not
// book state, so the exactness shopspring/decimal buys the matching engine
// isn't needed here and the corpus carries no statistics library to reach
// for instead (stdlib math is the justified choice, §10/DESIGN.md).
type MicrostructureMetrics struct {
	MeanSpread   float64
	MedianSpread float64
	SpreadStdDev float64

	MeanDepthTop5 float64
	DepthImbalance float64
	MeanOFI        float64

	TradeVWAP      float64
	BuyVolume      float64
	SellVolume     float64
	RealizedVol    float64 // annualized, from log returns of mid price
}

// MetricsCalculator computes MicrostructureMetrics from recorded snapshots
// and trades.
type MetricsCalculator struct{}

// NewMetricsCalculator constructs a MetricsCalculator. It carries no state;
// the type exists to mirror the source's class-based API and give the
// calculation a discoverable home.
func NewMetricsCalculator() *MetricsCalculator { return &MetricsCalculator{} }

// ComputeFromSnapshots computes spread, depth, order-flow-imbalance and
// realized-volatility statistics from an ordered sequence of book
// snapshots, plus trade VWAP and buy/sell volume from the accompanying
// trade tape (§4.6).
func (MetricsCalculator) ComputeFromSnapshots(snapshots []engine.OrderBookSnapshot, trades []engine.Trade, secondsBetweenSnapshots float64) MicrostructureMetrics {
	var m MicrostructureMetrics

	spreads := make([]float64, 0, len(snapshots))
	depths := make([]float64, 0, len(snapshots))
	imbalances := make([]float64, 0, len(snapshots))
	ofis := make([]float64, 0, len(snapshots))
	mids := make([]float64, 0, len(snapshots))

	var prevBidVol, prevAskVol float64
	havePrev := false

	for _, snap := range snapshots {
		if snap.HasSpread {
			spreads = append(spreads, mustFloat(snap.Spread))
		}
		bidVol := sumTopN(snap.Bids, 5)
		askVol := sumTopN(snap.Asks, 5)
		depths = append(depths, bidVol+askVol)
		if bidVol+askVol > 0 {
			imbalances = append(imbalances, (bidVol-askVol)/(bidVol+askVol))
		}
		if havePrev {
			denom := (bidVol - prevBidVol) + (askVol - prevAskVol)
			num := (bidVol - prevBidVol) - (askVol - prevAskVol)
			if denom != 0 {
				ofis = append(ofis, num/math.Abs(denom))
			}
		}
		prevBidVol, prevAskVol, havePrev = bidVol, askVol, true

		if snap.HasMid {
			mids = append(mids, mustFloat(snap.MidPrice))
		}
	}

	m.MeanSpread = mean(spreads)
	m.MedianSpread = median(spreads)
	m.SpreadStdDev = stddev(spreads, m.MeanSpread)
	m.MeanDepthTop5 = mean(depths)
	m.DepthImbalance = mean(imbalances)
	m.MeanOFI = mean(ofis)
	m.RealizedVol = realizedVolatility(mids, secondsBetweenSnapshots)

	m.TradeVWAP, m.BuyVolume, m.SellVolume = tradeStats(trades)

	return m
}

// ComputeFillProbability estimates the probability that a limit order
// placed offsetBps away from the touch would have filled, using a simple
// rule: an offset of zero or less (at or through the touch) is treated as
// certain to fill, decaying linearly to zero at maxOffsetBps. The result
// depends only on offsetBps and maxOffsetBps: no snapshots are consulted,
// and side does not change it.
func (MetricsCalculator) ComputeFillProbability(side engine.Side, offsetBps, maxOffsetBps float64) float64 {
	if offsetBps <= 0 {
		return 1.0
	}
	if offsetBps >= maxOffsetBps {
		return 0.0
	}
	return 1.0 - offsetBps/maxOffsetBps
}

func sumTopN(levels []engine.PriceQty, n int) float64 {
	if len(levels) < n {
		n = len(levels)
	}
	total := 0.0
	for i := 0; i < n; i++ {
		total += mustFloat(levels[i].Qty)
	}
	return total
}

func tradeStats(trades []engine.Trade) (vwap, buyVol, sellVol float64) {
	var notional, volume float64
	for _, tr := range trades {
		qty := mustFloat(tr.Quantity)
		price := mustFloat(tr.Price)
		notional += qty * price
		volume += qty
		if tr.AggressorSide == engine.Buy {
			buyVol += qty
		} else {
			sellVol += qty
		}
	}
	if volume > 0 {
		vwap = notional / volume
	}
	return vwap, buyVol, sellVol
}

func realizedVolatility(mids []float64, secondsBetweenSamples float64) float64 {
	if len(mids) < 2 || secondsBetweenSamples <= 0 {
		return 0
	}
	returns := make([]float64, 0, len(mids)-1)
	for i := 1; i < len(mids); i++ {
		if mids[i-1] <= 0 {
			continue
		}
		returns = append(returns, math.Log(mids[i]/mids[i-1]))
	}
	if len(returns) == 0 {
		return 0
	}
	m := mean(returns)
	sd := stddev(returns, m)
	samplesPerYear := (365.0 * 24 * 3600) / secondsBetweenSamples
	return sd * math.Sqrt(samplesPerYear)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
