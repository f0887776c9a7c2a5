package analytics

import (
	"math"

	engine "github.com/veersh31/microstructurex"
)

// ImpactModelKind selects the cost curve MarketImpactModel applies,
// grounded in the source's market impact model supplement (§12.1).
type ImpactModelKind int8

const (
	// Linear: impact proportional to participation rate.
	Linear ImpactModelKind = iota + 1
	// SquareRoot: impact proportional to the square root of participation,
	// the standard "square-root law" of market impact.
	SquareRoot
	// PermanentTemporary: impact splits into a permanent component that
	// persists and a temporary component that decays after execution.
	PermanentTemporary
)

// MarketImpactModel estimates the price impact and slippage of executing a
// given quantity against a given average daily volume, supplementing the
// engine with the cost-curve analysis the original system exposed but the
// distilled matching/replay/strategy surface omitted (§12.1).
type MarketImpactModel struct {
	Kind ImpactModelKind

	// Coefficient scales the cost curve; Volatility is the asset's daily
	// volatility used by the square-root and permanent/temporary models.
	Coefficient float64
	Volatility  float64
	// PermanentFraction is the share of total impact that is permanent
	// under the PermanentTemporary model (the remainder is temporary).
	PermanentFraction float64
}

// NewMarketImpactModel constructs a MarketImpactModel with the given
// coefficient and volatility.
func NewMarketImpactModel(kind ImpactModelKind, coefficient, volatility float64) *MarketImpactModel {
	return &MarketImpactModel{Kind: kind, Coefficient: coefficient, Volatility: volatility, PermanentFraction: 0.5}
}

// EstimateImpact returns the estimated fractional price impact of trading
// quantity against an average daily volume of adv, expressed as a
// participation rate quantity/adv.
func (m *MarketImpactModel) EstimateImpact(quantity, adv float64) float64 {
	if adv <= 0 {
		return 0
	}
	participation := quantity / adv

	switch m.Kind {
	case Linear:
		return m.Coefficient * participation
	case SquareRoot:
		return m.Coefficient * m.Volatility * math.Sqrt(participation)
	case PermanentTemporary:
		total := m.Coefficient * m.Volatility * math.Sqrt(participation)
		return total
	default:
		return 0
	}
}

// EstimatePermanentTemporarySplit decomposes EstimateImpact's result into
// its permanent and temporary components under the PermanentTemporary
// model. Returns (0, 0) for any other model kind.
func (m *MarketImpactModel) EstimatePermanentTemporarySplit(quantity, adv float64) (permanent, temporary float64) {
	if m.Kind != PermanentTemporary {
		return 0, 0
	}
	total := m.EstimateImpact(quantity, adv)
	permanent = total * m.PermanentFraction
	temporary = total * (1 - m.PermanentFraction)
	return permanent, temporary
}

// EstimateSlippage converts a fractional impact into an absolute price
// slippage for an order of the given side, expressed in the same units as
// arrivalPrice.
func (m *MarketImpactModel) EstimateSlippage(quantity, adv, arrivalPrice float64, side engine.Side) float64 {
	impact := m.EstimateImpact(quantity, adv)
	if side == engine.Sell {
		impact = -impact
	}
	return arrivalPrice * impact
}

// DepthAnalyzer computes order-book depth statistics independent of any
// particular impact model, grounded in the source's depth analysis
// supplement (§12.1).
type DepthAnalyzer struct{}

// CalculateVWAPToSize walks the book side starting at the best price and
// returns the volume-weighted average price needed to execute targetSize,
// and whether enough depth existed to fill it.
func (DepthAnalyzer) CalculateVWAPToSize(levels []engine.PriceQty, targetSize float64) (vwap float64, filled bool) {
	remaining := targetSize
	notional := 0.0
	executed := 0.0
	for _, lv := range levels {
		if remaining <= 0 {
			break
		}
		price := mustFloat(lv.Price)
		qty := mustFloat(lv.Qty)
		take := qty
		if take > remaining {
			take = remaining
		}
		notional += take * price
		executed += take
		remaining -= take
	}
	if executed == 0 {
		return 0, false
	}
	return notional / executed, remaining <= 0
}

// CalculateOrderFlowImbalance returns (bidVolume - askVolume) /
// (bidVolume + askVolume) over the top depth levels of both sides, a
// standard normalized order-flow-imbalance signal.
func (DepthAnalyzer) CalculateOrderFlowImbalance(bids, asks []engine.PriceQty, depth int) float64 {
	bidVol := sumTopN(bids, depth)
	askVol := sumTopN(asks, depth)
	if bidVol+askVol == 0 {
		return 0
	}
	return (bidVol - askVol) / (bidVol + askVol)
}
