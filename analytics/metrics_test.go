package analytics

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	engine "github.com/veersh31/microstructurex"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func snap(spread, mid string, bidQty, askQty string) engine.OrderBookSnapshot {
	return engine.OrderBookSnapshot{
		Bids:      []engine.PriceQty{{Price: d("99"), Qty: d(bidQty)}},
		Asks:      []engine.PriceQty{{Price: d("101"), Qty: d(askQty)}},
		Spread:    d(spread),
		HasSpread: true,
		MidPrice:  d(mid),
		HasMid:    true,
	}
}

func TestComputeFromSnapshots_SpreadAndDepth(t *testing.T) {
	snaps := []engine.OrderBookSnapshot{
		snap("2", "100", "10", "10"),
		snap("4", "100", "20", "10"),
	}
	trades := []engine.Trade{
		{Price: d("100"), Quantity: d("5"), AggressorSide: engine.Buy},
		{Price: d("101"), Quantity: d("5"), AggressorSide: engine.Sell},
	}

	m := NewMetricsCalculator().ComputeFromSnapshots(snaps, trades, 1.0)

	assert.Equal(t, 3.0, m.MeanSpread)
	assert.Equal(t, 25.0, m.MeanDepthTop5)
	assert.Equal(t, 5.0, m.BuyVolume)
	assert.Equal(t, 5.0, m.SellVolume)
	assert.InDelta(t, 100.5, m.TradeVWAP, 0.001)
}

func TestComputeFillProbability_DecaysWithOffset(t *testing.T) {
	calc := NewMetricsCalculator()
	assert.Equal(t, 1.0, calc.ComputeFillProbability(engine.Buy, 0, 50))
	assert.Equal(t, 0.0, calc.ComputeFillProbability(engine.Buy, 50, 50))
	assert.InDelta(t, 0.5, calc.ComputeFillProbability(engine.Buy, 25, 50), 0.001)
}

func TestMarketImpactModel_LinearScalesWithParticipation(t *testing.T) {
	model := NewMarketImpactModel(Linear, 1.0, 0.2)
	low := model.EstimateImpact(100, 10000)
	high := model.EstimateImpact(1000, 10000)
	assert.Greater(t, high, low)
}

func TestMarketImpactModel_SquareRootSlowerThanLinear(t *testing.T) {
	sqrtModel := NewMarketImpactModel(SquareRoot, 1.0, 0.2)
	impactAt100 := sqrtModel.EstimateImpact(100, 10000)
	impactAt400 := sqrtModel.EstimateImpact(400, 10000)
	// quadrupling participation should roughly double sqrt-law impact
	assert.InDelta(t, impactAt100*2, impactAt400, 0.01)
}

func TestDepthAnalyzer_VWAPToSize(t *testing.T) {
	levels := []engine.PriceQty{
		{Price: d("100"), Qty: d("10")},
		{Price: d("101"), Qty: d("10")},
	}
	vwap, filled := DepthAnalyzer{}.CalculateVWAPToSize(levels, 15)
	assert.True(t, filled)
	assert.InDelta(t, 100.333, vwap, 0.01)
}

func TestDepthAnalyzer_VWAPToSize_InsufficientDepth(t *testing.T) {
	levels := []engine.PriceQty{{Price: d("100"), Qty: d("5")}}
	_, filled := DepthAnalyzer{}.CalculateVWAPToSize(levels, 15)
	assert.False(t, filled)
}

func TestDepthAnalyzer_OrderFlowImbalance(t *testing.T) {
	bids := []engine.PriceQty{{Price: d("99"), Qty: d("80")}}
	asks := []engine.PriceQty{{Price: d("101"), Qty: d("20")}}
	ofi := DepthAnalyzer{}.CalculateOrderFlowImbalance(bids, asks, 5)
	assert.InDelta(t, 0.6, ofi, 0.001)
}
