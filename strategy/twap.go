package strategy

import (
	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
)

// TWAP slices the target quantity evenly across fixed-width time intervals
// over the execution horizon, grounded in the source's time-weighted
// average price strategy.
type TWAP struct {
	base

	DurationSeconds float64
	SliceInterval   float64
	Aggression      float64

	nextSliceAt float64
	sliceQty    decimal.Decimal
}

// NewTWAP builds a TWAP strategy that works targetQty of side over
// durationSeconds, checking in every sliceInterval seconds of simulated
// time.
func NewTWAP(symbol string, side engine.Side, targetQty decimal.Decimal, durationSeconds, sliceInterval, aggression float64) *TWAP {
	numSlices := durationSeconds / sliceInterval
	if numSlices < 1 {
		numSlices = 1
	}
	return &TWAP{
		base:            base{Symbol: symbol, Side: side, TargetQuantity: targetQty},
		DurationSeconds: durationSeconds,
		SliceInterval:   sliceInterval,
		Aggression:      aggression,
		nextSliceAt:     sliceInterval,
		sliceQty:        targetQty.Div(decimal.NewFromFloat(numSlices)),
	}
}

// GenerateOrders emits one child slice order each time elapsedSeconds
// crosses the next scheduled slice boundary.
func (t *TWAP) GenerateOrders(elapsedSeconds float64, snap engine.OrderBookSnapshot) []*engine.Order {
	if t.IsComplete() || elapsedSeconds < 0 {
		return nil
	}

	var orders []*engine.Order
	for elapsedSeconds >= t.nextSliceAt && !t.IsComplete() {
		qty := t.sliceQty
		if qty.GreaterThan(t.RemainingQuantity()) {
			qty = t.RemainingQuantity()
		}
		if qty.IsPositive() {
			price, orderType := aggressionPrice(t.Side, t.Aggression, snap)
			orders = append(orders, engine.NewOrder(
				t.nextChildID("TWAP"), t.Side, orderType, engine.IOC, price, qty,
				"strategy:twap", int64(elapsedSeconds*1e9),
			))
		}
		t.nextSliceAt += t.SliceInterval
	}
	return orders
}
