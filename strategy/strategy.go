// Package strategy implements parent execution algorithms (TWAP, VWAP, POV,
// Posting) that slice a target quantity into child orders submitted against
// a LimitOrderBook over time (§4.5).
package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
)

// ExecutionStrategy is satisfied by every parent execution algorithm. A
// single interface replaces the source's per-strategy subclassing with Go's
// usual dynamic-dispatch-via-interface idiom.
type ExecutionStrategy interface {
	// GenerateOrders is called periodically by a driver (typically a
	// Backtester) with the current simulated time (seconds since start) and
	// book snapshot, and returns zero or more child orders to submit.
	GenerateOrders(elapsedSeconds float64, snap engine.OrderBookSnapshot) []*engine.Order
	// UpdateExecution records a fill attributed to one of this strategy's
	// child orders.
	UpdateExecution(fillQty, fillPrice decimal.Decimal)
	IsComplete() bool
	AveragePrice() decimal.Decimal
	RemainingQuantity() decimal.Decimal
	OrderSide() engine.Side
}

// base holds the bookkeeping common to every concrete strategy, grounded in
// the source's ExecutionStrategy base class.
type base struct {
	Symbol           string
	Side             engine.Side
	TargetQuantity   decimal.Decimal
	executedQuantity decimal.Decimal
	totalCost        decimal.Decimal
	childCounter     int
}

func (b *base) UpdateExecution(fillQty, fillPrice decimal.Decimal) {
	b.executedQuantity = b.executedQuantity.Add(fillQty)
	b.totalCost = b.totalCost.Add(fillQty.Mul(fillPrice))
}

func (b *base) IsComplete() bool {
	return b.executedQuantity.GreaterThanOrEqual(b.TargetQuantity)
}

func (b *base) AveragePrice() decimal.Decimal {
	if b.executedQuantity.IsZero() {
		return decimal.Zero
	}
	return b.totalCost.Div(b.executedQuantity)
}

func (b *base) OrderSide() engine.Side { return b.Side }

func (b *base) RemainingQuantity() decimal.Decimal {
	rem := b.TargetQuantity.Sub(b.executedQuantity)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

func (b *base) nextChildID(prefix string) string {
	b.childCounter++
	return fmt.Sprintf("%s_%s_%d", prefix, b.Symbol, b.childCounter)
}

// aggressionPrice implements the literal three-branch pricing policy shared
// by TWAP, VWAP and POV (§4.5): at or below 0.5 aggression, rest passively
// at the best price on our own side; between 0.5 and 0.8, take the mid; above
// 0.8, cross the spread with a MARKET order.
func aggressionPrice(side engine.Side, aggression float64, snap engine.OrderBookSnapshot) (price decimal.Decimal, orderType engine.OrderType) {
	switch {
	case aggression <= 0.5:
		if side == engine.Buy && snap.HasBestBid {
			return snap.BestBid, engine.Limit
		}
		if side == engine.Sell && snap.HasBestAsk {
			return snap.BestAsk, engine.Limit
		}
		return decimal.Zero, engine.Market
	case aggression <= 0.8:
		if snap.HasMid {
			return snap.MidPrice, engine.Limit
		}
		return decimal.Zero, engine.Market
	default:
		return decimal.Zero, engine.Market
	}
}
