package strategy

import (
	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
)

// Posting maintains a single resting passive order inside the spread,
// cancelling and reposting whenever its recomputed posting price drifts
// from the resting order's price by more than RepriceThreshold, grounded in the source's posting strategy. Unlike the
// source, Posting cancels the stale resting order before submitting its
// replacement (§4.5) rather than leaving two resting orders live at once.
type Posting struct {
	base

	SpreadFraction   decimal.Decimal // 0 = at best, 1 = at the far touch
	RepriceThreshold decimal.Decimal // fractional posting-price move that triggers a reprice

	restingOrderID string
	restingPrice   decimal.Decimal
	hasResting     bool
	pendingCancel  string
	hasPendingCancel bool
}

// NewPosting builds a Posting strategy. spreadFraction positions the
// resting order inside the spread (0 = best bid/ask, 1 = crosses to the far
// touch); repriceThreshold is the move of the posting price, as a fraction
// of the resting order's price, that triggers a cancel-and-repost.
func NewPosting(symbol string, side engine.Side, targetQty decimal.Decimal, spreadFraction, repriceThreshold float64) *Posting {
	return &Posting{
		base:             base{Symbol: symbol, Side: side, TargetQuantity: targetQty},
		SpreadFraction:   decimal.NewFromFloat(spreadFraction),
		RepriceThreshold: decimal.NewFromFloat(repriceThreshold),
	}
}

// PendingCancel returns the order ID of a stale resting order that must be
// cancelled before any order returned from the same GenerateOrders call is
// submitted. A driver should call book.CancelOrder on it first.
func (p *Posting) PendingCancel() (string, bool) {
	id, ok := p.pendingCancel, p.hasPendingCancel
	p.hasPendingCancel = false
	return id, ok
}

func (p *Posting) postingPrice(snap engine.OrderBookSnapshot) (decimal.Decimal, bool) {
	if !snap.HasBestBid || !snap.HasBestAsk {
		return decimal.Zero, false
	}
	spread := snap.BestAsk.Sub(snap.BestBid)
	if p.Side == engine.Buy {
		return snap.BestBid.Add(spread.Mul(p.SpreadFraction)), true
	}
	return snap.BestAsk.Sub(spread.Mul(p.SpreadFraction)), true
}

// GenerateOrders posts a resting order if none is live, or cancels and
// reposts the existing one if the recomputed posting price differs from
// the resting price by more than RepriceThreshold times the resting price.
func (p *Posting) GenerateOrders(elapsedSeconds float64, snap engine.OrderBookSnapshot) []*engine.Order {
	if p.IsComplete() || !snap.HasMid {
		return nil
	}

	price, ok := p.postingPrice(snap)
	if !ok {
		return nil
	}

	if p.hasResting {
		drift := price.Sub(p.restingPrice).Abs()
		threshold := p.restingPrice.Abs().Mul(p.RepriceThreshold)
		if drift.LessThanOrEqual(threshold) {
			return nil
		}
		p.pendingCancel = p.restingOrderID
		p.hasPendingCancel = true
		p.hasResting = false
	}

	qty := p.RemainingQuantity()
	if !qty.IsPositive() {
		return nil
	}

	id := p.nextChildID("POST")
	p.restingOrderID = id
	p.restingPrice = price
	p.hasResting = true

	order := engine.NewOrder(id, p.Side, engine.Limit, engine.GTC, price, qty, "strategy:posting", int64(elapsedSeconds*1e9))
	return []*engine.Order{order}
}
