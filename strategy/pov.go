package strategy

import (
	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
)

// POV (percentage of volume) targets submitting TargetParticipation times
// the market's traded volume since the last check, grounded in the source's
// percentage-of-volume strategy.
type POV struct {
	base

	TargetParticipation float64
	CheckInterval       float64
	Aggression          float64

	nextCheckAt    float64
	lastMarketVolume decimal.Decimal
}

// NewPOV builds a POV strategy targeting targetParticipation (e.g. 0.1 for
// 10%) of observed market volume.
func NewPOV(symbol string, side engine.Side, targetQty decimal.Decimal, targetParticipation, aggression float64) *POV {
	return &POV{
		base:                base{Symbol: symbol, Side: side, TargetQuantity: targetQty},
		TargetParticipation: targetParticipation,
		CheckInterval:       5.0,
		Aggression:          aggression,
		nextCheckAt:         5.0,
	}
}

// marketVolumeEstimate approximates traded volume from the top-5 depth on
// both sides of the snapshot, as the source does. POV takes no other volume
// input: no traded-volume counter is passed to it.
func marketVolumeEstimate(snap engine.OrderBookSnapshot) decimal.Decimal {
	total := decimal.Zero
	n := 5
	if len(snap.Bids) < n {
		n = len(snap.Bids)
	}
	for i := 0; i < n; i++ {
		total = total.Add(snap.Bids[i].Qty)
	}
	n = 5
	if len(snap.Asks) < n {
		n = len(snap.Asks)
	}
	for i := 0; i < n; i++ {
		total = total.Add(snap.Asks[i].Qty)
	}
	return total
}

// GenerateOrders checks every CheckInterval seconds, estimates the market
// volume delta since the previous check, and submits TargetParticipation of
// that delta.
func (p *POV) GenerateOrders(elapsedSeconds float64, snap engine.OrderBookSnapshot) []*engine.Order {
	if p.IsComplete() || elapsedSeconds < p.nextCheckAt {
		return nil
	}
	p.nextCheckAt += p.CheckInterval

	currentVolume := marketVolumeEstimate(snap)
	delta := currentVolume.Sub(p.lastMarketVolume)
	p.lastMarketVolume = currentVolume
	if delta.IsNegative() {
		delta = decimal.Zero
	}

	childQty := delta.Mul(decimal.NewFromFloat(p.TargetParticipation))
	if childQty.LessThan(decimal.NewFromFloat(0.01)) {
		return nil
	}
	if childQty.GreaterThan(p.RemainingQuantity()) {
		childQty = p.RemainingQuantity()
	}

	price, orderType := aggressionPrice(p.Side, p.Aggression, snap)
	order := engine.NewOrder(
		p.nextChildID("POV"), p.Side, orderType, engine.IOC, price, childQty,
		"strategy:pov", int64(elapsedSeconds*1e9),
	)
	return []*engine.Order{order}
}
