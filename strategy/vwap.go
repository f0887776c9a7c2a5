package strategy

import (
	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
)

// volumeProfilePoint is one (time_fraction, volume_fraction) knot of the
// U-shaped intraday volume profile. VolumeFraction is that knot's own share
// of volume; targetFractionAt accumulates the shares into the cumulative curve.
type volumeProfilePoint struct {
	TimeFraction   float64
	VolumeFraction float64
}

// defaultVolumeProfile is the source's default U-shaped profile: heavier
// volume at the open and close, lighter through the middle of the session.
var defaultVolumeProfile = []volumeProfilePoint{
	{0.0, 0.15}, {0.1, 0.15}, {0.2, 0.10}, {0.3, 0.08}, {0.4, 0.07},
	{0.5, 0.06}, {0.6, 0.07}, {0.7, 0.08}, {0.8, 0.10}, {0.9, 0.14}, {1.0, 0.00},
}

// VWAP tracks a target cumulative volume curve derived from an intraday
// volume profile and trades up to whatever volume the curve says should
// have executed by now, grounded in the source's volume-weighted average
// price strategy.
type VWAP struct {
	base

	DurationSeconds float64
	SliceInterval   float64
	Aggression      float64
	VolumeProfile   []volumeProfilePoint

	nextCheckAt float64
}

// NewVWAP builds a VWAP strategy. A nil profile falls back to
// defaultVolumeProfile.
func NewVWAP(symbol string, side engine.Side, targetQty decimal.Decimal, durationSeconds, aggression float64, profile []volumeProfilePoint) *VWAP {
	if profile == nil {
		profile = defaultVolumeProfile
	}
	return &VWAP{
		base:            base{Symbol: symbol, Side: side, TargetQuantity: targetQty},
		DurationSeconds: durationSeconds,
		SliceInterval:   5.0,
		Aggression:      aggression,
		VolumeProfile:   profile,
		nextCheckAt:     5.0,
	}
}

// targetFractionAt piecewise-linearly interpolates the cumulative volume
// fraction that should have traded by timeFraction (fraction of the
// execution horizon elapsed, in [0, 1]).
func (v *VWAP) targetFractionAt(timeFraction float64) float64 {
	cumulative := 0.0
	cumByKnot := make([]float64, len(v.VolumeProfile))
	for i, p := range v.VolumeProfile {
		cumulative += p.VolumeFraction
		cumByKnot[i] = cumulative
	}

	if timeFraction <= v.VolumeProfile[0].TimeFraction {
		return 0
	}
	last := len(v.VolumeProfile) - 1
	if timeFraction >= v.VolumeProfile[last].TimeFraction {
		return cumByKnot[last]
	}

	for i := 1; i <= last; i++ {
		if timeFraction <= v.VolumeProfile[i].TimeFraction {
			lo, hi := v.VolumeProfile[i-1], v.VolumeProfile[i]
			span := hi.TimeFraction - lo.TimeFraction
			frac := 0.0
			if span > 0 {
				frac = (timeFraction - lo.TimeFraction) / span
			}
			return cumByKnot[i-1] + frac*(cumByKnot[i]-cumByKnot[i-1])
		}
	}
	return cumByKnot[last]
}

// GenerateOrders checks every SliceInterval seconds whether the cumulative
// target volume has outpaced what has actually executed, and if so submits
// the shortfall; a shortfall below the minimum child size of 0.01 is skipped.
func (v *VWAP) GenerateOrders(elapsedSeconds float64, snap engine.OrderBookSnapshot) []*engine.Order {
	if v.IsComplete() || elapsedSeconds < v.nextCheckAt {
		return nil
	}
	v.nextCheckAt += v.SliceInterval

	timeFraction := elapsedSeconds / v.DurationSeconds
	if timeFraction > 1 {
		timeFraction = 1
	}
	targetFraction := v.targetFractionAt(timeFraction)
	targetExecuted := v.TargetQuantity.Mul(decimal.NewFromFloat(targetFraction))

	shortfall := targetExecuted.Sub(v.executedQuantity)
	if shortfall.LessThan(decimal.NewFromFloat(0.01)) {
		return nil
	}
	if shortfall.GreaterThan(v.RemainingQuantity()) {
		shortfall = v.RemainingQuantity()
	}

	price, orderType := aggressionPrice(v.Side, v.Aggression, snap)
	order := engine.NewOrder(
		v.nextChildID("VWAP"), v.Side, orderType, engine.IOC, price, shortfall,
		"strategy:vwap", int64(elapsedSeconds*1e9),
	)
	return []*engine.Order{order}
}
