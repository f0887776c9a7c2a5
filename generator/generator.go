// Package generator produces deterministic, seedable synthetic order flow
// for replay into a LimitOrderBook (§4.4).
package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/shopspring/decimal"

	engine "github.com/veersh31/microstructurex"
)

// EventKind distinguishes a synthetic new-order event from a cancel event.
type EventKind int8

const (
	NewOrderEvent EventKind = iota + 1
	CancelOrderEvent
)

// Event is one (elapsed_seconds, event) pair produced by the generator
// (§4.4). For NewOrderEvent, Order is populated; for CancelOrderEvent,
// OrderID is populated.
type Event struct {
	Kind           EventKind
	ElapsedSeconds float64
	Order          *engine.Order
	OrderID        string
}

// Config holds the generator's configuration surface (§6): symbol,
// base_price, tick_size, arrival_rate, cancel_prob, quantity_mu,
// quantity_sigma, mean_spread_ticks, volatility, seed, duration_seconds.
type Config struct {
	Symbol          string
	BasePrice       decimal.Decimal
	TickSize        decimal.Decimal
	ArrivalRate     float64 // orders per second (lambda)
	CancelProb      float64
	QuantityMu      float64
	QuantitySigma   float64
	MeanSpreadTicks float64
	Volatility      float64
	Seed            int64
	DurationSeconds float64
}

// PoissonOrderGenerator is a deterministic, seedable source of synthetic
// market events (§4.4). Same seed and config always yields the same event
// stream (§8 "Generator determinism"), because it owns its own *rand.Rand
// rather than drawing from the package-global source.
type PoissonOrderGenerator struct {
	cfg Config
	rng *rand.Rand

	orderCounter int
	activeOrders []string
	currentMid   decimal.Decimal
}

// New constructs a generator from cfg. The RNG is seeded explicitly so the
// generated stream is reproducible independent of process state.
func New(cfg Config) *PoissonOrderGenerator {
	return &PoissonOrderGenerator{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		currentMid: cfg.BasePrice,
	}
}

// Generate produces the full ordered event stream for the configured
// duration. Each call on a freshly constructed generator with the same
// config produces an identical stream.
func (g *PoissonOrderGenerator) Generate() []Event {
	var events []Event
	elapsed := 0.0

	for elapsed < g.cfg.DurationSeconds {
		// Inter-arrival times are exponential with rate arrival_rate: Go's
		// ExpFloat64 has rate 1 (mean 1), so dividing by the rate rescales
		// it to mean 1/arrival_rate, matching random.expovariate(lambd).
		wait := g.rng.ExpFloat64() / g.cfg.ArrivalRate
		elapsed += wait
		if elapsed >= g.cfg.DurationSeconds {
			break
		}

		if len(g.activeOrders) > 0 && g.rng.Float64() < g.cfg.CancelProb {
			idx := g.rng.Intn(len(g.activeOrders))
			orderID := g.activeOrders[idx]
			g.activeOrders = append(g.activeOrders[:idx], g.activeOrders[idx+1:]...)
			events = append(events, Event{Kind: CancelOrderEvent, ElapsedSeconds: elapsed, OrderID: orderID})
		} else {
			order := g.newOrder(elapsed)
			g.activeOrders = append(g.activeOrders, order.ID)
			events = append(events, Event{Kind: NewOrderEvent, ElapsedSeconds: elapsed, Order: order})
		}

		g.evolvePrice()
	}

	return events
}

func (g *PoissonOrderGenerator) newOrder(elapsed float64) *engine.Order {
	g.orderCounter++
	id := fmt.Sprintf("O%d", g.orderCounter)

	side := engine.Buy
	if g.rng.Float64() >= 0.5 {
		side = engine.Sell
	}

	qty := g.quantity()
	price := g.price(side)

	ts := int64(elapsed * 1e9)
	return engine.NewOrder(id, side, engine.Limit, engine.GTC, price, qty, "generator", ts)
}

// quantity draws from a log-normal distribution parameterised by
// (quantity_mu, quantity_sigma) and floors to a positive integer (§4.4).
func (g *PoissonOrderGenerator) quantity() decimal.Decimal {
	raw := math.Exp(g.cfg.QuantityMu + g.cfg.QuantitySigma*g.rng.NormFloat64())
	qty := math.Floor(raw)
	if qty < 1 {
		qty = 1
	}
	return decimal.NewFromFloat(qty)
}

// price places the order a non-negative integer number of ticks away from
// the current mid, that offset drawn from an exponential distribution with
// mean mean_spread_ticks, on the passive side (§4.4).
func (g *PoissonOrderGenerator) price(side engine.Side) decimal.Decimal {
	offsetTicks := math.Floor(g.rng.ExpFloat64() * g.cfg.MeanSpreadTicks)
	offset := g.cfg.TickSize.Mul(decimal.NewFromFloat(offsetTicks))

	var price decimal.Decimal
	if side == engine.Buy {
		price = g.currentMid.Sub(offset)
	} else {
		price = g.currentMid.Add(offset)
	}
	if price.LessThanOrEqual(decimal.Zero) {
		price = g.cfg.TickSize
	}
	return price
}

// evolvePrice advances the mid price by one step of a geometric random
// walk: mid *= (1 + eps), eps ~ Normal(0, volatility*sqrt(dt)) (§4.4).
func (g *PoissonOrderGenerator) evolvePrice() {
	dt := 1.0 / g.cfg.ArrivalRate
	shock := g.rng.NormFloat64() * g.cfg.Volatility * math.Sqrt(dt)
	g.currentMid = g.currentMid.Mul(decimal.NewFromFloat(1 + shock))
	if g.currentMid.LessThanOrEqual(decimal.Zero) {
		g.currentMid = g.cfg.TickSize
	}
}
