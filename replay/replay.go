// Package replay drives a pre-generated or externally supplied stream of
// order events into a LimitOrderBook at a configurable pace, emitting
// callbacks for trades, orders and periodic snapshots (§4.3).
package replay

import (
	"log/slog"
	"os"
	"time"

	"github.com/rs/xid"

	engine "github.com/veersh31/microstructurex"
	"github.com/veersh31/microstructurex/generator"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger allows setting a custom logger, matching the engine package's
// own override pattern.
func SetLogger(l *slog.Logger) {
	logger = l
}

// TradeCallback, SnapshotCallback and OrderCallback are the three callback
// families a caller can register (§4.3), mirroring the source's
// register_callback(event_type, callback) surface but typed per event kind
// instead of dispatched through a string key.
type TradeCallback func(trades []engine.Trade)
type SnapshotCallback func(snap engine.OrderBookSnapshot)
type OrderCallback func(order *engine.Order)
type CompleteCallback func()

// ReplayEngine feeds a generator.Event stream into a LimitOrderBook. A
// SpeedMultiplier of 0 replays as fast as possible (used by the backtester);
// any positive value paces delivery against wall-clock time scaled by that
// factor, matching the source's speed_multiplier semantics.
type ReplayEngine struct {
	Book             *engine.LimitOrderBook
	SpeedMultiplier  float64
	SnapshotInterval float64 // seconds of simulated time between snapshot callbacks

	onTrade    []TradeCallback
	onSnapshot []SnapshotCallback
	onOrder    []OrderCallback
	onComplete []CompleteCallback

	stopCh    chan struct{}
	completed bool
}

// New constructs a ReplayEngine over book. speedMultiplier and
// snapshotInterval follow the semantics documented on the struct fields.
func New(book *engine.LimitOrderBook, speedMultiplier, snapshotInterval float64) *ReplayEngine {
	return &ReplayEngine{
		Book:             book,
		SpeedMultiplier:  speedMultiplier,
		SnapshotInterval: snapshotInterval,
		stopCh:           make(chan struct{}),
	}
}

// OnTrade, OnSnapshot and OnOrder register a callback invoked whenever the
// corresponding event occurs during Run.
func (r *ReplayEngine) OnTrade(cb TradeCallback)       { r.onTrade = append(r.onTrade, cb) }
func (r *ReplayEngine) OnSnapshot(cb SnapshotCallback) { r.onSnapshot = append(r.onSnapshot, cb) }
func (r *ReplayEngine) OnOrder(cb OrderCallback)       { r.onOrder = append(r.onOrder, cb) }

// OnComplete registers a callback invoked once Run returns, whether it
// reached the end of the event stream or was cut short by Stop (§4.3,
// §6 on_complete).
func (r *ReplayEngine) OnComplete(cb CompleteCallback) { r.onComplete = append(r.onComplete, cb) }

func (r *ReplayEngine) fireComplete() {
	if r.completed {
		return
	}
	r.completed = true
	for _, cb := range r.onComplete {
		cb()
	}
}

// Stop requests that a running Run loop return at the next opportunity.
// Idempotent: calling it more than once is a no-op.
func (r *ReplayEngine) Stop() {
	select {
	case <-r.stopCh:
		// already stopped
	default:
		close(r.stopCh)
	}
}

// Run submits events (assumed pre-sorted by ElapsedSeconds, as produced by
// generator.Generate) into the book in order, pacing delivery according to
// SpeedMultiplier and emitting snapshot callbacks every SnapshotInterval
// seconds of simulated time. It returns once the stream is exhausted or Stop
// is called.
func (r *ReplayEngine) Run(events []generator.Event) {
	runID := xid.New().String()
	logger.Info("replay starting", "run_id", runID, "events", len(events), "engine_version", engine.EngineVersion)

	r.completed = false
	defer r.fireComplete()

	start := time.Now()
	nextSnapshotAt := r.SnapshotInterval

	for _, ev := range events {
		select {
		case <-r.stopCh:
			logger.Info("replay stopped early", "run_id", runID)
			return
		default:
		}

		if r.SpeedMultiplier > 0 {
			target := start.Add(time.Duration(ev.ElapsedSeconds / r.SpeedMultiplier * float64(time.Second)))
			if wait := time.Until(target); wait > 0 {
				time.Sleep(wait)
			}
		}

		r.deliver(ev)

		for r.SnapshotInterval > 0 && ev.ElapsedSeconds >= nextSnapshotAt {
			r.emitSnapshot()
			nextSnapshotAt += r.SnapshotInterval
		}
	}

	logger.Info("replay complete", "run_id", runID,
		"total_orders", r.Book.TotalOrdersReceived(), "total_trades", r.Book.TotalTrades())
}

func (r *ReplayEngine) deliver(ev generator.Event) {
	switch ev.Kind {
	case generator.NewOrderEvent:
		trades := r.Book.AddOrder(ev.Order)
		for _, cb := range r.onOrder {
			cb(ev.Order)
		}
		if len(trades) > 0 {
			for _, cb := range r.onTrade {
				cb(trades)
			}
		}
	case generator.CancelOrderEvent:
		r.Book.CancelOrder(ev.OrderID)
	}
}

func (r *ReplayEngine) emitSnapshot() {
	snap := r.Book.GetSnapshot(engine.DefaultSnapshotLevels)
	for _, cb := range r.onSnapshot {
		cb(snap)
	}
}
