package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// LimitOrderBook owns one symbol's bid and ask sides, its order-id index,
// last-trade state, and aggregate counters (§3, §4.1). It is not safe for
// concurrent use from multiple goroutines: §5 mandates a single mutator at
// a time, so AddOrder/CancelOrder/GetSnapshot run synchronously to
// completion and never block or suspend.
type LimitOrderBook struct {
	Symbol string

	bids *bookSide
	asks *bookSide

	orders map[string]*Order

	lastTimestamp int64

	lastTradePrice    decimal.Decimal
	hasLastTradePrice bool

	tradeSeq atomic.Uint64

	totalOrdersReceived uint64
	totalTrades         uint64
	totalVolume         decimal.Decimal
}

// NewLimitOrderBook constructs an empty book for symbol.
func NewLimitOrderBook(symbol string) *LimitOrderBook {
	return &LimitOrderBook{
		Symbol:      symbol,
		bids:        newBookSide(Buy),
		asks:        newBookSide(Sell),
		orders:      make(map[string]*Order),
		totalVolume: decimal.Zero,
	}
}

// TotalOrdersReceived returns the count of AddOrder calls, including rejects.
func (b *LimitOrderBook) TotalOrdersReceived() uint64 { return b.totalOrdersReceived }

// TotalTrades returns the count of trades generated over the book's life.
func (b *LimitOrderBook) TotalTrades() uint64 { return b.totalTrades }

// TotalVolume returns the cumulative traded quantity over the book's life.
func (b *LimitOrderBook) TotalVolume() decimal.Decimal { return b.totalVolume }

// BestBid returns the best resting buy price and whether one exists.
func (b *LimitOrderBook) BestBid() (decimal.Decimal, bool) {
	if lvl := b.bids.best(); lvl != nil {
		return lvl.Price, true
	}
	return decimal.Zero, false
}

// BestAsk returns the best resting sell price and whether one exists.
func (b *LimitOrderBook) BestAsk() (decimal.Decimal, bool) {
	if lvl := b.asks.best(); lvl != nil {
		return lvl.Price, true
	}
	return decimal.Zero, false
}

// Spread returns best_ask - best_bid, and whether both sides are non-empty.
func (b *LimitOrderBook) Spread() (decimal.Decimal, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}

// MidPrice returns (best_bid + best_ask) / 2, and whether both sides are non-empty.
func (b *LimitOrderBook) MidPrice() (decimal.Decimal, bool) {
	bid, okB := b.BestBid()
	ask, okA := b.BestAsk()
	if !okB || !okA {
		return decimal.Zero, false
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), true
}

// LastTradePrice returns the price of the most recent trade, if any.
func (b *LimitOrderBook) LastTradePrice() (decimal.Decimal, bool) {
	return b.lastTradePrice, b.hasLastTradePrice
}

// Order looks up a resting or tracked order by id without removing it.
// Returns nil if not present (not currently resting) per invariant 3.
func (b *LimitOrderBook) Order(id string) *Order {
	if o, ok := b.orders[id]; ok {
		return o.clone()
	}
	return nil
}

// AddOrder validates, matches, and (for GTC remainders) rests order per the
// contract in §4.1. It never returns a Go error for business outcomes —
// those are reported through order.Status — and it never suspends.
func (b *LimitOrderBook) AddOrder(order *Order) []Trade {
	b.totalOrdersReceived++

	if reason, ok := b.validate(order); !ok {
		order.reject(reason)
		logger.Warn("order rejected", "order_id", order.ID, "symbol", b.Symbol, "reason", reason)
		return nil
	}

	var trades []Trade
	switch order.Type {
	case Market:
		trades = b.matchMarket(order)
	case Limit:
		switch order.TimeInForce {
		case FOK:
			trades = b.matchFOK(order)
		case IOC:
			trades = b.matchIOC(order)
		default: // GTC
			trades = b.matchLimitGTC(order)
		}
	default:
		order.reject(RejectInvalidQuantity)
		logger.Warn("order rejected", "order_id", order.ID, "symbol", b.Symbol, "reason", RejectInvalidQuantity)
		return nil
	}

	// A rejected order (including an infeasible FOK) leaves the book's
	// state, snapshot timestamp included, untouched.
	if order.Status != Rejected {
		b.lastTimestamp = order.Timestamp
	}

	if len(trades) > 0 {
		b.recordTrades(trades)
	}
	return trades
}

// validate applies the boundary checks from §4.1/§7 that result in an
// outright rejection before any matching is attempted.
func (b *LimitOrderBook) validate(order *Order) (RejectReason, bool) {
	if _, exists := b.orders[order.ID]; exists {
		return RejectDuplicateID, false
	}
	if order.Quantity.LessThanOrEqual(decimal.Zero) {
		return RejectInvalidQuantity, false
	}
	if order.Type == Limit && order.Price.LessThanOrEqual(decimal.Zero) {
		return RejectMissingPrice, false
	}
	return RejectNone, true
}

// CancelOrder removes an order from its level and the index (§4.1). Returns
// false if the order is not currently resting, including already-terminal
// orders; idempotent on repeated calls for the same id.
func (b *LimitOrderBook) CancelOrder(orderID string) bool {
	o, ok := b.orders[orderID]
	if !ok {
		return false
	}

	var side *bookSide
	if o.Side == Buy {
		side = b.bids
	} else {
		side = b.asks
	}

	lvl := side.level(o.Price)
	if lvl == nil {
		// Invariant 3 says this cannot happen while the order is indexed;
		// treat it as a bug rather than silently returning false.
		err := fmt.Errorf("%w: order %s indexed but its level is missing", ErrInvariantViolation, orderID)
		logger.Error("invariant violation", "order_id", orderID, "symbol", b.Symbol, "error", err)
		panic(err)
	}
	lvl.Remove(o)
	side.removeIfEmpty(lvl)
	delete(b.orders, orderID)
	o.cancelRemainder()
	logger.Info("order cancelled", "order_id", orderID, "symbol", b.Symbol)
	return true
}

// GetSnapshot returns the top-`levels` aggregated levels of each side plus
// cached top-of-book stats (§4.1). levels<=0 defaults to DefaultSnapshotLevels.
func (b *LimitOrderBook) GetSnapshot(levels int) OrderBookSnapshot {
	if levels <= 0 {
		levels = DefaultSnapshotLevels
	}

	snap := OrderBookSnapshot{
		Timestamp: b.lastTimestamp,
		Symbol:    b.Symbol,
		Bids:      toPriceQty(b.bids.depth(levels)),
		Asks:      toPriceQty(b.asks.depth(levels)),
	}

	if bid, ok := b.BestBid(); ok {
		snap.BestBid, snap.HasBestBid = bid, true
	}
	if ask, ok := b.BestAsk(); ok {
		snap.BestAsk, snap.HasBestAsk = ask, true
	}
	if spread, ok := b.Spread(); ok {
		snap.Spread, snap.HasSpread = spread, true
	}
	if mid, ok := b.MidPrice(); ok {
		snap.MidPrice, snap.HasMid = mid, true
	}
	if price, ok := b.LastTradePrice(); ok {
		snap.LastTradePrice, snap.HasLastTradePrice = price, true
	}
	return snap
}

func toPriceQty(levels []*PriceLevel) []PriceQty {
	out := make([]PriceQty, len(levels))
	for i, lvl := range levels {
		out[i] = PriceQty{Price: lvl.Price, Qty: lvl.TotalQty}
	}
	return out
}

func (b *LimitOrderBook) recordTrades(trades []Trade) {
	for _, t := range trades {
		b.lastTradePrice, b.hasLastTradePrice = t.Price, true
		b.totalTrades++
		b.totalVolume = b.totalVolume.Add(t.Quantity)
	}
}

func (b *LimitOrderBook) nextTradeID() string {
	return fmt.Sprintf("T%d", b.tradeSeq.Add(1))
}

// newTrade builds a Trade with the aggressor/passive attribution required
// by §3/§8 property 6: the trade's price is always the passive order's
// resting price, never the aggressor's limit.
func (b *LimitOrderBook) newTrade(aggressor, passive *Order, qty decimal.Decimal) Trade {
	t := Trade{
		ID:            b.nextTradeID(),
		Price:         passive.Price,
		Quantity:      qty,
		AggressorSide: aggressor.Side,
		Timestamp:     aggressor.Timestamp,
	}
	if aggressor.Side == Buy {
		t.BuyOrderID, t.SellOrderID = aggressor.ID, passive.ID
	} else {
		t.BuyOrderID, t.SellOrderID = passive.ID, aggressor.ID
	}
	return t
}

// oppositeSide returns the bookSide an incoming order of the given side
// matches against.
func (b *LimitOrderBook) oppositeSide(side Side) *bookSide {
	if side == Buy {
		return b.asks
	}
	return b.bids
}

// restingSide returns the bookSide an order of the given side rests on.
func (b *LimitOrderBook) restingSide(side Side) *bookSide {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// matchAgainst walks the opposite side's best level, consuming the front
// resting order fully or partially, until incoming is filled or no more
// levels are acceptable. Mirrors the teacher's handleLimitOrder/handleIOCOrder
// consume-fully-or-partial-then-reinsert-at-front shape: a partially consumed
// passive order keeps its place at the front of its level (it already had
// the earliest remaining priority there).
func (b *LimitOrderBook) matchAgainst(order *Order, priceLimited bool) []Trade {
	var trades []Trade
	opp := b.oppositeSide(order.Side)

	for order.RemainingQuantity().GreaterThan(decimal.Zero) {
		lvl := opp.best()
		if lvl == nil {
			break
		}
		if priceLimited && !opp.accepts(order.Side, order.Price, lvl.Price) {
			break
		}

		passive := lvl.Front()
		fillQty := decimal.Min(order.RemainingQuantity(), passive.RemainingQuantity())

		trades = append(trades, b.newTrade(order, passive, fillQty))

		order.fill(fillQty)
		passive.fill(fillQty)
		lvl.DecrementTotal(fillQty)

		if passive.IsFilled() {
			lvl.Remove(passive)
			delete(b.orders, passive.ID)
			opp.removeIfEmpty(lvl)
		} else {
			// Partial passive fill: it already sat at the front, and
			// DecrementTotal already adjusted the aggregate, so there is
			// nothing further to reorder within the level.
		}
	}
	return trades
}

// matchLimitGTC implements the LIMIT/GTC path: match what crosses, then
// rest any remainder at the back of its level (§4.1).
func (b *LimitOrderBook) matchLimitGTC(order *Order) []Trade {
	trades := b.matchAgainst(order, true)
	if order.RemainingQuantity().GreaterThan(decimal.Zero) {
		b.rest(order)
	}
	return trades
}

// matchIOC implements the LIMIT/IOC path: match what crosses, cancel any
// remainder without resting it (§4.1).
func (b *LimitOrderBook) matchIOC(order *Order) []Trade {
	trades := b.matchAgainst(order, true)
	order.cancelRemainder()
	return trades
}

// matchMarket implements the MARKET path: match without a price check until
// filled or the opposite side is exhausted; any remainder is cancelled,
// never rested (§4.1 edge case: empty opposite side -> CANCELLED, no trade).
func (b *LimitOrderBook) matchMarket(order *Order) []Trade {
	trades := b.matchAgainst(order, false)
	order.cancelRemainder()
	return trades
}

// matchFOK implements the two-phase atomic Fill-Or-Kill path (§4.1, §9): a
// feasibility pre-check walks the opposite side without mutating anything;
// only if it confirms the order can be filled in full does the second phase
// run the real match. This is the fix for the source's bug of matching
// first and only then discovering it couldn't fill atomically.
func (b *LimitOrderBook) matchFOK(order *Order) []Trade {
	if !b.feasibleFOK(order) {
		order.reject(RejectFOKInfeasible)
		logger.Warn("order rejected", "order_id", order.ID, "symbol", b.Symbol, "reason", RejectFOKInfeasible)
		return nil
	}
	return b.matchAgainst(order, true)
}

// feasibleFOK walks the opposite side's levels in priority order,
// accumulating quantity available at acceptable prices, without mutating
// any level or order. Returns true iff the accumulated quantity meets or
// exceeds the order's full requested quantity.
func (b *LimitOrderBook) feasibleFOK(order *Order) bool {
	opp := b.oppositeSide(order.Side)
	needed := order.RemainingQuantity()
	available := decimal.Zero

	for _, lvl := range opp.depth(opp.Len()) {
		if !opp.accepts(order.Side, order.Price, lvl.Price) {
			break
		}
		available = available.Add(lvl.TotalQty)
		if available.GreaterThanOrEqual(needed) {
			return true
		}
	}
	return available.GreaterThanOrEqual(needed)
}

// rest inserts a GTC order with remaining quantity into its side at the
// back of its price level's queue and indexes it.
func (b *LimitOrderBook) rest(order *Order) {
	side := b.restingSide(order.Side)
	lvl := side.getOrCreate(order.Price)
	lvl.PushBack(order)
	b.orders[order.ID] = order
}
