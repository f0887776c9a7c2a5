package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestOrder(id string, side Side, typ OrderType, tif TimeInForce, price, qty decimal.Decimal, ts int64) *Order {
	return NewOrder(id, side, typ, tif, price, qty, "owner", ts)
}

func TestAddOrder_NoMatchRests(t *testing.T) {
	book := NewLimitOrderBook("TEST")

	order := newTestOrder("A1", Buy, Limit, GTC, d("99.00"), d("100"), 1)
	trades := book.AddOrder(order)

	assert.Empty(t, trades)
	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.True(t, bid.Equal(d("99.00")))
	assert.NotNil(t, book.Order("A1"))
}

func TestAddOrder_TwoLevelSweepWithFIFO(t *testing.T) {
	book := NewLimitOrderBook("TEST")

	book.AddOrder(newTestOrder("A", Sell, Limit, GTC, d("150.50"), d("100"), 1))
	book.AddOrder(newTestOrder("B", Sell, Limit, GTC, d("150.50"), d("50"), 2))
	book.AddOrder(newTestOrder("C", Sell, Limit, GTC, d("150.51"), d("150"), 3))

	trades := book.AddOrder(newTestOrder("X", Buy, Limit, GTC, d("150.51"), d("180"), 4))

	require.Len(t, trades, 3)
	assert.True(t, trades[0].Quantity.Equal(d("100")))
	assert.True(t, trades[0].Price.Equal(d("150.50")))
	assert.Equal(t, "A", trades[0].SellOrderID)

	assert.True(t, trades[1].Quantity.Equal(d("50")))
	assert.True(t, trades[1].Price.Equal(d("150.50")))
	assert.Equal(t, "B", trades[1].SellOrderID)

	assert.True(t, trades[2].Quantity.Equal(d("30")))
	assert.True(t, trades[2].Price.Equal(d("150.51")))
	assert.Equal(t, "C", trades[2].SellOrderID)

	c := book.Order("C")
	require.NotNil(t, c)
	assert.True(t, c.RemainingQuantity().Equal(d("120")))

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.True(t, ask.Equal(d("150.51")))
}

func TestAddOrder_IOCLeavesNoResidue(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("S", Sell, Limit, GTC, d("100"), d("50"), 1))

	incoming := newTestOrder("X", Buy, Limit, IOC, d("100"), d("200"), 2)
	trades := book.AddOrder(incoming)

	require.Len(t, trades, 1)
	assert.True(t, trades[0].Quantity.Equal(d("50")))
	assert.Equal(t, Cancelled, incoming.Status)
	assert.True(t, incoming.Filled.Equal(d("50")))

	_, ok := book.BestAsk()
	assert.False(t, ok)
}

func TestAddOrder_FOKRejectionIsAtomic(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("S", Sell, Limit, GTC, d("100"), d("50"), 1))

	before := book.GetSnapshot(10)

	incoming := newTestOrder("X", Buy, Limit, FOK, d("100"), d("200"), 2)
	trades := book.AddOrder(incoming)

	assert.Empty(t, trades)
	assert.Equal(t, Rejected, incoming.Status)
	assert.Equal(t, RejectFOKInfeasible, incoming.RejectReason)

	after := book.GetSnapshot(10)
	assert.Equal(t, before, after)
}

func TestAddOrder_FOKFillsInFullWhenFeasible(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("S1", Sell, Limit, GTC, d("100"), d("50"), 1))
	book.AddOrder(newTestOrder("S2", Sell, Limit, GTC, d("101"), d("100"), 2))

	incoming := newTestOrder("X", Buy, Limit, FOK, d("101"), d("120"), 3)
	trades := book.AddOrder(incoming)

	require.Len(t, trades, 2)
	assert.Equal(t, Filled, incoming.Status)
}

func TestCancelOrder_PriorityRestored(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("X", Buy, Limit, GTC, d("99"), d("100"), 1))
	book.AddOrder(newTestOrder("Y", Buy, Limit, GTC, d("99"), d("100"), 2))

	ok := book.CancelOrder("X")
	require.True(t, ok)

	trades := book.AddOrder(newTestOrder("M", Sell, Market, GTC, decimal.Zero, d("100"), 3))

	require.Len(t, trades, 1)
	assert.Equal(t, "Y", trades[0].BuyOrderID)
	assert.True(t, trades[0].Quantity.Equal(d("100")))
}

func TestCancelOrder_Idempotent(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("X", Buy, Limit, GTC, d("99"), d("100"), 1))

	first := book.CancelOrder("X")
	second := book.CancelOrder("X")

	assert.True(t, first)
	assert.False(t, second)
}

func TestAddOrder_DuplicateIDRejected(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("X", Buy, Limit, GTC, d("99"), d("100"), 1))

	dup := newTestOrder("X", Buy, Limit, GTC, d("99"), d("50"), 2)
	trades := book.AddOrder(dup)

	assert.Empty(t, trades)
	assert.Equal(t, Rejected, dup.Status)
	assert.Equal(t, RejectDuplicateID, dup.RejectReason)
}

func TestAddOrder_NonPositiveQuantityRejected(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	order := newTestOrder("X", Buy, Limit, GTC, d("99"), d("0"), 1)

	trades := book.AddOrder(order)

	assert.Empty(t, trades)
	assert.Equal(t, Rejected, order.Status)
	assert.Equal(t, RejectInvalidQuantity, order.RejectReason)
}

func TestAddOrder_MarketAgainstEmptyBookIsCancelled(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	order := newTestOrder("X", Buy, Market, GTC, decimal.Zero, d("10"), 1)

	trades := book.AddOrder(order)

	assert.Empty(t, trades)
	assert.Equal(t, Cancelled, order.Status)
}

func TestAddOrder_PriceImprovement(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("S", Sell, Limit, GTC, d("99"), d("10"), 1))

	incoming := newTestOrder("X", Buy, Limit, GTC, d("100"), d("10"), 2)
	trades := book.AddOrder(incoming)

	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("99")))
}

func TestBookNeverCrosses(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("B", Buy, Limit, GTC, d("99"), d("10"), 1))
	book.AddOrder(newTestOrder("A", Sell, Limit, GTC, d("101"), d("10"), 2))

	bid, _ := book.BestBid()
	ask, _ := book.BestAsk()
	assert.True(t, bid.LessThan(ask))
}

func TestAddOrder_ConservationOfShares(t *testing.T) {
	book := NewLimitOrderBook("TEST")
	book.AddOrder(newTestOrder("S1", Sell, Limit, GTC, d("100"), d("40"), 1))
	book.AddOrder(newTestOrder("S2", Sell, Limit, GTC, d("100"), d("60"), 2))

	incoming := newTestOrder("X", Buy, Limit, GTC, d("100"), d("70"), 3)
	trades := book.AddOrder(incoming)

	tradedQty := decimal.Zero
	for _, tr := range trades {
		tradedQty = tradedQty.Add(tr.Quantity)
	}
	assert.True(t, tradedQty.Equal(incoming.Filled))
}
