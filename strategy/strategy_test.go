package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engine "github.com/veersh31/microstructurex"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func snapWithBook(bid, ask string) engine.OrderBookSnapshot {
	bidD, askD := d(bid), d(ask)
	return engine.OrderBookSnapshot{
		Bids:       []engine.PriceQty{{Price: bidD, Qty: d("100")}},
		Asks:       []engine.PriceQty{{Price: askD, Qty: d("100")}},
		BestBid:    bidD,
		HasBestBid: true,
		BestAsk:    askD,
		HasBestAsk: true,
		MidPrice:   bidD.Add(askD).Div(d("2")),
		HasMid:     true,
	}
}

func TestTWAP_SlicesEvenlyAndCompletes(t *testing.T) {
	tw := NewTWAP("TEST", engine.Buy, d("100"), 100, 10, 0.3)
	snap := snapWithBook("99", "101")

	var total decimal.Decimal
	for elapsed := 0.0; elapsed <= 100; elapsed += 1 {
		for _, o := range tw.GenerateOrders(elapsed, snap) {
			total = total.Add(o.Quantity)
			tw.UpdateExecution(o.Quantity, o.Price)
		}
	}

	assert.True(t, total.Equal(d("100")))
	assert.True(t, tw.IsComplete())
	assert.True(t, tw.AveragePrice().Equal(d("99")))
}

func TestTWAP_NoOrdersBeforeFirstSlice(t *testing.T) {
	tw := NewTWAP("TEST", engine.Buy, d("100"), 100, 10, 0.3)
	orders := tw.GenerateOrders(0, snapWithBook("99", "101"))
	assert.Empty(t, orders)
}

func TestVWAP_FrontLoadsAccordingToProfile(t *testing.T) {
	vw := NewVWAP("TEST", engine.Buy, d("1000"), 100, 0.3, nil)
	snap := snapWithBook("99", "101")

	orders := vw.GenerateOrders(5, snap)
	require.NotEmpty(t, orders)
	for _, o := range orders {
		vw.UpdateExecution(o.Quantity, o.Price)
	}
	assert.True(t, vw.RemainingQuantity().LessThan(d("1000")))
}

func TestPOV_TargetsParticipationOfDelta(t *testing.T) {
	pov := NewPOV("TEST", engine.Buy, d("1000"), 0.1, 0.3)
	snap := snapWithBook("99", "101")

	orders := pov.GenerateOrders(5, snap)
	require.NotEmpty(t, orders)
	assert.True(t, orders[0].Quantity.GreaterThan(decimal.Zero))
}

func TestPosting_RepostsOnDriftBeyondThreshold(t *testing.T) {
	post := NewPosting("TEST", engine.Buy, d("100"), 0.0, 0.01)

	first := post.GenerateOrders(0, snapWithBook("99", "101"))
	require.Len(t, first, 1)
	_, hasCancel := post.PendingCancel()
	assert.False(t, hasCancel)

	same := post.GenerateOrders(1, snapWithBook("99", "101"))
	assert.Empty(t, same)

	drifted := post.GenerateOrders(2, snapWithBook("120", "122"))
	require.Len(t, drifted, 1)
	cancelID, hasCancel := post.PendingCancel()
	assert.True(t, hasCancel)
	assert.Equal(t, first[0].ID, cancelID)
	assert.NotEqual(t, first[0].ID, drifted[0].ID)
}

func TestBase_AveragePriceAndRemaining(t *testing.T) {
	b := &base{TargetQuantity: d("100")}
	b.UpdateExecution(d("40"), d("10"))
	b.UpdateExecution(d("60"), d("12"))

	assert.True(t, b.RemainingQuantity().IsZero())
	assert.True(t, b.IsComplete())
	expected := d("40").Mul(d("10")).Add(d("60").Mul(d("12"))).Div(d("100"))
	assert.True(t, b.AveragePrice().Equal(expected))
}
