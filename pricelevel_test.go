package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLevel_FIFOOrder(t *testing.T) {
	lvl := newPriceLevel(d("100"))
	a := newTestOrder("A", Buy, Limit, GTC, d("100"), d("10"), 1)
	b := newTestOrder("B", Buy, Limit, GTC, d("100"), d("20"), 2)

	lvl.PushBack(a)
	lvl.PushBack(b)

	assert.True(t, lvl.TotalQty.Equal(d("30")))
	assert.Equal(t, a, lvl.Front())

	front := lvl.PopFront()
	assert.Equal(t, a, front)
	assert.Equal(t, b, lvl.Front())
	assert.True(t, lvl.TotalQty.Equal(d("20")))
}

func TestPriceLevel_RemoveByIdentity(t *testing.T) {
	lvl := newPriceLevel(d("100"))
	a := newTestOrder("A", Buy, Limit, GTC, d("100"), d("10"), 1)
	b := newTestOrder("B", Buy, Limit, GTC, d("100"), d("20"), 2)
	c := newTestOrder("C", Buy, Limit, GTC, d("100"), d("30"), 3)
	lvl.PushBack(a)
	lvl.PushBack(b)
	lvl.PushBack(c)

	lvl.Remove(b)

	require.False(t, lvl.IsEmpty())
	assert.True(t, lvl.TotalQty.Equal(d("40")))
	got := lvl.Orders()
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].ID)
	assert.Equal(t, "C", got[1].ID)
}

func TestBookSide_BestOrderingPerSide(t *testing.T) {
	bids := newBookSide(Buy)
	bids.getOrCreate(d("99"))
	bids.getOrCreate(d("101"))
	bids.getOrCreate(d("100"))

	best := bids.best()
	require.NotNil(t, best)
	assert.True(t, best.Price.Equal(d("101")))

	asks := newBookSide(Sell)
	asks.getOrCreate(d("99"))
	asks.getOrCreate(d("101"))
	asks.getOrCreate(d("100"))

	bestAsk := asks.best()
	require.NotNil(t, bestAsk)
	assert.True(t, bestAsk.Price.Equal(d("99")))
}

func TestBookSide_RemoveIfEmpty(t *testing.T) {
	side := newBookSide(Buy)
	lvl := side.getOrCreate(d("100"))
	o := newTestOrder("A", Buy, Limit, GTC, d("100"), d("10"), 1)
	lvl.PushBack(o)

	lvl.Remove(o)
	side.removeIfEmpty(lvl)

	assert.Nil(t, side.level(d("100")))
	assert.Equal(t, 0, side.Len())
}
