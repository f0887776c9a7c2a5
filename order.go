package engine

import (
	"github.com/shopspring/decimal"
)

// Order is a resting or incoming instruction to buy or sell quantity of the
// book's symbol. Once accepted by a LimitOrderBook it is exclusively owned
// by that book until it reaches a terminal status.
type Order struct {
	ID            string
	Side          Side
	Type          OrderType
	TimeInForce   TimeInForce
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	Filled        decimal.Decimal
	Status        OrderStatus
	Timestamp     int64
	OwnerID       string
	RejectReason  RejectReason

	// next/prev form the intrusive FIFO linked list within a PriceLevel,
	// mirroring the teacher's own resting-order queue.
	next, prev *Order
}

// NewOrder constructs an order in NEW status with zero fills, the shape
// every submission path (client boundary, strategies, the generator)
// funnels through so status/fill bookkeeping starts from one place.
func NewOrder(id string, side Side, typ OrderType, tif TimeInForce, price, quantity decimal.Decimal, ownerID string, timestamp int64) *Order {
	return &Order{
		ID:          id,
		Side:        side,
		Type:        typ,
		TimeInForce: tif,
		Price:       price,
		Quantity:    quantity,
		Filled:      decimal.Zero,
		Status:      New,
		Timestamp:   timestamp,
		OwnerID:     ownerID,
	}
}

// RemainingQuantity returns quantity - filled_quantity (§3 derived quantities).
func (o *Order) RemainingQuantity() decimal.Decimal {
	return o.Quantity.Sub(o.Filled)
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.Filled.GreaterThanOrEqual(o.Quantity)
}

// fill records a partial or full execution and advances status accordingly.
// Does not touch level/index bookkeeping; callers (the book's matching
// loops) are responsible for that.
func (o *Order) fill(quantity decimal.Decimal) {
	o.Filled = o.Filled.Add(quantity)
	if o.IsFilled() {
		o.Status = Filled
	} else if o.Filled.GreaterThan(decimal.Zero) {
		o.Status = Partial
	}
}

// reject marks the order terminally rejected with no state mutation
// elsewhere (§4.1/§7: validation and FOK-infeasibility failures).
func (o *Order) reject(reason RejectReason) {
	o.Status = Rejected
	o.RejectReason = reason
}

// cancelRemainder marks any unfilled quantity as cancelled, used for IOC
// residue and for MARKET orders that exhaust the opposite side (§4.1 edge
// cases). A fully filled order is left as Filled, never downgraded.
func (o *Order) cancelRemainder() {
	if o.Status != Filled {
		o.Status = Cancelled
	}
}

// clone returns a value copy for snapshot/test consumption so callers
// cannot mutate book-owned state through a returned pointer.
func (o *Order) clone() *Order {
	cp := *o
	cp.next = nil
	cp.prev = nil
	return &cp
}
