package engine

import "github.com/shopspring/decimal"

// PriceLevel is a FIFO queue of resting orders at one price plus a cached
// aggregate quantity (§3, §4.2). Orders are linked intrusively (next/prev
// fields on Order itself) the way the teacher's queue.go links its
// priceUnit, so append/pop-front/remove-by-identity never allocate.
type PriceLevel struct {
	Price       decimal.Decimal
	TotalQty    decimal.Decimal
	head, tail  *Order
	count       int
}

// newPriceLevel creates an empty level at price.
func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{Price: price, TotalQty: decimal.Zero}
}

// PushBack appends a newly-resting order to the end of the queue (normal
// arrival order).
func (l *PriceLevel) PushBack(o *Order) {
	o.prev = l.tail
	o.next = nil
	if l.tail != nil {
		l.tail.next = o
	} else {
		l.head = o
	}
	l.tail = o
	l.count++
	l.TotalQty = l.TotalQty.Add(o.RemainingQuantity())
}

// Front returns the order at the head of the FIFO queue, or nil if empty.
func (l *PriceLevel) Front() *Order {
	return l.head
}

// PopFront removes and returns the order at the head of the queue.
func (l *PriceLevel) PopFront() *Order {
	o := l.head
	if o == nil {
		return nil
	}
	l.remove(o)
	return o
}

// Remove deletes order o from the queue by identity (O(1), since o already
// knows its own neighbours), updating the aggregate.
func (l *PriceLevel) Remove(o *Order) {
	l.remove(o)
}

func (l *PriceLevel) remove(o *Order) {
	l.TotalQty = l.TotalQty.Sub(o.RemainingQuantity())
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	l.count--
}

// DecrementTotal adjusts the cached aggregate after a partial fill of the
// front order that leaves it resting in place.
func (l *PriceLevel) DecrementTotal(qty decimal.Decimal) {
	l.TotalQty = l.TotalQty.Sub(qty)
}

// IsEmpty reports whether the level has no resting orders left (§3:
// "destroyed when empty").
func (l *PriceLevel) IsEmpty() bool {
	return l.count == 0
}

// Orders returns the resting orders in priority (arrival) order, cloned so
// callers cannot mutate book-owned state.
func (l *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, l.count)
	for o := l.head; o != nil; o = o.next {
		out = append(out, o.clone())
	}
	return out
}
