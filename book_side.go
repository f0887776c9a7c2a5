package engine

import (
	"github.com/google/btree"
	"github.com/shopspring/decimal"
)

// levelItem adapts a *PriceLevel to btree.Item. desc flips the comparison
// so that Ascend() over a bid side's tree still visits levels in priority
// order (best bid first, i.e. highest price first) without a second,
// separately-maintained structure: this is the "single ordered map keyed
// by price" the design notes ask for, replacing the teacher's own
// skiplist-plus-lookup-map pair.
type levelItem struct {
	price decimal.Decimal
	level *PriceLevel
	desc  bool
}

func (a *levelItem) Less(than btree.Item) bool {
	b := than.(*levelItem)
	if a.desc {
		return a.price.GreaterThan(b.price)
	}
	return a.price.LessThan(b.price)
}

// bookSide owns every resting order on one side of a LimitOrderBook: one
// ordered btree of PriceLevels, nothing else. There is deliberately no
// second price->level map; the order-id index lives on LimitOrderBook
// itself, because invariant 3 of §3 requires it independently of how
// levels are ordered.
type bookSide struct {
	side Side
	tree *btree.BTree
}

func newBookSide(side Side) *bookSide {
	return &bookSide{side: side, tree: btree.New(32)}
}

func (s *bookSide) isDescending() bool {
	return s.side == Buy
}

func (s *bookSide) probe(price decimal.Decimal) *levelItem {
	return &levelItem{price: price, desc: s.isDescending()}
}

// level returns the level at price, or nil if none exists.
func (s *bookSide) level(price decimal.Decimal) *PriceLevel {
	item := s.tree.Get(s.probe(price))
	if item == nil {
		return nil
	}
	return item.(*levelItem).level
}

// getOrCreate returns the level at price, creating and inserting an empty
// one if absent.
func (s *bookSide) getOrCreate(price decimal.Decimal) *PriceLevel {
	if lvl := s.level(price); lvl != nil {
		return lvl
	}
	lvl := newPriceLevel(price)
	s.tree.ReplaceOrInsert(&levelItem{price: price, level: lvl, desc: s.isDescending()})
	return lvl
}

// removeIfEmpty drops the level from the side once its queue is empty
// (§3: "destroyed when empty").
func (s *bookSide) removeIfEmpty(lvl *PriceLevel) {
	if lvl.IsEmpty() {
		s.tree.Delete(s.probe(lvl.Price))
	}
}

// best returns the highest-priority level (best bid or best ask), or nil
// if the side is empty.
func (s *bookSide) best() *PriceLevel {
	item := s.tree.Min()
	if item == nil {
		return nil
	}
	return item.(*levelItem).level
}

// accepts reports whether a limit price at least crosses the resting price
// lvl, from the perspective of an incoming order on the opposite side:
// a buy accepts any ask price <= limit, a sell accepts any bid price >= limit.
func (s *bookSide) accepts(incomingSide Side, limit, levelPrice decimal.Decimal) bool {
	if incomingSide == Buy {
		return levelPrice.LessThanOrEqual(limit)
	}
	return levelPrice.GreaterThanOrEqual(limit)
}

// depth returns up to limit levels in priority order, best first.
func (s *bookSide) depth(limit int) []*PriceLevel {
	out := make([]*PriceLevel, 0, limit)
	s.tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(*levelItem).level)
		return len(out) < limit
	})
	return out
}

// Len reports the number of distinct price levels on this side.
func (s *bookSide) Len() int {
	return s.tree.Len()
}
