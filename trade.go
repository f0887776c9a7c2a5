package engine

import "github.com/shopspring/decimal"

// Trade is an immutable record of one match between an aggressor and a
// passive resting order. Trades are appended to the book's trade log and
// surfaced to callbacks in match order (§3, §5).
type Trade struct {
	ID            string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	BuyOrderID    string
	SellOrderID   string
	AggressorSide Side
	Timestamp     int64
}
