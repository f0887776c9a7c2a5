package engine

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PriceQty is one aggregated (price, quantity) pair in a snapshot side.
type PriceQty struct {
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
}

// OrderBookSnapshot is an immutable, point-in-time projection of the top-N
// aggregated levels of each side plus cached top-of-book statistics (§3,
// §6). Optional fields that are undefined (empty side, no trade yet) are
// left as their zero decimal.Decimal and flagged by the accompanying bool.
type OrderBookSnapshot struct {
	Timestamp int64      `json:"timestamp"`
	Symbol    string     `json:"symbol"`
	Bids      []PriceQty `json:"bids"`
	Asks      []PriceQty `json:"asks"`

	BestBid    decimal.Decimal `json:"best_bid,omitempty"`
	HasBestBid bool            `json:"-"`
	BestAsk    decimal.Decimal `json:"best_ask,omitempty"`
	HasBestAsk bool            `json:"-"`

	Spread    decimal.Decimal `json:"spread,omitempty"`
	HasSpread bool            `json:"-"`
	MidPrice  decimal.Decimal `json:"mid_price,omitempty"`
	HasMid    bool            `json:"-"`

	LastTradePrice    decimal.Decimal `json:"last_trade_price,omitempty"`
	HasLastTradePrice bool            `json:"-"`
}

// MarshalJSON renders the wire shape described in §6: nulls for undefined
// optional fields, decimal strings for prices/quantities (shopspring/decimal
// already marshals as a JSON string, never a binary float).
func (s OrderBookSnapshot) MarshalJSON() ([]byte, error) {
	type wire struct {
		Timestamp      int64            `json:"timestamp"`
		Symbol         string           `json:"symbol"`
		Bids           [][2]string      `json:"bids"`
		Asks           [][2]string      `json:"asks"`
		BestBid        *string          `json:"best_bid"`
		BestAsk        *string          `json:"best_ask"`
		Spread         *string          `json:"spread"`
		MidPrice       *string          `json:"mid_price"`
		LastTradePrice *string          `json:"last_trade_price"`
	}
	toPairs := func(levels []PriceQty) [][2]string {
		out := make([][2]string, len(levels))
		for i, lv := range levels {
			out[i] = [2]string{lv.Price.String(), lv.Qty.String()}
		}
		return out
	}
	strPtr := func(has bool, d decimal.Decimal) *string {
		if !has {
			return nil
		}
		str := d.String()
		return &str
	}
	w := wire{
		Timestamp:      s.Timestamp,
		Symbol:         s.Symbol,
		Bids:           toPairs(s.Bids),
		Asks:           toPairs(s.Asks),
		BestBid:        strPtr(s.HasBestBid, s.BestBid),
		BestAsk:        strPtr(s.HasBestAsk, s.BestAsk),
		Spread:         strPtr(s.HasSpread, s.Spread),
		MidPrice:       strPtr(s.HasMid, s.MidPrice),
		LastTradePrice: strPtr(s.HasLastTradePrice, s.LastTradePrice),
	}
	return json.Marshal(w)
}
