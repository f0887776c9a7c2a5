package engine

import "errors"

// Sentinel errors behind order rejection reasons. The book itself never
// returns these from AddOrder (§4.1/§7: rejections surface via status, not
// exceptions); they exist so boundary code can pre-validate and tests can
// assert on the reason an order was rejected.
var (
	ErrDuplicateOrderID   = errors.New("engine: duplicate order id")
	ErrInvalidQuantity    = errors.New("engine: quantity must be positive")
	ErrMissingPrice       = errors.New("engine: limit order requires a positive price")
	ErrUnknownSide        = errors.New("engine: unknown order side")
	ErrUnknownOrderType   = errors.New("engine: unknown order type")
	ErrUnknownTimeInForce = errors.New("engine: unknown time in force")

	// ErrInvariantViolation marks a bug, not a business outcome. Per §7,
	// implementations should abort rather than silently recover from this.
	ErrInvariantViolation = errors.New("engine: invariant violation")
)

// RejectReason classifies why AddOrder set an order's status to Rejected,
// for callers that validated at the boundary and want to log/alert on it.
type RejectReason int8

const (
	RejectNone RejectReason = iota
	RejectDuplicateID
	RejectInvalidQuantity
	RejectMissingPrice
	RejectFOKInfeasible
	RejectNoLiquidity
)

func (r RejectReason) String() string {
	switch r {
	case RejectDuplicateID:
		return "duplicate_order_id"
	case RejectInvalidQuantity:
		return "invalid_quantity"
	case RejectMissingPrice:
		return "missing_price"
	case RejectFOKInfeasible:
		return "fok_infeasible"
	case RejectNoLiquidity:
		return "no_liquidity"
	default:
		return "none"
	}
}
