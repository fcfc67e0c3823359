package orders

import (
	"fmt"

	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
	pkgerrors "github.com/meghshyam-labs/vyapar-backend/pkg/errors"
)

// transitions is the full fulfillment graph. Cancelled and returned are
// terminal; delivered only permits a return.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPlaced: {
		enums.OrderStatusConfirmed,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusConfirmed: {
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusProcessing: {
		enums.OrderStatusShipped,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusShipped: {
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusDelivered: {
		enums.OrderStatusReturned,
	},
	enums.OrderStatusCancelled: {},
	enums.OrderStatusReturned:  {},
}

// CanTransition reports whether from permits a move to to.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a typed state-conflict error when the move is
// not in the transition graph.
func ValidateTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.New(
		pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot move order from %s to %s", from, to),
	)
}
