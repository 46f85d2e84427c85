package models

import (
	"errors"
	"fmt"
	"strings"
)

// OrderStatus is the lifecycle stage of an order.
type OrderStatus string

const (
	StatusPendingPayment   OrderStatus = "pending-payment"
	StatusOrderPlaced      OrderStatus = "order-placed"
	StatusPaymentDone      OrderStatus = "payment-done"
	StatusPaymentConfirmed OrderStatus = "payment-confirmed"
	StatusOrderSuccessful  OrderStatus = "order-successful"
	StatusDelivered        OrderStatus = "delivered"
	StatusCancelled        OrderStatus = "cancelled"
)

// OrderStatuses lists every status in display order. The first six form the
// progress bar; cancelled sits outside it.
var OrderStatuses = []OrderStatus{
	StatusPendingPayment,
	StatusOrderPlaced,
	StatusPaymentDone,
	StatusPaymentConfirmed,
	StatusOrderSuccessful,
	StatusDelivered,
	StatusCancelled,
}

var (
	ErrInvalidOrderStatus   = errors.New("invalid order status")
	ErrTransitionNotAllowed = errors.New("order status transition not allowed")
)

func (s OrderStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the seven known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further progress is expected.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// ProgressIndex is the position of s on the progress bar, or -1 for cancelled
// and unknown values.
func (s OrderStatus) ProgressIndex() int {
	if s == StatusCancelled {
		return -1
	}
	for i, known := range OrderStatuses {
		if s == known {
			return i
		}
	}
	return -1
}

// Reached reports whether the progress bar step has been passed by s.
func (s OrderStatus) Reached(step OrderStatus) bool {
	cur, at := s.ProgressIndex(), step.ProgressIndex()
	return cur >= 0 && at >= 0 && at <= cur
}

// ParseOrderStatus converts user input into a known status.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	s := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, raw)
	}
	return s, nil
}

// TransitionPolicy selects how admin status updates are checked.
type TransitionPolicy string

const (
	// PolicyRelaxed lets admins set any known status from any other.
	PolicyRelaxed TransitionPolicy = "relaxed"
	// PolicyStrict only allows moves listed in strictTransitions.
	PolicyStrict TransitionPolicy = "strict"
)

var strictTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPendingPayment: {
		StatusOrderPlaced: true,
		StatusPaymentDone: true,
		StatusCancelled:   true,
	},
	StatusOrderPlaced: {
		StatusPaymentDone: true,
		StatusCancelled:   true,
	},
	StatusPaymentDone: {
		StatusPaymentConfirmed: true,
		StatusCancelled:        true,
	},
	StatusPaymentConfirmed: {
		StatusOrderSuccessful: true,
		StatusCancelled:       true,
	},
	StatusOrderSuccessful: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether an admin may move an order from one status
// to another under policy. Setting the current status again is a no-op and
// always allowed.
func CanTransition(from, to OrderStatus, policy TransitionPolicy) bool {
	if !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	if policy != PolicyStrict {
		return true
	}
	return strictTransitions[from][to]
}

// NextOnPaymentProof returns the status an order takes when the shopper
// attaches a payment screenshot.
func NextOnPaymentProof(current OrderStatus, policy TransitionPolicy) (OrderStatus, error) {
	if policy != PolicyStrict {
		return StatusPaymentDone, nil
	}
	switch current {
	case StatusPendingPayment, StatusOrderPlaced, StatusPaymentDone:
		return StatusPaymentDone, nil
	}
	return "", fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, current, StatusPaymentDone)
}
