package service

import "errors"

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNotAdmin           = errors.New("admin role required")
	ErrCheckoutNotOpen    = errors.New("checkout is not open")
	ErrSubmissionInFlight = errors.New("order submission already in flight")
)
