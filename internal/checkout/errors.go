package checkout

import "errors"

var (
	ErrEmptyCart    = errors.New("cart is empty, nothing to checkout")
	ErrMissingField = errors.New("required field is missing")
)
