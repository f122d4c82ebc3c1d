package cart

import (
	"errors"
	"fmt"
)

// Kind classifies why a cart operation did not go through.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from a Store.
	KindUnknown Kind = iota
	// KindStockExceeded is an expected rejection, not a fault.
	KindStockExceeded
	// KindFetchFailed means the stock or product lookup failed.
	KindFetchFailed
	// KindItemNotFound means the product is not in the cart.
	KindItemNotFound
	// KindStorage means the snapshot could not be saved; the cart is unchanged.
	KindStorage
)

// Sentinels matched by errors.Is on every *Error of the corresponding kind.
var (
	ErrStockExceeded = errors.New("requested quantity is out of stock")
	ErrFetchFailed   = errors.New("catalog lookup failed")
	ErrItemNotFound  = errors.New("item not found in cart")
	ErrStorage       = errors.New("cart snapshot could not be saved")
)

// String returns the kind's wire name, also used as the notification kind.
func (k Kind) String() string {
	switch k {
	case KindStockExceeded:
		return "stock_exceeded"
	case KindFetchFailed:
		return "fetch_failed"
	case KindItemNotFound:
		return "item_not_found"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindStockExceeded:
		return ErrStockExceeded
	case KindFetchFailed:
		return ErrFetchFailed
	case KindItemNotFound:
		return ErrItemNotFound
	case KindStorage:
		return ErrStorage
	default:
		return nil
	}
}

// Error is returned by every rejected or failed cart operation.
// errors.Is matches both the kind's sentinel and the underlying cause.
type Error struct {
	Kind      Kind
	Op        string
	ProductID int64
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cart %s product %d: %s", e.Op, e.ProductID, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the kind of a cart error, KindUnknown for anything else.
func KindOf(err error) Kind {
	var cartErr *Error
	if errors.As(err, &cartErr) {
		return cartErr.Kind
	}
	return KindUnknown
}

// Message returns the user-facing text for a cart error, the same text its
// notification carried. Errors from outside this package get an empty string.
func Message(err error) string {
	var cartErr *Error
	if errors.As(err, &cartErr) {
		return message(cartErr.Op, cartErr.Kind)
	}
	return ""
}
