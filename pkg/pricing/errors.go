package pricing

import "errors"

var (
	// ErrInvalidVolume is returned when TARGET_PRICE has no positive volume to price against.
	ErrInvalidVolume = errors.New("invalid volume target")

	// ErrInvalidPrice is returned when TARGET_VOLUME has no positive price to sell at.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInfeasibleConstraints is returned when fee rate, desired margin and
	// variable marketing together leave nothing of the price to cover costs.
	ErrInfeasibleConstraints = errors.New("combined fee rate + desired margin + variable marketing rate exceeds 100%; cannot satisfy constraints")

	// ErrMarginUnreachable is returned when the unit contribution at the given
	// price does not exceed the desired margin.
	ErrMarginUnreachable = errors.New("price too low to reach the desired margin at any volume")

	// ErrUnknownMode is returned for a mode outside the supported set.
	ErrUnknownMode = errors.New("unknown calculation mode")

	// ErrNonFiniteInput is returned when an input is NaN or infinite.
	ErrNonFiniteInput = errors.New("inputs must be finite numbers")

	// ErrNonFiniteResult is returned when a metric overflows.
	ErrNonFiniteResult = errors.New("inputs are too large to produce finite results")

	// ErrMarketingMismatch is a decode error for marketing whose value sits in
	// the field its kind ignores.
	ErrMarketingMismatch = errors.New("marketing value does not match its kind")
)

var failures = []error{
	ErrInvalidVolume,
	ErrInvalidPrice,
	ErrInfeasibleConstraints,
	ErrMarginUnreachable,
	ErrUnknownMode,
	ErrNonFiniteInput,
	ErrNonFiniteResult,
}
