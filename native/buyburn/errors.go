package buyburn

import "errors"

var (
	// ErrUnauthorized indicates the invoking caller is not whitelisted.
	ErrUnauthorized = errors.New("buyburn: caller not whitelisted")
	// ErrTooSoon indicates the cooldown interval has not elapsed since the
	// last successful round.
	ErrTooSoon = errors.New("buyburn: cooldown active")
	// ErrNoAllocation indicates the usable primary balance was zero after
	// planning and any secondary-leg conversion.
	ErrNoAllocation = errors.New("buyburn: nothing to allocate")
	// ErrInvalidConfig indicates an admin setter received an out-of-range value.
	ErrInvalidConfig = errors.New("buyburn: configuration rejected")
	// ErrNotOwner indicates a non-owner attempted an admin-only operation.
	ErrNotOwner = errors.New("buyburn: owner only")
	// ErrNotPendingOwner indicates an address other than the nominated
	// successor attempted to accept ownership.
	ErrNotPendingOwner = errors.New("buyburn: pending owner only")
)
