package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("payload failed validation")
	ErrOutOfStock      = errors.New("no unused license available")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	ErrCouponInactive  = errors.New("coupon is not redeemable")

	// Infrastructure errors surfaced through repositories
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)
