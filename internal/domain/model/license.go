package model

import (
	"time"

	"skyline-store/internal/domain"
)

type LicenseStatus string

const (
	LicenseStatusUnused   LicenseStatus = "unused"
	LicenseStatusAssigned LicenseStatus = "assigned"
	LicenseStatusRevoked  LicenseStatus = "revoked" // admin action; revoked keys are never reissued
)

// License is one pre-provisioned activation key in the (product, duration)
// pool. Once assigned, OrderID is immutable.
type License struct {
	ID         string // UUID
	ProductID  string
	Duration   string
	KeyValue   string // unique
	Status     LicenseStatus
	OrderID    *string
	AssignedAt *time.Time
	CreatedAt  time.Time
}

// NewLicense constructs an unused pool entry. Keys are provisioned
// out-of-band by the admin surface; this is used by seeding and tests.
func NewLicense(productID, duration, keyValue string) (*License, error) {
	if productID == "" || duration == "" || keyValue == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &License{
		ID:        NewUUID(),
		ProductID: productID,
		Duration:  duration,
		KeyValue:  keyValue,
		Status:    LicenseStatusUnused,
		CreatedAt: time.Now(),
	}, nil
}
