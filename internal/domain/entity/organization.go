package entity

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationType distinguishes the two kinds of legal entities on the portal.
type OrganizationType string

const (
	// OrgTypeGovernmentAgency indicates a procuring government agency.
	OrgTypeGovernmentAgency OrganizationType = "government_agency"
	// OrgTypeSupplier indicates a bidding supplier company.
	OrgTypeSupplier OrganizationType = "supplier"
)

// IsValid checks if the OrganizationType is a valid value.
func (t OrganizationType) IsValid() bool {
	switch t {
	case OrgTypeGovernmentAgency, OrgTypeSupplier:
		return true
	default:
		return false
	}
}

// Organization is a legal entity grouping accounts. It is referenced by
// accounts on registration and by bids on submission. The registration number
// is generated once and never changes.
type Organization struct {
	ID                 uuid.UUID        // The unique identifier for the organization.
	Name               string           // Legal name; unique across the system.
	RegistrationNumber string           // Immutable identity, generated at creation.
	Type               OrganizationType // Agency or supplier.
	CreatedAt          time.Time        // Timestamp of first registration.
	UpdatedAt          time.Time        // Timestamp of the last modification.
}
