// Package policy implements the pure authorization rules of the portal.
// Functions here only inspect roles and ownership; they never touch storage,
// so the use cases stay the single place where data is loaded.
package policy

import (
	"github.com/google/uuid"

	"procura/internal/domain/entity"
)

// CanCreateTender reports whether the role may open new tenders.
func CanCreateTender(role entity.Role) bool {
	return role == entity.RoleAdmin || role == entity.RoleProcurementOfficer
}

// CanManageTender reports whether the account may modify the given tender.
// Officers only manage tenders they created; admins manage everything.
func CanManageTender(role entity.Role, accountID uuid.UUID, tender *entity.Tender) bool {
	switch role {
	case entity.RoleAdmin:
		return true
	case entity.RoleProcurementOfficer:
		return tender.CreatedBy == accountID
	default:
		return false
	}
}

// CanViewTender reports whether the account may read the given tender.
// Published and later states are public; drafts are visible only to their
// owner, admins and auditors.
func CanViewTender(role entity.Role, accountID uuid.UUID, tender *entity.Tender) bool {
	if tender.Status != entity.TenderDraft {
		return true
	}

	switch role {
	case entity.RoleAdmin, entity.RoleAuditor:
		return true
	case entity.RoleProcurementOfficer:
		return tender.CreatedBy == accountID
	default:
		return false
	}
}

// CanSeeDraftTenders reports whether listings for the account may include
// draft tenders at all. Officers still only see their own drafts, which
// CanViewTender enforces per tender.
func CanSeeDraftTenders(role entity.Role) bool {
	return role == entity.RoleAdmin || role == entity.RoleAuditor || role == entity.RoleProcurementOfficer
}

// CanCreateBid reports whether the role may place bids.
func CanCreateBid(role entity.Role) bool {
	return role == entity.RoleSupplier
}

// CanManageBid reports whether the account may modify the given bid. Suppliers
// manage bids of their own organization only.
func CanManageBid(role entity.Role, organizationID *uuid.UUID, bid *entity.Bid) bool {
	if role != entity.RoleSupplier || organizationID == nil {
		return false
	}

	return bid.OrganizationID == *organizationID
}

// CanViewBid reports whether the account may read the given bid. The owning
// organization sees its own bids; the tender owner, admins and auditors see
// all bids on the tender.
func CanViewBid(role entity.Role, accountID uuid.UUID, organizationID *uuid.UUID, bid *entity.Bid, tender *entity.Tender) bool {
	switch role {
	case entity.RoleAdmin, entity.RoleAuditor:
		return true
	case entity.RoleProcurementOfficer:
		return tender.CreatedBy == accountID
	case entity.RoleSupplier:
		return organizationID != nil && bid.OrganizationID == *organizationID
	default:
		return false
	}
}

// CanEvaluateBids reports whether the account may review and score bids on
// the given tender.
func CanEvaluateBids(role entity.Role, accountID uuid.UUID, tender *entity.Tender) bool {
	return CanManageTender(role, accountID, tender)
}

// CanListTenderBids reports whether the account may list all bids of the
// given tender.
func CanListTenderBids(role entity.Role, accountID uuid.UUID, tender *entity.Tender) bool {
	switch role {
	case entity.RoleAdmin, entity.RoleAuditor:
		return true
	case entity.RoleProcurementOfficer:
		return tender.CreatedBy == accountID
	default:
		return false
	}
}
