package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"procura/internal/domain/entity"
)

func TestCanManageTender(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	tender := &entity.Tender{ID: uuid.New(), CreatedBy: owner, Status: entity.TenderDraft}

	t.Run("admin manages any tender", func(t *testing.T) {
		assert.True(t, CanManageTender(entity.RoleAdmin, other, tender))
	})

	t.Run("officer manages own tender", func(t *testing.T) {
		assert.True(t, CanManageTender(entity.RoleProcurementOfficer, owner, tender))
	})

	t.Run("officer cannot manage another officer's tender", func(t *testing.T) {
		assert.False(t, CanManageTender(entity.RoleProcurementOfficer, other, tender))
	})

	t.Run("supplier and auditor cannot manage tenders", func(t *testing.T) {
		assert.False(t, CanManageTender(entity.RoleSupplier, owner, tender))
		assert.False(t, CanManageTender(entity.RoleAuditor, owner, tender))
	})
}

func TestCanViewTender(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	t.Run("published tenders are public", func(t *testing.T) {
		tender := &entity.Tender{CreatedBy: owner, Status: entity.TenderPublished}

		assert.True(t, CanViewTender(entity.RoleCitizen, other, tender))
		assert.True(t, CanViewTender(entity.RoleSupplier, other, tender))
	})

	t.Run("drafts hidden from suppliers and citizens", func(t *testing.T) {
		tender := &entity.Tender{CreatedBy: owner, Status: entity.TenderDraft}

		assert.False(t, CanViewTender(entity.RoleSupplier, other, tender))
		assert.False(t, CanViewTender(entity.RoleCitizen, other, tender))
	})

	t.Run("drafts visible to owner, admin and auditor", func(t *testing.T) {
		tender := &entity.Tender{CreatedBy: owner, Status: entity.TenderDraft}

		assert.True(t, CanViewTender(entity.RoleProcurementOfficer, owner, tender))
		assert.False(t, CanViewTender(entity.RoleProcurementOfficer, other, tender))
		assert.True(t, CanViewTender(entity.RoleAdmin, other, tender))
		assert.True(t, CanViewTender(entity.RoleAuditor, other, tender))
	})
}

func TestCanManageBid(t *testing.T) {
	orgID := uuid.New()
	otherOrg := uuid.New()
	bid := &entity.Bid{ID: uuid.New(), OrganizationID: orgID}

	t.Run("supplier manages own organization's bid", func(t *testing.T) {
		assert.True(t, CanManageBid(entity.RoleSupplier, &orgID, bid))
	})

	t.Run("supplier cannot manage another organization's bid", func(t *testing.T) {
		assert.False(t, CanManageBid(entity.RoleSupplier, &otherOrg, bid))
	})

	t.Run("supplier without organization cannot manage bids", func(t *testing.T) {
		assert.False(t, CanManageBid(entity.RoleSupplier, nil, bid))
	})

	t.Run("admin does not edit supplier bids", func(t *testing.T) {
		assert.False(t, CanManageBid(entity.RoleAdmin, &orgID, bid))
	})
}

func TestCanViewBid(t *testing.T) {
	officer := uuid.New()
	orgID := uuid.New()
	otherOrg := uuid.New()
	tender := &entity.Tender{CreatedBy: officer, Status: entity.TenderPublished}
	bid := &entity.Bid{OrganizationID: orgID}

	t.Run("owning organization sees its bid", func(t *testing.T) {
		assert.True(t, CanViewBid(entity.RoleSupplier, uuid.New(), &orgID, bid, tender))
	})

	t.Run("competing supplier does not see the bid", func(t *testing.T) {
		assert.False(t, CanViewBid(entity.RoleSupplier, uuid.New(), &otherOrg, bid, tender))
	})

	t.Run("tender owner sees all bids", func(t *testing.T) {
		assert.True(t, CanViewBid(entity.RoleProcurementOfficer, officer, nil, bid, tender))
	})

	t.Run("unrelated officer does not see bids", func(t *testing.T) {
		assert.False(t, CanViewBid(entity.RoleProcurementOfficer, uuid.New(), nil, bid, tender))
	})

	t.Run("auditor sees all bids", func(t *testing.T) {
		assert.True(t, CanViewBid(entity.RoleAuditor, uuid.New(), nil, bid, tender))
	})
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, CanCreateTender(entity.RoleAdmin))
	assert.True(t, CanCreateTender(entity.RoleProcurementOfficer))
	assert.False(t, CanCreateTender(entity.RoleSupplier))

	assert.True(t, CanCreateBid(entity.RoleSupplier))
	assert.False(t, CanCreateBid(entity.RoleProcurementOfficer))
	assert.False(t, CanCreateBid(entity.RoleAuditor))

	assert.True(t, CanSeeDraftTenders(entity.RoleAuditor))
	assert.False(t, CanSeeDraftTenders(entity.RoleCitizen))
}
