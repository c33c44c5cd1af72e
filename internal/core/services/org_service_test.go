package services

import (
	"context"
	"errors"
	"testing"

	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUnitHierarchy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCreateUnit(t, "Head Office", nil)
	assert.Equal(t, "", root.Path)
	assert.Equal(t, 0, root.Level)
	assert.True(t, root.IsLeaf)

	child := f.mustCreateUnit(t, "Branch North", ptr(root.ID))
	assert.Equal(t, root.SubtreePrefix(), child.Path)
	assert.Equal(t, 1, child.Level)
	assert.True(t, child.IsLeaf)

	// Parent lost its leaf flag
	reloaded, err := f.orgRepo.GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsLeaf)

	grandchild := f.mustCreateUnit(t, "Team A", ptr(child.ID))
	assert.Equal(t, child.SubtreePrefix(), grandchild.Path)
	assert.Equal(t, 2, grandchild.Level)
	assert.Equal(t, grandchild.Level, len(splitPathIDs(grandchild.Path)))
}

// splitPathIDs decomposes a stored path for level assertions
func splitPathIDs(path string) []uint {
	return AncestorIDs(&models.OrgUnit{Path: path})
}

func TestCreateUnitParentNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.orgSvc.CreateUnit(context.Background(), &CreateUnitInput{
		ParentID: ptr(9999),
		Name:     "Orphan",
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateUnitEmptyName(t *testing.T) {
	f := newFixture(t)

	_, err := f.orgSvc.CreateUnit(context.Background(), &CreateUnitInput{Name: "   "})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreateUnitUnderCorruptedParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.mustCreateUnit(t, "Branch", nil)

	// Stored level disagrees with the stored path
	require.NoError(t, f.db.Exec("UPDATE org_units SET level = 5 WHERE id = ?", parent.ID).Error)

	_, err := f.orgSvc.CreateUnit(ctx, &CreateUnitInput{ParentID: ptr(parent.ID), Name: "Team"})
	assert.True(t, errors.Is(err, domain.ErrIntegrity))
}

func TestDeleteUnitRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.mustCreateUnit(t, "Region", nil)
	child := f.mustCreateUnit(t, "District", ptr(parent.ID))

	// Delete with a child present
	err := f.orgSvc.DeleteUnit(ctx, parent.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	// Delete the child, then the parent becomes deletable and a leaf again
	require.NoError(t, f.orgSvc.DeleteUnit(ctx, child.ID))

	reloaded, err := f.orgRepo.GetByID(ctx, parent.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsLeaf)

	require.NoError(t, f.orgSvc.DeleteUnit(ctx, parent.ID))

	_, err = f.orgSvc.GetUnit(ctx, parent.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDeleteUnitWithMembers(t *testing.T) {
	f := newFixture(t)

	unit := f.mustCreateUnit(t, "Branch", nil)
	f.mustSeedMember(t, "M0001", "Alice Wong", unit.ID)

	err := f.orgSvc.DeleteUnit(context.Background(), unit.ID)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestUpdateUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.mustCreateUnit(t, "Old Name", nil)

	name := "New Name"
	status := models.UnitStatusDisabled
	updated, err := f.orgSvc.UpdateUnit(ctx, unit.ID, &UpdateUnitInput{Name: &name, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, models.UnitStatusDisabled, updated.Status)

	bad := "SOMETHING"
	_, err = f.orgSvc.UpdateUnit(ctx, unit.ID, &UpdateUnitInput{Status: &bad})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGetUnitAggregateCount(t *testing.T) {
	f := newFixture(t)

	root := f.mustCreateUnit(t, "Region", nil)
	branch := f.mustCreateUnit(t, "Branch", ptr(root.ID))
	team := f.mustCreateUnit(t, "Team", ptr(branch.ID))

	f.mustSeedMember(t, "M0001", "Alice Wong", root.ID)
	f.mustSeedMember(t, "M0002", "Bob Lee", branch.ID)
	f.mustSeedMember(t, "M0003", "Carol Tan", team.ID)
	f.mustSeedMember(t, "M0004", "Dan Ng", team.ID)

	resp, err := f.orgSvc.GetUnit(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.MemberCount)
	assert.Equal(t, int64(4), resp.AggregateCount)

	resp, err = f.orgSvc.GetUnit(context.Background(), branch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.AggregateCount)
}

// flattenTree rebuilds (id, parentID) pairs from a built tree
func flattenTree(nodes []*OrgTreeNode, pairs map[uint]*uint) {
	for _, n := range nodes {
		pairs[n.ID] = n.ParentID
		flattenTree(n.Children, pairs)
	}
}

func TestGetSubtreeRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCreateUnit(t, "Region", nil)
	b1 := f.mustCreateUnit(t, "Branch 1", ptr(root.ID))
	b2 := f.mustCreateUnit(t, "Branch 2", ptr(root.ID))
	t1 := f.mustCreateUnit(t, "Team 1", ptr(b1.ID))

	result, err := f.orgSvc.GetSubtree(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, result.Complete)
	require.Len(t, result.Roots, 1)

	got := map[uint]*uint{}
	flattenTree(result.Roots, got)

	want := map[uint]*uint{
		root.ID: nil,
		b1.ID:   ptr(root.ID),
		b2.ID:   ptr(root.ID),
		t1.ID:   ptr(b1.ID),
	}
	require.Len(t, got, len(want))
	for id, parent := range want {
		gp, ok := got[id]
		require.True(t, ok, "unit %d missing from tree", id)
		if parent == nil {
			assert.Nil(t, gp)
		} else {
			require.NotNil(t, gp)
			assert.Equal(t, *parent, *gp)
		}
	}
}

func TestGetSubtreeForest(t *testing.T) {
	f := newFixture(t)

	r1 := f.mustCreateUnit(t, "Coop A", nil)
	r2 := f.mustCreateUnit(t, "Coop B", nil)
	f.mustCreateUnit(t, "Branch", ptr(r1.ID))

	result, err := f.orgSvc.GetSubtree(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Len(t, result.Roots, 2)
	_ = r2
}

func TestGetSubtreeCycleTruncates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCreateUnit(t, "Region", nil)
	child := f.mustCreateUnit(t, "Branch", ptr(root.ID))
	grand := f.mustCreateUnit(t, "Team", ptr(child.ID))

	// Manual corruption: the branch now claims its own grandchild as parent
	require.NoError(t, f.db.Exec("UPDATE org_units SET parent_id = ? WHERE id = ?", grand.ID, child.ID).Error)

	result, err := f.orgSvc.GetSubtree(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Contains(t, result.Reason, "cycle")
}

func TestGetSubtreeOrphanTruncates(t *testing.T) {
	f := newFixture(t)

	root := f.mustCreateUnit(t, "Region", nil)
	child := f.mustCreateUnit(t, "Branch", ptr(root.ID))

	// Manual corruption: reparent the branch to a unit that does not exist
	require.NoError(t, f.db.Exec("UPDATE org_units SET parent_id = ? WHERE id = ?", 9999, child.ID).Error)

	result, err := f.orgSvc.GetSubtree(context.Background(), root.ID)
	require.NoError(t, err)
	assert.False(t, result.Complete)
}

func TestRepairPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	root := f.mustCreateUnit(t, "Region", nil)
	child := f.mustCreateUnit(t, "Branch", ptr(root.ID))
	grand := f.mustCreateUnit(t, "Team", ptr(child.ID))

	// Corrupt the materialized data below the root
	require.NoError(t, f.db.Exec("UPDATE org_units SET path = '', level = 0 WHERE id IN (?, ?)", child.ID, grand.ID).Error)

	result, err := f.orgSvc.RepairPath(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, 2, result.Repaired)

	fixedChild, err := f.orgRepo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, root.SubtreePrefix(), fixedChild.Path)
	assert.Equal(t, 1, fixedChild.Level)

	fixedGrand, err := f.orgRepo.GetByID(ctx, grand.ID)
	require.NoError(t, err)
	assert.Equal(t, fixedChild.SubtreePrefix(), fixedGrand.Path)
	assert.Equal(t, 2, fixedGrand.Level)
}

func TestRepairPathDegraded(t *testing.T) {
	f := newFixture(t)

	root := f.mustCreateUnit(t, "Region", nil)
	child := f.mustCreateUnit(t, "Branch", ptr(root.ID))

	// Broken parent chain: parent row is gone
	require.NoError(t, f.db.Exec("UPDATE org_units SET parent_id = ? WHERE id = ?", 9999, child.ID).Error)

	result, err := f.orgSvc.RepairPath(context.Background(), child.ID)
	require.NoError(t, err)
	assert.True(t, result.Degraded)

	// The unit was degraded to a root at the break
	fixed, err := f.orgRepo.GetByID(context.Background(), child.ID)
	require.NoError(t, err)
	assert.Equal(t, "", fixed.Path)
	assert.Equal(t, 0, fixed.Level)
}

func TestRecomputeMemberCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unit := f.mustCreateUnit(t, "Branch", nil)
	f.mustSeedMember(t, "M0001", "Alice Wong", unit.ID)
	f.mustSeedMember(t, "M0002", "Bob Lee", unit.ID)

	// Drift the stored count, then recompute
	require.NoError(t, f.db.Exec("UPDATE org_units SET member_count = 99 WHERE id = ?", unit.ID).Error)

	direct, aggregate, err := f.orgSvc.RecomputeMemberCount(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), direct)
	assert.Equal(t, int64(2), aggregate)

	reloaded, err := f.orgRepo.GetByID(ctx, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reloaded.MemberCount)
}
