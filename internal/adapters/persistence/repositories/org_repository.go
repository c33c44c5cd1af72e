package repositories

import (
	"context"

	"coop-memberhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// OrgRepository handles org unit data access
type OrgRepository struct {
	db *gorm.DB
}

// NewOrgRepository creates a new org repository
func NewOrgRepository(db *gorm.DB) *OrgRepository {
	return &OrgRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OrgRepository) WithTx(tx *gorm.DB) *OrgRepository {
	return &OrgRepository{db: tx}
}

// Create creates a new org unit
func (r *OrgRepository) Create(ctx context.Context, unit *models.OrgUnit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

// GetByID gets an org unit by ID
func (r *OrgRepository) GetByID(ctx context.Context, id uint) (*models.OrgUnit, error) {
	var unit models.OrgUnit
	err := r.db.WithContext(ctx).First(&unit, id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// UpdateColumns updates selected columns of an org unit
func (r *OrgRepository) UpdateColumns(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.OrgUnit{}).Where("id = ?", id).Updates(updates).Error
}

// Delete soft deletes an org unit
func (r *OrgRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.OrgUnit{}, id).Error
}

// CountChildren counts direct children of a unit
func (r *OrgRepository) CountChildren(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrgUnit{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

// ListChildren lists direct children of a unit
func (r *OrgRepository) ListChildren(ctx context.Context, id uint) ([]*models.OrgUnit, error) {
	var units []*models.OrgUnit
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", id).
		Order("id ASC").
		Find(&units).Error
	return units, err
}

// ListRoots lists all top-level units
func (r *OrgRepository) ListRoots(ctx context.Context) ([]*models.OrgUnit, error) {
	var units []*models.OrgUnit
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("id ASC").
		Find(&units).Error
	return units, err
}

// ListAll lists every unit (used by the tree builder)
func (r *OrgRepository) ListAll(ctx context.Context) ([]*models.OrgUnit, error) {
	var units []*models.OrgUnit
	err := r.db.WithContext(ctx).Order("id ASC").Find(&units).Error
	return units, err
}

// ListByPathPrefix lists all descendants of the unit whose subtree prefix is
// given. The trailing delimiter in the prefix keeps "1," from matching "12,".
func (r *OrgRepository) ListByPathPrefix(ctx context.Context, prefix string) ([]*models.OrgUnit, error) {
	var units []*models.OrgUnit
	err := r.db.WithContext(ctx).
		Where("path LIKE ?", prefix+"%").
		Order("level ASC, id ASC").
		Find(&units).Error
	return units, err
}

// RecountMembers rewrites the direct member count of the given units from the
// members table. Runs as a single statement so it can join a transaction.
func (r *OrgRepository) RecountMembers(ctx context.Context, ids []uint) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE org_units SET member_count = (
			SELECT COUNT(*) FROM members
			WHERE members.home_unit_id = org_units.id AND members.deleted_at IS NULL
		) WHERE id IN ?`, ids).Error
}

// SumMemberCounts sums the stored direct counts of the given units
func (r *OrgRepository) SumMemberCounts(ctx context.Context, ids []uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.OrgUnit{}).
		Where("id IN ?", ids).
		Select("COALESCE(SUM(member_count), 0)").
		Scan(&total).Error
	return total, err
}
