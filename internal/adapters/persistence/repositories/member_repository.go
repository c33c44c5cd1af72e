package repositories

import (
	"context"

	"coop-memberhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// memberRepository implements MemberRepository with GORM
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) WithTx(tx *gorm.DB) MemberRepository {
	return &memberRepository{db: tx}
}

func (r *memberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Preload("HomeUnit").First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByMembNo(ctx context.Context, membNo string) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Preload("HomeUnit").Where("memb_no = ?", membNo).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) Search(ctx context.Context, query string, limit int) ([]*models.Member, error) {
	var members []*models.Member
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Preload("HomeUnit").
		Where("memb_no LIKE ? OR full_name LIKE ?", pattern, pattern).
		Order("memb_no ASC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

func (r *memberRepository) ListByHomeUnit(ctx context.Context, unitID uint, offset, limit int) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Member{}).Where("home_unit_id = ?", unitID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("memb_no ASC").
		Offset(offset).
		Limit(limit).
		Find(&members).Error

	return members, total, err
}

func (r *memberRepository) CountByHomeUnit(ctx context.Context, unitID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("home_unit_id = ?", unitID).
		Count(&count).Error
	return count, err
}

func (r *memberRepository) UpdateHomeUnit(ctx context.Context, memberID, unitID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", memberID).
		Update("home_unit_id", unitID).Error
}
