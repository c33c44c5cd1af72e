package repositories

import (
	"context"

	"coop-memberhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// MemberRepository defines member directory access.
// Read-mostly; the only write is the home-unit reassignment performed when a
// transfer reaches APPROVED.
type MemberRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Member, error)
	GetByMembNo(ctx context.Context, membNo string) (*models.Member, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Member, error)
	ListByHomeUnit(ctx context.Context, unitID uint, offset, limit int) ([]*models.Member, int64, error)
	CountByHomeUnit(ctx context.Context, unitID uint) (int64, error)
	UpdateHomeUnit(ctx context.Context, memberID, unitID uint) error
	WithTx(tx *gorm.DB) MemberRepository
}

// UserRepository defines approver/admin account access. Account lifecycle
// lives in the member portal; this service only seeds the initial admin.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	CountByRole(ctx context.Context, role string) (int64, error)
}
