package services

import (
	"context"
	"fmt"
	"strings"

	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/adapters/persistence/repositories"
	"coop-memberhub/internal/core/domain"

	"gorm.io/gorm"
)

// MemberService handles member directory lookups
type MemberService struct {
	memberRepo repositories.MemberRepository
	orgRepo    *repositories.OrgRepository
	perms      *domain.Permissions
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo repositories.MemberRepository, orgRepo *repositories.OrgRepository, perms *domain.Permissions) *MemberService {
	return &MemberService{
		memberRepo: memberRepo,
		orgRepo:    orgRepo,
		perms:      perms,
	}
}

// Search finds members by member number or name fragment
func (s *MemberService) Search(ctx context.Context, actor domain.Actor, query string) ([]*models.Member, error) {
	if !s.perms.CanBrowseMembers(actor.Role) {
		return nil, fmt.Errorf("role %s may not browse members: %w", actor.Role, domain.ErrForbidden)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required: %w", domain.ErrValidation)
	}

	return s.memberRepo.Search(ctx, query, 20)
}

// GetByID resolves a member to name and home unit
func (s *MemberService) GetByID(ctx context.Context, actor domain.Actor, id uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("member %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	if actor.MembNo != member.MembNo && !s.perms.CanBrowseMembers(actor.Role) {
		return nil, fmt.Errorf("role %s may not browse members: %w", actor.Role, domain.ErrForbidden)
	}
	return member, nil
}

// ListByUnit lists the members directly assigned to a unit, paginated
func (s *MemberService) ListByUnit(ctx context.Context, actor domain.Actor, unitID uint, page, limit int) ([]*models.Member, int64, error) {
	if !s.perms.CanBrowseMembers(actor.Role) {
		return nil, 0, fmt.Errorf("role %s may not browse members: %w", actor.Role, domain.ErrForbidden)
	}

	if _, err := s.orgRepo.GetByID(ctx, unitID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, 0, fmt.Errorf("unit %d: %w", unitID, domain.ErrNotFound)
		}
		return nil, 0, err
	}

	page, limit = normalizePage(page, limit)
	return s.memberRepo.ListByHomeUnit(ctx, unitID, (page-1)*limit, limit)
}
