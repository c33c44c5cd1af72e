package services

import (
	"context"
	"testing"

	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/adapters/persistence/repositories"
	"coop-memberhub/internal/core/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

type fixture struct {
	db          *gorm.DB
	orgRepo     *repositories.OrgRepository
	memberRepo  repositories.MemberRepository
	orgSvc      *OrgService
	scopeSvc    *ScopeService
	memberSvc   *MemberService
	transferSvc *TransferService
	perms       *domain.Permissions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	orgRepo := repositories.NewOrgRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	transferRepo := repositories.NewTransferRepository(db)
	logRepo := repositories.NewApprovalLogRepository(db)
	perms := domain.DefaultPermissions()
	scopeSvc := NewScopeService(orgRepo)

	return &fixture{
		db:         db,
		orgRepo:    orgRepo,
		memberRepo: memberRepo,
		orgSvc:     NewOrgService(db, orgRepo, memberRepo),
		scopeSvc:   scopeSvc,
		memberSvc:  NewMemberService(memberRepo, orgRepo, perms),
		transferSvc: NewTransferService(
			db, transferRepo, logRepo, orgRepo, memberRepo,
			scopeSvc, nil, perms, 3,
		),
		perms: perms,
	}
}

// mustCreateUnit creates a unit through the service so path bookkeeping runs
func (f *fixture) mustCreateUnit(t *testing.T, name string, parentID *uint) *models.OrgUnit {
	t.Helper()

	unit, err := f.orgSvc.CreateUnit(context.Background(), &CreateUnitInput{
		ParentID: parentID,
		Name:     name,
	})
	require.NoError(t, err)
	return unit
}

// mustSeedMember inserts a member directly and fixes the unit's direct count
func (f *fixture) mustSeedMember(t *testing.T, membNo, name string, unitID uint) *models.Member {
	t.Helper()

	member := &models.Member{
		MembNo:     membNo,
		FullName:   name,
		HomeUnitID: unitID,
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(member).Error)
	require.NoError(t, f.orgRepo.RecountMembers(context.Background(), []uint{unitID}))
	return member
}

func memberActor(member *models.Member) domain.Actor {
	return domain.Actor{
		UserID:   member.ID + 1000,
		MembNo:   member.MembNo,
		Username: member.FullName,
		Role:     string(domain.RoleMember),
		SourceIP: "10.0.0.1",
	}
}

func officerActor(userID, unitID uint, name string) domain.Actor {
	return domain.Actor{
		UserID:   userID,
		MembNo:   "OFF-" + name,
		Username: name,
		UnitID:   unitID,
		Role:     string(domain.RoleOfficer),
		SourceIP: "10.0.0.2",
	}
}

func adminActor() domain.Actor {
	return domain.Actor{
		UserID:   1,
		MembNo:   "ADMIN001",
		Username: "admin",
		Role:     string(domain.RoleAdmin),
		SourceIP: "10.0.0.3",
	}
}

func ptr(v uint) *uint {
	return &v
}
