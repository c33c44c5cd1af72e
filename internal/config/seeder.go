package config

import (
	"context"
	"log"

	"coop-memberhub/internal/adapters/persistence/models"
	"coop-memberhub/internal/adapters/persistence/repositories"
	"coop-memberhub/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	rootID, err := s.seedRootUnit()
	if err != nil {
		log.Printf("⚠️ Root unit seeder skipped: %v", err)
	}

	if err := s.seedAdminUser(rootID); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedRootUnit ensures at least one root org unit exists
func (s *Seeder) seedRootUnit() (uint, error) {
	var root models.OrgUnit
	err := s.db.Where("parent_id IS NULL").First(&root).Error
	if err == nil {
		return root.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}

	root = models.OrgUnit{
		Name:   "Head Office",
		Status: models.UnitStatusActive,
		IsLeaf: true,
	}
	if err := s.db.Create(&root).Error; err != nil {
		return 0, err
	}

	log.Printf("✅ Root org unit created: %s (#%d)", root.Name, root.ID)
	return root.ID, nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser(rootUnitID uint) error {
	ctx := context.Background()
	users := repositories.NewUserRepository(s.db)

	// Check if admin already exists
	count, err := users.CountByRole(ctx, "ADMIN")
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		MembNo:   "ADMIN001",
		Username: "admin",
		Email:    "admin@coop.example.org",
		Password: hashedPassword,
		Role:     "ADMIN",
		UnitID:   rootUnitID,
		IsActive: true,
	}

	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
