package config

import (
	"log"

	"medask-forum/internal/adapters/persistence/models"
	"medask-forum/internal/core/domain"
	"medask-forum/internal/pkg/password"

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

	if err := s.seedCategories(); err != nil {
		return err
	}

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedCategories seeds the question categories (master data)
func (s *Seeder) seedCategories() error {
	categories := []models.Category{
		{Code: "GENERAL", Name: "General Medicine", Description: "General health questions"},
		{Code: "PEDIATRICS", Name: "Pediatrics", Description: "Children's health"},
		{Code: "DERMA", Name: "Dermatology", Description: "Skin conditions"},
		{Code: "CARDIO", Name: "Cardiology", Description: "Heart and circulation"},
		{Code: "MENTAL", Name: "Mental Health", Description: "Mental health and wellbeing"},
		{Code: "NUTRITION", Name: "Nutrition", Description: "Diet and nutrition"},
	}

	for _, category := range categories {
		var count int64
		s.db.Model(&models.Category{}).Where("code = ?", category.Code).Count(&count)
		if count > 0 {
			continue
		}

		category.IsActive = true
		if err := s.db.Create(&category).Error; err != nil {
			return err
		}
	}

	log.Println("✅ Categories seeded")
	return nil
}

// seedAdminUser seeds default admin user
// This is for development/testing only
// In production, create admin through secure process
func (s *Seeder) seedAdminUser() error {
	var count int64
	s.db.Model(&models.User{}).Where("roles LIKE ?", "%ADMIN%").Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash("admin123456")
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    "admin@medask.example.com",
		Password: hashedPassword,
		Roles:    string(domain.RoleAdmin),
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
