package database

import (
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func New(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.TokenPackage{},
		&models.Payment{},
		&models.TokenTransaction{},
		&models.Image{},
		&models.File{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	return seedTokenPackages(db)
}

// seedTokenPackages inserts the default catalog on first boot. Existing
// packages are left alone so price edits in the dashboard survive restarts.
func seedTokenPackages(db *gorm.DB) error {
	packages := []models.TokenPackage{
		{
			Name:        "Starter",
			Description: "50 tokens for trying things out",
			Tokens:      50,
			BonusTokens: 0,
			Price:       9.99,
			IsActive:    true,
		},
		{
			Name:        "Creator",
			Description: "200 tokens plus 20 bonus tokens",
			Tokens:      200,
			BonusTokens: 20,
			Price:       29.99,
			IsActive:    true,
		},
		{
			Name:               "Studio",
			Description:        "500 tokens plus 75 bonus tokens",
			Tokens:             500,
			BonusTokens:        75,
			Price:              59.99,
			DiscountPercentage: 10,
			IsActive:           true,
		},
	}

	for _, pkg := range packages {
		var count int64
		if err := db.Model(&models.TokenPackage{}).Where("name = ?", pkg.Name).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&pkg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
