package repository

import (
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"gorm.io/gorm"
)

type TokenPackageRepository struct {
	db *gorm.DB
}

func NewTokenPackageRepository(db *gorm.DB) *TokenPackageRepository {
	return &TokenPackageRepository{db: db}
}

func (r *TokenPackageRepository) Create(pkg *models.TokenPackage) error {
	return r.db.Create(pkg).Error
}

func (r *TokenPackageRepository) GetByID(id uint) (*models.TokenPackage, error) {
	var pkg models.TokenPackage
	err := r.db.First(&pkg, id).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *TokenPackageRepository) GetActive() ([]models.TokenPackage, error) {
	var packages []models.TokenPackage
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&packages).Error
	return packages, err
}

func (r *TokenPackageRepository) GetAll() ([]models.TokenPackage, error) {
	var packages []models.TokenPackage
	err := r.db.Order("price ASC").Find(&packages).Error
	return packages, err
}

func (r *TokenPackageRepository) Update(pkg *models.TokenPackage) error {
	return r.db.Save(pkg).Error
}
