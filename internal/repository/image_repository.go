package repository

import (
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(image *models.Image) error {
	return r.db.Create(image).Error
}

func (r *ImageRepository) GetByIDForUser(id, userID uint) (*models.Image, error) {
	var image models.Image
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) ListByUser(userID uint, page, limit int) ([]models.Image, int64, error) {
	var images []models.Image
	var total int64

	if err := r.db.Model(&models.Image{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&images).Error
	return images, total, err
}

func (r *ImageRepository) MarkCompleted(id uint, url, storageKey string) error {
	return r.db.Model(&models.Image{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      models.ImageStatusCompleted,
		"url":         url,
		"storage_key": storageKey,
	}).Error
}

func (r *ImageRepository) MarkFailed(id uint, errMsg string) error {
	return r.db.Model(&models.Image{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status": models.ImageStatusFailed,
		"error":  errMsg,
	}).Error
}

func (r *ImageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Image{}, id).Error
}

func (r *ImageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Image{}).Count(&count).Error
	return count, err
}
