package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrFileNotFound        = errors.New("file not found")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

const maxUploadSize = 10 << 20 // 10 MiB

var supportedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

const signedURLTTL = 15 * time.Minute

type fileStore interface {
	Create(file *models.File) error
	GetByIDForUser(id, userID uint) (*models.File, error)
	ListByUser(userID uint, page, limit int) ([]models.File, int64, error)
	Delete(id uint) error
}

type FileService struct {
	files  fileStore
	store  storage.ObjectStorage
	logger *zap.Logger
}

func NewFileService(files fileStore, store storage.ObjectStorage, logger *zap.Logger) *FileService {
	return &FileService{
		files:  files,
		store:  store,
		logger: logger,
	}
}

// Upload validates the multipart file, pushes it to object storage and
// records its metadata.
func (s *FileService) Upload(ctx context.Context, userID uint, fileHeader *multipart.FileHeader) (*models.File, error) {
	if fileHeader.Size > maxUploadSize {
		return nil, ErrFileTooLarge
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !supportedUploadTypes[contentType] {
		return nil, ErrUnsupportedFileType
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer src.Close()

	key := storage.GenerateKey("uploads", contentType)
	url, err := s.store.Upload(ctx, key, io.LimitReader(src, maxUploadSize), contentType)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	file := &models.File{
		UserID:     userID,
		FileName:   fileHeader.Filename,
		FileSize:   fileHeader.Size,
		MimeType:   contentType,
		StorageKey: key,
		URL:        url,
	}
	if err := s.files.Create(file); err != nil {
		// orphaned object, clean up best effort
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned object", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	return file, nil
}

func (s *FileService) List(userID uint, page, limit int) ([]models.File, int64, error) {
	return s.files.ListByUser(userID, page, limit)
}

func (s *FileService) Get(userID, fileID uint) (*models.File, error) {
	file, err := s.files.GetByIDForUser(fileID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return file, nil
}

// SignedURL returns a short-lived download link for the stored object.
func (s *FileService) SignedURL(ctx context.Context, userID, fileID uint) (string, error) {
	file, err := s.Get(userID, fileID)
	if err != nil {
		return "", err
	}

	return s.store.SignedURL(ctx, file.StorageKey, signedURLTTL)
}

func (s *FileService) Delete(ctx context.Context, userID, fileID uint) error {
	file, err := s.Get(userID, fileID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		s.logger.Warn("failed to delete stored object", zap.String("key", file.StorageKey), zap.Error(err))
	}

	return s.files.Delete(file.ID)
}
