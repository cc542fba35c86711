package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/provider"
	"github.com/pixelmint/pixelmint-backend/pkg/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNoProvider     = errors.New("no image provider configured")
	ErrInvalidPrompt  = errors.New("invalid prompt")
	ErrGenerationBusy = errors.New("generation queue is full")
	ErrImageNotFound  = errors.New("image not found")
)

const generationQueueSize = 128

type imageStore interface {
	Create(image *models.Image) error
	GetByIDForUser(id, userID uint) (*models.Image, error)
	ListByUser(userID uint, page, limit int) ([]models.Image, int64, error)
	MarkCompleted(id uint, url, storageKey string) error
	MarkFailed(id uint, errMsg string) error
	Delete(id uint) error
}

type tokenSpender interface {
	Spend(userID uint, amount int, category, description string, metadata map[string]interface{}) (*models.TokenTransaction, error)
}

type dispatcher interface {
	Dispatch(userID uint, category, priority, title, body string) error
}

type generationJob struct {
	imageID  uint
	userID   uint
	provider provider.Provider
	request  provider.Request
}

// ImageService debits tokens up front and hands generation to a worker pool
// over a job channel, so completion updates survive independently of the
// request that started them.
type ImageService struct {
	images    imageStore
	tokens    tokenSpender
	providers *provider.Manager
	store     storage.ObjectStorage
	notifier  dispatcher
	logger    *zap.Logger

	jobs    chan generationJob
	timeout time.Duration
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func NewImageService(images imageStore, tokens tokenSpender, providers *provider.Manager, store storage.ObjectStorage, notifier dispatcher, timeout time.Duration, logger *zap.Logger) *ImageService {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &ImageService{
		images:    images,
		tokens:    tokens,
		providers: providers,
		store:     store,
		notifier:  notifier,
		logger:    logger,
		jobs:      make(chan generationJob, generationQueueSize),
		timeout:   timeout,
	}
}

// Start launches the worker pool. Workers drain until ctx is cancelled; Wait
// blocks until they exit.
func (s *ImageService) Start(ctx context.Context, workers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	if workers <= 0 {
		workers = 2
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-s.jobs:
					s.process(ctx, job)
				}
			}
		}()
	}
}

func (s *ImageService) Wait() {
	s.wg.Wait()
}

// Generate charges the caller and enqueues the job. Tokens are debited before
// the provider runs and are not refunded on generation failure.
func (s *ImageService) Generate(userID uint, req models.GenerateImageRequest) (*models.Image, error) {
	p := s.providers.Current()
	if p == nil {
		return nil, ErrNoProvider
	}

	opts := provider.Options{
		Size:    req.Size,
		Style:   req.Style,
		Quality: req.Quality,
		Model:   req.Model,
	}
	if opts.Size == "" {
		opts.Size = "1024x1024"
	}
	if opts.Quality == "" {
		opts.Quality = "standard"
	}

	if err := p.ValidatePrompt(req.Prompt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrompt, err)
	}

	if len(s.jobs) == cap(s.jobs) {
		return nil, ErrGenerationBusy
	}

	cost := p.CalculateCost(opts)

	if _, err := s.tokens.Spend(userID, cost, "generation", "Image generation", map[string]interface{}{
		"provider": p.Name(),
		"size":     opts.Size,
		"style":    opts.Style,
		"quality":  opts.Quality,
		"prompt":   req.Prompt,
	}); err != nil {
		return nil, err
	}

	image := &models.Image{
		UserID:     userID,
		Prompt:     req.Prompt,
		Provider:   p.Name(),
		Model:      opts.Model,
		Size:       opts.Size,
		Style:      opts.Style,
		Quality:    opts.Quality,
		Status:     models.ImageStatusGenerating,
		TokensUsed: cost,
	}
	if err := s.images.Create(image); err != nil {
		return nil, err
	}

	select {
	case s.jobs <- generationJob{
		imageID:  image.ID,
		userID:   userID,
		provider: p,
		request: provider.Request{
			Prompt:  req.Prompt,
			Options: opts,
		},
	}:
	default:
		// queue filled between the capacity check and the send
		if err := s.images.MarkFailed(image.ID, ErrGenerationBusy.Error()); err != nil {
			s.logger.Error("failed to mark image failed", zap.Uint("image_id", image.ID), zap.Error(err))
		}
		return nil, ErrGenerationBusy
	}

	return image, nil
}

func (s *ImageService) process(ctx context.Context, job generationJob) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := job.provider.Generate(genCtx, job.request)
	if err != nil {
		s.fail(job, err)
		return
	}

	url := result.URL
	storageKey := ""

	if len(result.Data) > 0 {
		storageKey = storage.GenerateKey("generations", result.ContentType)
		uploaded, uploadErr := s.store.Upload(genCtx, storageKey, bytes.NewReader(result.Data), result.ContentType)
		if uploadErr != nil {
			s.fail(job, fmt.Errorf("store generated image: %w", uploadErr))
			return
		}
		url = uploaded
	}

	if err := s.images.MarkCompleted(job.imageID, url, storageKey); err != nil {
		s.logger.Error("failed to mark image completed", zap.Uint("image_id", job.imageID), zap.Error(err))
		return
	}

	s.logger.Info("image generation completed",
		zap.Uint("image_id", job.imageID),
		zap.String("provider", job.provider.Name()),
	)

	if err := s.notifier.Dispatch(job.userID, "generation", models.NotificationPriorityNormal,
		"Your image is ready", "The image you requested has finished generating."); err != nil {
		s.logger.Error("failed to dispatch completion notification", zap.Uint("user_id", job.userID), zap.Error(err))
	}
}

// fail records the failure. The up-front debit stands; users are told through
// a notification rather than refunded.
func (s *ImageService) fail(job generationJob, genErr error) {
	s.logger.Error("image generation failed",
		zap.Uint("image_id", job.imageID),
		zap.String("provider", job.provider.Name()),
		zap.Error(genErr),
	)

	if err := s.images.MarkFailed(job.imageID, genErr.Error()); err != nil {
		s.logger.Error("failed to mark image failed", zap.Uint("image_id", job.imageID), zap.Error(err))
	}

	if err := s.notifier.Dispatch(job.userID, "generation", models.NotificationPriorityHigh,
		"Image generation failed", "Something went wrong while generating your image."); err != nil {
		s.logger.Error("failed to dispatch failure notification", zap.Uint("user_id", job.userID), zap.Error(err))
	}
}

func (s *ImageService) List(userID uint, page, limit int) ([]models.Image, int64, error) {
	return s.images.ListByUser(userID, page, limit)
}

func (s *ImageService) Get(userID, imageID uint) (*models.Image, error) {
	image, err := s.images.GetByIDForUser(imageID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return image, nil
}

func (s *ImageService) Delete(ctx context.Context, userID, imageID uint) error {
	image, err := s.Get(userID, imageID)
	if err != nil {
		return err
	}

	if image.StorageKey != "" {
		if err := s.store.Delete(ctx, image.StorageKey); err != nil {
			s.logger.Warn("failed to delete stored object", zap.String("key", image.StorageKey), zap.Error(err))
		}
	}

	return s.images.Delete(image.ID)
}
