package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/provider"
	"github.com/pixelmint/pixelmint-backend/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeImageStore struct {
	mu     sync.Mutex
	images map[uint]*models.Image
	nextID uint
	done   chan uint
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{
		images: make(map[uint]*models.Image),
		done:   make(chan uint, 16),
	}
}

func (f *fakeImageStore) Create(image *models.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	image.ID = f.nextID
	copied := *image
	f.images[image.ID] = &copied
	return nil
}

func (f *fakeImageStore) GetByIDForUser(id, userID uint) (*models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	image, ok := f.images[id]
	if !ok || image.UserID != userID {
		return nil, ErrImageNotFound
	}
	copied := *image
	return &copied, nil
}

func (f *fakeImageStore) ListByUser(userID uint, page, limit int) ([]models.Image, int64, error) {
	return nil, 0, nil
}

func (f *fakeImageStore) MarkCompleted(id uint, url, storageKey string) error {
	f.mu.Lock()
	image := f.images[id]
	image.Status = models.ImageStatusCompleted
	image.URL = url
	image.StorageKey = storageKey
	f.mu.Unlock()
	f.done <- id
	return nil
}

func (f *fakeImageStore) MarkFailed(id uint, errMsg string) error {
	f.mu.Lock()
	image := f.images[id]
	image.Status = models.ImageStatusFailed
	image.Error = errMsg
	f.mu.Unlock()
	f.done <- id
	return nil
}

func (f *fakeImageStore) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.images, id)
	return nil
}

type fakeSpender struct {
	mu      sync.Mutex
	calls   int
	lastAmt int
	err     error
}

func (f *fakeSpender) Spend(userID uint, amount int, category, description string, metadata map[string]interface{}) (*models.TokenTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	f.lastAmt = amount
	return &models.TokenTransaction{UserID: userID, Amount: -amount}, nil
}

type fakeObjectStorage struct {
	uploads int
}

func (f *fakeObjectStorage) Upload(ctx context.Context, key string, src io.Reader, contentType string) (string, error) {
	f.uploads++
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeObjectStorage) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeObjectStorage) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://cdn.example.com/" + key + "?signed", nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeDispatcher) Dispatch(userID uint, category, priority, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, priority)
	return nil
}

func newImageServiceFixture(spender *fakeSpender) (*ImageService, *fakeImageStore, *fakeObjectStorage, *fakeDispatcher) {
	manager := provider.NewManager(zap.NewNop())
	manager.Register(provider.NewMockProvider())

	store := newFakeImageStore()
	objects := &fakeObjectStorage{}
	notifier := &fakeDispatcher{}

	svc := NewImageService(store, spender, manager, objects, notifier, time.Second, zap.NewNop())
	return svc, store, objects, notifier
}

func waitDone(t *testing.T, store *fakeImageStore) uint {
	t.Helper()
	select {
	case id := <-store.done:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for worker")
		return 0
	}
}

func TestImageService_GenerateChargesUpFront(t *testing.T) {
	spender := &fakeSpender{}
	svc, store, _, _ := newImageServiceFixture(spender)

	image, err := svc.Generate(1, models.GenerateImageRequest{Prompt: "a calm mountain lake"})
	require.NoError(t, err)

	// default 1024x1024 standard on the mock price table
	require.Equal(t, 8, spender.lastAmt)
	require.Equal(t, models.ImageStatusGenerating, image.Status)
	require.Equal(t, 8, image.TokensUsed)
	require.Equal(t, "1024x1024", image.Size)
	require.Equal(t, "mock", image.Provider)
	require.Len(t, store.images, 1)
}

func TestImageService_GenerateRejectsBeforeCharging(t *testing.T) {
	spender := &fakeSpender{}
	svc, store, _, _ := newImageServiceFixture(spender)

	_, err := svc.Generate(1, models.GenerateImageRequest{Prompt: "x"})
	require.ErrorIs(t, err, ErrInvalidPrompt)
	require.Zero(t, spender.calls)
	require.Empty(t, store.images)
}

func TestImageService_GenerateInsufficientTokens(t *testing.T) {
	spender := &fakeSpender{err: repository.ErrInsufficientTokens}
	svc, store, _, _ := newImageServiceFixture(spender)

	_, err := svc.Generate(1, models.GenerateImageRequest{Prompt: "a calm mountain lake"})
	require.ErrorIs(t, err, repository.ErrInsufficientTokens)
	require.Empty(t, store.images)
}

func TestImageService_GenerateNoProvider(t *testing.T) {
	manager := provider.NewManager(zap.NewNop())
	svc := NewImageService(newFakeImageStore(), &fakeSpender{}, manager, &fakeObjectStorage{}, &fakeDispatcher{}, time.Second, zap.NewNop())

	_, err := svc.Generate(1, models.GenerateImageRequest{Prompt: "a calm mountain lake"})
	require.ErrorIs(t, err, ErrNoProvider)
}

func TestImageService_WorkerCompletesGeneration(t *testing.T) {
	spender := &fakeSpender{}
	svc, store, objects, notifier := newImageServiceFixture(spender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx, 1)

	image, err := svc.Generate(1, models.GenerateImageRequest{Prompt: "a calm mountain lake"})
	require.NoError(t, err)

	id := waitDone(t, store)
	require.Equal(t, image.ID, id)

	stored, err := store.GetByIDForUser(id, 1)
	require.NoError(t, err)
	require.Equal(t, models.ImageStatusCompleted, stored.Status)
	require.True(t, strings.HasPrefix(stored.StorageKey, "generations/"))
	require.Contains(t, stored.URL, stored.StorageKey)
	require.Equal(t, 1, objects.uploads)

	// the completion notification goes out after the status flip
	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.calls) == 1 && notifier.calls[0] == models.NotificationPriorityNormal
	}, 2*time.Second, 10*time.Millisecond)
}

func TestImageService_WorkerFailureKeepsCharge(t *testing.T) {
	spender := &fakeSpender{}
	svc, store, _, notifier := newImageServiceFixture(spender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx, 1)

	_, err := svc.Generate(1, models.GenerateImageRequest{Prompt: "please fail this one"})
	require.NoError(t, err)

	id := waitDone(t, store)
	stored, err := store.GetByIDForUser(id, 1)
	require.NoError(t, err)
	require.Equal(t, models.ImageStatusFailed, stored.Status)
	require.NotEmpty(t, stored.Error)

	// debit is not refunded on failure
	require.Equal(t, 1, spender.calls)

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.calls) == 1 && notifier.calls[0] == models.NotificationPriorityHigh
	}, 2*time.Second, 10*time.Millisecond)
}

func TestImageService_QueueFullRejectsBeforeCharging(t *testing.T) {
	spender := &fakeSpender{}
	svc, _, _, _ := newImageServiceFixture(spender)

	// workers never started, so the queue only fills
	for i := 0; i < generationQueueSize; i++ {
		_, err := svc.Generate(1, models.GenerateImageRequest{Prompt: "a calm mountain lake"})
		require.NoError(t, err)
	}

	charged := spender.calls
	_, err := svc.Generate(1, models.GenerateImageRequest{Prompt: "a calm mountain lake"})
	require.ErrorIs(t, err, ErrGenerationBusy)
	require.Equal(t, charged, spender.calls)
}
