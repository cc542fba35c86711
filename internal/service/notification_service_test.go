package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotificationStore struct {
	rows   []*models.Notification
	nextID uint
}

func (f *fakeNotificationStore) Create(n *models.Notification) error {
	f.nextID++
	n.ID = f.nextID
	f.rows = append(f.rows, n)
	return nil
}

func (f *fakeNotificationStore) Update(n *models.Notification) error {
	for i, row := range f.rows {
		if row.ID == n.ID {
			copied := *n
			f.rows[i] = &copied
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeNotificationStore) GetByIDForUser(id, userID uint) (*models.Notification, error) {
	for _, n := range f.rows {
		if n.ID == id && n.UserID == userID {
			return n, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeNotificationStore) ListByUser(userID uint, page, limit int) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range f.rows {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationStore) ListDeliverable(limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.rows {
		if n.Status == models.NotificationStatusPending && n.Attempts < models.MaxDeliveryAttempts {
			out = append(out, *n)
		}
	}
	return out, nil
}

type fakeMailer struct {
	SendNotificationFn    func(email, title, body string) error
	SendPurchaseReceiptFn func(email, fullName string, tokens int, amount int64, currency string) error
}

func (f *fakeMailer) SendNotification(email, title, body string) error {
	return f.SendNotificationFn(email, title, body)
}

func (f *fakeMailer) SendPurchaseReceipt(email, fullName string, tokens int, amount int64, currency string) error {
	if f.SendPurchaseReceiptFn == nil {
		return nil
	}
	return f.SendPurchaseReceiptFn(email, fullName, tokens, amount, currency)
}

type fakePush struct {
	configured bool
	sent       int
	err        error
}

func (f *fakePush) Configured() bool { return f.configured }
func (f *fakePush) Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	f.sent++
	return f.err
}

func notificationUsers(user *models.User) *fakeUserGetter {
	return &fakeUserGetter{
		GetByIDFn: func(id uint) (*models.User, error) { return user, nil },
	}
}

func TestNotificationService_DispatchEmailOnly(t *testing.T) {
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{
		SendNotificationFn: func(email, title, body string) error { return nil },
	}
	push := &fakePush{configured: true}
	users := notificationUsers(&models.User{ID: 1, Email: "a@b.c"}) // no device token

	svc := NewNotificationService(store, users, mailer, push, zap.NewNop())

	require.NoError(t, svc.Dispatch(1, "generation", models.NotificationPriorityNormal, "Ready", "Done"))

	require.Len(t, store.rows, 1)
	require.Equal(t, models.NotificationChannelEmail, store.rows[0].Channel)
	require.Equal(t, models.NotificationStatusSent, store.rows[0].Status)
	require.Equal(t, 1, store.rows[0].Attempts)
	require.Zero(t, push.sent)
}

func TestNotificationService_DispatchFansOutToPush(t *testing.T) {
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{
		SendNotificationFn: func(email, title, body string) error { return nil },
	}
	push := &fakePush{configured: true}
	users := notificationUsers(&models.User{ID: 1, Email: "a@b.c", DeviceToken: "tok"})

	svc := NewNotificationService(store, users, mailer, push, zap.NewNop())

	require.NoError(t, svc.Dispatch(1, "payment", models.NotificationPriorityNormal, "Tokens added", "220 tokens"))

	require.Len(t, store.rows, 2)
	require.Equal(t, 1, push.sent)
}

func TestNotificationService_FailedDeliveryStaysPendingUntilCeiling(t *testing.T) {
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{
		SendNotificationFn: func(email, title, body string) error { return errors.New("smtp down") },
	}
	users := notificationUsers(&models.User{ID: 1, Email: "a@b.c"})

	svc := NewNotificationService(store, users, mailer, &fakePush{}, zap.NewNop())

	require.NoError(t, svc.Dispatch(1, "generation", models.NotificationPriorityHigh, "Failed", "Sorry"))

	require.Equal(t, models.NotificationStatusPending, store.rows[0].Status)
	require.Equal(t, 1, store.rows[0].Attempts)

	// two retries hit the ceiling and mark the row failed for good
	retried, err := svc.RetryPending(10)
	require.NoError(t, err)
	require.Equal(t, 1, retried)
	require.Equal(t, 2, store.rows[0].Attempts)
	require.Equal(t, models.NotificationStatusPending, store.rows[0].Status)

	retried, err = svc.RetryPending(10)
	require.NoError(t, err)
	require.Equal(t, 1, retried)
	require.Equal(t, 3, store.rows[0].Attempts)
	require.Equal(t, models.NotificationStatusFailed, store.rows[0].Status)

	// nothing left to retry
	retried, err = svc.RetryPending(10)
	require.NoError(t, err)
	require.Zero(t, retried)
}

func TestNotificationService_MarkRead(t *testing.T) {
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{
		SendNotificationFn: func(email, title, body string) error { return nil },
	}
	users := notificationUsers(&models.User{ID: 1, Email: "a@b.c"})

	svc := NewNotificationService(store, users, mailer, &fakePush{}, zap.NewNop())
	require.NoError(t, svc.Dispatch(1, "generation", models.NotificationPriorityNormal, "Ready", "Done"))

	read, err := svc.MarkRead(1, store.rows[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusRead, read.Status)

	_, err = svc.MarkRead(2, store.rows[0].ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)
}
