package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"go.uber.org/zap"
)

var ErrNotificationNotFound = errors.New("notification not found")

type notificationStore interface {
	Create(notification *models.Notification) error
	Update(notification *models.Notification) error
	GetByIDForUser(id, userID uint) (*models.Notification, error)
	ListByUser(userID uint, page, limit int) ([]models.Notification, int64, error)
	ListDeliverable(limit int) ([]models.Notification, error)
}

type notificationMailer interface {
	SendNotification(email, title, body string) error
	SendPurchaseReceipt(email, fullName string, tokens int, amount int64, currency string) error
}

type pushSender interface {
	Configured() bool
	Send(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

// NotificationService fans a logical notification out into per-channel
// delivery rows and drives their delivery attempts.
type NotificationService struct {
	notifications notificationStore
	users         userGetter
	mailer        notificationMailer
	push          pushSender
	logger        *zap.Logger
}

func NewNotificationService(notifications notificationStore, users userGetter, mailer notificationMailer, push pushSender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		mailer:        mailer,
		push:          push,
		logger:        logger,
	}
}

// Dispatch creates one row per reachable channel and attempts delivery for
// each. Delivery failures stay pending for retry; dispatch itself only fails
// when the rows cannot be written.
func (s *NotificationService) Dispatch(userID uint, category, priority, title, body string) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}

	channels := []string{models.NotificationChannelEmail}
	if user.DeviceToken != "" && s.push.Configured() {
		channels = append(channels, models.NotificationChannelPush)
	}

	for _, channel := range channels {
		notification := &models.Notification{
			UserID:   userID,
			Channel:  channel,
			Category: category,
			Priority: priority,
			Title:    title,
			Body:     body,
			Status:   models.NotificationStatusPending,
		}
		if err := s.notifications.Create(notification); err != nil {
			return err
		}

		s.deliver(notification, user)
	}

	return nil
}

// NotifyPurchase is called from the payment settle path. The receipt email
// and the in-app notification must never fail a settlement, so errors are
// logged and swallowed.
func (s *NotificationService) NotifyPurchase(userID uint, tokens int, amount int64, currency string) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		s.logger.Error("purchase notification: user lookup failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}

	go func() {
		if err := s.mailer.SendPurchaseReceipt(user.Email, user.FullName, tokens, amount, currency); err != nil {
			s.logger.Error("failed to send purchase receipt", zap.String("email", user.Email), zap.Error(err))
		}
	}()

	title := "Tokens added to your account"
	body := fmt.Sprintf("Your purchase of %d tokens is complete.", tokens)
	if err := s.Dispatch(userID, "payment", models.NotificationPriorityNormal, title, body); err != nil {
		s.logger.Error("failed to dispatch purchase notification", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// deliver performs one attempt and records the outcome. Rows that hit the
// attempt ceiling are marked permanently failed.
func (s *NotificationService) deliver(notification *models.Notification, user *models.User) {
	notification.Attempts++

	var err error
	switch notification.Channel {
	case models.NotificationChannelEmail:
		err = s.mailer.SendNotification(user.Email, notification.Title, notification.Body)
	case models.NotificationChannelPush:
		err = s.push.Send(context.Background(), user.DeviceToken, notification.Title, notification.Body, map[string]string{
			"category": notification.Category,
		})
	default:
		err = fmt.Errorf("unknown channel: %s", notification.Channel)
	}

	if err != nil {
		s.logger.Warn("notification delivery failed",
			zap.Uint("notification_id", notification.ID),
			zap.String("channel", notification.Channel),
			zap.Int("attempts", notification.Attempts),
			zap.Error(err),
		)
		if notification.Attempts >= models.MaxDeliveryAttempts {
			notification.Status = models.NotificationStatusFailed
		}
	} else {
		notification.Status = models.NotificationStatusSent
	}

	if updateErr := s.notifications.Update(notification); updateErr != nil {
		s.logger.Error("failed to record delivery attempt",
			zap.Uint("notification_id", notification.ID),
			zap.Error(updateErr),
		)
	}
}

// RetryPending re-drives rows that failed delivery but are below the attempt
// ceiling. Exposed on the admin surface.
func (s *NotificationService) RetryPending(limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	pending, err := s.notifications.ListDeliverable(limit)
	if err != nil {
		return 0, err
	}

	for i := range pending {
		notification := &pending[i]
		user, err := s.users.GetByID(notification.UserID)
		if err != nil {
			s.logger.Error("retry: user lookup failed", zap.Uint("user_id", notification.UserID), zap.Error(err))
			continue
		}
		s.deliver(notification, user)
	}

	return len(pending), nil
}

func (s *NotificationService) List(userID uint, page, limit int) ([]models.Notification, int64, error) {
	return s.notifications.ListByUser(userID, page, limit)
}

func (s *NotificationService) MarkRead(userID, notificationID uint) (*models.Notification, error) {
	notification, err := s.notifications.GetByIDForUser(notificationID, userID)
	if err != nil {
		return nil, ErrNotificationNotFound
	}

	notification.Status = models.NotificationStatusRead
	if err := s.notifications.Update(notification); err != nil {
		return nil, err
	}

	return notification, nil
}
