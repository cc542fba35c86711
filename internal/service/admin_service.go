package service

import (
	"context"
	"errors"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/provider"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type adminUserStore interface {
	GetByID(id uint) (*models.User, error)
	List(page, limit int) ([]models.User, int64, error)
	Count() (int64, error)
	UpdateRole(id uint, role string) error
}

type adminPackageStore interface {
	Create(pkg *models.TokenPackage) error
	GetByID(id uint) (*models.TokenPackage, error)
	GetAll() ([]models.TokenPackage, error)
	Update(pkg *models.TokenPackage) error
}

type imageCounter interface {
	Count() (int64, error)
}

type revenueReader interface {
	RevenueCents() (int64, error)
}

type ledgerTotals interface {
	TotalByType(transactionType string) (int64, error)
}

type tokenAdjuster interface {
	Adjust(userID uint, amount int, description string) (*models.TokenTransaction, error)
}

type notificationRetrier interface {
	RetryPending(limit int) (int, error)
}

// AdminService backs the admin surface: dashboard stats, user and package
// management, provider control and notification retries.
type AdminService struct {
	users         adminUserStore
	packages      adminPackageStore
	images        imageCounter
	payments      revenueReader
	ledger        ledgerTotals
	tokens        tokenAdjuster
	notifications notificationRetrier
	providers     *provider.Manager
	logger        *zap.Logger
}

func NewAdminService(users adminUserStore, packages adminPackageStore, images imageCounter, payments revenueReader, ledger ledgerTotals, tokens tokenAdjuster, notifications notificationRetrier, providers *provider.Manager, logger *zap.Logger) *AdminService {
	return &AdminService{
		users:         users,
		packages:      packages,
		images:        images,
		payments:      payments,
		ledger:        ledger,
		tokens:        tokens,
		notifications: notifications,
		providers:     providers,
		logger:        logger,
	}
}

func (s *AdminService) Stats() (*models.AdminStats, error) {
	users, err := s.users.Count()
	if err != nil {
		return nil, err
	}

	images, err := s.images.Count()
	if err != nil {
		return nil, err
	}

	revenue, err := s.payments.RevenueCents()
	if err != nil {
		return nil, err
	}

	issued, err := s.ledger.TotalByType(models.TransactionTypePurchase)
	if err != nil {
		return nil, err
	}

	spent, err := s.ledger.TotalByType(models.TransactionTypeSpend)
	if err != nil {
		return nil, err
	}

	return &models.AdminStats{
		Users:        users,
		Images:       images,
		RevenueCents: revenue,
		TokensIssued: issued,
		TokensSpent:  -spent, // spend entries are negative in the ledger
	}, nil
}

func (s *AdminService) ListUsers(page, limit int) ([]models.User, int64, error) {
	return s.users.List(page, limit)
}

func (s *AdminService) UpdateRole(userID uint, role string) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.users.UpdateRole(user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role

	s.logger.Info("user role updated", zap.Uint("user_id", user.ID), zap.String("role", role))
	return user, nil
}

// AdjustTokens applies a signed correction to a user's balance through the
// ledger, so the adjustment shows up in their transaction history.
func (s *AdminService) AdjustTokens(userID uint, req models.AdjustTokensRequest) (*models.TokenTransaction, error) {
	if _, err := s.users.GetByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.tokens.Adjust(userID, req.Amount, req.Description)
}

func (s *AdminService) ListPackages() ([]models.TokenPackage, error) {
	return s.packages.GetAll()
}

func (s *AdminService) CreatePackage(req models.CreateTokenPackageRequest) (*models.TokenPackage, error) {
	pkg := &models.TokenPackage{
		Name:               req.Name,
		Description:        req.Description,
		Tokens:             req.Tokens,
		BonusTokens:        req.BonusTokens,
		Price:              req.Price,
		DiscountPercentage: req.DiscountPercentage,
		Currency:           "usd",
		IsActive:           true,
		ExpiresAt:          req.ExpiresAt,
		MaxPurchases:       req.MaxPurchases,
	}

	if err := s.packages.Create(pkg); err != nil {
		return nil, err
	}

	s.logger.Info("token package created", zap.Uint("package_id", pkg.ID), zap.String("name", pkg.Name))
	return pkg, nil
}

func (s *AdminService) UpdatePackage(packageID uint, req models.UpdateTokenPackageRequest) (*models.TokenPackage, error) {
	pkg, err := s.packages.GetByID(packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		pkg.Name = *req.Name
	}
	if req.Description != nil {
		pkg.Description = *req.Description
	}
	if req.Price != nil {
		pkg.Price = *req.Price
	}
	if req.DiscountPercentage != nil {
		pkg.DiscountPercentage = *req.DiscountPercentage
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		pkg.ExpiresAt = req.ExpiresAt
	}
	if req.MaxPurchases != nil {
		pkg.MaxPurchases = *req.MaxPurchases
	}

	if err := s.packages.Update(pkg); err != nil {
		return nil, err
	}

	return pkg, nil
}

// DeactivatePackage hides a package from the purchase list without deleting
// it; settled payments keep a valid reference.
func (s *AdminService) DeactivatePackage(packageID uint) (*models.TokenPackage, error) {
	inactive := false
	return s.UpdatePackage(packageID, models.UpdateTokenPackageRequest{IsActive: &inactive})
}

func (s *AdminService) ListProviders() []string {
	return s.providers.Names()
}

func (s *AdminService) ProviderModels(name string) ([]provider.ModelInfo, error) {
	p, err := s.providers.Get(name)
	if err != nil {
		return nil, err
	}
	return p.Models(), nil
}

func (s *AdminService) SwitchProvider(name string) error {
	return s.providers.Switch(name)
}

func (s *AdminService) TestProvider(ctx context.Context, name string) error {
	return s.providers.Test(ctx, name)
}

func (s *AdminService) RetryNotifications(limit int) (int, error) {
	return s.notifications.RetryPending(limit)
}
