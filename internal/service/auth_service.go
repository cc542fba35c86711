package service

import (
	"errors"

	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/pkg/bcrypt"
	"github.com/pixelmint/pixelmint-backend/pkg/captcha"
	jwtPkg "github.com/pixelmint/pixelmint-backend/pkg/jwt"
	"go.uber.org/zap"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrCaptchaFailed      = errors.New("captcha verification failed")
)

type userStore interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	EmailExists(email string) (bool, error)
}

type welcomeMailer interface {
	SendWelcomeEmail(email, fullName string) error
}

type signupBonusGranter interface {
	Add(userID uint, amount int, transactionType, category, description string, metadata map[string]interface{}) (*models.TokenTransaction, error)
}

type AuthService struct {
	users       userStore
	mailer      welcomeMailer
	tokens      signupBonusGranter
	bonusTokens int
	logger      *zap.Logger
}

func NewAuthService(users userStore, mailer welcomeMailer, tokens signupBonusGranter, bonusTokens int, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:       users,
		mailer:      mailer,
		tokens:      tokens,
		bonusTokens: bonusTokens,
		logger:      logger,
	}
}

func (s *AuthService) Register(req models.RegisterRequest) (*models.AuthResponse, error) {
	ok, err := captcha.VerifyTurnstile(req.CaptchaToken)
	if err != nil || !ok {
		return nil, ErrCaptchaFailed
	}

	exists, err := s.users.EmailExists(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     models.RoleUser,
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	if s.bonusTokens > 0 {
		if _, err := s.tokens.Add(user.ID, s.bonusTokens, models.TransactionTypeBonus, "signup", "Signup bonus", nil); err != nil {
			s.logger.Error("failed to grant signup bonus", zap.Uint("user_id", user.ID), zap.Error(err))
		} else {
			user.Tokens = s.bonusTokens
		}
	}

	go func() {
		if err := s.mailer.SendWelcomeEmail(user.Email, user.FullName); err != nil {
			s.logger.Error("failed to send welcome email", zap.String("email", user.Email), zap.Error(err))
		}
	}()

	token, err := jwtPkg.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *AuthService) Login(req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.ComparePassword(user.Password, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwtPkg.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User:  *user,
	}, nil
}
