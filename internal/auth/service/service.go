package service

import (
	"context"
	"strings"
	"time"

	"callgenie_backend/internal/auth/password"
	"callgenie_backend/internal/auth/repository"
	"callgenie_backend/internal/auth/token"
	"callgenie_backend/internal/events"
	"callgenie_backend/platform/apperr"
	"callgenie_backend/platform/config"
	"callgenie_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenType = "access"
	otpDigits       = 6
)

type Service struct {
	repo *repository.Repository
	cfg  config.AuthServiceConfig
	bus  events.Bus
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg config.AuthServiceConfig, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus, log: log}
}

// Register creates an unverified account and emits an OTP delivery event.
func (s *Service) Register(ctx context.Context, name, email, plainPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		s.log.AuthEvent("register", email, false, "email taken")
		return apperr.Conflict("email already registered")
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, strings.TrimSpace(name), email, hash, s.cfg.GetDefaultCredits())
	if err != nil {
		return err
	}

	otp, err := s.issueOTP(ctx, user.ID)
	if err != nil {
		return err
	}

	s.log.AuthEvent("register", email, true, "")
	s.bus.Publish(ctx, events.UserRegistered{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		OTP:       otp,
	})
	return nil
}

// VerifyOTP confirms the emailed code and marks the account verified.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return apperr.BadRequest("invalid or expired code")
	}

	if user.Verified {
		return nil
	}

	if user.OTPHash == nil || user.OTPExpiresAt == nil {
		return apperr.BadRequest("invalid or expired code")
	}
	if time.Now().After(*user.OTPExpiresAt) {
		return apperr.BadRequest("invalid or expired code")
	}
	if token.HashSHA256(otp) != *user.OTPHash {
		s.log.AuthEvent("verify_otp", user.Email, false, "code mismatch")
		return apperr.BadRequest("invalid or expired code")
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return err
	}

	s.log.AuthEvent("verify_otp", user.Email, true, "")
	return nil
}

// ResendOTP issues a fresh verification code for an unverified account.
// It reports success even for unknown emails to avoid account enumeration.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil
	}
	if user.Verified {
		return nil
	}

	otp, err := s.issueOTP(ctx, user.ID)
	if err != nil {
		return err
	}

	s.bus.Publish(ctx, events.OTPRequested{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		OTP:       otp,
	})
	return nil
}

// Login validates credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (string, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		s.log.AuthEvent("login", email, false, "unknown email")
		return "", apperr.Unauthorized("invalid credentials")
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("login", user.Email, false, "bad password")
		return "", apperr.Unauthorized("invalid credentials")
	}

	if !user.Verified {
		return "", apperr.Forbidden("email not verified")
	}

	accessToken, err := s.signJWT(user.ID, user.Role)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "sign token", err)
	}

	s.log.AuthEvent("login", user.Email, true, "")
	return accessToken, nil
}

// GetMe returns the authenticated user's profile.
func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// GetCredits returns the user's current credit balance.
func (s *Service) GetCredits(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.GetCredits(ctx, userID)
}

// DeductCredits removes credits after a successful call dispatch.
func (s *Service) DeductCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if amount <= 0 {
		return s.repo.GetCredits(ctx, userID)
	}
	return s.repo.DeductCredits(ctx, userID, amount)
}

// AddCredits tops up a user's balance (admin operation).
func (s *Service) AddCredits(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if amount <= 0 {
		return 0, apperr.Validation("amount must be positive")
	}
	return s.repo.AddCredits(ctx, userID, amount)
}

func (s *Service) issueOTP(ctx context.Context, userID uuid.UUID) (string, error) {
	otp, err := token.GenerateOTP(otpDigits)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "generate otp", err)
	}

	expiresAt := time.Now().Add(s.cfg.GetOTPTTL())
	if err := s.repo.SetOTP(ctx, userID, token.HashSHA256(otp), expiresAt); err != nil {
		return "", err
	}
	return otp, nil
}

func (s *Service) signJWT(userID uuid.UUID, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  accessTokenType,
		"roles": []string{role},
		"exp":   time.Now().Add(s.cfg.GetAccessTokenTTL()).Unix(),
		"iat":   time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
