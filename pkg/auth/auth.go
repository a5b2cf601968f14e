// Package auth authenticates admin users and issues their session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/latoulicious/arise-companion/pkg/apperror"
	"github.com/latoulicious/arise-companion/pkg/database"
	"github.com/latoulicious/arise-companion/pkg/database/models"
	"github.com/latoulicious/arise-companion/pkg/logging"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTTL        = 12 * time.Hour
	MinPasswordLength = 8

	msgInvalidCredentials = "Identifiants invalides"
	msgSessionExpired     = "Session expirée ou invalide, veuillez vous reconnecter"
)

// Users is the admin account table
type Users interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, admin *models.AdminUser) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type Config struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration
	BcryptCost int
	Now        func() time.Time
}

// Claims are carried by an admin session token
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Session is an issued token
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AdminID   string    `json:"admin_id"`
	Email     string    `json:"email"`
}

type Service struct {
	users  Users
	cfg    Config
	logger logging.Logger
	// dummyHash keeps the login timing similar for unknown emails
	dummyHash []byte
}

func NewService(users Users, cfg Config, logger logging.Logger) (*Service, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes, got %d", len(cfg.Secret))
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "arise-companion"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = logging.Nop()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("arise-companion-dummy"), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}
	return &Service{users: users, cfg: cfg, logger: logger, dummyHash: dummy}, nil
}

// CreateAdmin registers a new admin account
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (*models.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.Validation("Adresse e-mail invalide")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, apperror.Newf(apperror.KindValidation, "Le mot de passe doit contenir au moins %d caractères", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, apperror.Unknown(fmt.Errorf("failed to hash password: %w", err))
	}

	admin := &models.AdminUser{Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, admin); err != nil {
		if database.IsDuplicate(err) {
			return nil, apperror.Wrap(apperror.KindDuplicate, err, "Un administrateur utilise déjà cette adresse e-mail")
		}
		return nil, apperror.Unknown(err)
	}
	s.logger.Info("Admin account created", map[string]interface{}{"admin_id": admin.ID.String()})
	return admin, nil
}

// Login checks the credentials and issues a session token
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	admin, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.Error("Failed to load admin", err, nil)
			return nil, apperror.Unknown(err)
		}
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.logger.Warn("Login rejected", map[string]interface{}{"reason": "unknown email"})
		return nil, apperror.New(apperror.KindUnauthorized, msgInvalidCredentials)
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		s.logger.Warn("Login rejected", map[string]interface{}{"reason": "bad password", "admin_id": admin.ID.String()})
		return nil, apperror.New(apperror.KindUnauthorized, msgInvalidCredentials)
	}

	session, err := s.Issue(admin)
	if err != nil {
		return nil, apperror.Unknown(err)
	}
	if err := s.users.TouchLastLogin(ctx, admin.ID, s.cfg.Now()); err != nil {
		s.logger.Warn("Failed to record last login", map[string]interface{}{"admin_id": admin.ID.String(), "error": err.Error()})
	}
	s.logger.Info("Admin logged in", map[string]interface{}{"admin_id": admin.ID.String()})
	return session, nil
}

// Issue signs a session token for admin
func (s *Service) Issue(admin *models.AdminUser) (*Session, error) {
	now := s.cfg.Now()
	expires := now.Add(s.cfg.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   admin.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
		Email: admin.Email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires, AdminID: admin.ID.String(), Email: admin.Email}, nil
}

// Verify parses a session token and returns its claims
func (s *Service) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.New(apperror.KindUnauthorized, "Authentification requise")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.cfg.Now),
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthorized, err, msgSessionExpired)
	}
	if claims.Subject == "" {
		return nil, apperror.New(apperror.KindUnauthorized, msgSessionExpired)
	}
	return &claims, nil
}

// TTL returns the session lifetime
func (s *Service) TTL() time.Duration {
	return s.cfg.TTL
}
