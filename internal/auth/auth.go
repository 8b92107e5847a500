package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "policedash"

var (
	ErrInvalidCredentials = errors.New("invalid badge number or password")
	ErrInactive           = errors.New("officer is not on active duty")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims represents JWT claims
type Claims struct {
	OfficerID    uuid.UUID         `json:"officer_id"`
	Rank         jurisdiction.Role `json:"rank"`
	Jurisdiction string            `json:"jurisdiction"`
	jwt.RegisteredClaims
}

// HashPassword hashes a password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// IssueToken signs an HS256 token for officer valid for ttl.
func IssueToken(secret string, officer models.Officer, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		OfficerID:    officer.ID,
		Rank:         officer.Rank,
		Jurisdiction: officer.Jurisdiction,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   officer.BadgeNumber,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a token and returns its claims. Only HS256 tokens
// with an expiry and a known rank are accepted.
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.OfficerID == uuid.Nil || !claims.Rank.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Service authenticates officers against the officer store.
type Service struct {
	store  communication.Store
	secret string
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an auth service
func NewService(store communication.Store, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, secret: secret, ttl: ttl, logger: logger, now: time.Now}
}

// Login checks credentials and returns a signed token and its expiry.
func (s *Service) Login(ctx context.Context, badge, password string) (string, time.Time, *models.Officer, error) {
	badge = strings.ToUpper(strings.TrimSpace(badge))
	officer, err := s.store.GetOfficerByBadge(ctx, badge)
	if errors.Is(err, communication.ErrNotFound) {
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, nil, err
	}

	if officer.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(officer.PasswordHash), []byte(password)) != nil {
		s.logger.Info("login rejected", zap.String("badge", badge))
		return "", time.Time{}, nil, ErrInvalidCredentials
	}
	if officer.Status != models.OfficerActive {
		return "", time.Time{}, nil, ErrInactive
	}

	now := s.now()
	token, err := IssueToken(s.secret, *officer, s.ttl, now)
	if err != nil {
		return "", time.Time{}, nil, err
	}
	s.logger.Info("officer logged in", zap.String("badge", badge), zap.String("rank", string(officer.Rank)))
	return token, now.Add(s.ttl), officer, nil
}

// Token mints a token for an officer without a password check. Used by the
// CLI for development tokens.
func (s *Service) Token(officer models.Officer) (string, error) {
	return IssueToken(s.secret, officer, s.ttl, s.now())
}
