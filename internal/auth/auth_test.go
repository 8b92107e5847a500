package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminal-bench/policedash/internal/communication"
	"github.com/terminal-bench/policedash/internal/jurisdiction"
	"github.com/terminal-bench/policedash/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokens(t *testing.T) {
	officer := communication.SeedOfficers(time.Now())[0]

	t.Run("should round trip claims", func(t *testing.T) {
		token, err := IssueToken(testSecret, officer, time.Hour, time.Now())
		require.NoError(t, err)

		claims, err := ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, officer.ID, claims.OfficerID)
		assert.Equal(t, jurisdiction.RoleDGP, claims.Rank)
		assert.Equal(t, officer.BadgeNumber, claims.Subject)
	})

	t.Run("should reject expired tokens", func(t *testing.T) {
		token, err := IssueToken(testSecret, officer, time.Minute, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		_, err = ParseToken(testSecret, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("should reject wrong secret", func(t *testing.T) {
		token, err := IssueToken(testSecret, officer, time.Hour, time.Now())
		require.NoError(t, err)
		_, err = ParseToken("another-secret-another-secret-xx", token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("should reject unsigned tokens", func(t *testing.T) {
		claims := Claims{
			OfficerID: officer.ID,
			Rank:      officer.Rank,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = ParseToken(testSecret, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("should reject tokens without expiry", func(t *testing.T) {
		claims := Claims{OfficerID: officer.ID, Rank: officer.Rank, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = ParseToken(testSecret, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	store := communication.NewMemoryStore()
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	_, err = communication.NewService(store, nil).Seed(ctx, hash)
	require.NoError(t, err)

	svc := NewService(store, testSecret, time.Hour, nil)
	badge := communication.BadgeFor(jurisdiction.RoleSP, "Eluru District")

	t.Run("should issue a token", func(t *testing.T) {
		token, expires, officer, err := svc.Login(ctx, " "+badge+" ", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, badge, officer.BadgeNumber)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

		claims, err := ParseToken(testSecret, token)
		require.NoError(t, err)
		assert.Equal(t, officer.ID, claims.OfficerID)
		assert.Equal(t, "Eluru District", claims.Jurisdiction)
	})

	t.Run("should reject bad password", func(t *testing.T) {
		_, _, _, err := svc.Login(ctx, badge, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("should reject unknown badge", func(t *testing.T) {
		_, _, _, err := svc.Login(ctx, "SP-NOWHERE", "s3cret-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("should reject officers on leave", func(t *testing.T) {
		officer, err := store.GetOfficerByBadge(ctx, badge)
		require.NoError(t, err)
		require.NoError(t, store.SetOfficerStatus(ctx, officer.ID, models.OfficerOnLeave))
		defer store.SetOfficerStatus(ctx, officer.ID, models.OfficerActive)

		_, _, _, err = svc.Login(ctx, badge, "s3cret-pass")
		assert.ErrorIs(t, err, ErrInactive)
	})
}

func TestLoginWithoutPassword(t *testing.T) {
	ctx := context.Background()
	store := communication.NewMemoryStore()
	_, err := communication.NewService(store, nil).Seed(ctx, "")
	require.NoError(t, err)

	svc := NewService(store, testSecret, time.Hour, nil)
	_, _, _, err = svc.Login(ctx, communication.BadgeFor(jurisdiction.RoleDGP, communication.StateName), "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
