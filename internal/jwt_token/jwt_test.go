package jwttoken

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "authgate/pkg/domain"
	dErrors "authgate/pkg/domain-errors"
	"authgate/pkg/platform/middleware/requesttime"
)

var (
	userID    = id.NewUserID()
	sessionID = id.NewSessionID()
)

func newService(ttl time.Duration) *JWTService {
	return NewJWTService("test-signing-key", "authgate-test", "authgate-web", ttl)
}

func TestGenerateAccessToken(t *testing.T) {
	svc := newService(time.Hour)
	issued, err := svc.GenerateAccessToken(context.Background(), userID, sessionID, "a@b.co")
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	assert.NotEmpty(t, issued.JTI)

	claims, err := svc.ValidateToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, issued.JTI, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestGenerateAccessTokenRequiresUser(t *testing.T) {
	_, err := newService(time.Hour).GenerateAccessToken(context.Background(), id.UserID{}, sessionID, "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestValidateToken(t *testing.T) {
	svc := newService(time.Hour)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("invalid-token-string")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := svc.ValidateToken("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		past := requesttime.WithTime(context.Background(), time.Now().Add(-2*time.Hour))
		issued, err := svc.GenerateAccessToken(past, userID, sessionID, "")
		require.NoError(t, err)

		_, err = svc.ValidateToken(issued.Token)
		require.ErrorContains(t, err, "token expired")
	})

	t.Run("other signing key", func(t *testing.T) {
		other := NewJWTService("other-key", "authgate-test", "authgate-web", time.Hour)
		issued, err := other.GenerateAccessToken(context.Background(), userID, sessionID, "")
		require.NoError(t, err)

		_, err = svc.ValidateToken(issued.Token)
		assert.ErrorContains(t, err, "invalid token")
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewJWTService("test-signing-key", "authgate-test", "someone-else", time.Hour)
		issued, err := other.GenerateAccessToken(context.Background(), userID, sessionID, "")
		require.NoError(t, err)

		_, err = svc.ValidateToken(issued.Token)
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(signed)
		assert.Error(t, err)
	})
}

func TestValidateAccessTokenReturnsSubject(t *testing.T) {
	svc := newService(time.Hour)
	issued, err := svc.GenerateAccessToken(context.Background(), userID, sessionID, "")
	require.NoError(t, err)

	subject, err := svc.ValidateAccessToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)
}

func TestCreateRefreshTokenIsUnique(t *testing.T) {
	svc := newService(time.Hour)
	a, err := svc.CreateRefreshToken()
	require.NoError(t, err)
	b, err := svc.CreateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
