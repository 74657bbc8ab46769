package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestIssueAndResolve(t *testing.T) {
	tokens := NewTokens(testSecret, 7*24*time.Hour)
	userID := uuid.New()

	token, err := tokens.Issue(userID, "user@test.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokens.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@test.com", claims.Email)
}

func TestResolve_Rejects(t *testing.T) {
	userID := uuid.New()

	valid, err := NewTokens(testSecret, time.Hour).Issue(userID, "user@test.com")
	require.NoError(t, err)

	expired, err := NewTokens(testSecret, -time.Hour).Issue(userID, "user@test.com")
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{name: "expired token", token: expired, secret: testSecret, wantErrIs: jwt.ErrTokenExpired},
		{name: "wrong secret", token: valid, secret: "wrong-secret", wantErrIs: jwt.ErrTokenSignatureInvalid},
		{name: "malformed token", token: "not.a.valid.jwt", secret: testSecret, wantErrIs: jwt.ErrTokenMalformed},
		{name: "empty token", token: "", secret: testSecret, wantErrIs: jwt.ErrTokenMalformed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTokens(tc.secret, time.Hour).Resolve(tc.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErrIs)
		})
	}
}

func TestResolve_RejectsNoneAlgorithm(t *testing.T) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens(testSecret, time.Hour).Resolve(signed)
	require.Error(t, err)
}

func TestResolve_RejectsForeignIssuer(t *testing.T) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokens(testSecret, time.Hour).Resolve(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong horse"), ErrPasswordMismatch)
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserID(t.Context())
	assert.False(t, ok)

	id := uuid.New()
	got, ok := UserID(WithUserID(t.Context(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
