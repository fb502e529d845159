package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("p")
	require.NoError(t, err)
	assert.NotEqual(t, "p", hash)

	assert.NoError(t, h.Verify(hash, "p"))
	assert.ErrorIs(t, h.Verify(hash, "wrong"), ErrPasswordMismatch)
	assert.ErrorIs(t, h.Verify("not-a-hash", "p"), ErrPasswordMismatch)
}

func TestBcryptHasher_PasswordTooLong(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost).Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).Cost)
	assert.Equal(t, 12, NewBcryptHasher(12).Cost)
}

func TestJWTIssuer_RoundTrip(t *testing.T) {
	j := NewJWTIssuer("test-secret", "mutualaid")

	token, exp, err := j.Issue(42, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := j.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTIssuer_Verify(t *testing.T) {
	j := NewJWTIssuer("test-secret", "mutualaid")
	valid, _, err := j.Issue(7, time.Hour)
	require.NoError(t, err)

	expiredIssuer := NewJWTIssuer("test-secret", "mutualaid")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredIssuer.Issue(7, time.Hour)
	require.NoError(t, err)

	otherSecret, _, err := NewJWTIssuer("other-secret", "mutualaid").Issue(7, time.Hour)
	require.NoError(t, err)

	otherIssuer, _, err := NewJWTIssuer("test-secret", "someone-else").Issue(7, time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7", "id": 7}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid", valid, nil},
		{"expired", expired, ErrExpiredToken},
		{"wrong secret", otherSecret, ErrInvalidToken},
		{"wrong issuer", otherIssuer, ErrInvalidToken},
		{"alg none", none, ErrInvalidToken},
		{"garbage", "not.a.token", ErrInvalidToken},
		{"empty", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := j.Verify(tt.token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
