package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers bad signatures, wrong algorithms and malformed claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for tokens past their exp claim.
	ErrExpiredToken = errors.New("token expired")
)

// Claims carried by session tokens. "id" duplicates the subject for
// clients that read the user id directly.
type Claims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	Issue(userID uint, ttl time.Duration) (string, time.Time, error)
	Verify(token string) (*Claims, error)
}

// JWTIssuer signs HS256 tokens.
type JWTIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTIssuer returns an issuer. The issuer string is also used as audience.
func NewJWTIssuer(secret, issuer string) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for userID valid for ttl.
func (j *JWTIssuer) Issue(userID uint, ttl time.Duration) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{j.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, issuer, audience and time claims.
func (j *JWTIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithAudience(j.issuer),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	sub, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || sub == 0 || uint(sub) != claims.UserID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
