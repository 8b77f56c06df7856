package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"online_store/internal/domain"
)

const issuer = "online-store"

// Claims carried by an access token. Subject holds the user id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(u domain.User) (string, error) {
	now := t.now().UTC()
	claims := &Claims{
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the actor it names. Every failure is
// reported as domain.ErrUnauthorized.
func (t *Tokens) Parse(raw string) (domain.Actor, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, domain.Unauthorized("token has expired")
		}
		return domain.Actor{}, domain.Unauthorized("invalid token")
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return domain.Actor{}, domain.Unauthorized("invalid token")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	role := domain.Role(claims.Role)
	if err != nil || id <= 0 || !role.Valid() {
		return domain.Actor{}, domain.Unauthorized("invalid token")
	}
	return domain.Actor{UserID: id, Role: role}, nil
}
