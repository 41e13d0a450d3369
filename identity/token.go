package identity

import (
	"errors"
	"time"

	"minimarket/domain"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "hami-minimarket"

// DefaultTokenTTL applies when no positive lifetime is configured
const DefaultTokenTTL = 24 * time.Hour

// Claims are the bearer token contents: the subject is the identity id.
type Claims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TokenManager issues and validates HMAC-signed bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}
}

// Issue creates a signed token for id.
func (tm *TokenManager) Issue(id domain.Identity) (string, error) {
	if len(tm.secret) == 0 {
		return "", errors.New("token secret not configured")
	}
	now := tm.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			Issuer:    issuer,
		},
		Name:  id.Name,
		Email: id.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Validate parses a token and returns the identity it carries.
func (tm *TokenManager) Validate(token string) (domain.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return tm.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return domain.Identity{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return domain.Identity{}, jwt.ErrTokenInvalidClaims
	}
	return domain.Identity{ID: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}
