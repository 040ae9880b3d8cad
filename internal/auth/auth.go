// Package auth issues and validates the bearer tokens used by the API.
package auth

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"geoattendance/backend/internal/entity"
)

type ctxKey int

// Key is used to store/retrieve Claims from a context.Context.
const Key ctxKey = 1

// userKey stores the verified entity.User of the request.
const userKey ctxKey = 2

const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingClaims = errors.New("claims missing from context")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims is the token payload.
type Claims struct {
	jwt.StandardClaims
	UserId     int         `json:"id"`
	Role       entity.Role `json:"role"`
	Name       string      `json:"name"`
	EmployeeID string      `json:"employeeId,omitempty"`
}

// Authorized reports whether the claims carry one of roles. An empty list
// authorizes every role.
func (c Claims) Authorized(roles ...entity.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Auth signs and verifies HS256 tokens with a shared key.
type Auth struct {
	key    []byte
	ttl    time.Duration
	method jwt.SigningMethod
	now    func() time.Time
}

func New(key string, ttl time.Duration) (*Auth, error) {
	if key == "" {
		return nil, errors.New("auth: jwt key is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Auth{
		key:    []byte(key),
		ttl:    ttl,
		method: jwt.SigningMethodHS256,
		now:    time.Now,
	}, nil
}

// GenerateToken issues a token for u.
func (a *Auth) GenerateToken(u entity.User) (string, error) {
	now := a.now()

	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(a.ttl).Unix(),
		},
		UserId: u.ID,
		Role:   u.Role,
		Name:   u.Name,
	}
	if u.EmployeeID != nil {
		claims.EmployeeID = *u.EmployeeID
	}

	token := jwt.NewWithClaims(a.method, claims)
	str, err := token.SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return str, nil
}

// ValidateToken checks the signature and lifetime of tokenStr.
func (a *Auth) ValidateToken(tokenStr string) (Claims, error) {
	var claims Claims

	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != a.method.Alg() {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.key, nil
	}

	token, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc)
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if !token.Valid || claims.UserId <= 0 {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// GetClaims returns the claims stored by the authentication middleware.
func GetClaims(ctx context.Context) (Claims, error) {
	claims, ok := ctx.Value(Key).(Claims)
	if !ok {
		return Claims{}, ErrMissingClaims
	}
	return claims, nil
}

// WithUser stores the verified user of the request.
func WithUser(ctx context.Context, u entity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser returns the user stored by WithUser.
func GetUser(ctx context.Context) (entity.User, bool) {
	u, ok := ctx.Value(userKey).(entity.User)
	return u, ok
}
