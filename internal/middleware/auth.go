package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"geoattendance/backend/foundation/web"
	"geoattendance/backend/internal/auth"
	"geoattendance/backend/internal/entity"
)

// UserDirectory resolves the account behind a token on every request.
type UserDirectory interface {
	FindByID(ctx context.Context, id int) (*entity.User, error)
}

// Client messages for rejected requests.
const (
	MsgNoToken            = "Access denied. No token provided."
	MsgInvalidToken       = "Invalid or expired token."
	MsgUserNotFound       = "User not found."
	MsgDeactivated        = "Account has been deactivated."
	MsgInsufficientAccess = "Access denied. Insufficient permissions."
)

// CtxUserID is the gin key holding the authenticated user id, read by the
// request logger.
const CtxUserID = "userId"

// Authenticate verifies the bearer token, loads its user and, when roles are
// given, requires one of them.
func Authenticate(a *auth.Auth, users UserDirectory, roles ...entity.Role) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(c *web.Context) error {
			// Expecting: Bearer <token>
			authStr := c.Request.Header.Get("Authorization")

			parts := strings.Fields(authStr)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.RespondError(web.NewRequestError(errors.New(MsgNoToken), http.StatusUnauthorized))
			}

			claims, err := a.ValidateToken(parts[1])
			if err != nil {
				return c.RespondError(web.NewRequestError(errors.New(MsgInvalidToken), http.StatusUnauthorized))
			}

			u, err := users.FindByID(c.Ctx, claims.UserId)
			if err != nil {
				return c.RespondError(err)
			}
			if u == nil {
				return c.RespondError(web.NewRequestError(errors.New(MsgUserNotFound), http.StatusUnauthorized))
			}
			if !u.IsActive {
				return c.RespondError(web.NewRequestError(errors.New(MsgDeactivated), http.StatusUnauthorized))
			}

			// The stored role wins over the one baked into the token.
			claims.Role = u.Role
			if !claims.Authorized(roles...) {
				return c.RespondError(web.NewRequestError(errors.New(MsgInsufficientAccess), http.StatusForbidden))
			}

			c.Set(CtxUserID, u.ID)
			c.Ctx = context.WithValue(c.Ctx, auth.Key, claims)
			c.Ctx = auth.WithUser(c.Ctx, *u)

			return handler(c)
		}

		return h
	}

	return m
}
