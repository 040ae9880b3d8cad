package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoattendance/backend/foundation/web"
	"geoattendance/backend/internal/auth"
	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/apperr"
	"geoattendance/backend/internal/service/account"
)

type stubAccount struct {
	signup       account.NewUser
	identifier   string
	password     string
	employeeID   string
	profileCalls int
}

func (s *stubAccount) Signup(_ context.Context, in account.NewUser) (account.Session, error) {
	s.signup = in
	if in.MobileNumber == "0000000000" {
		return account.Session{}, apperr.Conflict(account.MsgMobileTaken)
	}
	return account.Session{Token: "t", User: entity.User{ID: 1, Name: in.Name, Role: entity.RoleEmployee}}, nil
}

func (s *stubAccount) Login(_ context.Context, identifier, password string) (account.Session, error) {
	s.identifier, s.password = identifier, password
	if password != "secret1" {
		return account.Session{}, apperr.Auth(account.MsgInvalidCredentials)
	}
	return account.Session{Token: "t", User: entity.User{ID: 1}}, nil
}

func (s *stubAccount) LoginEmployee(_ context.Context, employeeID string) (account.Session, error) {
	s.employeeID = employeeID
	return account.Session{Token: "t", User: entity.User{ID: 2}}, nil
}

func (s *stubAccount) Profile(_ context.Context, userID int) (entity.User, error) {
	s.profileCalls++
	return entity.User{ID: userID, Name: "Mio"}, nil
}

func newApp(acc *stubAccount) *web.App {
	gin.SetMode(gin.TestMode)

	uc := NewController(acc)
	app := web.NewApp(zerolog.Nop())
	app.Post("/signup", uc.Signup)
	app.Post("/login", uc.SignIn)
	app.Post("/login-employee", uc.SignInEmployee)
	app.Get("/me", uc.Me, func(next web.Handler) web.Handler {
		return func(c *web.Context) error {
			c.Ctx = context.WithValue(c.Ctx, auth.Key, auth.Claims{UserId: 9})
			return next(c)
		}
	})
	app.Get("/me-loaded", uc.Me, func(next web.Handler) web.Handler {
		return func(c *web.Context) error {
			c.Ctx = context.WithValue(c.Ctx, auth.Key, auth.Claims{UserId: 9})
			c.Ctx = auth.WithUser(c.Ctx, entity.User{ID: 9, Name: "Loaded", IsActive: true})
			return next(c)
		}
	})
	return app
}

func do(app http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestSignup(t *testing.T) {
	acc := &stubAccount{}
	app := newApp(acc)

	w, body := do(app, http.MethodPost, "/signup", `{"name":"Yuki","mobileNumber":"+81 90 1234 5678","employeeId":"E1","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "t", body["token"])
	assert.Equal(t, "Yuki", acc.signup.Name)
	require.NotNil(t, acc.signup.EmployeeID)
	assert.Equal(t, "E1", *acc.signup.EmployeeID)
	assert.Empty(t, acc.signup.Role)

	w, body = do(app, http.MethodPost, "/signup", `{"name":"Dup","mobileNumber":"0000000000","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, account.MsgMobileTaken, body["message"])
}

func TestSignIn(t *testing.T) {
	acc := &stubAccount{}
	app := newApp(acc)

	w, _ := do(app, http.MethodPost, "/login", `{"identifier":"EMP1","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EMP1", acc.identifier)

	w, _ = do(app, http.MethodPost, "/login", `{"mobileNumber":" 9876543210 ","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "9876543210", acc.identifier)

	w, body := do(app, http.MethodPost, "/login", `{"identifier":"EMP1","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, account.MsgInvalidCredentials, body["message"])
}

func TestSignInEmployee(t *testing.T) {
	acc := &stubAccount{}
	app := newApp(acc)

	w, body := do(app, http.MethodPost, "/login-employee", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "employeeId is required", body["message"])

	w, _ = do(app, http.MethodPost, "/login-employee", `{"employeeId":" EMP2 "}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EMP2", acc.employeeID)
}

func TestMe(t *testing.T) {
	app := newApp(&stubAccount{})

	w, body := do(app, http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, float64(9), user["id"])
}

func TestMeUsesRequestUser(t *testing.T) {
	acc := &stubAccount{}
	app := newApp(acc)

	w, body := do(app, http.MethodGet, "/me-loaded", "")
	require.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "Loaded", user["name"])
	assert.Equal(t, 0, acc.profileCalls)
}
