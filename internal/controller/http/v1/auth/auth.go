package auth

import (
	"net/http"
	"strings"

	"geoattendance/backend/foundation/web"
	"geoattendance/backend/internal/auth"
	"geoattendance/backend/internal/service/account"
)

type Controller struct {
	account Account
}

func NewController(account Account) *Controller {
	return &Controller{account: account}
}

type SignupRequest struct {
	Name         string  `json:"name"         form:"name"`
	MobileNumber string  `json:"mobileNumber" form:"mobileNumber"`
	EmployeeID   *string `json:"employeeId"   form:"employeeId"`
	Password     string  `json:"password"     form:"password"`
}

// SignInRequest accepts the identifier under its own key or under the
// field it actually is.
type SignInRequest struct {
	Identifier   string `json:"identifier"   form:"identifier"`
	MobileNumber string `json:"mobileNumber" form:"mobileNumber"`
	EmployeeID   string `json:"employeeId"   form:"employeeId"`
	Password     string `json:"password"     form:"password"`
}

func (r SignInRequest) identifier() string {
	for _, s := range []string{r.Identifier, r.MobileNumber, r.EmployeeID} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

type EmployeeSignInRequest struct {
	EmployeeID string `json:"employeeId" form:"employeeId"`
}

func (uc Controller) Signup(c *web.Context) error {
	var data SignupRequest

	if err := c.BindFunc(&data); err != nil {
		return c.RespondError(err)
	}

	session, err := uc.account.Signup(c.Ctx, account.NewUser{
		Name:         data.Name,
		MobileNumber: data.MobileNumber,
		EmployeeID:   data.EmployeeID,
		Password:     data.Password,
	})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"token":  session.Token,
		"user":   session.User,
	}, http.StatusCreated)
}

func (uc Controller) SignIn(c *web.Context) error {
	var data SignInRequest

	if err := c.BindFunc(&data); err != nil {
		return c.RespondError(err)
	}

	session, err := uc.account.Login(c.Ctx, data.identifier(), data.Password)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"token":  session.Token,
		"user":   session.User,
	}, http.StatusOK)
}

func (uc Controller) SignInEmployee(c *web.Context) error {
	var data EmployeeSignInRequest

	if err := c.BindFunc(&data, "EmployeeID"); err != nil {
		return c.RespondError(err)
	}

	session, err := uc.account.LoginEmployee(c.Ctx, strings.TrimSpace(data.EmployeeID))
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"token":  session.Token,
		"user":   session.User,
	}, http.StatusOK)
}

func (uc Controller) Me(c *web.Context) error {
	// The authentication middleware already loaded the account.
	if user, ok := auth.GetUser(c.Ctx); ok {
		return c.Respond(map[string]interface{}{
			"status": true,
			"user":   user,
		}, http.StatusOK)
	}

	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	user, err := uc.account.Profile(c.Ctx, claims.UserId)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status": true,
		"user":   user,
	}, http.StatusOK)
}
