package user

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/pkg/errors"

	"geoattendance/backend/foundation/web"
	"geoattendance/backend/internal/auth"
	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/service/account"
	"geoattendance/backend/internal/service/report"
)

type Controller struct {
	user User
}

func NewController(user User) *Controller {
	return &Controller{user}
}

type CreateRequest struct {
	Name         string  `json:"name"         form:"name"`
	MobileNumber string  `json:"mobileNumber" form:"mobileNumber"`
	EmployeeID   *string `json:"employeeId"   form:"employeeId"`
	Password     string  `json:"password"     form:"password"`
	Role         string  `json:"role"         form:"role"`
}

type UpdateRequest struct {
	Name         *string `json:"name"         form:"name"`
	MobileNumber *string `json:"mobileNumber" form:"mobileNumber"`
	EmployeeID   *string `json:"employeeId"   form:"employeeId"`
}

// employee

func (uc Controller) GetList(c *web.Context) error {
	includeInactive := false
	if v, ok := c.GetQueryFunc(reflect.Bool, "includeInactive").(*bool); ok {
		includeInactive = *v
	}
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, err := uc.user.ListEmployees(c.Ctx, includeInactive)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":    true,
		"employees": list,
		"count":     len(list),
	}, http.StatusOK)
}

func (uc Controller) Create(c *web.Context) error {
	var data CreateRequest

	if err := c.BindFunc(&data); err != nil {
		return c.RespondError(err)
	}

	employee, err := uc.user.CreateEmployee(c.Ctx, account.NewUser{
		Name:         data.Name,
		MobileNumber: data.MobileNumber,
		EmployeeID:   data.EmployeeID,
		Password:     data.Password,
		Role:         data.Role,
	})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":   true,
		"message":  "Employee created successfully",
		"employee": employee,
	}, http.StatusCreated)
}

func (uc Controller) UpdateColumns(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	var data UpdateRequest
	if err := c.BindFunc(&data); err != nil {
		return c.RespondError(err)
	}

	employee, err := uc.user.UpdateEmployee(c.Ctx, id, entity.UserUpdate{
		Name:         data.Name,
		MobileNumber: data.MobileNumber,
		EmployeeID:   data.EmployeeID,
	})
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":   true,
		"message":  "Employee updated successfully",
		"employee": employee,
	}, http.StatusOK)
}

func (uc Controller) Deactivate(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	employee, err := uc.user.Deactivate(c.Ctx, claims.UserId, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":   true,
		"message":  "Employee deactivated successfully",
		"employee": employee,
	}, http.StatusOK)
}

func (uc Controller) Activate(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	employee, err := uc.user.Activate(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":   true,
		"message":  "Employee activated successfully",
		"employee": employee,
	}, http.StatusOK)
}

// GetQrCode renders the employee ID accepted by the password-less sign-in.
func (uc Controller) GetQrCode(c *web.Context) error {
	id := c.GetParam(reflect.Int, "id").(int)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	employee, err := uc.user.FindByID(c.Ctx, id)
	if err != nil {
		return c.RespondError(err)
	}
	if employee == nil {
		return c.RespondError(web.NewRequestError(errors.New(account.MsgEmployeeNotFound), http.StatusNotFound))
	}
	if employee.EmployeeID == nil || *employee.EmployeeID == "" {
		return c.RespondError(web.NewRequestError(errors.New("Employee has no employee ID"), http.StatusNotFound))
	}

	png, err := report.QRCode(*employee.EmployeeID)
	if err != nil {
		return c.RespondError(err)
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "qrcode_"+*employee.EmployeeID+".png"))
	c.Data(http.StatusOK, report.ContentTypePNG, png)
	return nil
}
