package attendance

import (
	"net/http"
	"reflect"
	"time"

	"geoattendance/backend/foundation/web"
	"geoattendance/backend/internal/auth"
	"geoattendance/backend/internal/entity"
	"geoattendance/backend/internal/pkg/apperr"
	"geoattendance/backend/internal/pkg/metrics"
	"geoattendance/backend/internal/service/ledger"
	"geoattendance/backend/internal/service/report"
)

type Controller struct {
	ledger Ledger
	user   User
	report Report
	loc    *time.Location
}

func NewController(ledger Ledger, user User, report Report, loc *time.Location) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	return &Controller{ledger: ledger, user: user, report: report, loc: loc}
}

// #employee

func (uc Controller) CheckIn(c *web.Context) error {
	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	var data entity.Coordinates
	if err := c.BindFunc(&data); err != nil {
		return c.RespondError(err)
	}

	record, err := uc.ledger.CheckIn(c.Ctx, claims.UserId, data)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":  true,
		"message": "Checked in successfully",
		"record":  record,
	}, http.StatusCreated)
}

func (uc Controller) CheckOut(c *web.Context) error {
	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	var data entity.Coordinates
	if err := c.BindFunc(&data); err != nil {
		return c.RespondError(err)
	}

	record, err := uc.ledger.CheckOut(c.Ctx, claims.UserId, data)
	if err != nil {
		// Checking out without an open record is a client mistake here.
		if apperr.Is(err, apperr.KindNotFound) {
			return c.RespondError(web.NewRequestError(err, http.StatusBadRequest))
		}
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":  true,
		"message": "Checked out successfully",
		"record":  record,
	}, http.StatusOK)
}

func (uc Controller) Status(c *web.Context) error {
	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	status, err := uc.ledger.Status(c.Ctx, claims.UserId)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":        true,
		"isCheckedIn":   status.IsCheckedIn,
		"currentRecord": status.Current,
	}, http.StatusOK)
}

func (uc Controller) GetMyHistory(c *web.Context) error {
	claims, err := auth.GetClaims(c.Ctx)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusUnauthorized))
	}

	r, err := uc.dateRange(c)
	if err != nil {
		return c.RespondError(err)
	}

	history, err := uc.ledger.ListForUser(c.Ctx, claims.UserId, r)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":  true,
		"records": history.Records,
		"summary": history.Summary,
	}, http.StatusOK)
}

// #admin

func (uc Controller) GetList(c *web.Context) error {
	filter, err := uc.filter(c)
	if err != nil {
		return c.RespondError(err)
	}

	list, err := uc.ledger.ListAll(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"status":  true,
		"records": list,
		"count":   len(list),
	}, http.StatusOK)
}

func (uc Controller) ExportExcel(c *web.Context) error {
	return uc.export(c, "excel", "xlsx", report.ContentTypeExcel, uc.report.Excel)
}

func (uc Controller) ExportPDF(c *web.Context) error {
	return uc.export(c, "pdf", "pdf", report.ContentTypePDF, uc.report.PDF)
}

type renderFunc func(records []entity.AttendanceWithUser, filter report.Filter) ([]byte, error)

func (uc Controller) export(c *web.Context, format, ext, contentType string, render renderFunc) error {
	data, err := uc.render(c, format, render)
	metrics.ReportExportsTotal.WithLabelValues(format, metrics.Result(err)).Inc()
	if err != nil {
		return c.RespondError(err)
	}

	return c.RespondFile(contentType, uc.report.Filename(ext), data)
}

func (uc Controller) render(c *web.Context, format string, render renderFunc) ([]byte, error) {
	filter, err := uc.filter(c)
	if err != nil {
		return nil, err
	}

	rf := report.Filter{
		From: c.Query("from"),
		To:   c.Query("to"),
	}
	if filter.UserID != nil {
		u, err := uc.user.FindByID(c.Ctx, *filter.UserID)
		if err != nil {
			return nil, err
		}
		if u != nil {
			rf.EmployeeName = u.Name
		}
	}

	list, err := uc.ledger.ListAll(c.Ctx, filter)
	if err != nil {
		return nil, err
	}

	data, err := render(list, rf)
	if err != nil {
		return nil, apperr.Internal(err, "rendering "+format+" report")
	}
	return data, nil
}

func (uc Controller) filter(c *web.Context) (ledger.Filter, error) {
	var filter ledger.Filter

	if userID, ok := c.GetQueryFunc(reflect.Int, "userId").(*int); ok {
		filter.UserID = userID
	}
	if err := c.ValidQuery(); err != nil {
		return ledger.Filter{}, err
	}

	r, err := uc.dateRange(c)
	if err != nil {
		return ledger.Filter{}, err
	}
	filter.Range = r

	return filter, nil
}

func (uc Controller) dateRange(c *web.Context) (ledger.Range, error) {
	return ledger.ParseRange(c.Query("from"), c.Query("to"), uc.loc)
}
