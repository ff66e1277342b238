package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/calendar"
)

type calendarApi struct {
	svc      *calendar.Service
	validate *validator.Validate
}

func registerCalendarAPI(g *echo.Group, svc *calendar.Service, validate *validator.Validate) {
	api := calendarApi{svc: svc, validate: validate}

	cg := g.Group("/calendar")
	cg.GET("", api.project)
	cg.POST("/items", api.createItem)
}

type (
	CalendarResponse struct {
		Month  string             `json:"month"`
		Months []string           `json:"months"`
		Marks  calendar.MarkIndex `json:"marks"`
		// Agenda is only set when a date was requested.
		Agenda []calendar.AgendaItem `json:"agenda,omitempty"`
	}

	NewItemRequest struct {
		InstitutionID string `json:"institution_id"`
		Kind          string `json:"kind" validate:"required"`
		Title         string `json:"title" validate:"required,notblank"`
		Date          string `json:"date" validate:"required,datetime=2006-01-02"`
		Time          string `json:"time" validate:"omitempty,hhmm"`
		ClassID       string `json:"class_id"`
		SubjectID     string `json:"subject_id"`
		TeacherID     string `json:"teacher_id"`
	}
)

// Handlers

func (api *calendarApi) project(ctx echo.Context) error {
	w := calendar.WindowAt(core.NowFunc())
	if month := strings.TrimSpace(ctx.QueryParam("month")); month != "" {
		var err error
		if w, err = calendar.ParseWindow(month); err != nil {
			return core.NewFieldValidationError("month", "month must be formatted as YYYY-MM")
		}
	}
	date, hasDate, err := dateParam(ctx, "date")
	if err != nil {
		return err
	}

	filter := new(calendar.Filter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to calendar.Filter")
	}

	p, err := api.svc.Load(ctx.Request().Context(), *filter, w)
	if err != nil {
		return errors.Wrap(err, "loading calendar")
	}

	resp := CalendarResponse{Month: w.String(), Marks: p.Marks}
	for _, m := range w.Months() {
		resp.Months = append(resp.Months, m.Format("2006-01"))
	}
	if hasDate {
		resp.Agenda = p.AgendaFor(date)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *calendarApi) createItem(ctx echo.Context) error {
	var data NewItemRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewItemRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	date, err := parseDate("date", data.Date)
	if err != nil {
		return err
	}
	item, err := api.svc.CreateItem(ctx.Request().Context(), calendar.Item{
		InstitutionID: core.CleanString(data.InstitutionID),
		Kind:          calendar.Tag(strings.ToLower(core.CleanString(data.Kind))),
		Title:         data.Title,
		Date:          date,
		Time:          core.CleanString(data.Time),
		ClassID:       core.CleanString(data.ClassID),
		SubjectID:     core.CleanString(data.SubjectID),
		TeacherID:     core.CleanString(data.TeacherID),
	})
	if err != nil {
		return errors.Wrap(err, "creating calendar item")
	}
	return ctx.JSON(http.StatusCreated, item)
}
