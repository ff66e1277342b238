package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/schedule"
)

type scheduleApi struct {
	svc      schedule.ServiceInterface
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, svc schedule.ServiceInterface, validate *validator.Validate) {
	api := scheduleApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/schedule")
	sg.POST("/conflicts", api.checkConflict)
	sg.GET("/slots", api.query)
	sg.POST("/slots", api.create)
	sg.GET("/slots/:id", api.retrieve)
	sg.PUT("/slots/:id", api.update)
	sg.POST("/slots/:id/deactivate", api.deactivate)
}

type (
	ConflictCheckRequest struct {
		schedule.NewSlot
		// ExcludeID is the slot being edited, if any.
		ExcludeID string `json:"exclude_id"`
	}

	ConflictCheckResponse struct {
		Conflict bool           `json:"conflict"`
		With     *schedule.Slot `json:"with"`
	}
)

// Handlers

func (api *scheduleApi) checkConflict(ctx echo.Context) error {
	var data ConflictCheckRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConflictCheckRequest")
	}
	if err := data.NewSlot.Validate(api.validate); err != nil {
		return err
	}

	with, err := api.svc.CheckConflict(ctx.Request().Context(), data.NewSlot, data.ExcludeID)
	if err != nil {
		return errors.Wrap(err, "checking conflict")
	}
	return ctx.JSON(http.StatusOK, ConflictCheckResponse{Conflict: with != nil, With: with})
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data schedule.NewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating slot")
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Slot{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	slots, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *scheduleApi) retrieve(ctx echo.Context) error {
	slot, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *scheduleApi) update(ctx echo.Context) error {
	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting slot")
	}

	var data schedule.UpdateSlot
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSlot")
	}
	if err = data.Validate(orig, api.validate); err != nil {
		return err
	}

	slot, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *scheduleApi) deactivate(ctx echo.Context) error {
	slot, err := api.svc.Deactivate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deactivating slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}
