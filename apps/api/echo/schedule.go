package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

// streamBuffer is how many pending events a slow stream client may lag behind before events are dropped.
const streamBuffer = 16

type scheduleAPI struct {
	svc        schedule.Service
	bus        core.EventBus
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scheduleAPI{
		svc:        deps.ScheduleSvc,
		bus:        deps.Bus,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	sg := g.Group("/schedules", jwt)
	sg.GET("", api.query)
	sg.GET("/grid", api.grid)
	sg.GET("/agenda", api.agenda)
	sg.GET("/list", api.list)
	sg.GET("/conflicts", api.conflicts)
	sg.GET("/stream", api.stream)
	sg.POST("", api.create, adminMiddleware())
	sg.DELETE("", api.destroyMultiple, adminMiddleware())

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

func bindScheduleFilter(ctx echo.Context) (schedule.QueryFilter, error) {
	var filter schedule.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, errors.Wrap(err, "binding to schedule.QueryFilter")
	}
	return filter, nil
}

// Handlers

func (api *scheduleAPI) query(ctx echo.Context) error {
	filter, err := bindScheduleFilter(ctx)
	if err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Schedule{})
	}

	list, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying schedules")
	}
	if list == nil {
		list = []schedule.Schedule{}
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *scheduleAPI) grid(ctx echo.Context) error {
	filter, err := bindScheduleFilter(ctx)
	if err != nil {
		return err
	}
	view, err := api.svc.Grid(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building grid")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *scheduleAPI) agenda(ctx echo.Context) error {
	filter, err := bindScheduleFilter(ctx)
	if err != nil {
		return err
	}
	groups, err := api.svc.Agenda(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building agenda")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *scheduleAPI) list(ctx echo.Context) error {
	filter, err := bindScheduleFilter(ctx)
	if err != nil {
		return err
	}
	items, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building list")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *scheduleAPI) conflicts(ctx echo.Context) error {
	filter, err := bindScheduleFilter(ctx)
	if err != nil {
		return err
	}
	conflicts, err := api.svc.Conflicts(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "finding conflicts")
	}
	return ctx.JSON(http.StatusOK, conflicts)
}

func (api *scheduleAPI) create(ctx echo.Context) error {
	var data schedule.NewSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating schedule")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *scheduleAPI) retrieve(ctx echo.Context) error {
	s, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleAPI) update(ctx echo.Context) error {
	var data schedule.UpdateSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchedule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scheduleAPI) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if _, err := api.svc.Get(ctx.Request().Context(), id); err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting schedule")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleAPI) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting schedules")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// stream pushes schedule changes to the client as server-sent events until it disconnects.
func (api *scheduleAPI) stream(ctx echo.Context) error {
	events := make(chan core.Event, streamBuffer)
	unsubscribe := core.SubscribeAll(api.bus, core.ScheduleEvents, func(_ context.Context, evt core.Event) {
		select {
		case events <- evt:
		default:
			api.logger.Info(fmt.Sprintf("schedule stream: dropping %s, client too slow", evt.Name))
		}
	})
	defer unsubscribe()

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(res, ": connected\n\n"); err != nil {
		return nil
	}
	res.Flush()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case evt := <-events:
			data, err := json.Marshal(evt)
			if err != nil {
				api.logger.Error("encoding schedule event", err)
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", evt.Name, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
