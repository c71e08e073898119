package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

// meAPI serves the portal of the authenticated user.
type meAPI struct {
	usrSvc   user.Service
	schedSvc schedule.Service
	notifSvc notification.Service
	validate *validator.Validate
}

type markedResponse struct {
	Marked int `json:"marked"`
}

func registerMeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := meAPI{
		usrSvc:   deps.UserSvc,
		schedSvc: deps.ScheduleSvc,
		notifSvc: deps.NotificationSvc,
		validate: deps.Validate,
	}

	mg := g.Group("/me", jwt)
	mg.GET("", api.profile)
	mg.PUT("", api.updateProfile)
	mg.GET("/grid", api.grid, instructorMiddleware)
	mg.GET("/agenda", api.agenda, instructorMiddleware)
	mg.GET("/notifications", api.notifications)
	mg.POST("/notifications/read", api.markRead)
	mg.POST("/notifications/read-all", api.markAllRead)
}

// instructorFilter binds the query filter, pinned to the context user's classes.
func (api *meAPI) instructorFilter(ctx echo.Context) (schedule.QueryFilter, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return schedule.QueryFilter{}, errors.Wrap(err, "getting context user")
	}
	filter, err := bindScheduleFilter(ctx)
	if err != nil {
		return filter, err
	}
	filter.InstructorID = usr.ID
	return filter, nil
}

func (api *meAPI) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *meAPI) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.usrSvc.UpdateProfile(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *meAPI) grid(ctx echo.Context) error {
	filter, err := api.instructorFilter(ctx)
	if err != nil {
		return err
	}
	view, err := api.schedSvc.Grid(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building grid")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *meAPI) agenda(ctx echo.Context) error {
	filter, err := api.instructorFilter(ctx)
	if err != nil {
		return err
	}
	groups, err := api.schedSvc.Agenda(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building agenda")
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *meAPI) notifications(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter notification.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to notification.QueryFilter")
	}

	list, err := api.notifSvc.Query(ctx.Request().Context(), usr.ID, filter)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if list == nil {
		list = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *meAPI) markRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data notification.MarkReadRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkReadRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	n, err := api.notifSvc.MarkRead(ctx.Request().Context(), usr.ID, data.IDs...)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, markedResponse{Marked: n})
}

func (api *meAPI) markAllRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	n, err := api.notifSvc.MarkAllRead(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, markedResponse{Marked: n})
}
