package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
)

const orderingParam = "ordering"

// bindOrdering reads "?ordering=name,-created_at", keeping only allowed fields.
func bindOrdering(ctx echo.Context, allowed ...string) []core.DBOrdering {
	return core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}
