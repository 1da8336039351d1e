package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/pathwise/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	if raw := ctx.QueryParam(orderingParam); raw != "" {
		ord.Orderings = core.ParseOrderings(raw)
	}
}

// queryInt returns the integer query param name, or def when absent or invalid.
func queryInt(ctx echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(ctx.QueryParam(name)); err == nil {
		return n
	}
	return def
}
