package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/colegiohq/backend/core"
)

type (
	// response is the success envelope every endpoint renders.
	response struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
	}

	pagedData struct {
		Items    interface{} `json:"items"`
		Page     int         `json:"page"`
		LastPage int         `json:"last_page"`
		Total    int         `json:"total"`
	}
)

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, response{Success: true, Data: data})
}

func respondPage(ctx echo.Context, items interface{}, page core.Page, total int) error {
	return respond(ctx, http.StatusOK, pagedData{
		Items:    items,
		Page:     page.Number,
		LastPage: page.LastPage(total),
		Total:    total,
	})
}

var (
	pageParam     = "page"
	pageSizeParam = "page_size"

	maxPageSize = 100
)

// bindPage reads the pagination query params, falling back to the first page
// at the configured size.
func bindPage(ctx echo.Context, conf *core.Config) core.Page {
	page := core.Page{Number: 1, Size: conf.PageSize}
	if n, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil && n > 0 {
		page.Number = n
	}
	if size, err := strconv.Atoi(ctx.QueryParam(pageSizeParam)); err == nil && size > 0 && size <= maxPageSize {
		page.Size = size
	}
	return page
}

// intParam parses a numeric path param; an unparseable id behaves as a
// missing row.
func intParam(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}
