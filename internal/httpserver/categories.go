package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/classifieds/internal/logging"
	authmw "github.com/Skotchmaster/classifieds/internal/middleware/auth"
	"github.com/Skotchmaster/classifieds/internal/service"
	"github.com/Skotchmaster/classifieds/internal/transport"
)

type CategoryHTTP struct {
	Svc *service.CategoryService
}

func (h *CategoryHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "categories.list")

	items, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": items})
}

func (h *CategoryHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "categories.create")

	_, role, _ := authmw.Actor(c)

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_category_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "create_category_error", err)
	}

	cat, err := h.Svc.Create(ctx, role, req.Name)
	if err != nil {
		return fail(l, "create_category_error", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"category": cat})
}

func (h *CategoryHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "categories.delete")

	_, role, _ := authmw.Actor(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, role, id); err != nil {
		return fail(l, "delete_category_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "category deleted"})
}
