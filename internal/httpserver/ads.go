package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/logging"
	authmw "github.com/Skotchmaster/classifieds/internal/middleware/auth"
	"github.com/Skotchmaster/classifieds/internal/repo"
	"github.com/Skotchmaster/classifieds/internal/service"
	"github.com/Skotchmaster/classifieds/internal/transport"
	"github.com/Skotchmaster/classifieds/internal/util"
)

type AdHTTP struct {
	Svc *service.AdService
}

func (h *AdHTTP) ListAds(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ads.list")

	categoryID, err := parseOptionalUint(c.QueryParam("categoryId"), "categoryId")
	if err != nil {
		return err
	}
	userID, err := parseOptionalUint(c.QueryParam("userId"), "userId")
	if err != nil {
		return err
	}

	ads, err := h.Svc.List(ctx, repo.AdFilter{
		Status:     domain.Status(c.QueryParam("status")),
		CategoryID: categoryID,
		UserID:     userID,
	})
	if err != nil {
		return fail(l, "list_ads_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ads": ads})
}

func (h *AdHTTP) SearchAds(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ads.search")

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return fail(l, "search_ads_error", err)
	}

	p := res.Page
	return c.JSON(http.StatusOK, echo.Map{
		"ads": res.Ads,
		"meta": echo.Map{
			"page":        p.Page,
			"size":        p.Size,
			"total":       p.Total,
			"total_pages": (p.Total + int64(p.Size) - 1) / int64(p.Size),
			"has_prev":    p.Page > 1,
			"has_next":    int64(p.Offset+p.Size) < p.Total,
		},
	})
}

func (h *AdHTTP) GetAd(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ads.get")

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ad, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_ad_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ad": ad})
}

func (h *AdHTTP) CreateAd(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ads.create")

	userID, err := actor(c)
	if err != nil {
		return err
	}

	var req transport.CreateAdRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("submit_ad_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "submit_ad_error", err)
	}

	ad, err := h.Svc.Submit(ctx, userID, service.SubmitAd{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return fail(l, "submit_ad_error", err)
	}

	l.Info("submit_ad_success", "ad_id", ad.ID)
	return c.JSON(http.StatusCreated, echo.Map{"ad": ad})
}

// UpdateAd is open to the owner and to admins.
func (h *AdHTTP) UpdateAd(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ads.update")

	userID, role, ok := authmw.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	current, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "update_ad_error", err)
	}
	if err := domain.OwnerOr(userID, current.UserID, role, domain.AdminRoles...); err != nil {
		return fail(l, "update_ad_error", err)
	}

	var req transport.PatchAdRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_ad_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "update_ad_error", err)
	}

	ad, err := h.Svc.UpdateFields(ctx, id, service.PatchAd{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return fail(l, "update_ad_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ad": ad})
}

func (h *AdHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ads.update_status")

	userID, err := actor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req transport.ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "update_status_error", err)
	}

	ad, err := h.Svc.ChangeStatus(ctx, id, userID, req.Status, req.Reason)
	if err != nil {
		return fail(l, "update_status_error", err)
	}

	l.Info("update_status_success", "ad_id", id, "to", ad.Status)
	return c.JSON(http.StatusOK, echo.Map{"ad": ad})
}

// DeleteAd is open to the owner only.
func (h *AdHTTP) DeleteAd(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ads.delete")

	userID, role, ok := authmw.Actor(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	current, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "delete_ad_error", err)
	}
	if err := domain.OwnerOr(userID, current.UserID, role); err != nil {
		return fail(l, "delete_ad_error", err)
	}

	if err := h.Svc.Remove(ctx, id); err != nil {
		return fail(l, "delete_ad_error", err)
	}

	l.Info("delete_ad_success", "ad_id", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "ad deleted"})
}
