package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/classifieds/internal/logging"
	authmw "github.com/Skotchmaster/classifieds/internal/middleware/auth"
	"github.com/Skotchmaster/classifieds/internal/service"
	"github.com/Skotchmaster/classifieds/internal/transport"
)

type ModerationHTTP struct {
	Svc *service.ModerationService
}

func (h *ModerationHTTP) ListPending(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "verification.pending")

	_, role, _ := authmw.Actor(c)
	ads, err := h.Svc.ListPending(ctx, role)
	if err != nil {
		return fail(l, "list_pending_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ads": ads})
}

func (h *ModerationHTTP) Approve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "verification.approve")

	_, role, _ := authmw.Actor(c)
	id, err := parseID(c, "adId")
	if err != nil {
		return err
	}

	ad, err := h.Svc.Approve(ctx, role, id)
	if err != nil {
		return fail(l, "approve_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ad": ad, "message": "ad approved"})
}

func (h *ModerationHTTP) Reject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "verification.reject")

	_, role, _ := authmw.Actor(c)
	id, err := parseID(c, "adId")
	if err != nil {
		return err
	}

	var req transport.RejectRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reject_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "reject_error", err)
	}

	ad, err := h.Svc.Reject(ctx, role, id, req.Reason)
	if err != nil {
		return fail(l, "reject_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ad": ad, "message": "ad rejected"})
}
