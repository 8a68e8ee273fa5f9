package httpserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	loggingmw "github.com/Skotchmaster/classifieds/internal/middleware/logging"
)

const (
	BodyLimit       = "10M"
	RateLimitWindow = 15 * time.Minute
	RateLimitBurst  = 100
)

type Options struct {
	Logger      *slog.Logger
	CORSOrigins []string
}

// New builds the echo instance with the global middleware stack.
func New(o Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(o.Logger))
	e.Use(echomw.Secure())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		Skipper:          isUpload,
		AllowOrigins:     o.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(BodyLimit))
	e.Use(echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: isProbe,
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Every(RateLimitWindow / RateLimitBurst),
			Burst:     RateLimitBurst,
			ExpiresIn: RateLimitWindow,
		}),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, try again later")
		},
	}))
	return e
}

func isUpload(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/uploads/")
}

func isProbe(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, "/health/") || p == "/metrics"
}

// cacheForever marks uploaded photos as immutable for a year.
func cacheForever(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "public, max-age=31536000")
		return next(c)
	}
}
