package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/classifieds/internal/domain"
	authmw "github.com/Skotchmaster/classifieds/internal/middleware/auth"
)

type Deps struct {
	AuthHandler         *AuthHTTP
	UserHandler         *UserHTTP
	AdHandler           *AdHTTP
	UploadHandler       *UploadHTTP
	CategoryHandler     *CategoryHTTP
	VerificationHandler *ModerationHTTP

	JWTSecret []byte
	UploadDir string
	Metrics   http.Handler
	Ready     func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	uploads := e.Group("/uploads",
		echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{http.MethodGet, http.MethodHead},
		}),
		cacheForever,
	)
	uploads.Static("/", d.UploadDir)

	bearer := authmw.NewBearerAuth(d.JWTSecret)
	api := e.Group("/api")

	authG := api.Group("/auth")
	authG.POST("/register", d.AuthHandler.Register)
	authG.POST("/login", d.AuthHandler.Login)

	users := api.Group("/users", bearer.RequireAuth)
	users.GET("/profile", d.UserHandler.GetProfile)
	users.PUT("/profile", d.UserHandler.UpdateProfile)

	ads := api.Group("/ads")
	ads.GET("", d.AdHandler.ListAds)
	ads.GET("/search", d.AdHandler.SearchAds)
	ads.GET("/:id", d.AdHandler.GetAd)

	owned := ads.Group("", bearer.RequireAuth)
	owned.POST("", d.AdHandler.CreateAd)
	owned.POST("/upload", d.UploadHandler.UploadPhoto)
	owned.PUT("/:id", d.AdHandler.UpdateAd)
	owned.PUT("/:id/status", d.AdHandler.UpdateStatus)
	owned.DELETE("/:id", d.AdHandler.DeleteAd)

	categories := api.Group("/categories")
	categories.GET("", d.CategoryHandler.ListCategories)

	admin := categories.Group("", bearer.RequireAuth, authmw.RequireRoles(domain.AdminRoles...))
	admin.POST("", d.CategoryHandler.CreateCategory)
	admin.DELETE("/:id", d.CategoryHandler.DeleteCategory)

	verification := api.Group("/verification", bearer.RequireAuth, authmw.RequireRoles(domain.ModeratorRoles...))
	verification.GET("/pending", d.VerificationHandler.ListPending)
	verification.PUT("/:adId/approve", d.VerificationHandler.Approve)
	verification.PUT("/:adId/reject", d.VerificationHandler.Reject)
}
