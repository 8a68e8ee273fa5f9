package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/classifieds/internal/db/dbtest"
	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/events"
	"github.com/Skotchmaster/classifieds/internal/logging"
	"github.com/Skotchmaster/classifieds/internal/metrics"
	"github.com/Skotchmaster/classifieds/internal/models"
	"github.com/Skotchmaster/classifieds/internal/repo"
	"github.com/Skotchmaster/classifieds/internal/search"
	"github.com/Skotchmaster/classifieds/internal/service"
	"github.com/Skotchmaster/classifieds/internal/storage"
	"github.com/Skotchmaster/classifieds/internal/tokens"
)

var jwtSecret = []byte("test-jwt-secret")

type testEnv struct {
	E         *echo.Echo
	DB        *gorm.DB
	Repo      *repo.GormRepo
	Events    *events.Recorder
	UploadDir string
	Category  models.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.New(t)
	r := repo.New(db)
	rec := &events.Recorder{}
	m := metrics.New()
	uploadDir := t.TempDir()
	images, err := storage.NewLocalStore(uploadDir)
	require.NoError(t, err)

	hooks := service.Hooks{Events: rec, Index: search.Nop{}, Metrics: m}
	e := New(Options{
		Logger:      logging.NewWithWriter(io.Discard, "error"),
		CORSOrigins: []string{"http://localhost:5173"},
	})
	Register(e, &Deps{
		AuthHandler:         &AuthHTTP{Svc: &service.AuthService{Repo: r, JWTSecret: jwtSecret}},
		UserHandler:         &UserHTTP{Svc: &service.UserService{Repo: r}},
		AdHandler:           &AdHTTP{Svc: &service.AdService{Repo: r, Images: images, Hooks: hooks}},
		UploadHandler:       &UploadHTTP{Images: images},
		CategoryHandler:     &CategoryHTTP{Svc: &service.CategoryService{Repo: r}},
		VerificationHandler: &ModerationHTTP{Svc: &service.ModerationService{Repo: r, Hooks: hooks}},
		JWTSecret:           jwtSecret,
		UploadDir:           uploadDir,
		Metrics:             m.Handler(),
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	cat := models.Category{Name: "Véhicules"}
	require.NoError(t, r.CreateCategory(context.Background(), &cat))

	return &testEnv{E: e, DB: db, Repo: r, Events: rec, UploadDir: uploadDir, Category: cat}
}

// user inserts a user with the given role and returns it with a bearer token.
func (env *testEnv) user(t *testing.T, email string, role domain.Role) (models.User, string) {
	t.Helper()
	u := models.User{Name: email, Email: email, Password: "unused", Role: role}
	require.NoError(t, env.Repo.CreateUser(context.Background(), &u))
	tok, _, err := tokens.SignAccessToken(u.ID, u.Email, u.Role, jwtSecret, time.Now())
	require.NoError(t, err)
	return u, tok
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type adResp struct {
	Ad      models.Ad `json:"ad"`
	Message string    `json:"message"`
}

type adsResp struct {
	Ads []models.Ad `json:"ads"`
}

func (env *testEnv) createAd(t *testing.T, token string) models.Ad {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/ads", map[string]any{
		"title":       "Renault Clio",
		"description": "Diesel, 120000 km, bon état",
		"price":       4500.5,
		"categoryId":  env.Category.ID,
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[adResp](t, rec).Ad
}
