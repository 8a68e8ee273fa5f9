package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/classifieds/internal/db/dbtest"
	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/events"
	"github.com/Skotchmaster/classifieds/internal/metrics"
	"github.com/Skotchmaster/classifieds/internal/models"
	"github.com/Skotchmaster/classifieds/internal/repo"
	"github.com/Skotchmaster/classifieds/internal/search"
)

var t0 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeImages struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeImages) Save(context.Context, uint, string, io.Reader) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return f.err
}

// photo is the URL of a photo uploaded by owner.
func photo(owner uint, name string) string {
	return fmt.Sprintf("/uploads/photo-%d-%s", owner, name)
}

type env struct {
	db     *gorm.DB
	repo   *repo.GormRepo
	ads    *AdService
	mod    *ModerationService
	events *events.Recorder
	images *fakeImages
	owner  models.User
	other  models.User
	cat    models.Category
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gdb := dbtest.New(t)
	r := repo.New(gdb)
	ctx := context.Background()

	owner := models.User{Name: "alice", Email: "alice@example.com", Password: "x", Role: domain.RoleUser}
	require.NoError(t, r.CreateUser(ctx, &owner))
	other := models.User{Name: "bob", Email: "bob@example.com", Password: "x", Role: domain.RoleUser}
	require.NoError(t, r.CreateUser(ctx, &other))
	cat := models.Category{Name: "Électronique"}
	require.NoError(t, r.CreateCategory(ctx, &cat))

	rec := &events.Recorder{}
	imgs := &fakeImages{}
	hooks := Hooks{Events: rec, Index: search.Nop{}, Metrics: metrics.New()}
	clock := func() time.Time { return t0 }

	return &env{
		db:     gdb,
		repo:   r,
		ads:    &AdService{Repo: r, Images: imgs, Hooks: hooks, Now: clock},
		mod:    &ModerationService{Repo: r, Hooks: hooks, Now: clock},
		events: rec,
		images: imgs,
		owner:  owner,
		other:  other,
		cat:    cat,
	}
}

func (e *env) submit(t *testing.T) *models.Ad {
	t.Helper()
	ad, err := e.ads.Submit(context.Background(), e.owner.ID, SubmitAd{
		Title:       "Vélo de route",
		Description: "Très bon état, peu servi",
		Price:       decimal.RequireFromString("350.00"),
		CategoryID:  e.cat.ID,
	})
	require.NoError(t, err)
	return ad
}

func (e *env) approved(t *testing.T) *models.Ad {
	t.Helper()
	ad := e.submit(t)
	ad, err := e.mod.Approve(context.Background(), domain.RoleModerator, ad.ID)
	require.NoError(t, err)
	return ad
}

// force puts an ad into an arbitrary state, bypassing the lifecycle.
func (e *env) force(t *testing.T, id uint, st domain.Status, ver domain.Verification) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Ad{}).Where("id = ?", id).
		Updates(map[string]any{"status": st, "verification_status": ver}).Error)
}

func (e *env) reload(t *testing.T, id uint) *models.Ad {
	t.Helper()
	ad, err := e.repo.GetAd(context.Background(), id)
	require.NoError(t, err)
	return ad
}

var everyState = []struct {
	st  domain.Status
	ver domain.Verification
}{
	{domain.StatusPending, domain.VerificationInReview},
	{domain.StatusActive, domain.VerificationVerified},
	{domain.StatusSold, domain.VerificationVerified},
	{domain.StatusExpired, domain.VerificationVerified},
	{domain.StatusRejected, domain.VerificationRejected},
}
