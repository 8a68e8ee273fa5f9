package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/events"
	"github.com/Skotchmaster/classifieds/internal/metrics"
	"github.com/Skotchmaster/classifieds/internal/models"
	"github.com/Skotchmaster/classifieds/internal/repo"
	"github.com/Skotchmaster/classifieds/internal/search"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateUserName(ctx context.Context, id uint, name string) (*models.User, error)
}

type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type AdStore interface {
	UserExists(ctx context.Context, id uint) (bool, error)
	CategoryExists(ctx context.Context, id uint) (bool, error)

	CreateAd(ctx context.Context, ad *models.Ad) (*models.Ad, error)
	GetAd(ctx context.Context, id uint) (*models.Ad, error)
	ListAds(ctx context.Context, f repo.AdFilter) ([]models.Ad, error)
	ListPending(ctx context.Context) ([]models.Ad, error)
	GetActiveAdsByIDs(ctx context.Context, ids []uint) ([]models.Ad, error)
	SearchActive(ctx context.Context, q string, offset, limit int) (int64, []models.Ad, error)
	UpdateAdFields(ctx context.Context, id uint, updates map[string]any) (*models.Ad, error)
	UpdateAdIf(ctx context.Context, id uint, g repo.Guard, updates map[string]any) (bool, error)
	DeleteAd(ctx context.Context, id uint) error
	ImageInUse(ctx context.Context, url string, exceptAd uint) (bool, error)
}

// Hooks are the side effects of a state change. Failures are logged and
// never fail the operation that triggered them.
type Hooks struct {
	Events  events.Publisher
	Index   search.Index
	Metrics *metrics.Metrics
}

func (h Hooks) publish(ctx context.Context, l *slog.Logger, ev events.Event) {
	if h.Events == nil {
		return
	}
	if err := h.Events.Publish(ctx, ev); err != nil {
		l.Warn("publish_event_error", "event", ev.Type, "ad_id", ev.AdID, "error", err)
	}
}

func (h Hooks) put(ctx context.Context, l *slog.Logger, ad *models.Ad) {
	if h.Index == nil {
		return
	}
	if err := h.Index.Put(ctx, ad); err != nil {
		l.Warn("index_put_error", "ad_id", ad.ID, "error", err)
	}
}

func (h Hooks) remove(ctx context.Context, l *slog.Logger, id uint) {
	if h.Index == nil {
		return
	}
	if err := h.Index.Remove(ctx, id); err != nil {
		l.Warn("index_remove_error", "ad_id", id, "error", err)
	}
}

func nowFunc(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

// guardFor returns the row predicate for t as stored in the transition table.
func guardFor(t domain.Transition) (domain.Rule, repo.Guard, error) {
	rule, err := domain.RuleFor(t)
	if err != nil {
		return domain.Rule{}, repo.Guard{}, err
	}
	return rule, repo.Guard{Status: rule.From, Verification: rule.FromVerification}, nil
}

// explainMiss reloads an ad after a guarded update matched no row and reports
// why. ownerID of zero skips the ownership check.
func explainMiss(ctx context.Context, store AdStore, id, ownerID uint, t domain.Transition) error {
	ad, err := store.GetAd(ctx, id)
	if err != nil {
		return err
	}
	if ownerID != 0 && ad.UserID != ownerID {
		return fmt.Errorf("%w: only the owner can %s this ad", domain.ErrForbidden, t)
	}
	if _, _, err := domain.Next(t, ad.Status, ad.VerificationStatus); err != nil {
		return err
	}
	return fmt.Errorf("%w: ad %d changed while applying %s", domain.ErrInvalidTransition, id, t)
}
