// Package sweeper expires stale ads and purges long-expired ones.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/events"
	"github.com/Skotchmaster/classifieds/internal/metrics"
	"github.com/Skotchmaster/classifieds/internal/models"
	"github.com/Skotchmaster/classifieds/internal/search"
	"github.com/Skotchmaster/classifieds/internal/storage"
)

// DailySpec fires at midnight UTC.
const DailySpec = "0 0 * * *"

type Store interface {
	ExpireActive(ctx context.Context, now time.Time) ([]uint, error)
	ListPurgeable(ctx context.Context, cutoff time.Time) ([]models.Ad, error)
	DeleteAdIf(ctx context.Context, id uint, status domain.Status) (bool, error)
	ImageInUse(ctx context.Context, url string, exceptAd uint) (bool, error)
}

type Scheduler interface {
	AddFunc(spec string, fn func()) error
	Start()
	Stop()
}

type Report struct {
	Expired int
	Purged  int
	// ImageErrors counts purged ads whose photo could not be removed.
	ImageErrors int
}

type Sweeper struct {
	Repo    Store
	Images  storage.ImageStore
	Events  events.Publisher
	Index   search.Index
	Metrics *metrics.Metrics
	Log     *slog.Logger
	Now     func() time.Time
}

func (s *Sweeper) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Sweeper) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// Run performs one sweep. Each step only touches rows that still match its
// predicate, so a failed run can simply be repeated.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	var rep Report
	l := s.log().With("job", "sweeper")
	now := s.now()

	expired, err := s.Repo.ExpireActive(ctx, now)
	if err != nil {
		return rep, fmt.Errorf("expire: %w", err)
	}
	rep.Expired = len(expired)
	s.Metrics.Transition(domain.TransitionExpire, len(expired))
	s.Metrics.SweepAds("expired", len(expired))
	for _, id := range expired {
		s.unindex(ctx, l, id)
		s.publish(ctx, l, events.Event{Type: events.AdExpired, AdID: id, Status: domain.StatusExpired, At: now})
	}

	rule, err := domain.RuleFor(domain.TransitionPurge)
	if err != nil {
		return rep, err
	}
	purgeable, err := s.Repo.ListPurgeable(ctx, now.Add(-domain.PurgeGrace))
	if err != nil {
		return rep, fmt.Errorf("list purgeable: %w", err)
	}

	var errs []error
	for _, ad := range purgeable {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		if ad.ImageURL != nil {
			if _, err := storage.Release(ctx, s.Images, s.Repo, *ad.ImageURL, ad.UserID, ad.ID); err != nil {
				rep.ImageErrors++
				l.Warn("purge_image_error", "ad_id", ad.ID, "url", *ad.ImageURL, "error", err)
			}
		}

		ok, err := s.Repo.DeleteAdIf(ctx, ad.ID, rule.From)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge ad %d: %w", ad.ID, err))
			continue
		}
		if !ok {
			continue
		}
		rep.Purged++
		s.unindex(ctx, l, ad.ID)
		s.publish(ctx, l, events.Event{Type: events.AdPurged, AdID: ad.ID, UserID: ad.UserID, At: now})
	}
	s.Metrics.Transition(domain.TransitionPurge, rep.Purged)
	s.Metrics.SweepAds("purged", rep.Purged)

	return rep, errors.Join(errs...)
}

// Tick runs a sweep for a scheduler. Errors and panics are logged and the
// next tick tries again.
func (s *Sweeper) Tick(ctx context.Context) {
	l := s.log().With("job", "sweeper")
	defer func() {
		if r := recover(); r != nil {
			s.Metrics.SweepRun(false)
			l.Error("sweep_panic", "panic", fmt.Sprint(r))
		}
	}()

	start := time.Now()
	rep, err := s.Run(ctx)
	if err != nil {
		s.Metrics.SweepRun(false)
		l.Error("sweep_error", "expired", rep.Expired, "purged", rep.Purged, "error", err)
		return
	}
	s.Metrics.SweepRun(true)
	l.Info("sweep_done",
		"expired", rep.Expired,
		"purged", rep.Purged,
		"image_errors", rep.ImageErrors,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Register schedules Tick on sch with the daily spec.
func (s *Sweeper) Register(ctx context.Context, sch Scheduler) error {
	return sch.AddFunc(DailySpec, func() { s.Tick(ctx) })
}

func (s *Sweeper) publish(ctx context.Context, l *slog.Logger, ev events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		l.Warn("publish_event_error", "event", ev.Type, "ad_id", ev.AdID, "error", err)
	}
}

func (s *Sweeper) unindex(ctx context.Context, l *slog.Logger, id uint) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Remove(ctx, id); err != nil {
		l.Warn("index_remove_error", "ad_id", id, "error", err)
	}
}

// Cron adapts robfig/cron to Scheduler.
type Cron struct {
	c *cron.Cron
}

func NewCron() *Cron {
	return &Cron{c: cron.New(cron.WithLocation(time.UTC))}
}

func (c *Cron) AddFunc(spec string, fn func()) error {
	_, err := c.c.AddFunc(spec, fn)
	return err
}

func (c *Cron) Start() { c.c.Start() }

// Stop waits for a running job to finish.
func (c *Cron) Stop() { <-c.c.Stop().Done() }
