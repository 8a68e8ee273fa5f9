package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/events"
	"github.com/Skotchmaster/classifieds/internal/logging"
	"github.com/Skotchmaster/classifieds/internal/models"
)

// ModerationService decides on ads awaiting review. Every call takes the
// actor's role and refuses anyone who cannot moderate.
type ModerationService struct {
	Repo AdStore
	Hooks
	Now func() time.Time
}

func (s *ModerationService) ListPending(ctx context.Context, actor domain.Role) ([]models.Ad, error) {
	if err := domain.CanModerate(actor); err != nil {
		return nil, err
	}
	return s.Repo.ListPending(ctx)
}

// Approve publishes a pending ad for PublishWindow. The status, verification
// and both timestamps change in one row update.
func (s *ModerationService) Approve(ctx context.Context, actor domain.Role, adID uint) (*models.Ad, error) {
	l := logging.FromContext(ctx).With("svc", "moderation.approve", "ad_id", adID, "role", actor)

	if err := domain.CanModerate(actor); err != nil {
		return nil, err
	}

	rule, guard, err := guardFor(domain.TransitionApprove)
	if err != nil {
		return nil, err
	}

	now := nowFunc(s.Now)
	ok, err := s.Repo.UpdateAdIf(ctx, adID, guard, map[string]any{
		"status":              rule.To,
		"verification_status": rule.ToVerification,
		"published_at":        now,
		"expires_at":          now.Add(domain.PublishWindow),
	})
	if err != nil {
		l.Error("approve_error", "status", 500, "error", err)
		return nil, err
	}
	if !ok {
		return nil, explainMiss(ctx, s.Repo, adID, 0, domain.TransitionApprove)
	}

	ad, err := s.Repo.GetAd(ctx, adID)
	if err != nil {
		return nil, err
	}

	l.Info("approve_success")
	s.Metrics.Transition(domain.TransitionApprove, 1)
	s.put(ctx, l, ad)
	s.publish(ctx, l, events.Event{
		Type: events.AdApproved, AdID: adID, UserID: ad.UserID, Status: ad.Status, At: now,
	})
	return ad, nil
}

func (s *ModerationService) Reject(ctx context.Context, actor domain.Role, adID uint, reason string) (*models.Ad, error) {
	l := logging.FromContext(ctx).With("svc", "moderation.reject", "ad_id", adID, "role", actor)

	if err := domain.CanModerate(actor); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", domain.ErrValidation)
	}

	rule, guard, err := guardFor(domain.TransitionReject)
	if err != nil {
		return nil, err
	}

	ok, err := s.Repo.UpdateAdIf(ctx, adID, guard, map[string]any{
		"status":              rule.To,
		"verification_status": rule.ToVerification,
		"verification_reason": reason,
	})
	if err != nil {
		l.Error("reject_error", "status", 500, "error", err)
		return nil, err
	}
	if !ok {
		return nil, explainMiss(ctx, s.Repo, adID, 0, domain.TransitionReject)
	}

	ad, err := s.Repo.GetAd(ctx, adID)
	if err != nil {
		return nil, err
	}

	l.Info("reject_success")
	s.Metrics.Transition(domain.TransitionReject, 1)
	s.publish(ctx, l, events.Event{
		Type: events.AdRejected, AdID: adID, UserID: ad.UserID, Status: ad.Status, Reason: reason, At: nowFunc(s.Now),
	})
	return ad, nil
}
