package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/events"
	"github.com/Skotchmaster/classifieds/internal/logging"
	"github.com/Skotchmaster/classifieds/internal/models"
	"github.com/Skotchmaster/classifieds/internal/repo"
	"github.com/Skotchmaster/classifieds/internal/search"
	"github.com/Skotchmaster/classifieds/internal/storage"
	"github.com/Skotchmaster/classifieds/internal/util"
)

const (
	MinTitleLen       = 3
	MinDescriptionLen = 10
)

// MaxPrice is the largest value a numeric(12,2) column holds.
var MaxPrice = decimal.RequireFromString("9999999999.99")

type AdService struct {
	Repo   AdStore
	Images storage.ImageStore
	Hooks
	Now func() time.Time
}

type SubmitAd struct {
	Title       string
	Description string
	Price       decimal.Decimal
	CategoryID  uint
	ImageURL    *string
}

// PatchAd carries the fields an owner may edit. Nil means unchanged; an empty
// ImageURL clears the photo.
type PatchAd struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	CategoryID  *uint
	ImageURL    *string
}

type SearchResult struct {
	Ads  []models.Ad
	Page util.Page
}

func validateTitle(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < MinTitleLen {
		return fmt.Errorf("%w: title must be at least %d characters", domain.ErrValidation, MinTitleLen)
	}
	return nil
}

func validateDescription(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < MinDescriptionLen {
		return fmt.Errorf("%w: description must be at least %d characters", domain.ErrValidation, MinDescriptionLen)
	}
	return nil
}

func validatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}
	if !p.Equal(p.Round(2)) {
		return fmt.Errorf("%w: price has more than two decimals", domain.ErrValidation)
	}
	if p.GreaterThan(MaxPrice) {
		return fmt.Errorf("%w: price is too large", domain.ErrValidation)
	}
	return nil
}

func validateCategoryID(id uint) error {
	if id == 0 {
		return fmt.Errorf("%w: categoryId is required", domain.ErrValidation)
	}
	return nil
}

func (in SubmitAd) validate() error {
	return errors.Join(
		validateTitle(in.Title),
		validateDescription(in.Description),
		validatePrice(in.Price),
		validateCategoryID(in.CategoryID),
	)
}

// validateImage accepts external URLs and photos the owner uploaded. Another
// user's upload is refused so its file cannot be released through this ad.
func validateImage(u *string, owner uint) error {
	v := cleanImageURL(u)
	if v == nil || !storage.Managed(*v) || storage.OwnedBy(*v, owner) {
		return nil
	}
	return fmt.Errorf("%w: imageUrl must be a photo uploaded by the ad owner", domain.ErrValidation)
}

func cleanImageURL(u *string) *string {
	if u == nil {
		return nil
	}
	v := strings.TrimSpace(*u)
	if v == "" {
		return nil
	}
	return &v
}

func (s *AdService) checkCategory(ctx context.Context, id uint) error {
	ok, err := s.Repo.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: category %d does not exist", domain.ErrInvalidReference, id)
	}
	return nil
}

// Submit creates an ad awaiting moderation.
func (s *AdService) Submit(ctx context.Context, ownerID uint, in SubmitAd) (*models.Ad, error) {
	l := logging.FromContext(ctx).With("svc", "ads.submit", "user_id", ownerID)

	if err := errors.Join(in.validate(), validateImage(in.ImageURL, ownerID)); err != nil {
		return nil, err
	}

	ok, err := s.Repo.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %d does not exist", domain.ErrInvalidReference, ownerID)
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	ad, err := s.Repo.CreateAd(ctx, &models.Ad{
		Title:              strings.TrimSpace(in.Title),
		Description:        strings.TrimSpace(in.Description),
		Price:              in.Price,
		ImageURL:           cleanImageURL(in.ImageURL),
		CategoryID:         in.CategoryID,
		UserID:             ownerID,
		Status:             domain.StatusPending,
		VerificationStatus: domain.VerificationInReview,
	})
	if err != nil {
		l.Error("submit_ad_error", "status", 500, "reason", "cannot create ad", "error", err)
		return nil, err
	}

	s.publish(ctx, l, events.Event{
		Type: events.AdSubmitted, AdID: ad.ID, UserID: ownerID, Status: ad.Status, At: nowFunc(s.Now),
	})
	return ad, nil
}

// MarkSold closes an active ad on behalf of its owner.
func (s *AdService) MarkSold(ctx context.Context, adID, requesterID uint, reason string) (*models.Ad, error) {
	l := logging.FromContext(ctx).With("svc", "ads.mark_sold", "ad_id", adID, "user_id", requesterID)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", domain.ErrValidation)
	}

	rule, guard, err := guardFor(domain.TransitionMarkSold)
	if err != nil {
		return nil, err
	}
	guard.UserID = requesterID

	now := nowFunc(s.Now)
	ok, err := s.Repo.UpdateAdIf(ctx, adID, guard, map[string]any{
		"status":              rule.To,
		"verification_status": rule.ToVerification,
		"sold_at":             now,
		"sold_reason":         reason,
	})
	if err != nil {
		l.Error("mark_sold_error", "status", 500, "error", err)
		return nil, err
	}
	if !ok {
		return nil, explainMiss(ctx, s.Repo, adID, requesterID, domain.TransitionMarkSold)
	}

	ad, err := s.Repo.GetAd(ctx, adID)
	if err != nil {
		return nil, err
	}

	s.Metrics.Transition(domain.TransitionMarkSold, 1)
	s.remove(ctx, l, adID)
	s.publish(ctx, l, events.Event{
		Type: events.AdSold, AdID: adID, UserID: requesterID, Status: ad.Status, Reason: reason, At: now,
	})
	return ad, nil
}

// ChangeStatus backs the owner status endpoint. Only sold is a real change;
// active is accepted when the ad already is active.
func (s *AdService) ChangeStatus(ctx context.Context, adID, requesterID uint, status, reason string) (*models.Ad, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	switch st {
	case domain.StatusSold:
		return s.MarkSold(ctx, adID, requesterID, reason)
	case domain.StatusActive:
		ad, err := s.Repo.GetAd(ctx, adID)
		if err != nil {
			return nil, err
		}
		if err := domain.OwnerOr(requesterID, ad.UserID, ""); err != nil {
			return nil, err
		}
		if ad.Status != domain.StatusActive {
			return nil, fmt.Errorf("%w: an ad in status %s becomes active only through moderation", domain.ErrInvalidTransition, ad.Status)
		}
		return ad, nil
	}
	return nil, fmt.Errorf("%w: status must be %s or %s", domain.ErrValidation, domain.StatusActive, domain.StatusSold)
}

// UpdateFields edits descriptive fields. The caller checks ownership. Status
// never changes here and the price is frozen once moderation has happened.
func (s *AdService) UpdateFields(ctx context.Context, adID uint, p PatchAd) (*models.Ad, error) {
	l := logging.FromContext(ctx).With("svc", "ads.update", "ad_id", adID)

	current, err := s.Repo.GetAd(ctx, adID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	var errs []error
	if p.Title != nil {
		errs = append(errs, validateTitle(*p.Title))
		updates["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		errs = append(errs, validateDescription(*p.Description))
		updates["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		errs = append(errs, validatePrice(*p.Price))
		updates["price"] = *p.Price
	}
	if p.CategoryID != nil {
		errs = append(errs, validateCategoryID(*p.CategoryID))
		updates["category_id"] = *p.CategoryID
	}
	if p.ImageURL != nil {
		errs = append(errs, validateImage(p.ImageURL, current.UserID))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if p.CategoryID != nil {
		if err := s.checkCategory(ctx, *p.CategoryID); err != nil {
			return nil, err
		}
	}

	oldImage := current.ImageURL
	imageChanged := false
	if p.ImageURL != nil {
		next := cleanImageURL(p.ImageURL)
		updates["image_url"] = next
		imageChanged = !sameURL(oldImage, next)
	}

	var ad *models.Ad
	if p.Price != nil {
		if current.Status != domain.StatusPending {
			return nil, fmt.Errorf("%w: price can only change while the ad awaits moderation", domain.ErrValidation)
		}
		ok, err := s.Repo.UpdateAdIf(ctx, adID, repo.Guard{Status: domain.StatusPending}, updates)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: price can only change while the ad awaits moderation", domain.ErrValidation)
		}
		ad, err = s.Repo.GetAd(ctx, adID)
		if err != nil {
			return nil, err
		}
	} else {
		ad, err = s.Repo.UpdateAdFields(ctx, adID, updates)
		if err != nil {
			return nil, err
		}
	}

	if imageChanged && oldImage != nil {
		s.releaseImage(ctx, *oldImage, ad.UserID, ad.ID)
	}
	if ad.Status == domain.StatusActive {
		s.put(ctx, l, ad)
	}
	return ad, nil
}

func sameURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *AdService) releaseImage(ctx context.Context, url string, owner, adID uint) {
	if _, err := storage.Release(ctx, s.Images, s.Repo, url, owner, adID); err != nil {
		logging.FromContext(ctx).Warn("image_delete_error", "url", url, "ad_id", adID, "error", err)
	}
}

// Remove hard-deletes an ad. Its photo is released best effort.
func (s *AdService) Remove(ctx context.Context, adID uint) error {
	l := logging.FromContext(ctx).With("svc", "ads.remove", "ad_id", adID)

	ad, err := s.Repo.GetAd(ctx, adID)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteAd(ctx, adID); err != nil {
		return err
	}

	if ad.ImageURL != nil {
		s.releaseImage(ctx, *ad.ImageURL, ad.UserID, ad.ID)
	}
	s.remove(ctx, l, adID)
	s.publish(ctx, l, events.Event{
		Type: events.AdDeleted, AdID: adID, UserID: ad.UserID, Status: ad.Status, At: nowFunc(s.Now),
	})
	return nil
}

func (s *AdService) Get(ctx context.Context, id uint) (*models.Ad, error) {
	return s.Repo.GetAd(ctx, id)
}

func (s *AdService) List(ctx context.Context, f repo.AdFilter) ([]models.Ad, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, f.Status)
	}
	return s.Repo.ListAds(ctx, f)
}

// Search looks up active ads in the index and falls back to the database
// when the index is disabled or failing.
func (s *AdService) Search(ctx context.Context, q string, page, size int) (*SearchResult, error) {
	l := logging.FromContext(ctx).With("svc", "ads.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	p := util.Calculate(page, size)

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, p.Offset, p.Size)
		if err == nil {
			ads, err := s.Repo.GetActiveAdsByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			p.Total = total
			return &SearchResult{Ads: ads, Page: p}, nil
		}
		if !errors.Is(err, search.ErrDisabled) {
			l.Warn("search_index_error", "reason", "falling back to database", "error", err)
		}
	}

	total, ads, err := s.Repo.SearchActive(ctx, q, p.Offset, p.Size)
	if err != nil {
		return nil, err
	}
	p.Total = total
	return &SearchResult{Ads: ads, Page: p}, nil
}
