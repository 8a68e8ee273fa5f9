package repo

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/models"
)

type AdFilter struct {
	Status     domain.Status
	CategoryID uint
	UserID     uint
}

// Guard is the expected prior state of a row for a conditional update.
// Zero fields are not checked.
type Guard struct {
	Status       domain.Status
	Verification domain.Verification
	UserID       uint
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("User")
}

func (r *GormRepo) CreateAd(ctx context.Context, ad *models.Ad) (*models.Ad, error) {
	if err := r.DB.WithContext(ctx).Omit("Category", "User").Create(ad).Error; err != nil {
		return nil, translate(err, "ad")
	}
	return r.GetAd(ctx, ad.ID)
}

func (r *GormRepo) GetAd(ctx context.Context, id uint) (*models.Ad, error) {
	var ad models.Ad
	if err := withRelations(r.DB.WithContext(ctx)).First(&ad, id).Error; err != nil {
		return nil, translate(err, "ad")
	}
	return &ad, nil
}

func (r *GormRepo) ListAds(ctx context.Context, f AdFilter) ([]models.Ad, error) {
	q := withRelations(r.DB.WithContext(ctx)).Model(&models.Ad{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}

	items := []models.Ad{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListPending(ctx context.Context) ([]models.Ad, error) {
	items := []models.Ad{}
	if err := withRelations(r.DB.WithContext(ctx)).
		Where("status = ? AND verification_status = ?", domain.StatusPending, domain.VerificationInReview).
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetActiveAdsByIDs loads active ads keeping the order of ids.
func (r *GormRepo) GetActiveAdsByIDs(ctx context.Context, ids []uint) ([]models.Ad, error) {
	if len(ids) == 0 {
		return []models.Ad{}, nil
	}

	var found []models.Ad
	if err := withRelations(r.DB.WithContext(ctx)).
		Where("id IN ? AND status = ?", ids, domain.StatusActive).
		Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]models.Ad, len(found))
	for _, ad := range found {
		byID[ad.ID] = ad
	}
	items := make([]models.Ad, 0, len(found))
	for _, id := range ids {
		if ad, ok := byID[id]; ok {
			items = append(items, ad)
		}
	}
	return items, nil
}

// SearchActive is the database fallback used when no search cluster is configured.
func (r *GormRepo) SearchActive(ctx context.Context, q string, offset, limit int) (int64, []models.Ad, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	where := "status = ? AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?)"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Ad{}).
		Where(where, domain.StatusActive, pattern, pattern).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Ad, 0, limit)
	if err := withRelations(r.DB.WithContext(ctx)).
		Where(where, domain.StatusActive, pattern, pattern).
		Order("published_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UpdateAdFields(ctx context.Context, id uint, updates map[string]any) (*models.Ad, error) {
	if len(updates) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Ad{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error, "ad")
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("%w: ad", domain.ErrNotFound)
		}
	}
	return r.GetAd(ctx, id)
}

// UpdateAdIf applies updates to one row only while it still matches g.
// It reports whether the row was changed.
func (r *GormRepo) UpdateAdIf(ctx context.Context, id uint, g Guard, updates map[string]any) (bool, error) {
	q := r.DB.WithContext(ctx).Model(&models.Ad{}).Where("id = ?", id)
	if g.Status != "" {
		q = q.Where("status = ?", g.Status)
	}
	if g.Verification != "" {
		q = q.Where("verification_status = ?", g.Verification)
	}
	if g.UserID != 0 {
		q = q.Where("user_id = ?", g.UserID)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) DeleteAd(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Ad{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ad", domain.ErrNotFound)
	}
	return nil
}

// ExpireActive moves every active ad whose expiry has passed to expired and
// returns the ids the update actually changed.
func (r *GormRepo) ExpireActive(ctx context.Context, now time.Time) ([]uint, error) {
	var rows []models.Ad
	err := r.DB.WithContext(ctx).Model(&rows).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("status = ? AND expires_at < ?", domain.StatusActive, now).
		Update("status", domain.StatusExpired).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rows))
	for _, ad := range rows {
		ids = append(ids, ad.ID)
	}
	slices.Sort(ids)
	return ids, nil
}

// ImageInUse reports whether an ad other than exceptAd points at url.
func (r *GormRepo) ImageInUse(ctx context.Context, url string, exceptAd uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Ad{}).
		Where("image_url = ? AND id <> ?", url, exceptAd).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) ListPurgeable(ctx context.Context, cutoff time.Time) ([]models.Ad, error) {
	items := []models.Ad{}
	if err := r.DB.WithContext(ctx).
		Where("status = ? AND expires_at < ?", domain.StatusExpired, cutoff).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteAdIf deletes the row only while it is still in status.
func (r *GormRepo) DeleteAdIf(ctx context.Context, id uint, status domain.Status) (bool, error) {
	res := r.DB.WithContext(ctx).Where("id = ? AND status = ?", id, status).Delete(&models.Ad{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
