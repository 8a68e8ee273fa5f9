package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/logging"
	"github.com/Skotchmaster/classifieds/internal/models"
)

type CategoryService struct {
	Repo CategoryStore
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CategoryService) Create(ctx context.Context, actor domain.Role, name string) (*models.Category, error) {
	if err := domain.Allow(actor, domain.AdminRoles...); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	c := models.Category{Name: name}
	if err := s.Repo.CreateCategory(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete refuses categories that still have ads.
func (s *CategoryService) Delete(ctx context.Context, actor domain.Role, id uint) error {
	if err := domain.Allow(actor, domain.AdminRoles...); err != nil {
		return err
	}
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logging.FromContext(ctx).Info("category_delete_refused", "category_id", id, "error", err)
		}
		return err
	}
	return nil
}
