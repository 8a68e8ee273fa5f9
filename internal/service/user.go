package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/models"
)

type UserService struct {
	Repo UserStore
}

func (s *UserService) Profile(ctx context.Context, id uint) (*models.User, error) {
	return s.Repo.GetUserByID(ctx, id)
}

// UpdateProfile changes the display name only.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, name string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return s.Repo.UpdateUserName(ctx, id, name)
}
