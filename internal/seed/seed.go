package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/classifieds/internal/domain"
	"github.com/Skotchmaster/classifieds/internal/hash"
	"github.com/Skotchmaster/classifieds/internal/models"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
	AdminName     = "Administrateur"
)

var Categories = []string{
	"Électronique",
	"Véhicules",
	"Immobilier",
	"Mode et Vêtements",
	"Maison et Jardin",
	"Sports et Loisirs",
	"Emploi",
	"Services",
	"Animaux",
	"Autres",
}

type Store interface {
	EnsureUser(ctx context.Context, u *models.User) (bool, error)
	EnsureCategory(ctx context.Context, name string) (bool, error)
}

type Report struct {
	AdminCreated      bool
	CategoriesCreated int
}

// Run installs the bootstrap admin and the default categories. Existing rows
// are left untouched so it can run on every deploy.
func Run(ctx context.Context, s Store, l *slog.Logger) (Report, error) {
	var rep Report

	pw, err := hash.HashPassword(AdminPassword)
	if err != nil {
		return rep, fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{Name: AdminName, Email: AdminEmail, Password: pw, Role: domain.RoleAdmin}
	created, err := s.EnsureUser(ctx, &admin)
	if err != nil {
		return rep, fmt.Errorf("ensure admin: %w", err)
	}
	rep.AdminCreated = created
	if created {
		l.Info("seed_admin_created", "email", AdminEmail)
	} else {
		l.Info("seed_admin_exists", "email", AdminEmail, "role", admin.Role)
	}

	for _, name := range Categories {
		created, err := s.EnsureCategory(ctx, name)
		if err != nil {
			return rep, fmt.Errorf("ensure category %q: %w", name, err)
		}
		if created {
			rep.CategoriesCreated++
		}
	}
	l.Info("seed_categories", "created", rep.CategoriesCreated, "total", len(Categories))

	return rep, nil
}
