package domain

import (
	"fmt"
	"slices"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var (
	ModeratorRoles = []Role{RoleAdmin, RoleModerator}
	AdminRoles     = []Role{RoleAdmin}
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Allow returns nil when actor holds one of the required roles.
func Allow(actor Role, required ...Role) error {
	if !actor.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrForbidden, actor)
	}
	if len(required) == 0 || slices.Contains(required, actor) {
		return nil
	}
	return fmt.Errorf("%w: role %s is not allowed", ErrForbidden, actor)
}

func CanModerate(actor Role) error {
	return Allow(actor, ModeratorRoles...)
}

// OwnerOr allows the owner of a resource, or any actor holding one of roles.
func OwnerOr(actorID, ownerID uint, actor Role, roles ...Role) error {
	if actorID != 0 && actorID == ownerID {
		return nil
	}
	if len(roles) > 0 && actor.Valid() && slices.Contains(roles, actor) {
		return nil
	}
	return fmt.Errorf("%w: not the owner", ErrForbidden)
}
