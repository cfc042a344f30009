package identity

import (
	"github.com/google/uuid"

	"github.com/pos/backend/internal/domain/shared"
)

// Actor is the authenticated principal performing an operation. It is
// what the HTTP layer hands to application services after verifying a
// token, so services never touch JWT claims directly.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     Role
}

// IsAdmin reports whether the actor has unrestricted access
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Scope returns the data access scope for this actor
func (a Actor) Scope() shared.AccessScope {
	if a.IsAdmin() {
		return shared.Unrestricted()
	}
	return shared.OwnedBy(a.UserID)
}
