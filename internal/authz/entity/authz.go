package entity

import "github.com/google/uuid"

// Privilege names the core itself checks. The catalog is open-ended; these
// are just the ones gating the operations in this module.
const (
	PrivCreateGroup = "create-group"
	PrivCreateRole  = "create-role"
)

// Privilege is an atomic, indivisible permission unit.
type Privilege struct {
	ID   uuid.UUID `db:"privilege_id"`
	Name string    `db:"name"`
}

// Role is an immutable named bundle of privileges. Once persisted its
// privilege set never changes; re-granting means creating a new role.
type Role struct {
	ID         uuid.UUID
	Name       string
	Privileges []Privilege
}

// Group is a named collection of users sharing role bindings.
type Group struct {
	ID   uuid.UUID `db:"group_id"`
	Name string    `db:"name"`
}

// Membership links a user to their one group. The store enforces exclusivity
// with a primary key on user_id.
type Membership struct {
	GroupID uuid.UUID `db:"group_id"`
	UserID  uuid.UUID `db:"user_id"`
}

// GroupRole is the binding that attaches a role's privilege set to a group.
type GroupRole struct {
	GroupID uuid.UUID
	Role    Role
}
