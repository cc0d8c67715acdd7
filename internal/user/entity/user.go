package entity

import "github.com/google/uuid"

// User is the immutable identity record loaded from the `users` table.
// Compared by value; two loads of the same row are equal.
type User struct {
	ID    uuid.UUID `db:"user_id"`
	Email string    `db:"email"`
	Name  string    `db:"name"`
}

// Credential is a user's stored secret hash. At most one row per user; the
// hash is an argon2id PHC string, opaque to everything but the hasher.
type Credential struct {
	UserID uuid.UUID `db:"user_id"`
	Hash   string    `db:"password"`
}
