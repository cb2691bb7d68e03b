package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// Password holds a bcrypt hash and is never serialized to clients.
//
// Username and email are globally unique; the users table carries
// unique indexes on both as a backstop against concurrent writers.
type User struct {
	ID        int64
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
