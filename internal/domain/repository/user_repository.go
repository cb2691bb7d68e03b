package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mohini/user-service/internal/domain/entity"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates the storage layer rejected a write because of a
// unique constraint, e.g. a concurrent create raced past the service-level
// duplicate check.
var ErrConflict = errors.New("repository: unique constraint violation")

// UserRepository defines the interface for user-related database operations.
// Implementations perform no business validation; they are a pure mapping
// to the storage medium and all writes are durable on return.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)

	// Case-insensitive exact match on first/last name; substring match on
	// username. Username uniqueness stays case-sensitive, the search
	// asymmetry is deliberate.
	FindByFirstName(ctx context.Context, firstName string) ([]entity.User, error)
	FindByLastName(ctx context.Context, lastName string) ([]entity.User, error)
	SearchByUsername(ctx context.Context, fragment string) ([]entity.User, error)
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.User, error)
}
