package port

import (
	"context"

	"github.com/azrrael22/horse-reserved/internal/core/domain"
)

// UserRepository exposes persistence behavior for users. Implementations are
// expected to be atomic at the row level; the usecases add no locking of
// their own.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
