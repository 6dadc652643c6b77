package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	UpdateUserPassword(ctx context.Context, id uuid.UUID, hash string) error

	DeleteUser(ctx context.Context, id uuid.UUID) error
}
