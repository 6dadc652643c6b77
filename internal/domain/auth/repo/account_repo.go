package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

type AccountRepo interface {
	CreateAccount(ctx context.Context, a model.Account) (uuid.UUID, error)

	GetAccountByID(ctx context.Context, id uuid.UUID) (model.Account, error)

	SetAccountOwner(ctx context.Context, accountID, ownerID uuid.UUID) error

	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type RoleRepo interface {
	GetRoleByName(ctx context.Context, name string) (model.Role, error)
}
