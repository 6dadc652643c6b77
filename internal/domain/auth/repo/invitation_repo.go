package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

type InvitationRepo interface {
	CreateInvitation(ctx context.Context, inv model.Invitation) (uuid.UUID, error)

	GetInvitationByID(ctx context.Context, id uuid.UUID) (model.Invitation, error)

	GetInvitationByEmail(ctx context.Context, accountID uuid.UUID, email string) (model.Invitation, error)

	DeleteInvitation(ctx context.Context, id uuid.UUID) error
}
