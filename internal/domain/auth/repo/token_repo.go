package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

// TokenRepo is the single-use token store behind the reset and invitation
// flows. Save replaces any live record for the same subject, so at most one
// token per subject is ever outstanding.
type TokenRepo interface {
	Save(ctx context.Context, rec model.TokenRecord) error

	FindByValue(ctx context.Context, token string) (model.TokenRecord, error)

	DeleteByValue(ctx context.Context, token string) error

	DeleteBySubject(ctx context.Context, subject uuid.UUID) error
}
