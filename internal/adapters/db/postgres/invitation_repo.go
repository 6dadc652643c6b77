package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

type InvitationRepo struct {
	db *gorm.DB
}

func NewInvitationRepo(db *gorm.DB) *InvitationRepo {
	return &InvitationRepo{db: db}
}

func (p *InvitationRepo) CreateInvitation(ctx context.Context, inv model.Invitation) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&inv)
	if err := res.Error; err != nil {
		return uuid.Nil, customErrors.WrapInternal(err, "CreateInvitation")
	}
	return inv.ID, nil
}

func (p *InvitationRepo) GetInvitationByID(ctx context.Context, id uuid.UUID) (model.Invitation, error) {
	var inv model.Invitation
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&inv)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Invitation{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Invitation{}, customErrors.WrapInternal(err, "GetInvitationByID")
	}
	return inv, nil
}

func (p *InvitationRepo) GetInvitationByEmail(ctx context.Context, accountID uuid.UUID, email string) (model.Invitation, error) {
	var inv model.Invitation
	res := p.db.WithContext(ctx).
		Where("account_id = ? AND email = ?", accountID, email).
		First(&inv)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Invitation{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Invitation{}, customErrors.WrapInternal(err, "GetInvitationByEmail")
	}
	return inv, nil
}

func (p *InvitationRepo) DeleteInvitation(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Delete(&model.Invitation{}, id)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteInvitation")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}
