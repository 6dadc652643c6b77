package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

type AccountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (p *AccountRepo) CreateAccount(ctx context.Context, a model.Account) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&a)
	if err := res.Error; err != nil {
		return uuid.Nil, customErrors.WrapInternal(err, "CreateAccount")
	}
	return a.ID, nil
}

func (p *AccountRepo) GetAccountByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	var a model.Account
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&a)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByID")
	}
	return a, nil
}

func (p *AccountRepo) SetAccountOwner(ctx context.Context, accountID, ownerID uuid.UUID) error {
	res := p.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", accountID).
		Update("owner_id", ownerID)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SetAccountOwner")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *AccountRepo) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Delete(&model.Account{}, id)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteAccount")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

type RoleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) *RoleRepo {
	return &RoleRepo{db: db}
}

func (p *RoleRepo) GetRoleByName(ctx context.Context, name string) (model.Role, error) {
	var r model.Role
	res := p.db.WithContext(ctx).Where("name = ?", name).First(&r)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Role{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Role{}, customErrors.WrapInternal(err, "GetRoleByName")
	}
	return r, nil
}
