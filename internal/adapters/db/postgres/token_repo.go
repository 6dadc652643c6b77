package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

// TokenRepo is the relational single-use token store. The
// one-live-token-per-subject invariant is enforced with a single upsert keyed
// on the subject column, so two concurrent Save calls for the same subject
// cannot leave the store without a record.
type TokenRepo struct {
	db *gorm.DB
}

func NewTokenRepo(db *gorm.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

func (p *TokenRepo) Save(ctx context.Context, rec model.TokenRecord) error {
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "kind", "expires_at"}),
	}).Create(&rec)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SaveToken")
	}
	return nil
}

func (p *TokenRepo) FindByValue(ctx context.Context, token string) (model.TokenRecord, error) {
	var rec model.TokenRecord
	res := p.db.WithContext(ctx).Where("token = ?", token).First(&rec)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.TokenRecord{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.TokenRecord{}, customErrors.WrapInternal(err, "FindTokenByValue")
	}
	return rec, nil
}

func (p *TokenRepo) DeleteByValue(ctx context.Context, token string) error {
	res := p.db.WithContext(ctx).Where("token = ?", token).Delete(&model.TokenRecord{})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteTokenByValue")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *TokenRepo) DeleteBySubject(ctx context.Context, subject uuid.UUID) error {
	res := p.db.WithContext(ctx).Where("subject = ?", subject).Delete(&model.TokenRecord{})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteTokenBySubject")
	}
	return nil
}
