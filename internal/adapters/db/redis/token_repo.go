package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

const (
	valueKeyPrefix   = "sut:v:" // token value -> record
	subjectKeyPrefix = "sut:s:" // subject -> token value
)

// TokenRepo is the redis-backed single-use token store. Expiry is native:
// both keys carry a TTL, so stale records vanish without a sweeper. Replace
// semantics come from overwriting the subject key and deleting the value key
// it previously pointed at.
type TokenRepo struct {
	client *redis.Client
}

func NewTokenRepo(client *redis.Client) *TokenRepo {
	return &TokenRepo{client: client}
}

func (r *TokenRepo) Save(ctx context.Context, rec model.TokenRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return customErrors.WrapInternal(err, "SaveToken")
	}

	subjectKey := subjectKeyPrefix + rec.Subject.String()

	// drop the value key of the token being replaced, if any
	old, err := r.client.Get(ctx, subjectKey).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		return customErrors.WrapInternal(err, "SaveToken")
	default:
		if delErr := r.client.Del(ctx, valueKeyPrefix+old).Err(); delErr != nil {
			return customErrors.WrapInternal(delErr, "SaveToken")
		}
	}

	ttl := safeTTL(rec.ExpiresAt)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, valueKeyPrefix+rec.Token, raw, ttl)
		pipe.Set(ctx, subjectKey, rec.Token, ttl)
		return nil
	})
	if err != nil {
		return customErrors.WrapInternal(err, "SaveToken")
	}
	return nil
}

func (r *TokenRepo) FindByValue(ctx context.Context, token string) (model.TokenRecord, error) {
	raw, err := r.client.Get(ctx, valueKeyPrefix+token).Result()
	switch {
	case err == redis.Nil:
		return model.TokenRecord{}, customErrors.ErrNotFound
	case err != nil:
		return model.TokenRecord{}, customErrors.WrapInternal(err, "FindTokenByValue")
	}

	var rec model.TokenRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return model.TokenRecord{}, customErrors.WrapInternal(err, "FindTokenByValue")
	}
	return rec, nil
}

func (r *TokenRepo) DeleteByValue(ctx context.Context, token string) error {
	rec, err := r.FindByValue(ctx, token)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, valueKeyPrefix+token)
		pipe.Del(ctx, subjectKeyPrefix+rec.Subject.String())
		return nil
	})
	if err != nil {
		return customErrors.WrapInternal(err, "DeleteTokenByValue")
	}
	return nil
}

func (r *TokenRepo) DeleteBySubject(ctx context.Context, subject uuid.UUID) error {
	subjectKey := subjectKeyPrefix + subject.String()

	token, err := r.client.Get(ctx, subjectKey).Result()
	switch {
	case err == redis.Nil:
		return nil
	case err != nil:
		return customErrors.WrapInternal(err, "DeleteTokenBySubject")
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, valueKeyPrefix+token)
		pipe.Del(ctx, subjectKey)
		return nil
	})
	if err != nil {
		return customErrors.WrapInternal(err, "DeleteTokenBySubject")
	}
	return nil
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// keep a minimal TTL so the key still disappears
		return time.Minute
	}
	return ttl
}
