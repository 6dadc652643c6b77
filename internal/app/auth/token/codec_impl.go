package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	domain "github.com/harborworks/teamhq/auth-service/internal/domain/auth/token"
	"github.com/harborworks/teamhq/auth-service/internal/infra/config"
)

// purposeClaim guards against cross-purpose confusion even when two purposes
// are (mis)configured with the same secret.
const purposeClaim = "tkp"

var registeredClaims = map[string]struct{}{
	"iat": {}, "exp": {}, "iss": {}, "jti": {}, purposeClaim: {},
}

type HMACCodec struct {
	secrets map[domain.Purpose][]byte
	issuer  string
}

func NewHMACCodec(cfg *config.Config) (*HMACCodec, error) {
	secrets := map[domain.Purpose][]byte{
		domain.PurposeAccess:    []byte(cfg.AccessTokenSecret),
		domain.PurposeRefresh:   []byte(cfg.RefreshTokenSecret),
		domain.PurposeMagicLink: []byte(cfg.MagicLinkSecret),
		domain.PurposeInvite:    []byte(cfg.InviteTokenSecret),
		domain.PurposeReset:     []byte(cfg.ResetTokenSecret),
	}
	for p, s := range secrets {
		if len(s) == 0 {
			return nil, customErrors.NewInvalidArgument("missing secret for purpose " + string(p))
		}
	}
	return &HMACCodec{secrets: secrets, issuer: cfg.Issuer}, nil
}

func (c *HMACCodec) Sign(payload domain.Payload, purpose domain.Purpose, expiresIn time.Duration) (string, error) {
	secret, ok := c.secrets[purpose]
	if !ok {
		return "", customErrors.NewInvalidArgument("unknown token purpose " + string(purpose))
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(expiresIn)),
		// iat has second precision, so without a unique id two tokens signed
		// in the same second for the same payload would be byte-identical
		"jti":        uuid.NewString(),
		purposeClaim: string(purpose),
	}
	if c.issuer != "" {
		claims["iss"] = c.issuer
	}
	for k, v := range payload {
		claims[k] = v
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", customErrors.WrapInternal(err, "sign "+string(purpose)+" token")
	}
	return signed, nil
}

func (c *HMACCodec) Verify(raw string, purpose domain.Purpose) (domain.Payload, error) {
	secret, ok := c.secrets[purpose]
	if !ok {
		return nil, customErrors.NewInvalidArgument("unknown token purpose " + string(purpose))
	}

	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithIssuedAt())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, customErrors.NewTokenExpired(expiredAt(parsed))
		}
		return nil, customErrors.ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, customErrors.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, customErrors.ErrTokenInvalid
	}
	if p, _ := claims[purposeClaim].(string); p != string(purpose) {
		return nil, customErrors.ErrTokenInvalid
	}
	if c.issuer != "" {
		if iss, _ := claims.GetIssuer(); iss != c.issuer {
			return nil, customErrors.ErrTokenInvalid
		}
	}

	return payloadFromClaims(claims), nil
}

func (c *HMACCodec) Decode(raw string) domain.Payload {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return payloadFromClaims(claims)
}

func payloadFromClaims(claims jwt.MapClaims) domain.Payload {
	payload := domain.Payload{}
	for k, v := range claims {
		if _, reserved := registeredClaims[k]; reserved {
			continue
		}
		if s, ok := v.(string); ok {
			payload[k] = s
		}
	}
	return payload
}

func expiredAt(parsed *jwt.Token) time.Time {
	if parsed == nil {
		return time.Time{}
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
