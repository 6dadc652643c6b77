package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
	domainToken "github.com/harborworks/teamhq/auth-service/internal/domain/auth/token"
	"github.com/harborworks/teamhq/auth-service/internal/infra/config"
)

// RefreshCookieName is part of the wire contract with existing clients.
const RefreshCookieName = "refresh_token"

// Issuer mints access/refresh token pairs and owns the refresh-cookie
// transport contract. Tokens are stateless: nothing is persisted, revocation
// before expiry is only possible by rotating the purpose secret.
type Issuer struct {
	codec      domainToken.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	cookiePath string
	domain     string
}

func NewIssuer(codec domainToken.Codec, cfg *config.Config) *Issuer {
	return &Issuer{
		codec:      codec,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		cookiePath: cfg.RefreshCookiePath,
		domain:     cfg.CookieDomain,
	}
}

func (i *Issuer) Issue(userID uuid.UUID) (model.TokenPair, error) {
	payload := domainToken.Payload{"userId": userID.String()}

	access, err := i.codec.Sign(payload, domainToken.PurposeAccess, i.accessTTL)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issue access token")
	}
	refresh, err := i.codec.Sign(payload, domainToken.PurposeRefresh, i.refreshTTL)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "issue refresh token")
	}

	return model.TokenPair{
		AccessToken: access,
		RefreshToken: model.RefreshToken{
			Token:     refresh,
			ExpiresAt: time.Now().Add(i.refreshTTL),
		},
		UserID: userID,
	}, nil
}

// AttachRefreshCookie writes the refresh token as an HttpOnly, Secure,
// SameSite=None cookie scoped to the refresh endpoint path.
func (i *Issuer) AttachRefreshCookie(w http.ResponseWriter, rt model.RefreshToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    rt.Token,
		Path:     i.cookiePath,
		Domain:   i.domain,
		MaxAge:   int(time.Until(rt.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// ClearRefreshCookie is called by the boundary when a refresh attempt fails
// with an expired or invalid token.
func (i *Issuer) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     i.cookiePath,
		Domain:   i.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
