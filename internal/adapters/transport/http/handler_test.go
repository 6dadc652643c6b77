package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpTransport "github.com/harborworks/teamhq/auth-service/internal/adapters/transport/http"
	"github.com/harborworks/teamhq/auth-service/internal/adapters/transport/http/dto"
	"github.com/harborworks/teamhq/auth-service/internal/app/auth/session"
	apptoken "github.com/harborworks/teamhq/auth-service/internal/app/auth/token"
	authErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
	"github.com/harborworks/teamhq/auth-service/internal/infra/config"
)

/* ──────────────────────────────── stubs ──────────────────────────────── */

type authServiceStub struct {
	signIn      func(dto.SignInDTO) (model.Auth, error)
	magicLink   func(dto.MagicLinkSignInDTO) (model.Auth, error)
	federated   func(dto.FederatedProfileDTO) (model.Auth, error)
	refresh     func(dto.RefreshDTO) (model.TokenPair, error)
	currentUser model.User
	authErr     error
}

func (s *authServiceStub) SignUp(_ context.Context, _ dto.SignUpDTO) (model.Auth, error) {
	return model.Auth{}, authErrors.ErrInternal
}
func (s *authServiceStub) SignIn(_ context.Context, in dto.SignInDTO) (model.Auth, error) {
	return s.signIn(in)
}
func (s *authServiceStub) SendMagicLink(_ context.Context, _ dto.MagicLinkRequestDTO) error {
	return nil
}
func (s *authServiceStub) SignInWithMagicLink(_ context.Context, in dto.MagicLinkSignInDTO) (model.Auth, error) {
	if s.magicLink != nil {
		return s.magicLink(in)
	}
	return model.Auth{}, authErrors.ErrTokenInvalid
}
func (s *authServiceStub) FederatedSignIn(_ context.Context, in dto.FederatedProfileDTO) (model.Auth, error) {
	if s.federated != nil {
		return s.federated(in)
	}
	return model.Auth{}, authErrors.ErrInternal
}
func (s *authServiceStub) Refresh(_ context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	return s.refresh(in)
}
func (s *authServiceStub) AuthenticateAccessToken(_ context.Context, _ string) (model.User, error) {
	if s.authErr != nil {
		return model.User{}, s.authErr
	}
	return s.currentUser, nil
}
func (s *authServiceStub) UserFromToken(_ context.Context, _ string) (model.User, error) {
	return s.currentUser, nil
}

type userServiceStub struct {
	changePassword func(model.User, dto.ChangePasswordDTO) error
}

func (s *userServiceStub) RequestPasswordReset(_ context.Context, _ dto.ForgotPasswordDTO) error {
	return authErrors.ErrUserNotFound
}
func (s *userServiceStub) ResetPassword(_ context.Context, _ dto.ResetPasswordDTO) (model.User, error) {
	return model.User{}, authErrors.ErrTokenNotFound
}
func (s *userServiceStub) ChangePassword(_ context.Context, u model.User, in dto.ChangePasswordDTO) error {
	return s.changePassword(u, in)
}
func (s *userServiceStub) InviteUsers(_ context.Context, _ model.User, _ dto.InviteesDTO) ([]string, error) {
	return nil, authErrors.ErrMethodNotAllowed
}
func (s *userServiceStub) AcceptInvitation(_ context.Context, _ dto.AcceptInvitationDTO) (model.User, error) {
	return model.User{}, authErrors.ErrTokenNotFound
}
func (s *userServiceStub) UpdateProfile(_ context.Context, _ uuid.UUID, _ dto.UpdateProfileDTO) (model.User, error) {
	return model.User{}, authErrors.ErrUserNotFound
}

/* ───────────────────────────── helpers ───────────────────────────── */

const testGatewaySecret = "gateway-secret"

func newRouter(t *testing.T, auth *authServiceStub, users *userServiceStub) (*gin.Engine, *session.Issuer) {
	t.Helper()
	return newRouterWithGateway(t, auth, users, testGatewaySecret)
}

func newRouterWithGateway(t *testing.T, auth *authServiceStub, users *userServiceStub, gatewaySecret string) (*gin.Engine, *session.Issuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		MagicLinkSecret:    "magic-secret",
		InviteTokenSecret:  "invite-secret",
		ResetTokenSecret:   "reset-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
		Issuer:             "teamhq-test",
		RefreshCookiePath:  "/auth/refresh",
	}
	codec, err := apptoken.NewHMACCodec(cfg)
	require.NoError(t, err)
	issuer := session.NewIssuer(codec, cfg)

	router := gin.New()
	httpTransport.NewHandler(auth, users, issuer, gatewaySecret, zap.NewNop()).Register(router)
	return router, issuer
}

func doJSON(router *gin.Engine, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func refreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.RefreshCookieName {
			return ck
		}
	}
	return nil
}

/* ───────────────────────────── tests ───────────────────────────── */

func TestHandler_SignInSetsRefreshCookie(t *testing.T) {
	userID := uuid.New()
	auth := &authServiceStub{
		signIn: func(in dto.SignInDTO) (model.Auth, error) {
			return model.Auth{
				Tokens: model.TokenPair{
					AccessToken: "access",
					RefreshToken: model.RefreshToken{
						Token:     "refresh",
						ExpiresAt: time.Now().Add(time.Hour),
					},
					UserID: userID,
				},
				User: model.User{ID: userID, Email: "u@example.com", Status: model.StatusActive},
			}, nil
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodPost, "/auth/sign-in",
		dto.SignInDTO{Email: "u@example.com", Password: "Aa1aaaaa"})
	require.Equal(t, http.StatusOK, w.Code)

	ck := refreshCookie(w)
	require.NotNil(t, ck)
	require.Equal(t, "refresh", ck.Value)
	require.Equal(t, "/auth/refresh", ck.Path)
	require.True(t, ck.HttpOnly)
	require.True(t, ck.Secure)
	require.Equal(t, http.SameSiteNoneMode, ck.SameSite)
	require.Greater(t, ck.MaxAge, 0)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "access", resp.AccessToken)
}

func TestHandler_SignInInvalidCredentials(t *testing.T) {
	auth := &authServiceStub{
		signIn: func(dto.SignInDTO) (model.Auth, error) {
			return model.Auth{}, authErrors.ErrInvalidCredentials
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodPost, "/auth/sign-in",
		dto.SignInDTO{Email: "u@example.com", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid credentials")
	require.Nil(t, refreshCookie(w))
}

func TestHandler_RefreshWithoutCookie(t *testing.T) {
	auth := &authServiceStub{
		refresh: func(dto.RefreshDTO) (model.TokenPair, error) {
			t.Fatal("refresh must not be called without a cookie")
			return model.TokenPair{}, nil
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_RefreshRotatesCookie(t *testing.T) {
	auth := &authServiceStub{
		refresh: func(in dto.RefreshDTO) (model.TokenPair, error) {
			if in.RefreshToken != "old-refresh" {
				return model.TokenPair{}, authErrors.WrapUnauthorized(authErrors.ErrTokenInvalid)
			}
			return model.TokenPair{
				AccessToken: "new-access",
				RefreshToken: model.RefreshToken{
					Token:     "new-refresh",
					ExpiresAt: time.Now().Add(time.Hour),
				},
			}, nil
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodPost, "/auth/refresh", nil,
		&http.Cookie{Name: session.RefreshCookieName, Value: "old-refresh"})
	require.Equal(t, http.StatusOK, w.Code)

	ck := refreshCookie(w)
	require.NotNil(t, ck)
	require.Equal(t, "new-refresh", ck.Value)
	require.Contains(t, w.Body.String(), "new-access")
}

func TestHandler_RefreshExpiredClearsCookie(t *testing.T) {
	expiredAt := time.Now().Add(-time.Hour)
	auth := &authServiceStub{
		refresh: func(dto.RefreshDTO) (model.TokenPair, error) {
			return model.TokenPair{}, authErrors.WrapUnauthorized(authErrors.NewTokenExpired(expiredAt))
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodPost, "/auth/refresh", nil,
		&http.Cookie{Name: session.RefreshCookieName, Value: "stale"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	ck := refreshCookie(w)
	require.NotNil(t, ck)
	require.Empty(t, ck.Value)
	require.Less(t, ck.MaxAge, 0)
}

func TestHandler_RefreshInvalidClearsCookie(t *testing.T) {
	auth := &authServiceStub{
		refresh: func(dto.RefreshDTO) (model.TokenPair, error) {
			return model.TokenPair{}, authErrors.WrapUnauthorized(authErrors.ErrTokenInvalid)
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodPost, "/auth/refresh", nil,
		&http.Cookie{Name: session.RefreshCookieName, Value: "forged"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	ck := refreshCookie(w)
	require.NotNil(t, ck)
	require.Empty(t, ck.Value)
}

func TestHandler_RefreshUnknownUserKeepsCookie(t *testing.T) {
	auth := &authServiceStub{
		refresh: func(dto.RefreshDTO) (model.TokenPair, error) {
			return model.TokenPair{}, authErrors.WrapUnauthorized(authErrors.ErrUserNotFound)
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodPost, "/auth/refresh", nil,
		&http.Cookie{Name: session.RefreshCookieName, Value: "orphaned"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Nil(t, refreshCookie(w))
}

func TestHandler_PrivateRouteRequiresBearer(t *testing.T) {
	auth := &authServiceStub{authErr: authErrors.WrapUnauthorized(authErrors.ErrTokenInvalid)}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_ChangePasswordUsesCurrentUser(t *testing.T) {
	me := model.User{ID: uuid.New(), Email: "me@example.com", Status: model.StatusActive}
	auth := &authServiceStub{currentUser: me}

	var got model.User
	users := &userServiceStub{
		changePassword: func(u model.User, _ dto.ChangePasswordDTO) error {
			got = u
			return nil
		},
	}
	router, _ := newRouter(t, auth, users)

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(dto.ChangePasswordDTO{OldPassword: "Aa1aaaaa", NewPassword: "Bb2bbbbb"})
	req := httptest.NewRequest(http.MethodPost, "/users/change-password", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer some-access-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, me.ID, got.ID)
}

func TestHandler_ErrorMapping(t *testing.T) {
	auth := &authServiceStub{}
	router, _ := newRouter(t, auth, &userServiceStub{})

	// stub always reports user not found
	w := doJSON(router, http.MethodPost, "/users/forgot-password",
		dto.ForgotPasswordDTO{Email: "ghost@example.com"})
	require.Equal(t, http.StatusNotFound, w.Code)

	// stub always reports a consumed token
	w = doJSON(router, http.MethodPost, "/users/reset-password",
		dto.ResetPasswordDTO{Token: "x", Password: "Bb2bbbbb"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "token not found")
}

func TestHandler_MagicLinkDeletedUserLooksLikeBadToken(t *testing.T) {
	auth := &authServiceStub{
		magicLink: func(dto.MagicLinkSignInDTO) (model.Auth, error) {
			return model.Auth{}, authErrors.ErrUserNotFound
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	w := doJSON(router, http.MethodPost, "/auth/sign-in/magic-link",
		dto.MagicLinkSignInDTO{Token: "orphaned"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid token")

	auth.magicLink = func(dto.MagicLinkSignInDTO) (model.Auth, error) {
		return model.Auth{}, authErrors.ErrTokenInvalid
	}
	w2 := doJSON(router, http.MethodPost, "/auth/sign-in/magic-link",
		dto.MagicLinkSignInDTO{Token: "forged"})
	require.Equal(t, w.Code, w2.Code)
	require.Equal(t, w.Body.String(), w2.Body.String())
}

func TestHandler_FederatedSignIn(t *testing.T) {
	userID := uuid.New()
	called := false
	auth := &authServiceStub{
		federated: func(in dto.FederatedProfileDTO) (model.Auth, error) {
			called = true
			return model.Auth{
				Tokens: model.TokenPair{
					AccessToken: "access",
					RefreshToken: model.RefreshToken{
						Token:     "refresh",
						ExpiresAt: time.Now().Add(time.Hour),
					},
					UserID: userID,
				},
				User: model.User{ID: userID, Email: in.Email, Status: model.StatusActive},
			}, nil
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(dto.FederatedProfileDTO{Email: "fed@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in/federated", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gateway-Secret", testGatewaySecret)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, called)
	require.NotNil(t, refreshCookie(w))
}

func TestHandler_FederatedSignInWrongGatewaySecret(t *testing.T) {
	auth := &authServiceStub{
		federated: func(dto.FederatedProfileDTO) (model.Auth, error) {
			t.Fatal("service must not be reached without the gateway secret")
			return model.Auth{}, nil
		},
	}
	router, _ := newRouter(t, auth, &userServiceStub{})

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(dto.FederatedProfileDTO{Email: "fed@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in/federated", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gateway-Secret", "wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_FederatedRouteDisabledWithoutSecret(t *testing.T) {
	router, _ := newRouterWithGateway(t, &authServiceStub{}, &userServiceStub{}, "")

	w := doJSON(router, http.MethodPost, "/auth/sign-in/federated",
		dto.FederatedProfileDTO{Email: "fed@example.com"})
	require.Equal(t, http.StatusNotFound, w.Code)
}
