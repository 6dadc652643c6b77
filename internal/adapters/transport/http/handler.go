package http

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harborworks/teamhq/auth-service/internal/adapters/transport/http/dto"
	"github.com/harborworks/teamhq/auth-service/internal/adapters/transport/http/middleware"
	"github.com/harborworks/teamhq/auth-service/internal/app/auth/session"
	authsvc "github.com/harborworks/teamhq/auth-service/internal/app/auth/service"
	usersvc "github.com/harborworks/teamhq/auth-service/internal/app/user/service"
	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
)

// gatewaySecretHeader authenticates calls from the identity gateway, which
// verifies federated profiles with the provider before forwarding them here.
const gatewaySecretHeader = "X-Gateway-Secret"

type Handler struct {
	auth            authsvc.Service
	users           usersvc.Service
	issuer          *session.Issuer
	federatedSecret string
	log             *zap.Logger
}

func NewHandler(auth authsvc.Service, users usersvc.Service, issuer *session.Issuer, federatedSecret string, log *zap.Logger) *Handler {
	return &Handler{auth: auth, users: users, issuer: issuer, federatedSecret: federatedSecret, log: log}
}

func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
	})

	auth := router.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
		auth.POST("/magic-link", h.requestMagicLink)
		auth.POST("/sign-in/magic-link", h.signInWithMagicLink)
		auth.POST("/refresh", h.refresh)
		if h.federatedSecret != "" {
			auth.POST("/sign-in/federated", h.federatedSignIn)
		}
	}

	public := router.Group("/users")
	{
		public.POST("/forgot-password", h.forgotPassword)
		public.POST("/reset-password", h.resetPassword)
		public.POST("/accept-invitation", h.acceptInvitation)
	}

	private := router.Group("/users")
	private.Use(middleware.RequireAuth(h.auth))
	{
		private.GET("/me", h.me)
		private.PATCH("/me", h.updateProfile)
		private.POST("/change-password", h.changePassword)
		private.POST("/invite", h.invite)
	}
}

func (h *Handler) signUp(c *gin.Context) {
	var body dto.SignUpDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.auth.SignUp(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondWithSession(c, result)
}

func (h *Handler) signIn(c *gin.Context) {
	var body dto.SignInDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.auth.SignIn(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondWithSession(c, result)
}

func (h *Handler) requestMagicLink(c *gin.Context) {
	var body dto.MagicLinkRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.auth.SendMagicLink(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "magic link sent, check your email"})
}

func (h *Handler) signInWithMagicLink(c *gin.Context) {
	var body dto.MagicLinkSignInDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.auth.SignInWithMagicLink(c.Request.Context(), body)
	if err != nil {
		// a valid token for a since-deleted account must not read differently
		// from a forged one
		if customErrors.IsUserNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		h.handleError(c, err)
		return
	}
	h.respondWithSession(c, result)
}

func (h *Handler) federatedSignIn(c *gin.Context) {
	if subtle.ConstantTimeCompare([]byte(c.GetHeader(gatewaySecretHeader)), []byte(h.federatedSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body dto.FederatedProfileDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.auth.FederatedSignIn(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondWithSession(c, result)
}

func (h *Handler) refresh(c *gin.Context) {
	raw, err := c.Cookie(session.RefreshCookieName)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), dto.RefreshDTO{RefreshToken: raw})
	if err != nil {
		// a dead refresh token is useless to the client, drop the cookie
		if customErrors.IsTokenExpired(err) || customErrors.IsTokenInvalid(err) {
			h.issuer.ClearRefreshCookie(c.Writer)
		}
		h.handleError(c, err)
		return
	}

	h.issuer.AttachRefreshCookie(c.Writer, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken})
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var body dto.ForgotPasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.RequestPasswordReset(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reset link sent, check your email"})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var body dto.ResetPasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.users.ResetPassword(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

func (h *Handler) acceptInvitation(c *gin.Context) {
	var body dto.AcceptInvitationDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.users.AcceptInvitation(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}

	pair, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.respondWithSession(c, model.Auth{Tokens: pair, User: user})
}

func (h *Handler) me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

func (h *Handler) updateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body dto.UpdateProfileDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(updated)})
}

func (h *Handler) changePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), user, body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (h *Handler) invite(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body dto.InviteesDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	emails, err := h.users.InviteUsers(c.Request.Context(), user, body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invited": emails})
}

func (h *Handler) respondWithSession(c *gin.Context, result model.Auth) {
	h.issuer.AttachRefreshCookie(c.Writer, result.Tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"access_token": result.Tokens.AccessToken,
		"user":         userResponse(result.User),
	})
}

func userResponse(u model.User) gin.H {
	return gin.H{
		"id":        u.ID.String(),
		"email":     u.Email,
		"firstname": u.Firstname,
		"lastname":  u.Lastname,
		"status":    string(u.Status),
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case customErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case customErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case customErrors.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case customErrors.IsTokenExpired(err):
		resp := gin.H{"error": "token expired"}
		if at, ok := customErrors.ExpiredAt(err); ok {
			resp["expired_at"] = at.UTC().Format(time.RFC3339)
		}
		c.JSON(http.StatusUnauthorized, resp)
	case customErrors.IsTokenInvalid(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case customErrors.IsTokenNotFound(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token not found"})
	case customErrors.IsUserNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case customErrors.IsRoleNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "role not found"})
	case customErrors.IsEmailAlreadyUsed(err) || customErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": "email already used"})
	case customErrors.IsMethodNotAllowed(err):
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	case customErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("unhandled error", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
