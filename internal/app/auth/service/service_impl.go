package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/harborworks/teamhq/auth-service/internal/adapters/transport/http/dto"
	"github.com/harborworks/teamhq/auth-service/internal/app/auth/password"
	"github.com/harborworks/teamhq/auth-service/internal/app/auth/session"
	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/mail"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/repo"
	domainToken "github.com/harborworks/teamhq/auth-service/internal/domain/auth/token"
	"github.com/harborworks/teamhq/auth-service/internal/infra/config"
)

type authService struct {
	userRepo    repo.UserRepo
	accountRepo repo.AccountRepo
	roleRepo    repo.RoleRepo
	codec       domainToken.Codec
	issuer      *session.Issuer
	hasher      *password.Hasher
	mailer      mail.Mailer
	cfg         *config.Config
	v           *validator.Validate
}

type Service interface {
	SignUp(context.Context, dto.SignUpDTO) (model.Auth, error)
	SignIn(context.Context, dto.SignInDTO) (model.Auth, error)
	SendMagicLink(context.Context, dto.MagicLinkRequestDTO) error
	SignInWithMagicLink(context.Context, dto.MagicLinkSignInDTO) (model.Auth, error)
	FederatedSignIn(context.Context, dto.FederatedProfileDTO) (model.Auth, error)
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
	AuthenticateAccessToken(context.Context, string) (model.User, error)
	UserFromToken(context.Context, string) (model.User, error)
}

func New(
	ur repo.UserRepo,
	ar repo.AccountRepo,
	rr repo.RoleRepo,
	codec domainToken.Codec,
	issuer *session.Issuer,
	hasher *password.Hasher,
	mailer mail.Mailer,
	cfg *config.Config,
	v *validator.Validate,
) Service {
	return &authService{
		userRepo: ur, accountRepo: ar, roleRepo: rr,
		codec: codec, issuer: issuer, hasher: hasher,
		mailer: mailer, cfg: cfg, v: v,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *authService) SignUp(ctx context.Context, in dto.SignUpDTO) (model.Auth, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Auth{}, customErrors.NewInvalidArgument(err.Error())
	}
	in.Email = normalizeEmail(in.Email)

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.Auth{}, err
	}

	role, err := a.roleRepo.GetRoleByName(ctx, model.RoleAdmin)
	if err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.Auth{}, customErrors.ErrRoleNotFound
		}
		return model.Auth{}, customErrors.WrapInternal(err, "SignUp")
	}

	accountID, err := a.accountRepo.CreateAccount(ctx, model.Account{
		ID:   uuid.New(),
		Name: in.AccountName,
	})
	if err != nil {
		return model.Auth{}, customErrors.WrapInternal(err, "SignUp")
	}

	owner := model.User{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: hash,
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Status:       model.StatusActive,
		RoleID:       role.ID,
		AccountID:    accountID,
	}
	if _, err = a.userRepo.CreateUser(ctx, owner); err != nil {
		// the account row is orphaned otherwise; writes are not transactional
		// across repos
		_ = a.accountRepo.DeleteAccount(ctx, accountID)
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.Auth{}, customErrors.ErrEmailAlreadyUsed
		}
		return model.Auth{}, customErrors.WrapInternal(err, "SignUp")
	}
	if err = a.accountRepo.SetAccountOwner(ctx, accountID, owner.ID); err != nil {
		return model.Auth{}, customErrors.WrapInternal(err, "SignUp")
	}

	pair, err := a.issuer.Issue(owner.ID)
	if err != nil {
		return model.Auth{}, err
	}
	return model.Auth{Tokens: pair, User: owner}, nil
}

func (a *authService) SignIn(ctx context.Context, in dto.SignInDTO) (model.Auth, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Auth{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, normalizeEmail(in.Email))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// same kind and message as a wrong password, so callers cannot probe
		// which addresses have accounts
		return model.Auth{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.Auth{}, customErrors.WrapInternal(err, "SignIn")
	}

	// federated-only accounts have no password hash
	if user.PasswordHash == "" {
		return model.Auth{}, customErrors.ErrInvalidCredentials
	}

	ok, err := a.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return model.Auth{}, err
	}
	if !ok {
		return model.Auth{}, customErrors.ErrInvalidCredentials
	}

	pair, err := a.issuer.Issue(user.ID)
	if err != nil {
		return model.Auth{}, err
	}
	return model.Auth{Tokens: pair, User: user}, nil
}

func (a *authService) SendMagicLink(ctx context.Context, in dto.MagicLinkRequestDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}
	email := normalizeEmail(in.Email)

	if _, err := a.userRepo.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return customErrors.ErrUserNotFound
		}
		return customErrors.WrapInternal(err, "SendMagicLink")
	}

	raw, err := a.codec.Sign(domainToken.Payload{"email": email}, domainToken.PurposeMagicLink, a.cfg.MagicLinkTTL)
	if err != nil {
		return err
	}

	link := a.cfg.WebClientURL + "/auth-callback?token=" + url.QueryEscape(raw)
	if err := a.mailer.SendMagicLink(ctx, email, link); err != nil {
		return customErrors.WrapInternal(err, "SendMagicLink")
	}
	return nil
}

func (a *authService) SignInWithMagicLink(ctx context.Context, in dto.MagicLinkSignInDTO) (model.Auth, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Auth{}, customErrors.NewInvalidArgument(err.Error())
	}

	payload, err := a.codec.Verify(in.Token, domainToken.PurposeMagicLink)
	if err != nil {
		return model.Auth{}, err
	}

	user, err := a.userRepo.GetUserByEmail(ctx, payload["email"])
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.Auth{}, customErrors.ErrUserNotFound
	case err != nil:
		return model.Auth{}, customErrors.WrapInternal(err, "SignInWithMagicLink")
	}

	pair, err := a.issuer.Issue(user.ID)
	if err != nil {
		return model.Auth{}, err
	}
	return model.Auth{Tokens: pair, User: user}, nil
}

// FederatedSignIn upserts the identity reported by the external identity
// provider and issues a session. First-time federated users get their own
// account and no password hash.
func (a *authService) FederatedSignIn(ctx context.Context, in dto.FederatedProfileDTO) (model.Auth, error) {
	if err := a.v.Struct(in); err != nil {
		return model.Auth{}, customErrors.NewInvalidArgument(err.Error())
	}
	email := normalizeEmail(in.Email)

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if updateNames(&user, in.Firstname, in.Lastname) {
			if err := a.userRepo.UpdateUser(ctx, user); err != nil {
				return model.Auth{}, customErrors.WrapInternal(err, "FederatedSignIn")
			}
		}

	case errors.Is(err, customErrors.ErrNotFound):
		role, rerr := a.roleRepo.GetRoleByName(ctx, model.RoleAdmin)
		if rerr != nil {
			return model.Auth{}, customErrors.WrapInternal(rerr, "FederatedSignIn")
		}
		accountID, aerr := a.accountRepo.CreateAccount(ctx, model.Account{
			ID:   uuid.New(),
			Name: accountNameFor(in.Firstname, in.Lastname, email),
		})
		if aerr != nil {
			return model.Auth{}, customErrors.WrapInternal(aerr, "FederatedSignIn")
		}
		user = model.User{
			ID:        uuid.New(),
			Email:     email,
			Firstname: in.Firstname,
			Lastname:  in.Lastname,
			Status:    model.StatusActive,
			RoleID:    role.ID,
			AccountID: accountID,
		}
		if _, err := a.userRepo.CreateUser(ctx, user); err != nil {
			_ = a.accountRepo.DeleteAccount(ctx, accountID)
			return model.Auth{}, customErrors.WrapInternal(err, "FederatedSignIn")
		}
		if err := a.accountRepo.SetAccountOwner(ctx, accountID, user.ID); err != nil {
			return model.Auth{}, customErrors.WrapInternal(err, "FederatedSignIn")
		}

	default:
		return model.Auth{}, customErrors.WrapInternal(err, "FederatedSignIn")
	}

	pair, err := a.issuer.Issue(user.ID)
	if err != nil {
		return model.Auth{}, err
	}
	return model.Auth{Tokens: pair, User: user}, nil
}

// Refresh rotates the session pair. Every failure is reported as Unauthorized;
// the underlying kind stays reachable through errors.Is so the HTTP boundary
// can clear the cookie on expired or invalid tokens.
func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	payload, err := a.codec.Verify(in.RefreshToken, domainToken.PurposeRefresh)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapUnauthorized(err)
	}

	uid, err := uuid.Parse(payload["userId"])
	if err != nil {
		return model.TokenPair{}, customErrors.WrapUnauthorized(customErrors.ErrTokenInvalid)
	}

	if _, err := a.userRepo.GetUserByID(ctx, uid); err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.TokenPair{}, customErrors.WrapUnauthorized(customErrors.ErrUserNotFound)
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	return a.issuer.Issue(uid)
}

// AuthenticateAccessToken is the trust-boundary entry: it verifies the access
// token's signature and expiry before resolving the identity.
func (a *authService) AuthenticateAccessToken(ctx context.Context, accessToken string) (model.User, error) {
	if _, err := a.codec.Verify(accessToken, domainToken.PurposeAccess); err != nil {
		return model.User{}, customErrors.WrapUnauthorized(err)
	}
	return a.UserFromToken(ctx, accessToken)
}

// UserFromToken resolves the identity behind an access token the transport
// layer has already verified. The decode is deliberately unverified.
func (a *authService) UserFromToken(ctx context.Context, accessToken string) (model.User, error) {
	payload := a.codec.Decode(accessToken)
	if payload == nil {
		return model.User{}, customErrors.ErrTokenInvalid
	}

	uid, err := uuid.Parse(payload["userId"])
	if err != nil {
		return model.User{}, customErrors.ErrTokenInvalid
	}

	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrUserNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "UserFromToken")
	}
	return user, nil
}

func updateNames(u *model.User, firstname, lastname string) (changed bool) {
	if firstname != "" && u.Firstname != firstname {
		u.Firstname, changed = firstname, true
	}
	if lastname != "" && u.Lastname != lastname {
		u.Lastname, changed = lastname, true
	}
	return
}

func accountNameFor(firstname, lastname, email string) string {
	name := strings.TrimSpace(firstname + " " + lastname)
	if name == "" {
		name = email
	}
	return name + "'s Account"
}
