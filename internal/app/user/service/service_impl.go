package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/harborworks/teamhq/auth-service/internal/adapters/transport/http/dto"
	"github.com/harborworks/teamhq/auth-service/internal/app/auth/password"
	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/mail"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/model"
	"github.com/harborworks/teamhq/auth-service/internal/domain/auth/repo"
	domainToken "github.com/harborworks/teamhq/auth-service/internal/domain/auth/token"
	"github.com/harborworks/teamhq/auth-service/internal/infra/config"
)

type userService struct {
	userRepo       repo.UserRepo
	accountRepo    repo.AccountRepo
	roleRepo       repo.RoleRepo
	invitationRepo repo.InvitationRepo
	tokenRepo      repo.TokenRepo
	codec          domainToken.Codec
	hasher         *password.Hasher
	mailer         mail.Mailer
	cfg            *config.Config
	v              *validator.Validate
}

type Service interface {
	RequestPasswordReset(context.Context, dto.ForgotPasswordDTO) error
	ResetPassword(context.Context, dto.ResetPasswordDTO) (model.User, error)
	ChangePassword(ctx context.Context, user model.User, in dto.ChangePasswordDTO) error
	InviteUsers(ctx context.Context, inviter model.User, in dto.InviteesDTO) ([]string, error)
	AcceptInvitation(context.Context, dto.AcceptInvitationDTO) (model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in dto.UpdateProfileDTO) (model.User, error)
}

func New(
	ur repo.UserRepo,
	ar repo.AccountRepo,
	rr repo.RoleRepo,
	ir repo.InvitationRepo,
	tr repo.TokenRepo,
	codec domainToken.Codec,
	hasher *password.Hasher,
	mailer mail.Mailer,
	cfg *config.Config,
	v *validator.Validate,
) Service {
	return &userService{
		userRepo: ur, accountRepo: ar, roleRepo: rr,
		invitationRepo: ir, tokenRepo: tr,
		codec: codec, hasher: hasher, mailer: mailer,
		cfg: cfg, v: v,
	}
}

func (s *userService) RequestPasswordReset(ctx context.Context, in dto.ForgotPasswordDTO) error {
	if err := s.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(in.Email))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrUserNotFound
	case err != nil:
		return customErrors.WrapInternal(err, "RequestPasswordReset")
	}

	if user.Status != model.StatusActive {
		return customErrors.ErrMethodNotAllowed
	}

	raw, err := s.codec.Sign(domainToken.Payload{
		"id":     user.ID.String(),
		"status": string(user.Status),
	}, domainToken.PurposeReset, s.cfg.ResetTokenTTL)
	if err != nil {
		return err
	}

	// replaces any earlier outstanding reset token for this user
	if err := s.tokenRepo.Save(ctx, model.TokenRecord{
		Token:     raw,
		Subject:   user.ID,
		Kind:      model.TokenKindReset,
		ExpiresAt: time.Now().Add(s.cfg.ResetTokenTTL),
	}); err != nil {
		return customErrors.WrapInternal(err, "RequestPasswordReset")
	}

	link := s.cfg.WebClientURL + "/reset-password?token=" + url.QueryEscape(raw)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return customErrors.WrapInternal(err, "RequestPasswordReset")
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) (model.User, error) {
	if err := s.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	if _, err := s.codec.Verify(in.Token, domainToken.PurposeReset); err != nil {
		return model.User{}, err
	}

	// the store lookup is by literal token value: a superseded or already
	// consumed token no longer has a record, so a valid signature alone is
	// not enough
	rec, err := s.tokenRepo.FindByValue(ctx, in.Token)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrTokenNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "ResetPassword")
	}

	user, err := s.userRepo.GetUserByID(ctx, rec.Subject)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrUserNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "ResetPassword")
	}

	if err := s.tokenRepo.DeleteByValue(ctx, in.Token); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "ResetPassword")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}
	if err := s.userRepo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "ResetPassword")
	}

	user.PasswordHash = hash
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, user model.User, in dto.ChangePasswordDTO) error {
	if err := s.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	if user.PasswordHash == "" {
		// federated-only accounts have no password to change
		return customErrors.ErrMethodNotAllowed
	}

	ok, err := s.hasher.Verify(in.OldPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return customErrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	return nil
}

// InviteUsers validates every invitee before creating anything: a rejected
// invitee aborts the whole batch with no invitation rows created and no email
// sent. Emails go out only after all rows and tokens exist.
func (s *userService) InviteUsers(ctx context.Context, inviter model.User, in dto.InviteesDTO) ([]string, error) {
	if err := s.v.Struct(in); err != nil {
		return nil, customErrors.NewInvalidArgument(err.Error())
	}

	account, err := s.accountRepo.GetAccountByID(ctx, inviter.AccountID)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "InviteUsers")
	}
	if account.OwnerID != inviter.ID {
		return nil, customErrors.ErrMethodNotAllowed
	}

	seen := make(map[string]struct{}, len(in.Invitees))
	invitees := make([]model.Invitee, 0, len(in.Invitees))
	for _, inv := range in.Invitees {
		email := normalizeEmail(inv.Email)
		if _, dup := seen[email]; dup {
			return nil, customErrors.ErrEmailAlreadyUsed
		}
		seen[email] = struct{}{}

		if _, err := s.userRepo.GetUserByEmail(ctx, email); err == nil {
			return nil, customErrors.ErrEmailAlreadyUsed
		} else if !errors.Is(err, customErrors.ErrNotFound) {
			return nil, customErrors.WrapInternal(err, "InviteUsers")
		}

		if _, err := s.invitationRepo.GetInvitationByEmail(ctx, account.ID, email); err == nil {
			return nil, customErrors.ErrEmailAlreadyUsed
		} else if !errors.Is(err, customErrors.ErrNotFound) {
			return nil, customErrors.WrapInternal(err, "InviteUsers")
		}

		invitees = append(invitees, model.Invitee{Email: email, Role: inv.Role})
	}

	links := make([]model.InvitationLink, 0, len(invitees))
	for _, inv := range invitees {
		invitationID, err := s.invitationRepo.CreateInvitation(ctx, model.Invitation{
			ID:        uuid.New(),
			AccountID: account.ID,
			Email:     inv.Email,
			Role:      inv.Role,
		})
		if err != nil {
			return nil, customErrors.WrapInternal(err, "InviteUsers")
		}

		raw, err := s.codec.Sign(domainToken.Payload{
			"invitationId": invitationID.String(),
			"inviteeEmail": inv.Email,
			"inviteeRole":  inv.Role,
		}, domainToken.PurposeInvite, s.cfg.InviteTokenTTL)
		if err != nil {
			return nil, err
		}

		if err := s.tokenRepo.Save(ctx, model.TokenRecord{
			Token:     raw,
			Subject:   invitationID,
			Kind:      model.TokenKindInvite,
			ExpiresAt: time.Now().Add(s.cfg.InviteTokenTTL),
		}); err != nil {
			return nil, customErrors.WrapInternal(err, "InviteUsers")
		}

		links = append(links, model.InvitationLink{
			Email: inv.Email,
			Link: s.cfg.WebClientURL + "/sign-up?token=" + url.QueryEscape(raw) +
				"&email=" + url.QueryEscape(inv.Email),
		})
	}

	emails := make([]string, 0, len(links))
	for _, l := range links {
		if err := s.mailer.SendInvitation(ctx, l.Email, l.Link); err != nil {
			return nil, customErrors.WrapInternal(err, "InviteUsers")
		}
		emails = append(emails, l.Email)
	}
	return emails, nil
}

func (s *userService) AcceptInvitation(ctx context.Context, in dto.AcceptInvitationDTO) (model.User, error) {
	if err := s.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	payload, err := s.codec.Verify(in.Token, domainToken.PurposeInvite)
	if err != nil {
		return model.User{}, err
	}

	invitationID, err := uuid.Parse(payload["invitationId"])
	if err != nil {
		return model.User{}, customErrors.ErrTokenInvalid
	}

	invitation, err := s.invitationRepo.GetInvitationByID(ctx, invitationID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// signature checks out, but the invitation was withdrawn or consumed
		return model.User{}, customErrors.ErrTokenNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "AcceptInvitation")
	}

	role, err := s.roleRepo.GetRoleByName(ctx, payload["inviteeRole"])
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrRoleNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "AcceptInvitation")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(payload["inviteeEmail"]),
		PasswordHash: hash,
		Status:       model.StatusActive,
		RoleID:       role.ID,
		AccountID:    invitation.AccountID,
	}
	if _, err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.User{}, customErrors.ErrEmailAlreadyUsed
		}
		return model.User{}, customErrors.WrapInternal(err, "AcceptInvitation")
	}

	if err := s.invitationRepo.DeleteInvitation(ctx, invitation.ID); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "AcceptInvitation")
	}
	if err := s.tokenRepo.DeleteBySubject(ctx, invitation.ID); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "AcceptInvitation")
	}

	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, in dto.UpdateProfileDTO) (model.User, error) {
	if err := s.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrUserNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "UpdateProfile")
	}

	user.Firstname = in.Firstname
	user.Lastname = in.Lastname
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return model.User{}, customErrors.WrapInternal(err, "UpdateProfile")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
