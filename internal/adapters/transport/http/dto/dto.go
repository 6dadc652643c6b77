package dto

type SignUpDTO struct {
	AccountName string `json:"account_name" validate:"required,min=2,max=100"`
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,strongpwd"`
	Firstname   string `json:"firstname"    validate:"max=60"`
	Lastname    string `json:"lastname"     validate:"max=60"`
}

type SignInDTO struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MagicLinkRequestDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type MagicLinkSignInDTO struct {
	Token string `json:"token" validate:"required"`
}

type FederatedProfileDTO struct {
	Email     string `json:"email"     validate:"required,email"`
	Firstname string `json:"firstname" validate:"max=60"`
	Lastname  string `json:"lastname"  validate:"max=60"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordDTO struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,strongpwd"`
}

type InviteeDTO struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required,oneof=admin member"`
}

type InviteesDTO struct {
	Invitees []InviteeDTO `json:"invitees" validate:"required,min=1,dive"`
}

type AcceptInvitationDTO struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type UpdateProfileDTO struct {
	Firstname string `json:"firstname" validate:"max=60"`
	Lastname  string `json:"lastname"  validate:"max=60"`
}
