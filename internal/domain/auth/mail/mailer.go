package mail

import "context"

// Mailer is the outbound email collaborator. Dispatch is fire-and-forget from
// the services' point of view; delivery retries belong to the implementation.
type Mailer interface {
	SendMagicLink(ctx context.Context, email, link string) error

	SendInvitation(ctx context.Context, email, link string) error

	SendPasswordReset(ctx context.Context, email, link string) error
}
