package token

import "time"

// Purpose selects the signing secret for a token class. A leaked secret for
// one purpose must not let an attacker forge tokens of another class, so every
// purpose is keyed independently.
type Purpose string

const (
	PurposeAccess    Purpose = "access"
	PurposeRefresh   Purpose = "refresh"
	PurposeMagicLink Purpose = "magiclink"
	PurposeInvite    Purpose = "invite"
	PurposeReset     Purpose = "reset"
)

// Payload is the application data carried inside a signed token, alongside
// the issuance and expiry claims the codec adds itself.
type Payload map[string]string

// Codec signs and verifies compact, self-contained tokens.
type Codec interface {
	// Sign encodes payload plus issued-at and expiry claims under the
	// purpose's secret.
	Sign(payload Payload, purpose Purpose, expiresIn time.Duration) (string, error)

	// Verify checks signature and expiry. It fails with ErrTokenExpired
	// (carrying the expiry instant) past expiry and ErrTokenInvalid on a bad
	// signature, wrong purpose or malformed token.
	Verify(raw string, purpose Purpose) (Payload, error)

	// Decode extracts the payload without verifying signature or expiry.
	// Only for non-trust-boundary reads such as pulling the user id out of an
	// access token the transport already verified.
	Decode(raw string) Payload
}
