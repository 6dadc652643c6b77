package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	domain "github.com/harborworks/teamhq/auth-service/internal/domain/auth/token"
	"github.com/harborworks/teamhq/auth-service/internal/infra/config"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		MagicLinkSecret:    "magic-secret",
		InviteTokenSecret:  "invite-secret",
		ResetTokenSecret:   "reset-secret",
		Issuer:             "test",
	}
}

func TestHMACCodec_RoundTrip(t *testing.T) {
	codec, err := NewHMACCodec(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	payload := domain.Payload{"userId": "42", "status": "active"}
	raw, err := codec.Sign(payload, domain.PurposeAccess, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	got, err := codec.Verify(raw, domain.PurposeAccess)
	if err != nil {
		t.Fatal(err)
	}
	if got["userId"] != "42" || got["status"] != "active" {
		t.Fatalf("payload mismatch: %v", got)
	}
}

func TestHMACCodec_Expired(t *testing.T) {
	codec, _ := NewHMACCodec(testConfig())

	raw, err := codec.Sign(domain.Payload{"userId": "1"}, domain.PurposeReset, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	_, err = codec.Verify(raw, domain.PurposeReset)
	if !customErrors.IsTokenExpired(err) {
		t.Fatalf("want token expired, got %v", err)
	}
	at, ok := customErrors.ExpiredAt(err)
	if !ok || at.IsZero() {
		t.Fatalf("expected expiry timestamp, got %v %v", at, ok)
	}
	if time.Since(at) < 30*time.Second {
		t.Fatalf("expiry should be about a minute in the past, got %v", at)
	}
}

func TestHMACCodec_NotYetExpired(t *testing.T) {
	codec, _ := NewHMACCodec(testConfig())

	raw, _ := codec.Sign(domain.Payload{"userId": "1"}, domain.PurposeMagicLink, time.Second)
	if _, err := codec.Verify(raw, domain.PurposeMagicLink); err != nil {
		t.Fatalf("token should still verify just before expiry: %v", err)
	}
}

func TestHMACCodec_CrossPurpose(t *testing.T) {
	codec, _ := NewHMACCodec(testConfig())

	raw, _ := codec.Sign(domain.Payload{"userId": "1"}, domain.PurposeAccess, time.Minute)
	_, err := codec.Verify(raw, domain.PurposeRefresh)
	if !customErrors.IsTokenInvalid(err) {
		t.Fatalf("access-signed token must not verify as refresh, got %v", err)
	}
}

func TestHMACCodec_SamePurposeSecretStillRejectedByPurposeClaim(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenSecret = cfg.AccessTokenSecret
	codec, _ := NewHMACCodec(cfg)

	raw, _ := codec.Sign(domain.Payload{"userId": "1"}, domain.PurposeAccess, time.Minute)
	if _, err := codec.Verify(raw, domain.PurposeRefresh); !customErrors.IsTokenInvalid(err) {
		t.Fatalf("want token invalid, got %v", err)
	}
}

func TestHMACCodec_TamperedAndMalformed(t *testing.T) {
	codec, _ := NewHMACCodec(testConfig())

	if _, err := codec.Verify("not-a-token", domain.PurposeAccess); !customErrors.IsTokenInvalid(err) {
		t.Fatalf("want token invalid, got %v", err)
	}

	raw, _ := codec.Sign(domain.Payload{"userId": "1"}, domain.PurposeAccess, time.Minute)
	if _, err := codec.Verify(raw+"x", domain.PurposeAccess); !customErrors.IsTokenInvalid(err) {
		t.Fatalf("want token invalid for tampered token, got %v", err)
	}
}

func TestHMACCodec_InvalidAlg(t *testing.T) {
	codec, _ := NewHMACCodec(testConfig())

	raw, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "1", "tkp": "access",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	if _, err := codec.Verify(raw, domain.PurposeAccess); !customErrors.IsTokenInvalid(err) {
		t.Fatalf("want token invalid for alg=none, got %v", err)
	}
}

func TestHMACCodec_WrongIssuer(t *testing.T) {
	codec, _ := NewHMACCodec(testConfig())

	otherCfg := testConfig()
	otherCfg.Issuer = "other"
	other, _ := NewHMACCodec(otherCfg)

	raw, _ := other.Sign(domain.Payload{"userId": "1"}, domain.PurposeAccess, time.Minute)
	if _, err := codec.Verify(raw, domain.PurposeAccess); !customErrors.IsTokenInvalid(err) {
		t.Fatalf("want token invalid for wrong issuer, got %v", err)
	}
}

func TestHMACCodec_DecodeWithoutVerification(t *testing.T) {
	codec, _ := NewHMACCodec(testConfig())

	raw, _ := codec.Sign(domain.Payload{"userId": "7"}, domain.PurposeAccess, -time.Minute)

	// expired tokens still decode; Decode is not a trust boundary
	payload := codec.Decode(raw)
	if payload["userId"] != "7" {
		t.Fatalf("decode payload mismatch: %v", payload)
	}

	if codec.Decode("garbage") != nil {
		t.Fatal("malformed token should decode to nil")
	}
}

func TestNewHMACCodec_MissingSecret(t *testing.T) {
	cfg := testConfig()
	cfg.InviteTokenSecret = ""
	if _, err := NewHMACCodec(cfg); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestHMACCodec_EachIssuanceUnique(t *testing.T) {
	codec, _ := NewHMACCodec(testConfig())

	payload := domain.Payload{"id": "7"}
	first, err := codec.Sign(payload, domain.PurposeReset, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	second, err := codec.Sign(payload, domain.PurposeReset, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("two issuances for the same payload must differ")
	}

	got, err := codec.Verify(second, domain.PurposeReset)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got["jti"]; ok {
		t.Fatalf("token id leaked into payload: %v", got)
	}
}
