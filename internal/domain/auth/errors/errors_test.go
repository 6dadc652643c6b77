package errors

import (
	"testing"
	"time"
)

func TestErrorHelpers(t *testing.T) {
	err := NewInvalidArgument("bad")
	if !IsInvalidArgument(err) {
		t.Fatal("expected invalid argument")
	}

	wrapped := WrapInternal(err, "ctx")
	if !IsInternal(wrapped) {
		t.Fatal("expected internal")
	}
}

func TestTokenExpiredCarriesTimestamp(t *testing.T) {
	at := time.Now().Add(-time.Minute).Truncate(time.Second)
	err := NewTokenExpired(at)

	if !IsTokenExpired(err) {
		t.Fatal("expected token expired")
	}
	got, ok := ExpiredAt(err)
	if !ok || !got.Equal(at) {
		t.Fatalf("ExpiredAt = %v, %v; want %v, true", got, ok, at)
	}
}

func TestWrapUnauthorizedKeepsSubKind(t *testing.T) {
	err := WrapUnauthorized(NewTokenExpired(time.Now()))

	if !IsUnauthorized(err) {
		t.Fatal("expected unauthorized")
	}
	if !IsTokenExpired(err) {
		t.Fatal("sub-kind should survive wrapping")
	}
}
