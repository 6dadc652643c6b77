package password

import (
	"github.com/alexedwards/argon2id"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher derives and checks argon2id password hashes. An optional pepper is
// mixed into every plaintext before hashing.
type Hasher struct {
	pepper string
}

func NewHasher(pepper string) *Hasher {
	return &Hasher{pepper: pepper}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := argon2id.CreateHash(plaintext+h.pepper, argonParams)
	if err != nil {
		return "", customErrors.WrapInternal(err, "hash password")
	}
	return hash, nil
}

// Verify reports whether plaintext matches hash. A mismatch is not an error;
// err is non-nil only for malformed hashes or internal failures.
func (h *Hasher) Verify(plaintext, hash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(plaintext+h.pepper, hash)
	if err != nil {
		return false, customErrors.WrapInternal(err, "verify password")
	}
	return ok, nil
}
