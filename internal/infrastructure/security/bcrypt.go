package security

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/devstudio/site-api/internal/domain"
)

// BcryptHasher verifies hashes imported from the previous site backend.
// New hashes are argon2id; see PasswordHasher.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", domain.ErrHashFailed(err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Compare(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// PasswordHasher hashes with argon2id and compares against either format,
// chosen by the hash prefix.
type PasswordHasher struct {
	argon  *Argon2Hasher
	legacy *BcryptHasher
}

func NewPasswordHasher(argon *Argon2Hasher, legacy *BcryptHasher) *PasswordHasher {
	if argon == nil {
		argon = NewArgon2Hasher(Argon2Params{})
	}
	if legacy == nil {
		legacy = NewBcryptHasher(0)
	}
	return &PasswordHasher{argon: argon, legacy: legacy}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	return h.argon.Hash(password)
}

func (h *PasswordHasher) Compare(hash string, password string) error {
	switch {
	case isArgon2Hash(hash):
		return h.argon.Compare(hash, password)
	case isBcryptHash(hash):
		return h.legacy.Compare(hash, password)
	default:
		return ErrMalformedHash
	}
}
