package services

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

type passwordHasherImpl struct {
	params *argon2id.Params
}

// NewPasswordHasher hashes new passwords with argon2id. Compare also
// accepts bcrypt hashes so accounts provisioned by other tools can log in.
func NewPasswordHasher(params *argon2id.Params) PasswordHasher {
	if params == nil {
		params = argon2id.DefaultParams
	}
	return &passwordHasherImpl{params: params}
}

func (h *passwordHasherImpl) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

func (h *passwordHasherImpl) Compare(password, hash string) (bool, error) {
	if isBcryptHash(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	}
	return argon2id.ComparePasswordAndHash(password, hash)
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}
