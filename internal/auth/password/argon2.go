// Package password verifies the operator password of the ERP debug
// console. Only the argon2id hash is configured; the plain password never
// reaches the gateway's environment.
package password

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

var ErrBadHash = errors.New("not an argon2id hash")

type Hasher struct {
	params *argon2id.Params
}

func NewDefault() *Hasher {
	return &Hasher{params: argon2id.DefaultParams}
}

func New(p *argon2id.Params) *Hasher { return &Hasher{params: p} }

// Hash returns an encoded $argon2id$v=19$m=... string, the format
// DEBUG_PASSWORD_HASH expects.
func (h *Hasher) Hash(plain string) (string, error) {
	if h == nil || h.params == nil {
		return "", errors.New("argon2id params not set")
	}
	return argon2id.CreateHash(plain, h.params)
}

// Verify reports whether plain matches encodedHash. An empty hash matches
// nothing; a malformed one is an error.
func (h *Hasher) Verify(plain, encodedHash string) (bool, error) {
	if encodedHash == "" {
		return false, nil
	}
	if err := Check(encodedHash); err != nil {
		return false, err
	}
	return argon2id.ComparePasswordAndHash(plain, encodedHash)
}

// Check validates a configured hash so a typo surfaces at startup instead
// of as a locked console.
func Check(encodedHash string) error {
	if _, _, _, err := argon2id.DecodeHash(encodedHash); err != nil {
		return fmt.Errorf("%w: %v", ErrBadHash, err)
	}
	return nil
}
