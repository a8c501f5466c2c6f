package password

import (
	"errors"
	"strings"
)

// ErrUnsupportedHash is returned for encodings neither scheme recognises.
var ErrUnsupportedHash = errors.New("unsupported password hash format")

// Verifier checks a plaintext password against a stored hash.
type Verifier interface {
	Verify(password, encoded string) (bool, error)
}

// Hasher produces argon2id hashes and verifies both argon2id and bcrypt
// hashes, picking the scheme from the hash prefix.
type Hasher struct {
	argon2 *Argon2
	bcrypt *Bcrypt
}

// NewHasher builds a Hasher with the given argon2id parameters and bcrypt
// cost (0 selects the bcrypt default).
func NewHasher(cfg Argon2Config, bcryptCost int) (*Hasher, error) {
	a, err := NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	b, err := NewBcrypt(bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Hasher{argon2: a, bcrypt: b}, nil
}

// Hash always produces an argon2id PHC string.
func (h *Hasher) Hash(password string) (string, error) {
	return h.argon2.Hash(password)
}

func (h *Hasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return h.argon2.Verify(password, encoded)
	case isBcrypt(encoded):
		return h.bcrypt.Verify(password, encoded)
	default:
		return false, ErrUnsupportedHash
	}
}

func (h *Hasher) NeedsUpgrade(encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return h.argon2.NeedsUpgrade(encoded)
	case isBcrypt(encoded):
		return h.bcrypt.NeedsUpgrade(encoded)
	default:
		return false, ErrUnsupportedHash
	}
}
