package user

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// PasswordHasher defines the minimal hashing interface. Exactly one
// implementation is in use; earlier revisions of this system carried a second,
// faster scheme on the login path, which is why verification is pinned to the
// encoded string's own algorithm tag rather than a column elsewhere.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(encoded, secret string) bool
	NeedsRehash(encoded string) bool
}

// Argon2Params are the tunable costs of the argon2id KDF.
type Argon2Params struct {
	Time        uint32
	MemoryKiB   uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     uint32
}

// DefaultArgon2Params mirror the RFC 9106 low-memory recommendation.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:        3,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
		SaltLen:     16,
	}
}

// Argon2Hasher hashes secrets with argon2id and encodes them in PHC string
// format ($argon2id$v=19$m=...,t=...,p=...$salt$key, base64 without padding).
type Argon2Hasher struct {
	Params Argon2Params
}

func NewArgon2Hasher(p Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{Params: p}
}

// Hash derives a key from the secret under a fresh random salt. Two calls on
// the same input produce different encodings; equality of stored hashes is
// meaningless and only Verify can compare.
func (h *Argon2Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, h.Params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(secret), salt, h.Params.Time, h.Params.MemoryKiB, h.Params.Parallelism, h.Params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Params.MemoryKiB, h.Params.Time, h.Params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify re-derives the key under the parameters and salt carried by the
// encoded string and compares in constant time. Any parse failure or mismatch
// is false; verification never errors.
func (h *Argon2Hasher) Verify(encoded, secret string) bool {
	params, salt, key, err := decodeArgon2(encoded)
	if err != nil {
		return false
	}
	derived := argon2.IDKey([]byte(secret), salt, params.Time, params.MemoryKiB, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1
}

// NeedsRehash reports whether the encoded hash was produced under weaker cost
// parameters than currently configured.
func (h *Argon2Hasher) NeedsRehash(encoded string) bool {
	params, _, _, err := decodeArgon2(encoded)
	if err != nil {
		return true
	}
	return params.Time < h.Params.Time ||
		params.MemoryKiB < h.Params.MemoryKiB ||
		params.Parallelism < h.Params.Parallelism
}

var errMalformedHash = errors.New("malformed argon2 hash")

func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &p.Parallelism); err != nil {
		return p, nil, nil, errMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, errMalformedHash
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
