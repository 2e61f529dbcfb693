package util

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidParams is returned when Argon2id parameters fall outside the
// supported bounds. Derivation never partially succeeds.
var ErrInvalidParams = errors.New("invalid KDF parameters")

type Argon2idParams struct {
	Time        uint32 `json:"time"`
	MemoryKiB   uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
	KeyLen      uint32 `json:"key_len"`
}

// Named KDF profiles. Parameters are versioned with the vault config, so
// historical vaults remain openable if these defaults change.
const (
	KDFProfileInteractive = "interactive" // sub-second, dev/testing
	KDFProfileModerate    = "moderate"    // production default
	KDFProfileSensitive   = "sensitive"   // high-value secrets
)

var kdfProfiles = map[string]Argon2idParams{
	KDFProfileInteractive: {Time: 2, MemoryKiB: 19 * 1024, Parallelism: 1, KeyLen: 32},
	KDFProfileModerate:    {Time: 3, MemoryKiB: 64 * 1024, Parallelism: 4, KeyLen: 32},
	KDFProfileSensitive:   {Time: 4, MemoryKiB: 128 * 1024, Parallelism: 4, KeyLen: 32},
}

// DefaultArgon2idParams returns the moderate profile.
func DefaultArgon2idParams() Argon2idParams {
	return kdfProfiles[KDFProfileModerate]
}

// Argon2idProfile returns the parameters for a named profile.
func Argon2idProfile(name string) (Argon2idParams, error) {
	p, ok := kdfProfiles[name]
	if !ok {
		return Argon2idParams{}, fmt.Errorf("unknown KDF profile %q", name)
	}
	return p, nil
}

// ValidateArgon2idParams checks that the given parameters meet the minimum
// acceptable thresholds and the fixed key length.
func ValidateArgon2idParams(p Argon2idParams) error {
	if p.KeyLen != 32 {
		return fmt.Errorf("%w: key length must be 32 bytes, got %d", ErrInvalidParams, p.KeyLen)
	}
	if p.Time < 1 {
		return fmt.Errorf("%w: time cost must be at least 1", ErrInvalidParams)
	}
	if p.MemoryKiB < 8*1024 {
		return fmt.Errorf("%w: memory cost must be at least 8 MiB", ErrInvalidParams)
	}
	if p.Parallelism < 1 {
		return fmt.Errorf("%w: parallelism must be at least 1", ErrInvalidParams)
	}
	return nil
}

// DeriveArgon2idKey derives a key from the passphrase. Deterministic for
// identical (passphrase, salt, params).
func DeriveArgon2idKey(passphrase string, salt []byte, params Argon2idParams) ([]byte, error) {
	if err := ValidateArgon2idParams(params); err != nil {
		return nil, err
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: salt must not be empty", ErrInvalidParams)
	}
	key := argon2.IDKey([]byte(passphrase), salt, params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen)
	return key, nil
}
