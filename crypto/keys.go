// Package crypto provides the key hierarchy for the vault: a passphrase-derived
// master key expanded into purpose-bound subkeys via labeled HKDF.
package crypto

import (
	"fmt"

	"github.com/heirloom-app/heirloom/internal/util"
)

// Argon2idParams configures Argon2id key derivation.
type Argon2idParams = util.Argon2idParams

// ErrInvalidParams is returned when KDF parameters are out of supported bounds.
var ErrInvalidParams = util.ErrInvalidParams

// MasterKeySize is the fixed length of the master key and all derived subkeys.
const MasterKeySize = 32

// Derivation labels. These are fixed, versioned constants; changing any of
// them is a breaking migration that invalidates every existing vault.
var (
	kekInfo      = []byte("vault:kek:v1")
	authInfo     = []byte("vault:auth:v1")
	verifierInfo = []byte("vault:verifier:v1")
	checkinInfo  = []byte("vault:checkin:v1")
)

// Named KDF profiles for different deployment scenarios.
const (
	KDFProfileInteractive = util.KDFProfileInteractive // sub-second, dev/testing
	KDFProfileModerate    = util.KDFProfileModerate    // production default
	KDFProfileSensitive   = util.KDFProfileSensitive   // high-value secrets
)

// DefaultArgon2idParams returns the default Argon2id parameters (moderate profile).
func DefaultArgon2idParams() Argon2idParams {
	return util.DefaultArgon2idParams()
}

// Argon2idProfile returns the Argon2idParams for a named profile.
func Argon2idProfile(name string) (Argon2idParams, error) {
	return util.Argon2idProfile(name)
}

// ValidateArgon2idParams checks that the given parameters meet the minimum
// acceptable thresholds.
func ValidateArgon2idParams(p Argon2idParams) error {
	return util.ValidateArgon2idParams(p)
}

// DeriveMasterKey derives the vault master key from a passphrase with
// Argon2id. The passphrase is NFKD-normalized first. Deterministic: identical
// (passphrase, salt, params) always yields the identical key.
func DeriveMasterKey(passphrase string, salt []byte, params Argon2idParams) ([]byte, error) {
	key, err := util.DeriveArgon2idKey(util.Normalize(passphrase), salt, params)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}
	return key, nil
}

// KeyHierarchy holds the two subkeys expanded from the master key: the KEK
// wraps per-field data-encryption keys, the AuthKey keys the liveness
// challenge-response HMAC. Neither is ever persisted; both are recomputable
// from the master key alone.
type KeyHierarchy struct {
	KEK     [32]byte
	AuthKey [32]byte
}

// Wipe zeroes both subkeys in place.
func (kh *KeyHierarchy) Wipe() {
	util.WipeArray32(&kh.KEK)
	util.WipeArray32(&kh.AuthKey)
}

// Bytes returns the hierarchy as a flat kek || authKey buffer. The caller
// owns the copy and must wipe it.
func (kh *KeyHierarchy) Bytes() []byte {
	out := make([]byte, 0, 64)
	out = append(out, kh.KEK[:]...)
	out = append(out, kh.AuthKey[:]...)
	return out
}

// HierarchyFromBytes reconstructs a KeyHierarchy from a flat 64-byte buffer
// produced by Bytes.
func HierarchyFromBytes(b []byte) (*KeyHierarchy, error) {
	if len(b) != 64 {
		return nil, fmt.Errorf("invalid key hierarchy length: %d", len(b))
	}
	var kh KeyHierarchy
	copy(kh.KEK[:], b[:32])
	copy(kh.AuthKey[:], b[32:])
	return &kh, nil
}

// ExpandKeys derives the KEK and AuthKey from the master key via HKDF-SHA256
// with distinct fixed labels, making the two subkeys cryptographically
// independent. Pure and deterministic.
func ExpandKeys(masterKey []byte) (*KeyHierarchy, error) {
	if len(masterKey) != MasterKeySize {
		return nil, fmt.Errorf("invalid master key length: got %d, want %d", len(masterKey), MasterKeySize)
	}

	kek, err := util.HKDF(masterKey, nil, kekInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving KEK: %w", err)
	}
	defer util.WipeBytes(kek)

	authKey, err := util.HKDF(masterKey, nil, authInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving auth key: %w", err)
	}
	defer util.WipeBytes(authKey)

	var kh KeyHierarchy
	copy(kh.KEK[:], kek)
	copy(kh.AuthKey[:], authKey)
	return &kh, nil
}

// AuthVerifier computes the stored unlock probe: an HMAC tag over a fixed
// label under the auth key. Persisted at setup, it lets unlock reject a wrong
// passphrase deterministically instead of failing later on every decrypt.
func AuthVerifier(authKey []byte) []byte {
	return util.HMACSHA256(authKey, verifierInfo)
}

// CheckinKey derives the purpose-bound key registered with the heartbeat
// server at setup so it can verify challenge responses without ever holding
// the auth key itself.
func CheckinKey(authKey []byte) ([]byte, error) {
	return util.HKDF(authKey, nil, checkinInfo)
}
