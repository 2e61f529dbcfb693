package vault

import "errors"

var (
	// ErrVaultLocked indicates a key-consuming call was made while the
	// session is locked. It is never retried automatically; callers should
	// prompt for re-authentication.
	ErrVaultLocked = errors.New("vault is locked")
	// ErrInvalidPassphrase indicates the unlock probe rejected the supplied
	// passphrase. The session remains locked.
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	// ErrInvalidRootSecret indicates recovered master key material did not
	// verify against the vault's stored probe.
	ErrInvalidRootSecret = errors.New("invalid root secret")
	// ErrNotInitialized indicates no vault configuration record exists yet.
	ErrNotInitialized = errors.New("vault is not initialized")
	// ErrAlreadyInitialized indicates a vault configuration record already
	// exists and Setup would overwrite it.
	ErrAlreadyInitialized = errors.New("vault is already initialized")
)
