package vault

import (
	"time"

	"github.com/heirloom-app/heirloom/crypto"
	"github.com/heirloom-app/heirloom/envelope"
)

// DefaultAutoLockTimeout is the policy default for auto-lock on inactivity.
const DefaultAutoLockTimeout = 15 * time.Minute

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithAutoLockTimeout overrides the auto-lock inactivity timeout.
func WithAutoLockTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.autoLockTimeout = d
	}
}

// WithCodec replaces the envelope codec, e.g. to advance the default cipher
// suite.
func WithCodec(c *envelope.Codec) SessionOption {
	return func(s *Session) {
		s.codec = c
	}
}

// SetupOption configures vault initialization.
type SetupOption func(*setupOptions)

type setupOptions struct {
	kdfParams crypto.Argon2idParams
	session   []SessionOption
}

// WithKDFParams overrides the Argon2id parameters used at setup. The
// parameters are persisted with the salt so the vault stays openable if
// defaults change later.
func WithKDFParams(params crypto.Argon2idParams) SetupOption {
	return func(o *setupOptions) {
		o.kdfParams = params
	}
}

// WithSessionOptions passes session options through to the session created by
// Setup.
func WithSessionOptions(opts ...SessionOption) SetupOption {
	return func(o *setupOptions) {
		o.session = append(o.session, opts...)
	}
}
