// Package vault implements the locked/unlocked vault session: the single
// owner of all key material. Keys exist only in an encrypted memory enclave
// while the session is unlocked, every key-consuming operation goes through
// the WithKeys choke point, and an inactivity timer locks the session
// automatically.
package vault

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"

	"github.com/heirloom-app/heirloom/crypto"
	"github.com/heirloom-app/heirloom/envelope"
	"github.com/heirloom-app/heirloom/internal/util"
	"github.com/heirloom-app/heirloom/liveness"
	"github.com/heirloom-app/heirloom/storage"
)

// Placeholder is substituted for a field whose envelope failed to decrypt, so
// batch loads render "unreadable data" instead of aborting or showing blanks.
const Placeholder = "[decryption failed]"

// enclaveLen is masterKey || kek || authKey.
const enclaveLen = 3 * 32

// Session is the vault session state machine: Locked until a successful
// Unlock, Unlocked until an explicit Lock, Close, or the auto-lock timer
// fires. Key material lives in a memguard Enclave for the duration of the
// Unlocked state and nowhere else.
type Session struct {
	cfg   *Config
	codec *envelope.Codec

	mu              sync.Mutex
	keys            *memguard.Enclave // nil while locked
	lastActivity    time.Time
	autoLockTimeout time.Duration
	timer           *time.Timer
}

// Open loads the vault configuration and returns a locked session.
func Open(repo storage.Repository, opts ...SessionOption) (*Session, error) {
	cfg, err := LoadConfig(repo)
	if err != nil {
		return nil, err
	}
	return newSession(cfg, opts...), nil
}

// Setup initializes a new vault: generates a fresh salt, derives the key
// hierarchy from the passphrase, computes the unlock verifier and check-in
// key, persists the configuration record, and returns an unlocked session.
// Only salt, KDF parameters, verifier and check-in key are persisted; the
// passphrase and all derived keys never leave the session.
func Setup(repo storage.Repository, passphrase string, opts ...SetupOption) (*Session, error) {
	if _, err := LoadConfig(repo); err == nil {
		return nil, ErrAlreadyInitialized
	} else if !errors.Is(err, ErrNotInitialized) {
		return nil, err
	}

	o := setupOptions{kdfParams: crypto.DefaultArgon2idParams()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := crypto.ValidateArgon2idParams(o.kdfParams); err != nil {
		return nil, err
	}

	salt, err := util.RandomBytes(saltLen)
	if err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	masterKey, err := crypto.DeriveMasterKey(passphrase, salt, o.kdfParams)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(masterKey)

	kh, err := crypto.ExpandKeys(masterKey)
	if err != nil {
		return nil, err
	}
	defer kh.Wipe()

	checkinKey, err := crypto.CheckinKey(kh.AuthKey[:])
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Salt:       salt,
		KDFParams:  o.kdfParams,
		Verifier:   crypto.AuthVerifier(kh.AuthKey[:]),
		CheckinKey: checkinKey,
		CreatedAt:  time.Now(),
		Ver:        configVersion,
	}
	if err := SaveConfig(repo, cfg); err != nil {
		return nil, err
	}

	s := newSession(cfg, o.session...)
	s.mu.Lock()
	s.adoptKeys(masterKey, kh)
	s.mu.Unlock()
	return s, nil
}

// OpenWithRootSecret opens an unlocked session directly from recovered master
// key material, bypassing the passphrase. This is the inheritance recovery
// path: the secret comes out of testament.RecoverFromShares, not a KDF run.
// The secret is verified against the stored probe before it is accepted; the
// caller retains ownership of the slice and should wipe it.
func OpenWithRootSecret(repo storage.Repository, secret []byte, opts ...SessionOption) (*Session, error) {
	cfg, err := LoadConfig(repo)
	if err != nil {
		return nil, err
	}

	kh, err := crypto.ExpandKeys(secret)
	if err != nil {
		return nil, err
	}
	defer kh.Wipe()

	if !util.ConstantTimeEqual(crypto.AuthVerifier(kh.AuthKey[:]), cfg.Verifier) {
		return nil, ErrInvalidRootSecret
	}

	s := newSession(cfg, opts...)
	s.mu.Lock()
	s.adoptKeys(secret, kh)
	s.mu.Unlock()
	return s, nil
}

func newSession(cfg *Config, opts ...SessionOption) *Session {
	s := &Session{
		cfg:             cfg,
		codec:           envelope.NewCodec(),
		autoLockTimeout: DefaultAutoLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the vault configuration backing this session.
func (s *Session) Config() *Config {
	return s.cfg
}

// Unlock re-derives the key hierarchy from the passphrase and the stored
// salt/parameters, then verifies it against the stored probe before accepting
// it. A wrong passphrase fails deterministically with ErrInvalidPassphrase
// rather than producing a wrong hierarchy that fails on every later decrypt.
func (s *Session) Unlock(passphrase string) error {
	masterKey, err := crypto.DeriveMasterKey(passphrase, s.cfg.Salt, s.cfg.KDFParams)
	if err != nil {
		return err
	}
	defer util.WipeBytes(masterKey)

	kh, err := crypto.ExpandKeys(masterKey)
	if err != nil {
		return err
	}
	defer kh.Wipe()

	if !util.ConstantTimeEqual(crypto.AuthVerifier(kh.AuthKey[:]), s.cfg.Verifier) {
		return ErrInvalidPassphrase
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.adoptKeys(masterKey, kh)
	return nil
}

// adoptKeys seals masterKey || kek || authKey into the enclave and arms the
// auto-lock timer. Caller holds s.mu.
func (s *Session) adoptKeys(masterKey []byte, kh *crypto.KeyHierarchy) {
	buf := make([]byte, 0, enclaveLen)
	buf = append(buf, masterKey...)
	buf = append(buf, kh.Bytes()...)
	s.keys = memguard.NewEnclave(buf) // NewEnclave wipes buf
	s.lastActivity = time.Now()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.autoLockTimeout, s.autoLock)
}

// Lock discards all key material and transitions to Locked. Idempotent;
// always succeeds. Calls already in flight finish on their own copy of the
// keys; every subsequent WithKeys call fails with ErrVaultLocked.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked()
}

func (s *Session) lockLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.keys = nil
}

// Close locks the session. It exists so sessions satisfy the conventional
// defer-on-acquire pattern.
func (s *Session) Close() {
	s.Lock()
}

// IsUnlocked reports whether key material is currently available.
func (s *Session) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	return s.keys != nil
}

// Touch records activity and pushes back the auto-lock deadline.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		return
	}
	s.lastActivity = time.Now()
	if s.timer != nil {
		s.timer.Reset(s.autoLockTimeout)
	}
}

// autoLock runs on the timer goroutine.
func (s *Session) autoLock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		return
	}
	remaining := s.autoLockTimeout - time.Since(s.lastActivity)
	if remaining > 0 {
		// Touched after the timer fired but before we took the mutex.
		s.timer.Reset(remaining)
		return
	}
	s.lockLocked()
}

// expireLocked locks eagerly if the deadline has passed, independent of timer
// scheduling. Caller holds s.mu.
func (s *Session) expireLocked() {
	if s.keys != nil && time.Since(s.lastActivity) >= s.autoLockTimeout {
		s.lockLocked()
	}
}

// WithKeys is the only sanctioned way to reach the key hierarchy. It fails
// immediately with ErrVaultLocked while locked; otherwise it records
// activity and invokes fn with a hierarchy that is wiped when fn returns.
// Nothing may retain the hierarchy past the call.
func (s *Session) WithKeys(fn func(kh *crypto.KeyHierarchy) error) error {
	kh, _, err := s.openKeys(false)
	if err != nil {
		return err
	}
	defer kh.Wipe()
	return fn(kh)
}

// WithRootSecret invokes fn with the raw master key material, wiped when fn
// returns. Used once per share-generation event by the testament flow.
func (s *Session) WithRootSecret(fn func(secret []byte) error) error {
	kh, master, err := s.openKeys(true)
	if err != nil {
		return err
	}
	defer kh.Wipe()
	defer util.WipeBytes(master)
	return fn(master)
}

// openKeys copies key material out of the enclave under the mutex. The
// returned copies belong to the caller; lock/auto-lock affects only future
// calls.
func (s *Session) openKeys(withMaster bool) (*crypto.KeyHierarchy, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()
	if s.keys == nil {
		return nil, nil, ErrVaultLocked
	}
	s.lastActivity = time.Now()
	if s.timer != nil {
		s.timer.Reset(s.autoLockTimeout)
	}

	buf, err := s.keys.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening key enclave: %w", err)
	}
	defer buf.Destroy()

	kh, err := crypto.HierarchyFromBytes(buf.Bytes()[32:])
	if err != nil {
		return nil, nil, err
	}
	var master []byte
	if withMaster {
		master = util.CopyBytes(buf.Bytes()[:32])
	}
	return kh, master, nil
}

// EncryptField envelope-encrypts one plaintext field under the session KEK.
func (s *Session) EncryptField(plaintext []byte) (*envelope.Envelope, error) {
	var env *envelope.Envelope
	err := s.WithKeys(func(kh *crypto.KeyHierarchy) error {
		var err error
		env, err = s.codec.Encrypt(plaintext, kh.KEK[:])
		return err
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// DecryptField recovers one plaintext field. Failures surface as
// envelope.ErrDecryption, undifferentiated by cause; ErrVaultLocked
// propagates unchanged.
func (s *Session) DecryptField(env *envelope.Envelope) ([]byte, error) {
	var plaintext []byte
	err := s.WithKeys(func(kh *crypto.KeyHierarchy) error {
		var err error
		plaintext, err = s.codec.Decrypt(env, kh.KEK[:])
		return err
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// DecryptFieldOrPlaceholder is the batch-load convention: a field that fails
// to decrypt yields the fixed placeholder instead of failing the caller's
// whole operation. A locked vault still fails, so callers can prompt for
// unlock.
func (s *Session) DecryptFieldOrPlaceholder(env *envelope.Envelope) ([]byte, error) {
	plaintext, err := s.DecryptField(env)
	if errors.Is(err, envelope.ErrDecryption) {
		return []byte(Placeholder), nil
	}
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// RespondToChallenge answers a heartbeat challenge by HMACing it under the
// check-in key derived from the session's auth key. Deterministic over
// exactly the challenge bytes; the auth key itself never leaves the session.
func (s *Session) RespondToChallenge(challenge []byte) ([]byte, error) {
	var response []byte
	err := s.WithKeys(func(kh *crypto.KeyHierarchy) error {
		checkinKey, err := crypto.CheckinKey(kh.AuthKey[:])
		if err != nil {
			return err
		}
		defer util.WipeBytes(checkinKey)
		response = liveness.Respond(challenge, checkinKey)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}
