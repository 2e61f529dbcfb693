package envelope

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/heirloom-app/heirloom/internal/util"
)

// ErrDecryption is the only error Decrypt returns. Wrong key, tampered
// ciphertext, tampered DEK wrap and unsupported suite all collapse into it so
// the codec cannot be used as a decryption oracle.
var ErrDecryption = errors.New("decryption failed")

// suite is a concrete AEAD implementation registered for one (algo, version)
// pair. Both seal and open operate on nonce || ciphertext blobs.
type suite interface {
	Seal(plaintext, key []byte) ([]byte, error)
	Open(blob, key []byte) ([]byte, error)
}

type suiteKey struct {
	Algo    Algorithm
	Version int
}

// Codec encrypts and decrypts envelopes. Encrypt always uses the current
// default suite; Decrypt dispatches on whatever (algo, version) the envelope
// declares. Removing a suite from the registry is a breaking migration, never
// a silent default.
type Codec struct {
	registry   map[suiteKey]suite
	defaultKey suiteKey
}

// NewCodec returns a codec with all supported suites registered and
// AES-256-GCM v1 as the default.
func NewCodec() *Codec {
	c := &Codec{registry: make(map[suiteKey]suite)}
	c.register(AlgoAES256GCM, 1, aesGCMSuite{})
	c.register(AlgoXChaCha20Poly1305, 1, xchachaSuite{})
	c.defaultKey = suiteKey{AlgoAES256GCM, 1}
	return c
}

func (c *Codec) register(algo Algorithm, version int, s suite) {
	c.registry[suiteKey{algo, version}] = s
}

// SetDefault switches the suite used for new envelopes. Existing envelopes
// keep decrypting under their declared suite.
func (c *Codec) SetDefault(algo Algorithm, version int) error {
	k := suiteKey{algo, version}
	if _, ok := c.registry[k]; !ok {
		return fmt.Errorf("suite %s/v%d is not registered", algo, version)
	}
	c.defaultKey = k
	return nil
}

// Default returns the (algo, version) used for new envelopes.
func (c *Codec) Default() (Algorithm, int) {
	return c.defaultKey.Algo, c.defaultKey.Version
}

// Encrypt seals plaintext under a fresh random DEK and wraps the DEK under
// kek, both with the current default suite. Every call produces a different
// ciphertext even for identical plaintext.
func (c *Codec) Encrypt(plaintext, kek []byte) (*Envelope, error) {
	s := c.registry[c.defaultKey]

	dek := make([]byte, util.AESKeySize)
	if _, err := io.ReadFull(rand.Reader, dek); err != nil {
		return nil, fmt.Errorf("generating DEK: %w", err)
	}
	defer util.WipeBytes(dek)

	ciphertext, err := s.Seal(plaintext, dek)
	if err != nil {
		return nil, fmt.Errorf("sealing plaintext: %w", err)
	}

	encryptedDEK, err := s.Seal(dek, kek)
	if err != nil {
		return nil, fmt.Errorf("wrapping DEK: %w", err)
	}

	return &Envelope{
		Ciphertext:   ciphertext,
		EncryptedDEK: encryptedDEK,
		Algo:         c.defaultKey.Algo,
		Version:      c.defaultKey.Version,
	}, nil
}

// Decrypt unwraps the envelope's DEK under kek and opens the ciphertext with
// it, using the suite the envelope declares.
func (c *Codec) Decrypt(env *Envelope, kek []byte) ([]byte, error) {
	if env == nil {
		return nil, ErrDecryption
	}
	s, ok := c.registry[suiteKey{env.Algo, env.Version}]
	if !ok {
		return nil, ErrDecryption
	}

	dek, err := s.Open(env.EncryptedDEK, kek)
	if err != nil {
		return nil, ErrDecryption
	}
	defer util.WipeBytes(dek)

	plaintext, err := s.Open(env.Ciphertext, dek)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

type aesGCMSuite struct{}

func (aesGCMSuite) Seal(plaintext, key []byte) ([]byte, error) {
	return util.EncryptAES(plaintext, key)
}

func (aesGCMSuite) Open(blob, key []byte) ([]byte, error) {
	return util.DecryptAES(blob, key)
}

type xchachaSuite struct{}

func (xchachaSuite) Seal(plaintext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (xchachaSuite) Open(blob, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305: %w", err)
	}
	if len(blob) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext shorter than nonce size")
	}
	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
