// Package envelope implements per-field envelope encryption: every plaintext
// is sealed under a fresh data-encryption key (DEK), which is in turn wrapped
// under the vault's key-encryption key (KEK). Envelopes are self-describing
// and versioned so data written under an old cipher suite stays readable
// after the default changes.
package envelope

import (
	"encoding/json"

	"github.com/heirloom-app/heirloom/internal/util"
)

// Algorithm identifies the AEAD suite an envelope was produced with.
type Algorithm string

const (
	AlgoAES256GCM         Algorithm = "aes256gcm"
	AlgoXChaCha20Poly1305 Algorithm = "xchacha20poly1305"
)

// Envelope is the encrypted representation of one plaintext field. It is
// embedded in, and lifecycle-bound to, the record whose field it encrypts:
// written with the field, replaced wholesale on edit, deleted with the record.
type Envelope struct {
	Ciphertext   []byte    `json:"ciphertext"`
	EncryptedDEK []byte    `json:"encrypted_dek"`
	Algo         Algorithm `json:"algo"`
	Version      int       `json:"version"`
}

// envelopeJSON is the storage-boundary form: byte fields base64-encoded.
type envelopeJSON struct {
	Ciphertext   string    `json:"ciphertext"`
	EncryptedDEK string    `json:"encrypted_dek"`
	Algo         Algorithm `json:"algo"`
	Version      int       `json:"version"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeJSON{
		Ciphertext:   util.Base64Encode(e.Ciphertext),
		EncryptedDEK: util.Base64Encode(e.EncryptedDEK),
		Algo:         e.Algo,
		Version:      e.Version,
	})
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var ej envelopeJSON
	if err := json.Unmarshal(data, &ej); err != nil {
		return err
	}
	ciphertext, err := util.Base64Decode(ej.Ciphertext)
	if err != nil {
		return err
	}
	dek, err := util.Base64Decode(ej.EncryptedDEK)
	if err != nil {
		return err
	}
	e.Ciphertext = ciphertext
	e.EncryptedDEK = dek
	e.Algo = ej.Algo
	e.Version = ej.Version
	return nil
}
