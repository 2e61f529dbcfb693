package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heirloom-app/heirloom/crypto"
	"github.com/heirloom-app/heirloom/storage"
)

const configVersion = 1

const saltLen = 16

// Config is the only persisted cryptographic state of a vault: the KDF salt
// and parameters needed to re-derive the master key, the unlock verifier, and
// the check-in key registered with the heartbeat server. It contains nothing
// that reveals the passphrase or any derived data key.
type Config struct {
	Salt       []byte                `json:"salt"`
	KDFParams  crypto.Argon2idParams `json:"kdf_params"`
	Verifier   []byte                `json:"verifier"`
	CheckinKey []byte                `json:"checkin_key"`
	CreatedAt  time.Time             `json:"created_at"`
	Ver        int                   `json:"ver"`
}

// LoadConfig reads the singleton vault configuration record.
func LoadConfig(repo storage.Repository) (*Config, error) {
	data, err := repo.Get(storage.RecordTypeConfig, storage.RecordIDConfig)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("loading vault config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling vault config: %w", err)
	}
	if cfg.Ver != configVersion {
		return nil, fmt.Errorf("unsupported vault config version: %d", cfg.Ver)
	}
	return &cfg, nil
}

// SaveConfig persists the singleton vault configuration record.
func SaveConfig(repo storage.Repository, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling vault config: %w", err)
	}
	if err := repo.Put(storage.RecordTypeConfig, storage.RecordIDConfig, data); err != nil {
		return fmt.Errorf("saving vault config: %w", err)
	}
	return nil
}
