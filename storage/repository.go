// Package storage provides the persistence abstraction for the vault's
// non-secret records: the KDF configuration and the heir registry. Encrypted
// field envelopes are embedded in the records that own them; key material is
// never stored.
package storage

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// Record types.
const (
	RecordTypeConfig   = "CONFIG"
	RecordTypeHeir     = "HEIR"
	RecordTypeEntry    = "ENTRY"
	RecordTypeLiveness = "LIVENESS"
)

// RecordIDConfig is the fixed ID of the singleton vault configuration record.
const RecordIDConfig = "current"

// Repository defines the interface for record storage. Values are opaque
// JSON blobs owned by the caller.
type Repository interface {
	Put(recordType string, recordID string, data []byte) error
	Get(recordType string, recordID string) ([]byte, error)
	List(recordType string) ([]string, error)
	Delete(recordType string, recordID string) error
}
