package testament

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/heirloom-app/heirloom/storage"
)

// Role distinguishes ordinary heirs from the executor coordinating recovery.
type Role string

const (
	RoleHeir     Role = "heir"
	RoleExecutor Role = "executor"
)

// Heir is a purely administrative record associating a person with,
// optionally, one share index. It carries no cryptographic material; the
// share itself is handed over out of band and never stored.
type Heir struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	ShareIndex int       `json:"share_index,omitempty"` // 0 = unassigned
	CreatedAt  time.Time `json:"created_at"`
}

func validateRole(role Role) error {
	if role != RoleHeir && role != RoleExecutor {
		return fmt.Errorf("invalid heir role %q", role)
	}
	return nil
}

// AddHeir registers a new heir.
func (s *Service) AddHeir(name, email string, role Role) (*Heir, error) {
	if name == "" {
		return nil, fmt.Errorf("heir name must not be empty")
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}
	h := &Heir{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := s.saveHeir(h); err != nil {
		return nil, err
	}
	return h, nil
}

// GetHeir loads one heir record.
func (s *Service) GetHeir(id string) (*Heir, error) {
	data, err := s.repo.Get(storage.RecordTypeHeir, id)
	if err != nil {
		return nil, err
	}
	var h Heir
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("unmarshaling heir record: %w", err)
	}
	return &h, nil
}

// ListHeirs returns all heirs ordered by creation time.
func (s *Service) ListHeirs() ([]Heir, error) {
	ids, err := s.repo.List(storage.RecordTypeHeir)
	if err != nil {
		return nil, err
	}
	heirs := make([]Heir, 0, len(ids))
	for _, id := range ids {
		h, err := s.GetHeir(id)
		if err != nil {
			return nil, err
		}
		heirs = append(heirs, *h)
	}
	sort.Slice(heirs, func(i, j int) bool {
		return heirs[i].CreatedAt.Before(heirs[j].CreatedAt)
	})
	return heirs, nil
}

// RemoveHeir deletes an heir record. Any share already handed to that person
// remains valid; revoking it requires generating a fresh split.
func (s *Service) RemoveHeir(id string) error {
	return s.repo.Delete(storage.RecordTypeHeir, id)
}

func (s *Service) saveHeir(h *Heir) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling heir record: %w", err)
	}
	return s.repo.Put(storage.RecordTypeHeir, h.ID, data)
}
