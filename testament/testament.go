// Package testament implements the inheritance flow: the vault's root secret
// is split into N display-once shares with reconstruction threshold K and
// distributed to registered heirs, who can later reconstruct it together —
// no single heir, and not the server, ever holds the secret alone.
package testament

import (
	"errors"
	"fmt"

	"github.com/heirloom-app/heirloom/crypto"
	"github.com/heirloom-app/heirloom/internal/util"
	"github.com/heirloom-app/heirloom/shamir"
	"github.com/heirloom-app/heirloom/storage"
	"github.com/heirloom-app/heirloom/vault"
)

// ErrRecoveryFailed indicates the reconstructed secret did not verify against
// the vault's stored probe: the shares were consistent as a set but wrong.
var ErrRecoveryFailed = errors.New("recovered secret failed verification")

// Service manages heir records and the share generation/recovery procedures.
type Service struct {
	repo storage.Repository
}

// NewService returns a testament service over the given repository.
func NewService(repo storage.Repository) *Service {
	return &Service{repo: repo}
}

// GeneratedShare pairs a formatted display-once share string with the heir it
// was assigned to (empty HeirID when unassigned).
type GeneratedShare struct {
	HeirID string
	Share  string
}

// GenerateShares splits the vault's root secret into total shares with
// reconstruction threshold threshold. The session must be unlocked. Share
// indexes are assigned to registered heirs in creation order; any surplus
// shares are returned unassigned. The shares exist only in the returned
// value — they are never persisted, and this is the caller's single chance
// to display them.
func (s *Service) GenerateShares(session *vault.Session, threshold, total int) ([]GeneratedShare, error) {
	var shares []shamir.Share
	err := session.WithRootSecret(func(secret []byte) error {
		var err error
		shares, err = shamir.Split(secret, threshold, total)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range shares {
			util.WipeBytes(shares[i].Value)
		}
	}()

	heirs, err := s.ListHeirs()
	if err != nil {
		return nil, err
	}

	out := make([]GeneratedShare, len(shares))
	for i, share := range shares {
		out[i] = GeneratedShare{Share: shamir.FormatShare(share)}
		if i < len(heirs) {
			h := heirs[i]
			h.ShareIndex = int(share.Index)
			if err := s.saveHeir(&h); err != nil {
				return nil, fmt.Errorf("assigning share index to heir %s: %w", h.ID, err)
			}
			out[i].HeirID = h.ID
		}
	}
	return out, nil
}

// RecoverFromShares reconstructs the vault's master key material from
// formatted shares collected from heirs, then verifies it against the vault
// configuration's stored probe before returning it. Consistent-but-forged
// shares reconstruct a wrong secret silently; the verifier check catches
// that case and fails with ErrRecoveryFailed. The caller owns the returned
// key material and must wipe it.
func RecoverFromShares(formatted []string, cfg *vault.Config) ([]byte, error) {
	shares := make([]shamir.Share, 0, len(formatted))
	for i, str := range formatted {
		share, err := shamir.ParseShare(str)
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i+1, err)
		}
		shares = append(shares, share)
	}

	secret, err := shamir.Combine(shares)
	if err != nil {
		return nil, err
	}

	kh, err := crypto.ExpandKeys(secret)
	if err != nil {
		util.WipeBytes(secret)
		return nil, err
	}
	defer kh.Wipe()

	if !util.ConstantTimeEqual(crypto.AuthVerifier(kh.AuthKey[:]), cfg.Verifier) {
		util.WipeBytes(secret)
		return nil, ErrRecoveryFailed
	}
	return secret, nil
}
