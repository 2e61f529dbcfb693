// Package shamir implements Shamir threshold secret sharing over GF(2^8).
// A secret split with threshold K into N shares is reconstructible from any K
// of them, while K-1 or fewer shares reveal nothing about the secret — the
// guarantee is information-theoretic, not computational.
package shamir

import (
	"errors"
	"fmt"

	"github.com/heirloom-app/heirloom/internal/util"
)

var (
	// ErrInsufficientShares is returned when fewer shares than the declared
	// threshold are supplied to Combine.
	ErrInsufficientShares = errors.New("insufficient shares for reconstruction")
	// ErrInconsistentShares is returned when the supplied shares do not all
	// belong to the same split.
	ErrInconsistentShares = errors.New("shares belong to different splits")
)

const (
	// MinThreshold is the smallest permitted reconstruction threshold.
	MinThreshold = 2
	// MaxShares is the largest permitted share count; x coordinates live in
	// GF(2^8) \ {0}.
	MaxShares = 255

	groupIDLen = 6
)

// Share is one fragment of a split secret. Shares are display-once artifacts
// handed to the user for offline distribution; the system never stores them.
type Share struct {
	// GroupID tags all shares of one split so mixed-split reconstruction
	// attempts are detectable.
	GroupID   string `json:"group_id"`
	Index     uint8  `json:"index"`
	Threshold uint8  `json:"threshold"`
	Total     uint8  `json:"total"`
	Value     []byte `json:"value"`
}

// Split divides secret into total shares with reconstruction threshold
// threshold. A fresh random polynomial is drawn per call, so repeated splits
// of the same secret produce unrelated share values.
func Split(secret []byte, threshold, total int) ([]Share, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret must not be empty")
	}
	if threshold < MinThreshold {
		return nil, fmt.Errorf("threshold must be at least %d, got %d", MinThreshold, threshold)
	}
	if total > MaxShares {
		return nil, fmt.Errorf("total shares must be at most %d, got %d", MaxShares, total)
	}
	if threshold > total {
		return nil, fmt.Errorf("threshold %d exceeds total shares %d", threshold, total)
	}

	groupID, err := util.RandomChars(groupIDLen)
	if err != nil {
		return nil, fmt.Errorf("generating group ID: %w", err)
	}

	shares := make([]Share, total)
	for i := range shares {
		shares[i] = Share{
			GroupID:   groupID,
			Index:     uint8(i + 1),
			Threshold: uint8(threshold),
			Total:     uint8(total),
			Value:     make([]byte, len(secret)),
		}
	}

	// One random polynomial per secret byte: constant term is the secret
	// byte, the remaining threshold-1 coefficients are uniform random.
	coefficients := make([]byte, threshold)
	defer util.WipeBytes(coefficients)
	for byteIdx, secretByte := range secret {
		coefficients[0] = secretByte
		random, err := util.RandomBytes(threshold - 1)
		if err != nil {
			return nil, fmt.Errorf("generating polynomial coefficients: %w", err)
		}
		copy(coefficients[1:], random)
		util.WipeBytes(random)

		for i := range shares {
			shares[i].Value[byteIdx] = polyEval(coefficients, shares[i].Index)
		}
	}

	return shares, nil
}

// Combine reconstructs the secret from the supplied shares. It requires at
// least as many shares as the threshold the shares declare, and that all
// shares carry matching split metadata. Forged shares that pass the metadata
// checks reconstruct a wrong secret silently; callers must verify the result
// against an independent check, such as an attempted vault unlock.
func Combine(shares []Share) ([]byte, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("%w: no shares supplied", ErrInsufficientShares)
	}

	first := shares[0]
	if first.Threshold < MinThreshold {
		return nil, fmt.Errorf("%w: threshold %d below minimum", ErrInconsistentShares, first.Threshold)
	}
	seen := make(map[uint8]bool, len(shares))
	for _, s := range shares {
		if s.GroupID != first.GroupID || s.Threshold != first.Threshold || s.Total != first.Total {
			return nil, fmt.Errorf("%w: metadata mismatch", ErrInconsistentShares)
		}
		if len(s.Value) != len(first.Value) {
			return nil, fmt.Errorf("%w: share length mismatch", ErrInconsistentShares)
		}
		if s.Index == 0 || s.Index > s.Total {
			return nil, fmt.Errorf("%w: share index %d out of range", ErrInconsistentShares, s.Index)
		}
		if seen[s.Index] {
			return nil, fmt.Errorf("%w: duplicate share index %d", ErrInconsistentShares, s.Index)
		}
		seen[s.Index] = true
	}

	if len(shares) < int(first.Threshold) {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientShares, len(shares), first.Threshold)
	}

	// Only the first threshold shares participate; extras are redundant.
	subset := shares[:first.Threshold]
	xs := make([]byte, len(subset))
	for i, s := range subset {
		xs[i] = s.Index
	}

	secret := make([]byte, len(first.Value))
	ys := make([]byte, len(subset))
	for byteIdx := range secret {
		for i, s := range subset {
			ys[i] = s.Value[byteIdx]
		}
		secret[byteIdx] = interpolateAtZero(xs, ys)
	}

	return secret, nil
}
