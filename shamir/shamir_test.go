package shamir

import (
	"bytes"
	"errors"
	"testing"

	"github.com/heirloom-app/heirloom/internal/util"
)

func TestGF256(t *testing.T) {
	for a := 1; a < 256; a++ {
		inv := gfInv(byte(a))
		if got := gfMul(byte(a), inv); got != 1 {
			t.Fatalf("gfMul(%d, gfInv(%d)) = %d, want 1", a, a, got)
		}
	}
	if gfMul(0, 0x53) != 0 {
		t.Error("multiplication by zero must be zero")
	}
	// Known AES field product: 0x53 * 0xCA = 0x01.
	if got := gfMul(0x53, 0xca); got != 0x01 {
		t.Errorf("gfMul(0x53, 0xca) = %#x, want 0x01", got)
	}
}

func TestSplitCombine_AllThresholdSubsets(t *testing.T) {
	secret, err := util.RandomBytes(32)
	if err != nil {
		t.Fatalf("generating secret: %v", err)
	}

	shares, err := Split(secret, 3, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(shares) != 5 {
		t.Fatalf("expected 5 shares, got %d", len(shares))
	}

	// Any 3-subset of the 5 shares reconstructs the secret exactly.
	for i := 0; i < 5; i++ {
		for j := i + 1; j < 5; j++ {
			for k := j + 1; k < 5; k++ {
				subset := []Share{shares[i], shares[j], shares[k]}
				recovered, err := Combine(subset)
				if err != nil {
					t.Fatalf("Combine(%d,%d,%d) failed: %v", i, j, k, err)
				}
				if !bytes.Equal(secret, recovered) {
					t.Fatalf("Combine(%d,%d,%d) recovered wrong secret", i, j, k)
				}
			}
		}
	}
}

func TestCombine_InsufficientShares(t *testing.T) {
	secret, _ := util.RandomBytes(32)
	shares, err := Split(secret, 3, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for n := 0; n < 3; n++ {
		_, err := Combine(shares[:n])
		if !errors.Is(err, ErrInsufficientShares) {
			t.Errorf("Combine with %d shares: expected ErrInsufficientShares, got %v", n, err)
		}
	}
}

func TestCombine_MixedSplitsRejected(t *testing.T) {
	secret1, _ := util.RandomBytes(32)
	secret2, _ := util.RandomBytes(32)

	sharesA, err := Split(secret1, 2, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	sharesB, err := Split(secret2, 2, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	_, err = Combine([]Share{sharesA[0], sharesB[1]})
	if !errors.Is(err, ErrInconsistentShares) {
		t.Errorf("expected ErrInconsistentShares for mixed splits, got %v", err)
	}
}

func TestCombine_DuplicateIndexRejected(t *testing.T) {
	secret, _ := util.RandomBytes(16)
	shares, err := Split(secret, 2, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	_, err = Combine([]Share{shares[0], shares[0]})
	if !errors.Is(err, ErrInconsistentShares) {
		t.Errorf("expected ErrInconsistentShares for duplicate index, got %v", err)
	}
}

func TestSplit_FreshPolynomialPerCall(t *testing.T) {
	secret, _ := util.RandomBytes(32)

	shares1, err := Split(secret, 2, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	shares2, err := Split(secret, 2, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if bytes.Equal(shares1[0].Value, shares2[0].Value) {
		t.Error("repeated splits of the same secret should produce unrelated share values")
	}
}

func TestSplit_Validation(t *testing.T) {
	secret := []byte("secret")

	if _, err := Split(nil, 2, 3); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := Split(secret, 1, 3); err == nil {
		t.Error("expected error for threshold below minimum")
	}
	if _, err := Split(secret, 4, 3); err == nil {
		t.Error("expected error for threshold above total")
	}
	if _, err := Split(secret, 2, 300); err == nil {
		t.Error("expected error for total above field capacity")
	}
}

func TestKnownRecovery_TwoOfThree(t *testing.T) {
	secret, err := util.RandomBytes(32)
	if err != nil {
		t.Fatalf("generating secret: %v", err)
	}

	shares, err := Split(secret, 2, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// Shares 1 and 3 alone recover the full 32 bytes.
	recovered, err := Combine([]Share{shares[0], shares[2]})
	if err != nil {
		t.Fatalf("Combine failed: %v", err)
	}
	if !bytes.Equal(secret, recovered) {
		t.Error("shares 1 and 3 must recover the original secret")
	}
}

func TestFormatParseShare_RoundTrip(t *testing.T) {
	secret, _ := util.RandomBytes(32)
	shares, err := Split(secret, 3, 5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for _, share := range shares {
		str := FormatShare(share)
		parsed, err := ParseShare(str)
		if err != nil {
			t.Fatalf("ParseShare(%q) failed: %v", str, err)
		}
		if parsed.GroupID != share.GroupID || parsed.Index != share.Index ||
			parsed.Threshold != share.Threshold || parsed.Total != share.Total ||
			!bytes.Equal(parsed.Value, share.Value) {
			t.Errorf("round trip mismatch for share %d", share.Index)
		}
	}
}

func TestParseShare_Invalid(t *testing.T) {
	tests := []struct {
		name string
		str  string
	}{
		{"Empty", ""},
		{"WrongPrefix", "X1-ABCDEF-1-2-3-aabbcc"},
		{"BadGroupChars", "S1-abc123-1-2-3-aabbcc"},
		{"MissingValue", "S1-ABCDEF-1-2-3-"},
		{"OddHex", "S1-ABCDEF-1-2-3-abc"},
		{"ZeroIndex", "S1-ABCDEF-0-2-3-aabbcc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseShare(tt.str); err == nil {
				t.Errorf("ParseShare(%q) expected error, got nil", tt.str)
			}
		})
	}
}
