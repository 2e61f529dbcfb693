package util

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSHA256 computes HMAC-SHA256 over exactly the given message bytes.
func HMACSHA256(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// ConstantTimeEqual compares two MACs without leaking timing.
func ConstantTimeEqual(a, b []byte) bool {
	return hmac.Equal(a, b)
}
