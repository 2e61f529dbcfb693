// Package liveness implements the heartbeat challenge-response protocol: the
// server issues a random nonce, the client proves possession of the vault's
// check-in key by returning its HMAC, and the server acknowledges liveness.
// Key material is never transmitted. The authenticator itself is stateless
// and pure; challenge single-use is enforced server-side.
package liveness

import "github.com/heirloom-app/heirloom/internal/util"

// Respond computes the deterministic HMAC-SHA256 response over exactly the
// challenge bytes.
func Respond(challenge, key []byte) []byte {
	return util.HMACSHA256(key, challenge)
}

// Verify recomputes the expected response and compares in constant time.
func Verify(challenge, response, key []byte) bool {
	return util.ConstantTimeEqual(Respond(challenge, key), response)
}
