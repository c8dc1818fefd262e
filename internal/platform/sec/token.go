// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sec provides the cryptographic primitives behind sessions and accounts.

It isolates security-sensitive code (token minting, password hashing, request
fingerprints, constant-time comparison) from the domain services that use it.

Guarantees:

  - Tokens come from crypto/rand only and carry no meaning in their bytes.
  - Only hashes of tokens are persisted; raw values live in cookies and links.
  - Secret comparisons never short-circuit on the first differing byte.
*/
package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// DefaultTokenBytes is the entropy of every minted token (256 bits).
const DefaultTokenBytes = 32

// minTokenBytes keeps callers from asking for less than 128 bits.
const minTokenBytes = 16

// GenerateSecureToken returns n random bytes from the CSPRNG encoded as
// unpadded base64url, suitable for cookies, form fields and URLs.
func GenerateSecureToken(n int) (string, error) {
	if n < minTokenBytes {
		n = minTokenBytes
	}

	buffer := make([]byte, n)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: read random bytes: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the hex SHA-256 digest used as the storage key of a token.
// Tokens already carry full entropy, so a fast unsalted hash is sufficient.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ConstantTimeEqual compares two secrets without leaking the position of the
// first mismatch. Empty values never match.
func ConstantTimeEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
