// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// KDF names a supported password key-derivation function.
type KDF string

const (
	KDFArgon2id KDF = "argon2id"
	KDFBcrypt   KDF = "bcrypt"
)

const (
	argonSaltBytes = 16
	argonKeyBytes  = 32

	// bcrypt ignores everything after 72 bytes; longer inputs are pre-hashed.
	bcryptMaxInput = 72
)

// ErrMalformedVerifier is returned when a stored verifier cannot be parsed.
var ErrMalformedVerifier = errors.New("sec: malformed password verifier")

// HasherConfig selects the KDF and its cost parameters.
type HasherConfig struct {
	Algorithm KDF
	// Cost is the argon2 iteration count or the bcrypt cost factor.
	Cost int
	// MemoryKiB is the argon2 memory parameter. Ignored by bcrypt.
	MemoryKiB uint32
	// Threads is the argon2 parallelism. Ignored by bcrypt.
	Threads uint8
}

// PasswordHasher produces and checks salted password verifiers.
//
// Verification dispatches on the verifier prefix, so argon2id and bcrypt
// verifiers can coexist while an installation migrates between them.
type PasswordHasher struct {
	config HasherConfig
	dummy  string
}

// NewPasswordHasher validates cfg and precomputes the verifier used for
// dummy passes against unknown usernames.
func NewPasswordHasher(cfg HasherConfig) (*PasswordHasher, error) {
	if cfg.Threads == 0 {
		cfg.Threads = 2
	}

	switch cfg.Algorithm {
	case KDFArgon2id:
		if cfg.Cost < 1 {
			return nil, fmt.Errorf("sec: argon2id iterations must be >= 1, got %d", cfg.Cost)
		}
		if cfg.MemoryKiB < 8*uint32(cfg.Threads) {
			return nil, fmt.Errorf("sec: argon2id memory must be >= %d KiB", 8*uint32(cfg.Threads))
		}
	case KDFBcrypt:
		if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("sec: bcrypt cost must be in [%d,%d], got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.Cost)
		}
	default:
		return nil, fmt.Errorf("sec: unsupported kdf %q", cfg.Algorithm)
	}

	hasher := &PasswordHasher{config: cfg}

	dummyPassword, err := GenerateSecureToken(DefaultTokenBytes)
	if err != nil {
		return nil, err
	}
	hasher.dummy, err = hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("sec: precompute dummy verifier: %w", err)
	}

	return hasher, nil
}

// Hash derives a verifier for password with a fresh random salt.
func (hasher *PasswordHasher) Hash(password string) (string, error) {
	switch hasher.config.Algorithm {
	case KDFBcrypt:
		hashed, err := bcrypt.GenerateFromPassword(bcryptInput(password), hasher.config.Cost)
		if err != nil {
			return "", fmt.Errorf("sec: bcrypt hash: %w", err)
		}
		return string(hashed), nil
	default:
		salt := make([]byte, argonSaltBytes)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("sec: read salt: %w", err)
		}
		params := argonParams{
			memory:  hasher.config.MemoryKiB,
			time:    uint32(hasher.config.Cost),
			threads: hasher.config.Threads,
		}
		key := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, argonKeyBytes)
		return params.encode(salt, key), nil
	}
}

// Verify reports whether password matches the stored verifier.
// A malformed verifier returns false together with [ErrMalformedVerifier].
func (hasher *PasswordHasher) Verify(password, verifier string) (bool, error) {
	switch {
	case strings.HasPrefix(verifier, "$argon2id$"):
		params, salt, key, err := decodeArgon(verifier)
		if err != nil {
			return false, err
		}
		candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(key)))
		return subtle.ConstantTimeCompare(candidate, key) == 1, nil

	case strings.HasPrefix(verifier, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(verifier), bcryptInput(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrMalformedVerifier, err)
		}
		return true, nil

	default:
		return false, ErrMalformedVerifier
	}
}

// DummyVerify spends the same KDF work as a real verification. It is called
// for unknown usernames so response time does not reveal account existence.
func (hasher *PasswordHasher) DummyVerify(password string) {
	_, _ = hasher.Verify(password, hasher.dummy)
}

// NeedsRehash reports whether verifier was produced with a different KDF or
// weaker parameters than the hasher is configured for.
func (hasher *PasswordHasher) NeedsRehash(verifier string) bool {
	switch hasher.config.Algorithm {
	case KDFBcrypt:
		cost, err := bcrypt.Cost([]byte(verifier))
		return err != nil || cost < hasher.config.Cost
	default:
		params, _, _, err := decodeArgon(verifier)
		if err != nil {
			return true
		}
		return params.time < uint32(hasher.config.Cost) ||
			params.memory < hasher.config.MemoryKiB ||
			params.threads != hasher.config.Threads
	}
}

// # Encoding

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

// encode renders the PHC string form "$argon2id$v=19$m=..,t=..,p=..$salt$key".
func (params argonParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.memory, params.time, params.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decodeArgon(verifier string) (argonParams, []byte, []byte, error) {
	var params argonParams

	parts := strings.Split(verifier, "$")
	if len(parts) != 6 || parts[1] != string(KDFArgon2id) {
		return params, nil, nil, ErrMalformedVerifier
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, ErrMalformedVerifier
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return params, nil, nil, ErrMalformedVerifier
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, ErrMalformedVerifier
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, ErrMalformedVerifier
	}

	return params, salt, key, nil
}

// bcryptInput pre-hashes inputs bcrypt would otherwise reject or truncate.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
