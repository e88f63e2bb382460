// Package adminauth hashes and verifies the single shared operator bearer
// token used by the admin API (spec.md §6). The encoding follows the
// standard $argon2id$v=...$m=...,t=...,p=...$salt$hash layout the teacher's
// internal/auth.HashPassword/CheckPassword (internal/auth/hasher.go) also
// uses, but the cost parameters and call shape are tuned for FEP's
// middleware.AdminAuth, which re-runs CheckToken on every admin-API request
// rather than once at login: see defaultParams below.
package adminauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

type params struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// defaultParams trades the teacher's login-time cost for one safe to pay on
// every request: memory is cut to 19MiB (argon2.IDKey's own recommended
// floor for interactive use) so AdminAuth doesn't add tens of milliseconds
// of latency to routes that already run behind RateLimit.
var defaultParams = params{
	memory:      19 * 1024,
	iterations:  2,
	parallelism: 1,
	saltLength:  16,
	keyLength:   32,
}

// HashToken produces an encoded Argon2id hash of token, for the operator to
// place in config as admin.token_hash. Run offline (fepd hash-token, say),
// not on the request path, so its cost doesn't need to match CheckToken's.
func HashToken(token string) (string, error) {
	salt := make([]byte, defaultParams.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("adminauth: generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(token), salt, defaultParams.iterations, defaultParams.memory, defaultParams.parallelism, defaultParams.keyLength)
	return encodeHash(defaultParams, salt, hash), nil
}

func encodeHash(p params, salt, hash []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.iterations, p.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

// decodeHash parses the $argon2id$... layout HashToken writes. The cost
// parameters travel inside the hash itself so a deployed token_hash keeps
// verifying correctly even after defaultParams changes in a future release.
func decodeHash(encodedHash string) (p params, salt, hash []byte, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return p, nil, nil, errors.New("adminauth: invalid hash format")
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("adminauth: incompatible variant %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, err
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("adminauth: incompatible argon2 version %d", version)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, err
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, err
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, err
	}
	p.keyLength = uint32(len(hash))
	return p, salt, hash, nil
}

// CheckToken reports whether token matches encodedHash. Used on every admin
// API request by middleware.AdminAuth, so it must tolerate whatever cost
// parameters the hash was encoded with even if defaultParams has since moved.
func CheckToken(token, encodedHash string) (bool, error) {
	p, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	otherHash := argon2.IDKey([]byte(token), salt, p.iterations, p.memory, p.parallelism, p.keyLength)
	return subtle.ConstantTimeCompare(hash, otherHash) == 1, nil
}
