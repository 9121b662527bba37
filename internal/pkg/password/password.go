package password

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const (
	// SaltBytes is the amount of random data behind every salt (256 bits)
	SaltBytes = 32

	// KeyLength is the derived key length in bytes
	KeyLength = 32
)

var (
	// ErrValidationFailed is returned for any mismatch or malformed stored hash
	ErrValidationFailed = errors.New("password validation failed")

	errMalformedHash = errors.New("malformed password hash")
)

// Params controls the argon2id cost
type Params struct {
	MemoryKB    uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams are used when no explicit cost is configured
var DefaultParams = Params{
	MemoryKB:    64 * 1024,
	Iterations:  3,
	Parallelism: 2,
}

// Hasher runs argon2id on a bounded pool so that concurrent logins cannot
// exhaust memory. It is safe for concurrent use.
type Hasher struct {
	params Params
	sem    *semaphore.Weighted
}

// NewHasher creates a hasher allowing at most workers concurrent derivations
func NewHasher(params Params, workers int) *Hasher {
	if workers < 1 {
		workers = 1
	}
	if params.MemoryKB == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		params = DefaultParams
	}
	return &Hasher{
		params: params,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

// GenerateSalt returns a hex encoded 256-bit random salt
func GenerateSalt() (string, error) {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Hash derives the encoded hash of plaintext with the given salt
func (h *Hasher) Hash(ctx context.Context, plaintext, salt string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	key := derive(plaintext, salt, h.params)
	return encode(h.params, key), nil
}

// Verify reports whether plaintext with salt matches the encoded hash.
// The returned error is only non-nil when ctx ends before a worker is free.
func (h *Hasher) Verify(ctx context.Context, plaintext, salt, encoded string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return Verify(plaintext, salt, encoded, h.params), nil
}

// Verify compares plaintext+salt against encoded without the worker pool.
// A malformed encoded value still costs one full derivation with fallback.
func Verify(plaintext, salt, encoded string, fallback Params) bool {
	params, want, err := decode(encoded)
	if err != nil {
		params = fallback
		want = make([]byte, KeyLength)
	}

	got := derive(plaintext, salt, params)
	match := subtle.ConstantTimeCompare(got, want) == 1
	return match && err == nil
}

func derive(plaintext, salt string, p Params) []byte {
	return argon2.IDKey([]byte(plaintext), []byte(salt), p.Iterations, p.MemoryKB, p.Parallelism, KeyLength)
}

// encode renders the PHC string form: $argon2id$v=19$m=...,t=...,p=...$<key>
func encode(p Params, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version,
		p.MemoryKB,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decode(encoded string) (Params, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[1] != "argon2id" {
		return Params{}, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, errMalformedHash
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKB, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, nil, errMalformedHash
	}
	if p.MemoryKB == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return Params{}, nil, errMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key) != KeyLength {
		return Params{}, nil, errMalformedHash
	}

	return p, key, nil
}

// HashToken hashes a token using SHA256 (for log correlation without exposing the token)
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidatePassword checks if password meets requirements for newly set passwords
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
