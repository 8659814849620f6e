package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// Password schemes accepted by PasswordVerifierFor.
const (
	PasswordSchemePlain    = "plain"
	PasswordSchemeArgon2id = "argon2id"
)

// PasswordVerifier compares a stored password value with a candidate. It returns
// ErrInvalidCredentials on mismatch.
type PasswordVerifier func(stored, password string) error

// PlainPassword compares the stored value with the candidate exactly.
func PlainPassword(stored, password string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1 {
		return nil
	}
	return ErrInvalidCredentials
}

// PasswordVerifierFor returns the verifier for a configured scheme.
func PasswordVerifierFor(scheme string) (PasswordVerifier, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case PasswordSchemePlain, "":
		return PlainPassword, nil
	case PasswordSchemeArgon2id:
		return VerifyPassword, nil
	}
	return nil, fmt.Errorf("unknown password scheme %q", scheme)
}

// PasswordHasherFor returns the function that turns a plaintext password into its stored form,
// or nil when the scheme stores plaintext.
func PasswordHasherFor(scheme string) (func(string) (string, error), error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case PasswordSchemePlain, "":
		return nil, nil
	case PasswordSchemeArgon2id:
		return func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}, nil
	}
	return nil, fmt.Errorf("unknown password scheme %q", scheme)
}

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// CreatePasswordHash encodes password as $argon2id$v=19$m=...,t=...,p=...$salt$hash.
func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks password against an argon2id hash produced by CreatePasswordHash.
func VerifyPassword(hashedPassword, password string) error {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return ErrInvalidPasswordHash
	}
	if version != argon2.Version {
		return ErrIncompatiblePasswordVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return ErrInvalidPasswordHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ErrInvalidPasswordHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ErrInvalidPasswordHash
	}

	got := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(want)))
	if subtle.ConstantTimeCompare(want, got) == 1 {
		return nil
	}
	return ErrInvalidCredentials
}
