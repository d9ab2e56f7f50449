package hsm

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const saltLength = 16

// Config holds Argon2id parameters for PIN hashing
type Config struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
	Pepper    []byte // Optional: mixed into every PIN before hashing
}

// DefaultConfig returns the parameters used when none are configured
func DefaultConfig() Config {
	return Config{
		Time:      1,
		Memory:    64 * 1024,
		Threads:   4,
		KeyLength: 32,
	}
}

// PINVault hashes and verifies card PINs. It satisfies atm.PINHasher.
type PINVault struct {
	config Config
}

// NewPINVault creates a vault, filling zero parameters from DefaultConfig
func NewPINVault(config Config) (*PINVault, error) {
	def := DefaultConfig()
	if config.Time == 0 {
		config.Time = def.Time
	}
	if config.Memory == 0 {
		config.Memory = def.Memory
	}
	if config.Threads == 0 {
		config.Threads = def.Threads
	}
	if config.KeyLength == 0 {
		config.KeyLength = def.KeyLength
	}
	if config.KeyLength < 16 {
		return nil, errors.New("key length must be at least 16 bytes")
	}

	return &PINVault{config: config}, nil
}

// HashPIN hashes a PIN using Argon2
func (v *PINVault) HashPIN(pin string, salt []byte) (string, error) {
	if len(salt) == 0 {
		salt = make([]byte, saltLength)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("failed to generate salt: %w", err)
		}
	}
	if len(salt) != saltLength {
		return "", fmt.Errorf("salt must be %d bytes", saltLength)
	}

	hash := v.derive(pin, salt)

	// Combine salt + hash
	result := make([]byte, len(salt)+len(hash))
	copy(result, salt)
	copy(result[len(salt):], hash)

	return base64.StdEncoding.EncodeToString(result), nil
}

// VerifyPIN verifies a PIN against its hash
func (v *PINVault) VerifyPIN(pin string, hashedPIN string) (bool, error) {
	decoded, err := base64.StdEncoding.DecodeString(hashedPIN)
	if err != nil {
		return false, fmt.Errorf("invalid PIN hash format: %w", err)
	}

	if len(decoded) <= saltLength {
		return false, errors.New("PIN hash too short")
	}

	salt := decoded[:saltLength]
	storedHash := decoded[saltLength:]

	inputHash := v.derive(pin, salt)

	return subtle.ConstantTimeCompare(inputHash, storedHash) == 1, nil
}

func (v *PINVault) derive(pin string, salt []byte) []byte {
	material := append([]byte(pin), v.config.Pepper...)
	return argon2.IDKey(material, salt, v.config.Time, v.config.Memory, v.config.Threads, v.config.KeyLength)
}
