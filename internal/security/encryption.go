package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/scrypt"
)

// PayloadVersion is the only encrypted payload format understood.
const PayloadVersion = 1

var (
	ErrEmptyPlaintext     = errors.New("plaintext cannot be empty")
	ErrEmptyPassphrase    = errors.New("passphrase cannot be empty")
	ErrIntegrityMismatch  = errors.New("integrity verification failed")
	ErrUnsupportedVersion = errors.New("unsupported payload version")
)

// EncryptionConfig defines key derivation and cipher parameters
type EncryptionConfig struct {
	SCryptN      int // CPU/memory cost
	SCryptR      int // block size
	SCryptP      int // parallelization
	SCryptKeyLen int // 32 for AES-256
	SaltSize     int
	NonceSize    int
}

// EncryptedPayload is the at-rest form of a service-account credential file
type EncryptedPayload struct {
	Version    uint8  `json:"version"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"` // includes the GCM tag
	Integrity  []byte `json:"integrity"`
	Timestamp  int64  `json:"timestamp"`
}

// DefaultEncryptionConfig returns OWASP-recommended scrypt parameters with AES-256-GCM
func DefaultEncryptionConfig() *EncryptionConfig {
	return &EncryptionConfig{
		SCryptN:      32768,
		SCryptR:      8,
		SCryptP:      1,
		SCryptKeyLen: 32,
		SaltSize:     32,
		NonceSize:    12,
	}
}

// EncryptCredentials seals plaintext with a key derived from passphrase.
func EncryptCredentials(plaintext, passphrase []byte, config *EncryptionConfig) (*EncryptedPayload, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if config == nil {
		config = DefaultEncryptionConfig()
	}

	salt := make([]byte, config.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt, config)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, config.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedPayload{
		Version:    PayloadVersion,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Integrity:  integrityHash(ciphertext, salt, nonce),
		Timestamp:  time.Now().Unix(),
	}, nil
}

// DecryptCredentials verifies and opens payload
func DecryptCredentials(payload *EncryptedPayload, passphrase []byte, config *EncryptionConfig) ([]byte, error) {
	if payload == nil {
		return nil, errors.New("payload cannot be nil")
	}
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	if config == nil {
		config = DefaultEncryptionConfig()
	}
	if payload.Version != PayloadVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, payload.Version)
	}

	expected := integrityHash(payload.Ciphertext, payload.Salt, payload.Nonce)
	if subtle.ConstantTimeCompare(payload.Integrity, expected) != 1 {
		return nil, ErrIntegrityMismatch
	}

	gcm, err := newGCM(passphrase, payload.Salt, config)
	if err != nil {
		return nil, err
	}
	if len(payload.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(payload.Nonce))
	}

	plaintext, err := gcm.Open(nil, payload.Nonce, payload.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

func newGCM(passphrase, salt []byte, config *EncryptionConfig) (cipher.AEAD, error) {
	key, err := scrypt.Key(passphrase, salt, config.SCryptN, config.SCryptR, config.SCryptP, config.SCryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	defer wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, config.NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func integrityHash(ciphertext, salt, nonce []byte) []byte {
	h := sha256.New()
	h.Write([]byte("FLIGHTOPS-CREDENTIALS-V1"))
	h.Write(ciphertext)
	h.Write(salt)
	h.Write(nonce)
	return h.Sum(nil)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
