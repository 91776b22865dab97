package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var (
	// ErrPassphraseRequired is returned for an encrypted file when no passphrase is set.
	ErrPassphraseRequired = errors.New("credentials are encrypted but no passphrase is set")
	// ErrInvalidCredentials is returned when the decoded file is not a JSON object.
	ErrInvalidCredentials = errors.New("credentials are not a JSON object")
)

// CredentialsLoader reads the service-account file used by the Sheets source.
// The file is either the plain JSON issued by Google or an EncryptedPayload
// whose passphrase is read from the PassphraseEnv variable.
type CredentialsLoader struct {
	path          string
	passphraseEnv string
	config        *EncryptionConfig
	logger        *slog.Logger
}

// NewCredentialsLoader creates a loader for path
func NewCredentialsLoader(path, passphraseEnv string, logger *slog.Logger) *CredentialsLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialsLoader{
		path:          path,
		passphraseEnv: passphraseEnv,
		config:        DefaultEncryptionConfig(),
		logger:        logger.With(slog.String("component", "credentials")),
	}
}

// WithEncryptionConfig overrides the key derivation parameters
func (l *CredentialsLoader) WithEncryptionConfig(config *EncryptionConfig) *CredentialsLoader {
	l.config = config
	return l
}

// Load returns the decoded service-account JSON
func (l *CredentialsLoader) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	payload, encrypted := parseEncryptedPayload(data)
	if !encrypted {
		if err := checkJSONObject(data); err != nil {
			return nil, err
		}
		l.logger.DebugContext(ctx, "Loaded plain credentials", slog.String("path", l.path))
		return data, nil
	}

	passphrase := os.Getenv(l.passphraseEnv)
	if passphrase == "" {
		return nil, fmt.Errorf("%w (%s)", ErrPassphraseRequired, l.passphraseEnv)
	}

	plaintext, err := DecryptCredentials(payload, []byte(passphrase), l.config)
	if err != nil {
		l.logger.WarnContext(ctx, "Credential decryption failed",
			slog.String("path", l.path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	if err := checkJSONObject(plaintext); err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "Loaded encrypted credentials", slog.String("path", l.path))
	return plaintext, nil
}

// EncryptFile writes an encrypted copy of the plain credential file at in to out.
func EncryptFile(in, out string, passphrase []byte, config *EncryptionConfig) error {
	plaintext, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}
	if err := checkJSONObject(plaintext); err != nil {
		return err
	}

	payload, err := EncryptCredentials(plaintext, passphrase, config)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	return nil
}

func parseEncryptedPayload(data []byte) (*EncryptedPayload, bool) {
	var payload EncryptedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	if payload.Version == 0 || len(payload.Ciphertext) == 0 {
		return nil, false
	}
	return &payload, true
}

func checkJSONObject(data []byte) error {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return nil
}
