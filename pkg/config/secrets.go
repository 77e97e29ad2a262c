package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/scrypt"
)

// Secrets file parameters.
const (
	saltSize  = 16
	nonceSize = 12
	scryptN   = 32768 // 2^15
	scryptR   = 8
	scryptP   = 1
	keySize   = 32 // AES-256
)

// Environment variable names checked when a key is absent from the secrets file.
//
//nolint:gochecknoglobals // Static lookup table
var providerEnvVars = map[string]string{
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderGoogle:    "GEMINI_API_KEY",
}

// ConfigurationError indicates missing or unusable provider credentials.
// It is raised eagerly at client construction time, before any network call.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Global state for decrypted secrets.
//
//nolint:gochecknoglobals // Intentional in-memory secrets storage
var (
	decryptedSecrets    map[string]string
	decryptedSecretsMux sync.RWMutex
)

// SetDecryptedSecrets stores decrypted secrets in memory.
func SetDecryptedSecrets(secrets map[string]string) {
	decryptedSecretsMux.Lock()
	defer decryptedSecretsMux.Unlock()
	decryptedSecrets = secrets
}

// APIKeyForProvider resolves the API key for a provider using standard precedence:
//  1. Decrypted secrets file (in memory)
//  2. Environment variables
//
// Ollama runs locally and needs no key. A missing key returns *ConfigurationError.
func APIKeyForProvider(provider string) (string, error) {
	if provider == ProviderOllama {
		return "", nil
	}

	envVar, ok := providerEnvVars[provider]
	if !ok {
		return "", &ConfigurationError{Message: fmt.Sprintf("unknown provider %q", provider)}
	}

	decryptedSecretsMux.RLock()
	if decryptedSecrets != nil {
		if value, exists := decryptedSecrets[envVar]; exists && value != "" {
			decryptedSecretsMux.RUnlock()
			return value, nil
		}
	}
	decryptedSecretsMux.RUnlock()

	if value := os.Getenv(envVar); value != "" {
		return value, nil
	}

	return "", &ConfigurationError{
		Message: fmt.Sprintf("no API key for provider %q: set %s or add it to the secrets file", provider, envVar),
	}
}

// LoadSecretsFile decrypts the secrets file with the given password and stores
// the result in memory for APIKeyForProvider.
func LoadSecretsFile(path, password string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read secrets file: %w", err)
	}

	secrets, err := decryptSecrets(data, password)
	if err != nil {
		return err
	}

	SetDecryptedSecrets(secrets)
	return nil
}

// SaveSecretsFile encrypts the given secrets map with the password and writes
// it to path with owner-only permissions.
func SaveSecretsFile(path, password string, secrets map[string]string) error {
	data, err := encryptSecrets(secrets, password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write secrets file: %w", err)
	}
	return nil
}

// encryptSecrets serializes and encrypts a secrets map.
// Layout: salt (16) || nonce (12) || AES-256-GCM ciphertext.
func encryptSecrets(secrets map[string]string, password string) ([]byte, error) {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return nil, fmt.Errorf("marshal secrets: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, saltSize+nonceSize+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// decryptSecrets reverses encryptSecrets.
func decryptSecrets(data []byte, password string) (map[string]string, error) {
	if len(data) < saltSize+nonceSize {
		return nil, fmt.Errorf("secrets file too short")
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	ciphertext := data[saltSize+nonceSize:]

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt secrets: wrong password or corrupt file: %w", err)
	}

	var secrets map[string]string
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("unmarshal secrets: %w", err)
	}
	return secrets, nil
}
