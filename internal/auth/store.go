package auth

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/99designs/keyring"
)

const serviceName = "lazyca"

// Secret kinds kept per backend and user
const (
	KindPassword = "password"
	KindToken    = "token"
)

var (
	// ErrSecretNotFound is returned when nothing is stored for a key
	ErrSecretNotFound = errors.New("secret not found in keyring")
)

// SecretStore keeps backend credentials in the OS keyring with a file fallback
type SecretStore struct {
	ring          keyring.Keyring
	usingFallback bool
}

// NewSecretStore opens the keyring with platform-appropriate backends
func NewSecretStore(configDir string) (*SecretStore, error) {
	backends := backendsForPlatform()

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backends,
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}

	return &SecretStore{
		ring:          ring,
		usingFallback: isUsingFallback(backends),
	}, nil
}

// newSecretStoreWithRing wraps an opened keyring
func newSecretStoreWithRing(ring keyring.Keyring) *SecretStore {
	return &SecretStore{ring: ring}
}

func backendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

func isUsingFallback(requested []keyring.BackendType) bool {
	if len(requested) == 1 && requested[0] == keyring.FileBackend {
		return true
	}
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			return false
		}
	}
	return true
}

// IsUsingFallback reports whether secrets end up in the encrypted file backend
func (s *SecretStore) IsUsingFallback() bool {
	return s.usingFallback
}

// Save stores a secret for a backend user. Empty secrets are not stored.
func (s *SecretStore) Save(baseURL, user, kind, secret string) error {
	if secret == "" {
		return nil
	}
	err := s.ring.Set(keyring.Item{
		Key:         makeKey(baseURL, user, kind),
		Data:        []byte(secret),
		Label:       fmt.Sprintf("lazyca: %s@%s", user, baseURL),
		Description: "certificate management " + kind + " for lazyca",
	})
	if err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", kind, err)
	}
	return nil
}

// Get returns a stored secret
func (s *SecretStore) Get(baseURL, user, kind string) (string, error) {
	item, err := s.ring.Get(makeKey(baseURL, user, kind))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("failed to read %s from keyring: %w", kind, err)
	}
	return string(item.Data), nil
}

// Delete removes a stored secret; a missing one is not an error
func (s *SecretStore) Delete(baseURL, user, kind string) error {
	err := s.ring.Remove(makeKey(baseURL, user, kind))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", kind, err)
	}
	return nil
}

func makeKey(baseURL, user, kind string) string {
	return kind + ":" + user + "@" + baseURL
}
