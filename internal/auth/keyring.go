// Package auth stores generative service API keys in the OS keyring.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const (
	// ServiceName is the keyring service name for esgsynth.
	ServiceName = "esgsynth"
	// KeyringPasswordEnvVarName sets the file keyring passphrase for non-interactive setups.
	KeyringPasswordEnvVarName = "ESGSYNTH_KEYRING_PASSWORD"
	// DBUSSessionAddressEnvVarName is used to detect Linux headless mode.
	DBUSSessionAddressEnvVarName = "DBUS_SESSION_BUS_ADDRESS"
)

// ErrNoKey is returned when no key is stored for a provider.
var ErrNoKey = errors.New("no api key stored")

// KeyringProvider defines an interface for keyring operations
type KeyringProvider interface {
	Get(key string) (keyring.Item, error)
	Set(item keyring.Item) error
	Remove(key string) error
}

type osKeyring struct {
	ring keyring.Keyring
}

func keyringFileDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(configDir) == "" {
		configDir = os.Getenv("HOME")
	}
	return filepath.Join(configDir, ServiceName, "keyring")
}

func keyringFilePassword() string {
	if password := strings.TrimSpace(os.Getenv(KeyringPasswordEnvVarName)); password != "" {
		return password
	}
	return ServiceName
}

func shouldForceFileBackend(goos string, dbusAddr string) bool {
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

func newOSKeyring() (KeyringProvider, error) {
	cfg := keyring.Config{
		ServiceName:                    ServiceName,
		KeychainTrustApplication:       true,
		KeychainAccessibleWhenUnlocked: true,
		FileDir:                        keyringFileDir(),
		FilePasswordFunc:               func(_ string) (string, error) { return keyringFilePassword(), nil },
	}
	if shouldForceFileBackend(runtime.GOOS, os.Getenv(DBUSSessionAddressEnvVarName)) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &osKeyring{ring: ring}, nil
}

func (k *osKeyring) Get(key string) (keyring.Item, error) { return k.ring.Get(key) }
func (k *osKeyring) Set(item keyring.Item) error { return k.ring.Set(item) }
func (k *osKeyring) Remove(key string) error { return k.ring.Remove(key) }

// defaultProvider is swapped out in tests via SetProviderFunc.
var defaultProvider = newOSKeyring

func itemKey(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider)) + "-api-key"
}

// StoreKey saves key for provider.
func StoreKey(provider, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key cannot be empty")
	}
	if strings.TrimSpace(provider) == "" {
		return errors.New("provider cannot be empty")
	}
	kr, err := defaultProvider()
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}
	err = kr.Set(keyring.Item{
		Key:   itemKey(provider),
		Label: fmt.Sprintf("esgsynth %s API key", provider),
		Data:  []byte(key),
	})
	if err != nil {
		return fmt.Errorf("failed to store api key in keyring: %w", err)
	}
	return nil
}

// GetKey returns the stored key for provider, or ErrNoKey.
func GetKey(provider string) (string, error) {
	kr, err := defaultProvider()
	if err != nil {
		return "", fmt.Errorf("failed to open keyring: %w", err)
	}
	item, err := kr.Get(itemKey(provider))
	if errors.Is(err, keyring.ErrKeyNotFound) || (err == nil && len(item.Data) == 0) {
		return "", fmt.Errorf("%w for %s", ErrNoKey, provider)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return string(item.Data), nil
}

// DeleteKey removes the stored key for provider. Removing a missing key is not an error.
func DeleteKey(provider string) error {
	kr, err := defaultProvider()
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}
	if err := kr.Remove(itemKey(provider)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete api key from keyring: %w", err)
	}
	return nil
}
