// Package wallet manages named signing accounts. Private keys live in the OS
// keychain (or an encrypted file ring on headless Linux); only addresses and
// key references are written to disk.
package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

const keychainService = "w3pilot"

// EnvPrivateKey overrides every key lookup when set. Useful in CI.
const EnvPrivateKey = "W3PILOT_PRIVATE_KEY"

// ErrKeyNotFound is returned when a key reference has no stored secret.
var ErrKeyNotFound = errors.New("key not found")

// KeyStore stores hex private keys by reference.
type KeyStore interface {
	Put(name, hexKey string) (ref string, err error)
	Get(ref string) (hexKey string, err error)
	Delete(ref string) error
}

// Keychain is a KeyStore backed by 99designs/keyring.
type Keychain struct {
	ring keyring.Keyring
}

// OpenKeychain opens the OS keychain. On Linux the secret service and
// kwallet are tried before an encrypted file ring under dir.
func OpenKeychain(dir string, password keyring.PromptFunc) (*Keychain, error) {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
		FileDir:                  dir,
		FilePasswordFunc:         password,
	}
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		ring, err = keyring.Open(keyring.Config{
			ServiceName:      keychainService,
			AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
			FileDir:          dir,
			FilePasswordFunc: password,
		})
		if err != nil {
			return nil, fmt.Errorf("opening keychain: %w", err)
		}
	}
	return &Keychain{ring: ring}, nil
}

// NewKeychain wraps an already-open ring.
func NewKeychain(ring keyring.Keyring) *Keychain {
	return &Keychain{ring: ring}
}

func (k *Keychain) Put(name, hexKey string) (string, error) {
	ref := keychainService + "." + name
	if err := k.ring.Set(keyring.Item{Key: ref, Data: []byte(normalizeHexKey(hexKey))}); err != nil {
		return "", fmt.Errorf("keychain store: %w", err)
	}
	return ref, nil
}

func (k *Keychain) Get(ref string) (string, error) {
	if v := os.Getenv(EnvPrivateKey); v != "" {
		return normalizeHexKey(v), nil
	}
	item, err := k.ring.Get(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return normalizeHexKey(string(item.Data)), nil
}

// Delete removes ref. A missing key is not an error; the file backend
// reports one as fs.ErrNotExist rather than keyring.ErrKeyNotFound.
func (k *Keychain) Delete(ref string) error {
	err := k.ring.Remove(ref)
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryKeys keeps keys in process memory.
type MemoryKeys struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryKeys() *MemoryKeys {
	return &MemoryKeys{data: make(map[string]string)}
}

func (m *MemoryKeys) Put(name, hexKey string) (string, error) {
	ref := keychainService + "." + name
	m.mu.Lock()
	m.data[ref] = normalizeHexKey(hexKey)
	m.mu.Unlock()
	return ref, nil
}

func (m *MemoryKeys) Get(ref string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[ref]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref)
	}
	return v, nil
}

func (m *MemoryKeys) Delete(ref string) error {
	m.mu.Lock()
	delete(m.data, ref)
	m.mu.Unlock()
	return nil
}

func normalizeHexKey(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return s
}
