package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrInvalidKey      = errors.New("invalid private key")
	ErrNoAccounts      = errors.New("no accounts configured")
)

// Account is a named signing address. The private key is held by a KeyStore
// under KeyRef.
type Account struct {
	Name      string         `json:"name"`
	Address   common.Address `json:"address"`
	KeyRef    string         `json:"key_ref"`
	IsDefault bool           `json:"is_default,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Store persists account metadata.
type Store interface {
	Load() ([]*Account, error)
	Save([]*Account) error
}

// Book is the set of known accounts.
type Book struct {
	mu       sync.Mutex
	store    Store
	keys     KeyStore
	accounts map[string]*Account
	loaded   bool
}

// Option configures a Book.
type Option func(*Book)

// WithStore sets the metadata store. The default keeps accounts in memory.
func WithStore(s Store) Option {
	return func(b *Book) { b.store = s }
}

// WithKeyStore sets where private keys go. The default is MemoryKeys.
func WithKeyStore(k KeyStore) Option {
	return func(b *Book) { b.keys = k }
}

func NewBook(opts ...Option) *Book {
	b := &Book{
		store:    &memStore{},
		keys:     NewMemoryKeys(),
		accounts: make(map[string]*Account),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Import stores hexKey and registers the derived address under name. The
// first account imported becomes the default.
func (b *Book) Import(name, hexKey string) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("account name is required")
	}
	if _, ok := b.accounts[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountExists, name)
	}

	key, err := crypto.HexToECDSA(normalizeHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	ref, err := b.keys.Put(name, hexKey)
	if err != nil {
		return nil, fmt.Errorf("storing key: %w", err)
	}

	a := &Account{
		Name:      name,
		Address:   crypto.PubkeyToAddress(key.PublicKey),
		KeyRef:    ref,
		IsDefault: len(b.accounts) == 0,
		CreatedAt: time.Now().UTC(),
	}
	b.accounts[name] = a
	return a, b.persist()
}

// Get returns an account by name.
func (b *Book) Get(name string) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return nil, err
	}
	a, ok := b.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	return a, nil
}

// ByAddress returns the account owning addr.
func (b *Book) ByAddress(addr common.Address) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return nil, err
	}
	for _, a := range b.accounts {
		if a.Address == addr {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr.Hex())
}

// Remove deletes the account and its stored key.
func (b *Book) Remove(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return err
	}
	a, ok := b.accounts[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	if err := b.keys.Delete(a.KeyRef); err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	delete(b.accounts, name)
	return b.persist()
}

// List returns accounts with the default first, then by name.
func (b *Book) List() ([]*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return nil, err
	}
	out := make([]*Account, 0, len(b.accounts))
	for _, a := range b.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// SetDefault marks name as the default account.
func (b *Book) SetDefault(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return err
	}
	if _, ok := b.accounts[name]; !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	for _, a := range b.accounts {
		a.IsDefault = a.Name == name
	}
	return b.persist()
}

// Default returns the default account, or the only account if there is
// exactly one.
func (b *Book) Default() (*Account, error) {
	list, err := b.List()
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNoAccounts
	}
	if list[0].IsDefault || len(list) == 1 {
		return list[0], nil
	}
	return nil, errors.New("several accounts and none is default; run `w3pilot wallet use <name>`")
}

// Keys exposes the key store so signers can be built for book accounts.
func (b *Book) Keys() KeyStore { return b.keys }

func (b *Book) load() error {
	if b.loaded {
		return nil
	}
	accounts, err := b.store.Load()
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}
	for _, a := range accounts {
		b.accounts[a.Name] = a
	}
	b.loaded = true
	return nil
}

func (b *Book) persist() error {
	out := make([]*Account, 0, len(b.accounts))
	for _, a := range b.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return b.store.Save(out)
}

type memStore struct {
	accounts []*Account
}

func (s *memStore) Load() ([]*Account, error) { return s.accounts, nil }

func (s *memStore) Save(accounts []*Account) error {
	s.accounts = accounts
	return nil
}

// FileStore persists accounts as JSON.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() ([]*Account, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var accounts []*Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return accounts, nil
}

func (s *FileStore) Save(accounts []*Account) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
