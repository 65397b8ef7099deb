package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/Mohsinsiddi/w3pilot/internal/gas"
	"github.com/Mohsinsiddi/w3pilot/internal/rpc"
	"github.com/joho/godotenv"
)

const (
	defaultChain           = "avalanche-fuji"
	defaultSpeed           = "standard"
	defaultAlgorithm       = "fastest"
	defaultLogLevel        = "info"
	defaultReceiptAttempts = 1
	defaultReceiptInterval = "2s"

	configFile   = "config.json"
	accountsFile = "wallets.json"
	keyringDir   = "keyring"
	envFile      = ".env"
)

// Environment variables read by Load.
const (
	EnvConfigDir    = "W3PILOT_CONFIG_DIR"
	EnvLogLevel     = "W3PILOT_LOG_LEVEL"
	EnvProviderURL  = "W3PILOT_PROVIDER_URL"
	EnvOTLPEndpoint = "W3PILOT_OTEL_ENDPOINT"
	EnvDefaultChain = "W3PILOT_DEFAULT_CHAIN"
)

// DefaultDir returns $W3PILOT_CONFIG_DIR or ~/.w3pilot.
func DefaultDir() (string, error) {
	if d := os.Getenv(EnvConfigDir); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".w3pilot"), nil
}

// Load reads config.json from dir (DefaultDir when empty), creating the
// directory if needed. A .env file in dir and in the working directory is
// loaded first; variables already set in the process win.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}
	loadDotEnv(filepath.Join(dir, envFile), envFile)

	cfg := defaults(dir)
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	cfg.applyEnv()
	return cfg, nil
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func (c *Config) applyEnv() {
	c.fromEnv = make(map[string]envOverride)
	for name, field := range c.envFields() {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		c.fromEnv[name] = envOverride{fileValue: *field, envValue: v}
		*field = v
	}
}

func (c *Config) envFields() map[string]*string {
	return map[string]*string{
		EnvLogLevel:     &c.LogLevel,
		EnvProviderURL:  &c.ProviderURL,
		EnvOTLPEndpoint: &c.OTLPEndpoint,
		EnvDefaultChain: &c.DefaultChain,
	}
}

// Save writes config.json. Values that came from the environment and were
// not changed since Load are written back as they were in the file.
func (c *Config) Save() error {
	out := *c
	fields := out.envFields()
	for name, o := range c.fromEnv {
		if f := fields[name]; *f == o.envValue {
			*f = o.fileValue
		}
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if _, err := gas.ParseSpeed(c.DefaultSpeed); err != nil {
		return fmt.Errorf("default_speed: %w", err)
	}
	if _, err := rpc.ParseStrategy(c.RPCAlgorithm); err != nil {
		return fmt.Errorf("rpc_algorithm: %w", err)
	}
	if c.ReceiptAttempts < 1 {
		return fmt.Errorf("receipt_attempts must be at least 1, got %d", c.ReceiptAttempts)
	}
	if _, err := time.ParseDuration(c.ReceiptInterval); err != nil {
		return fmt.Errorf("receipt_interval: %w", err)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	return nil
}

// ReceiptWait returns the parsed receipt polling interval, falling back to
// the default on a bad value.
func (c *Config) ReceiptWait() time.Duration {
	d, err := time.ParseDuration(c.ReceiptInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(defaultReceiptInterval)
	}
	return d
}

// AddRPC adds a custom RPC URL for a chain slug.
func (c *Config) AddRPC(chain, url string) error {
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain slug.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	if len(c.CustomRPCs[chain]) == 0 {
		delete(c.CustomRPCs, chain)
	}
	return nil
}

// RPCsFor returns the custom URLs for chain followed by builtin, without
// duplicates.
func (c *Config) RPCsFor(chain string, builtin []string) []string {
	out := slices.Clone(c.CustomRPCs[chain])
	for _, u := range builtin {
		if !slices.Contains(out, u) {
			out = append(out, u)
		}
	}
	return out
}

// Dir returns the config directory.
func (c *Config) Dir() string { return c.configDir }

// AccountsPath is where signing-account metadata is stored.
func (c *Config) AccountsPath() string { return filepath.Join(c.configDir, accountsFile) }

// KeyringDir holds the encrypted file keyring used when no OS keychain is
// available.
func (c *Config) KeyringDir() string { return filepath.Join(c.configDir, keyringDir) }

func defaults(dir string) *Config {
	return &Config{
		DefaultChain:      defaultChain,
		DefaultSpeed:      defaultSpeed,
		RPCAlgorithm:      defaultAlgorithm,
		CustomRPCs:        make(map[string][]string),
		ReceiptAttempts:   defaultReceiptAttempts,
		ReceiptInterval:   defaultReceiptInterval,
		ConfirmBeforeSend: true,
		LogLevel:          defaultLogLevel,
		configDir:         dir,
	}
}
