package config

// Config holds all w3pilot settings stored in config.json. Some string
// fields can be overridden from the environment; see Load.
type Config struct {
	DefaultChain string              `json:"default_chain"`
	DefaultSpeed string              `json:"default_speed"` // slow | standard | fast | instant
	RPCAlgorithm string              `json:"rpc_algorithm"` // fastest | round-robin | failover
	CustomRPCs   map[string][]string `json:"custom_rpcs"`   // chain slug -> URLs tried before the built-in ones

	// ProviderURL points at an external wallet endpoint. Empty means the
	// built-in keychain signer is used.
	ProviderURL string  `json:"provider_url,omitempty"`
	RateLimit   float64 `json:"rate_limit,omitempty"` // wallet requests per second, 0 = unlimited

	ReceiptAttempts   int    `json:"receipt_attempts"`
	ReceiptInterval   string `json:"receipt_interval"` // Go duration, e.g. "2s"
	ConfirmBeforeSend bool   `json:"confirm_before_send"`

	LogLevel     string `json:"log_level"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`

	configDir string
	fromEnv   map[string]envOverride
}

type envOverride struct {
	fileValue string
	envValue  string
}
