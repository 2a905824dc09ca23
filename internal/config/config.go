// Package config loads the scanner's single JSON configuration file and
// exposes it as a typed Config, with api_secret held encrypted in memory.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"arbitrage/pkg/crypto"
	"arbitrage/pkg/utils"
)

// Config is the scanner's full configuration, loaded once at startup from
// the file named on the command line. Field names mirror the reference
// implementation's Configuration struct plus this port's ambient additions.
type Config struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"` // encrypted in memory after Load; see DecryptedAPISecret

	InvestmentBase string  `mapstructure:"investment_base"`
	InvestmentMin  float64 `mapstructure:"investment_min"`
	InvestmentMax  float64 `mapstructure:"investment_max"`
	InvestmentStep float64 `mapstructure:"investment_step"`

	TradingEnabled          bool    `mapstructure:"trading_enabled"`
	TradingExecutionCap     int     `mapstructure:"trading_execution_cap"` // -1 = unbounded
	TradingTakerFee         float64 `mapstructure:"trading_taker_fee"`     // percent
	TradingProfitThreshold  float64 `mapstructure:"trading_profit_threshold"`
	TradingAgeThresholdMS   uint64  `mapstructure:"trading_age_threshold"` // milliseconds

	DepthSize int `mapstructure:"depth_size"`

	TelegramEnabled bool   `mapstructure:"telegram_enabled"`
	TelegramToken   string `mapstructure:"telegram_token"`
	TelegramUserID  int64  `mapstructure:"telegram_user_id"`

	// Ambient additions (SPEC_FULL §6/§10), absent from the original
	// configuration record.
	NIngestWorkers    int    `mapstructure:"n_ingest_workers"`
	NReconcileWorkers int    `mapstructure:"n_reconcile_workers"`
	HTTPAddr          string `mapstructure:"http_addr"`
	LogLevel          string `mapstructure:"log_level"`
	LogFormat         string `mapstructure:"log_format"`
	DatabaseURL       string `mapstructure:"database_url"`     // optional; empty disables the audit trail
	AdminUsername     string `mapstructure:"admin_username"`      // used by the /debug basic-auth gate
	AdminPasswordHash string `mapstructure:"admin_password_hash"` // optional; empty refuses every /debug request
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	encryptionKey []byte // derived at Load time, never persisted
}

// Load reads configPath (a JSON file) with Viper, applies defaults,
// validates required fields, and encrypts APISecret at rest using key.
// key must be exactly 32 bytes (AES-256); callers typically derive it from
// an environment variable set outside the config file so the key itself is
// never stored alongside the secret it protects.
func Load(configPath string, encryptionKey []byte) (*Config, error) {
	if err := crypto.ValidateKey(encryptionKey); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", configPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	cfg.encryptionKey = encryptionKey

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.APISecret != "" {
		encrypted, err := crypto.Encrypt(cfg.APISecret, encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("config: failed to encrypt api_secret: %w", err)
		}
		cfg.APISecret = encrypted
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("n_ingest_workers", 8)
	v.SetDefault("n_reconcile_workers", 1)
	v.SetDefault("http_addr", ":8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("depth_size", 100)
	v.SetDefault("trading_execution_cap", -1)
	v.SetDefault("admin_username", "admin")
}

// validate checks the fields the evaluator and depth cache cannot safely
// default, collecting every violation instead of stopping at the first so
// an operator fixing the config file sees the whole list at once.
func (c *Config) validate() error {
	var errs utils.ValidationErrors

	if c.APIKey == "" {
		errs.Add("api_key", "is required")
	} else {
		errs.AddError("api_key", utils.ValidateAPIKey(c.APIKey))
	}
	if c.APISecret == "" {
		errs.Add("api_secret", "is required")
	} else {
		errs.AddError("api_secret", utils.ValidateAPISecret(c.APISecret))
	}
	if c.InvestmentBase == "" {
		errs.Add("investment_base", "is required")
	} else {
		errs.AddError("investment_base", utils.ValidateSymbol(c.InvestmentBase))
	}
	if c.InvestmentStep <= 0 {
		errs.Add("investment_step", "must be positive")
	}
	if c.InvestmentMin <= 0 || c.InvestmentMax < c.InvestmentMin {
		errs.Add("investment_min/investment_max", "are invalid")
	}
	if c.NIngestWorkers <= 0 || c.NReconcileWorkers <= 0 {
		errs.Add("n_ingest_workers/n_reconcile_workers", "must be positive")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// DecryptedAPISecret returns the plaintext api_secret, decrypted on demand,
// so the plaintext never lives in the Config struct itself. The scanner
// calls it once at startup and hands the plaintext to the exchange client,
// which keeps it for signing requests.
func (c *Config) DecryptedAPISecret() (string, error) {
	return crypto.Decrypt(c.APISecret, c.encryptionKey)
}
