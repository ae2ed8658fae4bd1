package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/spf13/viper"

	"github.com/paw-chain/settlement/api"
	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/app/telemetry"
	"github.com/paw-chain/settlement/indexer"
)

const (
	// EnvPrefix prefixes every environment override, e.g. SETTLEMENT_API_LISTEN_ADDRESS.
	EnvPrefix = "SETTLEMENT"

	configFileName  = "config.toml"
	genesisFileName = "genesis.json"
	dataDirName     = "data"
	dbName          = "settlement"
)

// DBConfig selects the state database.
type DBConfig struct {
	// Backend is a cosmos-db backend name: goleveldb or memdb.
	Backend string `mapstructure:"backend"`
}

// FaucetConfig is the on-disk form of app.FaucetConfig.
type FaucetConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	AmountPerRequest string        `mapstructure:"amount_per_request"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

// TelemetryConfig controls tracing export and the operations endpoints.
type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	SampleRate     float64 `mapstructure:"sample_rate"`
	Environment    string  `mapstructure:"environment"`
	MetricsAddress string  `mapstructure:"metrics_address"`
	HealthAddress  string  `mapstructure:"health_address"`
}

// NodeConfig is everything settlementd reads from config.toml.
type NodeConfig struct {
	LogLevel         string          `mapstructure:"log_level"`
	LogFormat        string          `mapstructure:"log_format"`
	Authority        string          `mapstructure:"authority"`
	AssertInvariants bool            `mapstructure:"assert_invariants"`
	DB               DBConfig        `mapstructure:"db"`
	API              api.Config      `mapstructure:"api"`
	Faucet           FaucetConfig    `mapstructure:"faucet"`
	Telemetry        TelemetryConfig `mapstructure:"telemetry"`
	Indexer          indexer.Config  `mapstructure:"indexer"`
}

// DefaultNodeConfig returns the configuration written by init.
func DefaultNodeConfig() NodeConfig {
	faucet := app.DefaultFaucetConfig()
	return NodeConfig{
		LogLevel:  "info",
		LogFormat: "plain",
		Authority: app.DefaultConfig().Authority,
		DB:        DBConfig{Backend: "goleveldb"},
		API:       *api.DefaultConfig(),
		Faucet: FaucetConfig{
			Enabled:          faucet.Enabled,
			AmountPerRequest: faucet.AmountPerRequest.String(),
			Cooldown:         faucet.Cooldown,
		},
		Telemetry: TelemetryConfig{
			SampleRate:     0.1,
			Environment:    "development",
			MetricsAddress: "0.0.0.0:36660",
			HealthAddress:  "0.0.0.0:36661",
		},
		Indexer: indexer.DefaultConfig(),
	}
}

// Validate checks every section.
func (c NodeConfig) Validate() error {
	if _, err := c.AppConfig(); err != nil {
		return err
	}
	switch c.DB.Backend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("unsupported db backend %q", c.DB.Backend)
	}
	if c.LogFormat != "plain" && c.LogFormat != "json" {
		return fmt.Errorf("log format must be plain or json, got %q", c.LogFormat)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Indexer.Validate(); err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	if err := c.Telemetry.providerConfig().Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func (t TelemetryConfig) providerConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:        t.Enabled,
		OTLPEndpoint:   t.OTLPEndpoint,
		SampleRate:     t.SampleRate,
		Environment:    t.Environment,
		ServiceVersion: Version,
	}
}

// AppConfig converts the node configuration into executor options.
func (c NodeConfig) AppConfig() (app.Config, error) {
	cfg := app.DefaultConfig()
	if c.Authority != "" {
		if _, err := sdk.AccAddressFromBech32(c.Authority); err != nil {
			return app.Config{}, fmt.Errorf("invalid authority %q: %w", c.Authority, err)
		}
		cfg.Authority = c.Authority
	}
	cfg.AssertInvariants = c.AssertInvariants

	cfg.Faucet.Enabled = c.Faucet.Enabled
	cfg.Faucet.Cooldown = c.Faucet.Cooldown
	if c.Faucet.AmountPerRequest != "" {
		coins, err := sdk.ParseCoinsNormalized(c.Faucet.AmountPerRequest)
		if err != nil {
			return app.Config{}, fmt.Errorf("faucet: invalid amount_per_request: %w", err)
		}
		cfg.Faucet.AmountPerRequest = coins
	}
	if err := cfg.Faucet.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

// newViper returns a viper seeded with defaults so every key can be
// overridden from the environment even when absent from the file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultNodeConfig()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("authority", d.Authority)
	v.SetDefault("assert_invariants", d.AssertInvariants)
	v.SetDefault("db.backend", d.DB.Backend)

	v.SetDefault("api.listen_address", d.API.ListenAddress)
	v.SetDefault("api.jwt_secret", d.API.JWTSecret)
	v.SetDefault("api.token_ttl", d.API.TokenTTL)
	v.SetDefault("api.cors_origins", d.API.CORSOrigins)
	v.SetDefault("api.rate_limit_rps", d.API.RateLimitRPS)
	v.SetDefault("api.rate_limit_burst", d.API.RateLimitBurst)
	v.SetDefault("api.read_timeout", d.API.ReadTimeout)
	v.SetDefault("api.write_timeout", d.API.WriteTimeout)
	v.SetDefault("api.shutdown_timeout", d.API.ShutdownTimeout)
	v.SetDefault("api.max_page_size", d.API.MaxPageSize)

	v.SetDefault("faucet.enabled", d.Faucet.Enabled)
	v.SetDefault("faucet.amount_per_request", d.Faucet.AmountPerRequest)
	v.SetDefault("faucet.cooldown", d.Faucet.Cooldown)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.otlp_endpoint", d.Telemetry.OTLPEndpoint)
	v.SetDefault("telemetry.sample_rate", d.Telemetry.SampleRate)
	v.SetDefault("telemetry.environment", d.Telemetry.Environment)
	v.SetDefault("telemetry.metrics_address", d.Telemetry.MetricsAddress)
	v.SetDefault("telemetry.health_address", d.Telemetry.HealthAddress)

	v.SetDefault("indexer.enabled", d.Indexer.Enabled)
	v.SetDefault("indexer.postgres_dsn", d.Indexer.PostgresDSN)
	v.SetDefault("indexer.interval", d.Indexer.Interval)
	v.SetDefault("indexer.batch_size", d.Indexer.BatchSize)
	return v
}

// LoadNodeConfig reads <home>/config/config.toml, applies SETTLEMENT_*
// overrides and validates the result. A missing file yields the defaults.
func LoadNodeConfig(home string) (NodeConfig, error) {
	v := newViper()
	v.SetConfigFile(ConfigPath(home))
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return NodeConfig{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg NodeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return NodeConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

// ConfigPath returns the config file location under home.
func ConfigPath(home string) string {
	return filepath.Join(home, "config", configFileName)
}

// GenesisPath returns the genesis file location under home.
func GenesisPath(home string) string {
	return filepath.Join(home, "config", genesisFileName)
}

// DataDir returns the database directory under home.
func DataDir(home string) string {
	return filepath.Join(home, dataDirName)
}

const configTemplate = `# settlementd configuration
# Every key may be overridden with SETTLEMENT_<SECTION>_<KEY>, e.g.
# SETTLEMENT_API_LISTEN_ADDRESS=127.0.0.1:1317

# Log level, optionally per module: "info" or "x/settlement:debug,*:info"
log_level = "{{ .LogLevel }}"
# plain or json
log_format = "{{ .LogFormat }}"

# Account allowed to update params, manage models and withdraw the treasury
authority = "{{ .Authority }}"

# Run every invariant before committing a block
assert_invariants = {{ .AssertInvariants }}

[db]
# goleveldb or memdb
backend = "{{ .DB.Backend }}"

[api]
listen_address = "{{ .API.ListenAddress }}"
# HS256 signing key, at least 32 bytes. Empty generates one per process.
jwt_secret = "{{ .API.JWTSecret }}"
token_ttl = "{{ .API.TokenTTL }}"
cors_origins = [{{ range $i, $o := .API.CORSOrigins }}{{ if $i }}, {{ end }}"{{ $o }}"{{ end }}]
rate_limit_rps = {{ .API.RateLimitRPS }}
rate_limit_burst = {{ .API.RateLimitBurst }}
read_timeout = "{{ .API.ReadTimeout }}"
write_timeout = "{{ .API.WriteTimeout }}"
shutdown_timeout = "{{ .API.ShutdownTimeout }}"
max_page_size = {{ .API.MaxPageSize }}

[faucet]
enabled = {{ .Faucet.Enabled }}
amount_per_request = "{{ .Faucet.AmountPerRequest }}"
cooldown = "{{ .Faucet.Cooldown }}"

[telemetry]
enabled = {{ .Telemetry.Enabled }}
otlp_endpoint = "{{ .Telemetry.OTLPEndpoint }}"
sample_rate = {{ .Telemetry.SampleRate }}
environment = "{{ .Telemetry.Environment }}"
metrics_address = "{{ .Telemetry.MetricsAddress }}"
health_address = "{{ .Telemetry.HealthAddress }}"

[indexer]
enabled = {{ .Indexer.Enabled }}
postgres_dsn = "{{ .Indexer.PostgresDSN }}"
interval = "{{ .Indexer.Interval }}"
batch_size = {{ .Indexer.BatchSize }}
`

var configTmpl = template.Must(template.New("config").Parse(configTemplate))

// WriteNodeConfig renders cfg to path.
func WriteNodeConfig(path string, cfg NodeConfig) error {
	var buf bytes.Buffer
	if err := configTmpl.Execute(&buf, cfg); err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
