package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all gate/exit-engine configuration, hot-reloaded from
// YAML via Manager.
type Config struct {
	Wallet    WalletConfig    `mapstructure:"wallet"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
	Gate      GateConfig      `mapstructure:"gate"`
	Exit    ExitConfig    `mapstructure:"exit"`
	Jupiter JupiterConfig `mapstructure:"jupiter"`
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	TUI     TUIConfig     `mapstructure:"tui"`
}

type WalletConfig struct {
	PrivateKeyEnv string `mapstructure:"private_key_env"`
	BaseMint      string `mapstructure:"base_mint"`
}

type RPCConfig struct {
	ShyftURL          string `mapstructure:"shyft_url"`
	ShyftAPIKeyEnv    string `mapstructure:"shyft_api_key_env"`
	FallbackURL       string `mapstructure:"fallback_url"`
	FallbackAPIKeyEnv string `mapstructure:"fallback_api_key_env"`
}

// WebsocketConfig holds the real-time account-subscribe feed endpoint
// the LP/liquidity monitor dials for on-chain events.
type WebsocketConfig struct {
	ShyftURL string `mapstructure:"shyft_url"`
}

// GateConfig holds the Gate Orchestrator's tunable thresholds
// (spec §4.F), mapped onto gate.Config at wiring time.
type GateConfig struct {
	DynamicCapCeiling        float64 `mapstructure:"dynamic_cap_ceiling"`
	ObservationDelayMs       int     `mapstructure:"observation_delay_ms"`
	HighLiquidityFastPathUSD float64 `mapstructure:"high_liquidity_fast_path_usd"`
	ObservationDriftPercent  float64 `mapstructure:"observation_drift_percent"`
}

// ExitConfig holds the Auto-Exit Engine's tunable thresholds (spec
// §4.G), mapped onto exit.Config at wiring time.
type ExitConfig struct {
	ScanIntervalSeconds int     `mapstructure:"scan_interval_seconds"`
	TakeProfitPercent   float64 `mapstructure:"take_profit_percent"`
	StopLossPercent     float64 `mapstructure:"stop_loss_percent"`
	AutoExecute         bool    `mapstructure:"auto_execute"`
}

type JupiterConfig struct {
	QuoteAPIURL    string `mapstructure:"quote_api_url"`
	SlippageBps    int    `mapstructure:"slippage_bps"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// APIConfig configures the gofiber HTTP surface (candidates/positions/
// activity/health/metrics).
type APIConfig struct {
	ListenPort int    `mapstructure:"listen_port"`
	ListenHost string `mapstructure:"listen_host"`
}

type StorageConfig struct {
	SQLitePath          string `mapstructure:"sqlite_path"`
	ActivityBufferSize  int    `mapstructure:"activity_buffer_size"`
}

type TUIConfig struct {
	RefreshRateMs int `mapstructure:"refresh_rate_ms"`
	LogLines      int `mapstructure:"log_lines"`
}

// Manager handles config loading and hot-reload.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	viper    *viper.Viper
	onChange func(*Config)
}

// NewManager creates a new config manager.
func NewManager(configPath string) (*Manager, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("gate.dynamic_cap_ceiling", 40.0)
	v.SetDefault("gate.observation_delay_ms", 3000)
	v.SetDefault("gate.high_liquidity_fast_path_usd", 100_000.0)
	v.SetDefault("gate.observation_drift_percent", 15.0)
	v.SetDefault("exit.scan_interval_seconds", 30)
	v.SetDefault("exit.take_profit_percent", 100.0)
	v.SetDefault("exit.stop_loss_percent", -30.0)
	v.SetDefault("exit.auto_execute", true)
	v.SetDefault("jupiter.quote_api_url", "https://quote-api.jup.ag/v6/quote")
	v.SetDefault("jupiter.slippage_bps", 500) // 5%
	v.SetDefault("jupiter.timeout_seconds", 10)
	v.SetDefault("rpc.shyft_api_key_env", "SHYFT_API_KEY")
	v.SetDefault("rpc.fallback_api_key_env", "HELIUS_API_KEY")
	v.SetDefault("rpc.fallback_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("api.listen_port", 8080)
	v.SetDefault("api.listen_host", "0.0.0.0")
	v.SetDefault("storage.sqlite_path", "./data/gate.db")
	v.SetDefault("storage.activity_buffer_size", 500)
	v.SetDefault("tui.refresh_rate_ms", 100)
	v.SetDefault("tui.log_lines", 100)
	v.SetDefault("wallet.private_key_env", "WALLET_PRIVATE_KEY")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Jupiter.QuoteAPIURL == "" {
		cfg.Jupiter.QuoteAPIURL = "https://quote-api.jup.ag/v6/quote"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "./data/gate.db"
	}

	m := &Manager{
		config: &cfg,
		viper:  v,
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config file changed, reloading")
		m.reload()
	})

	return m, nil
}

// Get returns the current config (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetGate returns the gate-orchestrator config (most frequently accessed).
func (m *Manager) GetGate() GateConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Gate
}

// GetExit returns the exit-engine config.
func (m *Manager) GetExit() ExitConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Exit
}

// SetOnChange registers a callback for config changes.
func (m *Manager) SetOnChange(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Update modifies config values and saves to file.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(m.config)

	m.viper.Set("gate.dynamic_cap_ceiling", m.config.Gate.DynamicCapCeiling)
	m.viper.Set("gate.observation_delay_ms", m.config.Gate.ObservationDelayMs)
	m.viper.Set("gate.high_liquidity_fast_path_usd", m.config.Gate.HighLiquidityFastPathUSD)
	m.viper.Set("gate.observation_drift_percent", m.config.Gate.ObservationDriftPercent)
	m.viper.Set("exit.scan_interval_seconds", m.config.Exit.ScanIntervalSeconds)
	m.viper.Set("exit.take_profit_percent", m.config.Exit.TakeProfitPercent)
	m.viper.Set("exit.stop_loss_percent", m.config.Exit.StopLossPercent)
	m.viper.Set("exit.auto_execute", m.config.Exit.AutoExecute)

	if err := m.viper.WriteConfig(); err != nil {
		return err
	}

	if m.onChange != nil {
		m.onChange(m.config)
	}

	return nil
}

func (m *Manager) reload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cfg Config
	if err := m.viper.Unmarshal(&cfg); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal config on reload")
		return
	}

	m.config = &cfg
	if m.onChange != nil {
		m.onChange(&cfg)
	}
}

// GetPrivateKey loads the wallet private key from environment.
func (m *Manager) GetPrivateKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return os.Getenv(m.config.Wallet.PrivateKeyEnv)
}

// GetShyftAPIKey loads the Shyft API key from environment.
func (m *Manager) GetShyftAPIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return os.Getenv(m.config.RPC.ShyftAPIKeyEnv)
}

// GetFallbackAPIKey loads the fallback RPC API key from environment.
func (m *Manager) GetFallbackAPIKey() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return os.Getenv(m.config.RPC.FallbackAPIKeyEnv)
}

// GetShyftRPCURL returns the full Shyft RPC URL with API key injected.
func (m *Manager) GetShyftRPCURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url := m.config.RPC.ShyftURL
	key := os.Getenv(m.config.RPC.ShyftAPIKeyEnv)
	if key == "" {
		return url
	}

	if strings.Contains(url, "?") {
		return url + "&api_key=" + key
	}
	return url + "?api_key=" + key
}

// GetShyftWSURL returns the Shyft websocket URL with API key injected.
func (m *Manager) GetShyftWSURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url := m.config.Websocket.ShyftURL
	key := os.Getenv(m.config.RPC.ShyftAPIKeyEnv)
	if key == "" || url == "" {
		return url
	}

	if strings.Contains(url, "?") {
		return url + "&api_key=" + key
	}
	return url + "?api_key=" + key
}

// GetFallbackRPCURL returns the full fallback RPC URL with API key injected.
func (m *Manager) GetFallbackRPCURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url := m.config.RPC.FallbackURL
	key := os.Getenv(m.config.RPC.FallbackAPIKeyEnv)
	if key == "" {
		return url
	}

	param := "api_key"
	if strings.Contains(url, "helius") {
		param = "api-key"
	}

	if strings.Contains(url, "?") {
		return url + "&" + param + "=" + key
	}
	return url + "?" + param + "=" + key
}

// ObservationDelay returns the gate's observation delay as a duration.
func (m *Manager) ObservationDelay() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Duration(m.config.Gate.ObservationDelayMs) * time.Millisecond
}

// ExitScanInterval returns the exit engine's scan interval as a duration.
func (m *Manager) ExitScanInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Duration(m.config.Exit.ScanIntervalSeconds) * time.Second
}
