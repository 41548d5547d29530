package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/icodeforyou/spotwindow-go/logging"
	"github.com/icodeforyou/spotwindow-go/normalize"
	"github.com/icodeforyou/spotwindow-go/types"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	ProviderEntsoe         = "entsoe"
	ProviderNordpool       = "nordpool"
	ProviderElprisetjustnu = "elprisetjustnu"
	ProviderTibber         = "tibber"
	FallbackSimulated      = "simulated"
)

var knownProviders = []string{ProviderEntsoe, ProviderNordpool, ProviderElprisetjustnu, ProviderTibber}

type AppConfigApi struct {
	Address string
	Port    int16
	// How often the current price is pushed to websocket clients, default: 1m
	PushInterval *time.Duration `mapstructure:"push_interval"`
}

func (a AppConfigApi) GetPushInterval() time.Duration {
	if a.PushInterval == nil || *a.PushInterval <= 0 {
		return time.Minute
	}
	return *a.PushInterval
}

type AppConfigDatabase struct {
	// Path to the SQLite log database, logging to database is disabled if empty
	Path string
	// How many days the refresh history is kept
	DataRetentionDays *int `mapstructure:"data_retention_days"`
	// How many days daily backup files should be stored before they gets deleted
	BackupRetentionDays *int `mapstructure:"backup_retention_days"`
}

func (d AppConfigDatabase) GetDataRetentionDays() int {
	if d.DataRetentionDays == nil {
		return 90
	}
	return *d.DataRetentionDays
}

func (d AppConfigDatabase) GetBackupRetentionDays() int {
	if d.BackupRetentionDays == nil {
		return 14
	}
	return *d.BackupRetentionDays
}

func (d AppConfigDatabase) Enabled() bool {
	return d.Path != ""
}

type AppConfigEnergyPrice struct {
	// Providers in priority order: "entsoe", "nordpool", "elprisetjustnu", "tibber", default: ["entsoe"]
	Providers []string `mapstructure:"providers"`
	// Market zone, e.g. "NL", "DE-LU", "SE3" or an EIC code
	Area  string `mapstructure:"area"`
	Token string `mapstructure:"token"` // ENTSO-E security token, usually set by ENERGY_PRICE_TOKEN
	// Tibber API token and home, only used by the "tibber" provider
	TibberToken  string `mapstructure:"tibber_token"`
	TibberHomeId string `mapstructure:"tibber_home_id"`
	// How long fetched prices are cached, default: 1h
	Ttl *time.Duration `mapstructure:"ttl"`
	// Timeout for one fetch, default: 30s
	FetchTimeout *time.Duration `mapstructure:"fetch_timeout"`
	DaysBack     *int           `mapstructure:"days_back"`  // default: 1
	DaysAhead    *int           `mapstructure:"days_ahead"` // default: 2
	// Unknown resolutions: "lenient" treats them as hourly, "strict" rejects them, default: "lenient"
	ResolutionPolicy *string `mapstructure:"resolution_policy"`
	// Set to "simulated" to serve synthetic prices when every provider fails
	Fallback string `mapstructure:"fallback"`
	RunAt    string `mapstructure:"run_at"` // Cron spec of the refresh task
}

func (e AppConfigEnergyPrice) GetProviders() []string {
	if len(e.Providers) == 0 {
		return []string{ProviderEntsoe}
	}
	return lo.Map(e.Providers, func(p string, _ int) string { return strings.ToLower(strings.TrimSpace(p)) })
}

func (e AppConfigEnergyPrice) GetTtl() time.Duration {
	if e.Ttl == nil || *e.Ttl <= 0 {
		return time.Hour
	}
	return *e.Ttl
}

func (e AppConfigEnergyPrice) GetFetchTimeout() time.Duration {
	if e.FetchTimeout == nil || *e.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return *e.FetchTimeout
}

func (e AppConfigEnergyPrice) GetDaysBack() int {
	if e.DaysBack == nil || *e.DaysBack < 0 {
		return 1
	}
	return *e.DaysBack
}

func (e AppConfigEnergyPrice) GetDaysAhead() int {
	if e.DaysAhead == nil || *e.DaysAhead < 1 {
		return 2
	}
	return *e.DaysAhead
}

func (e AppConfigEnergyPrice) GetResolutionPolicy() normalize.ResolutionPolicy {
	if e.ResolutionPolicy != nil && strings.EqualFold(*e.ResolutionPolicy, string(normalize.PolicyStrict)) {
		return normalize.PolicyStrict
	}
	return normalize.PolicyLenient
}

func (e AppConfigEnergyPrice) GetRunAt() string {
	if e.RunAt == "" {
		return "5 * * * *"
	}
	return e.RunAt
}

func (e AppConfigEnergyPrice) HasFallback() bool {
	return strings.EqualFold(e.Fallback, FallbackSimulated)
}

type AppConfigRecommend struct {
	MaxLookAhead     *int `mapstructure:"max_look_ahead"`     // Upper bound of look-ahead and history in hours, default: 168
	DefaultDuration  *int `mapstructure:"default_duration"`   // default: 1
	DefaultLookAhead *int `mapstructure:"default_look_ahead"` // default: 24
}

// One week, the largest look-ahead the engine accepts
const maxLookAheadLimit = 168

func (r AppConfigRecommend) GetMaxLookAhead() int {
	if r.MaxLookAhead == nil || *r.MaxLookAhead < 1 {
		return maxLookAheadLimit
	}
	return *r.MaxLookAhead
}

func (r AppConfigRecommend) GetDefaultDuration() int {
	if r.DefaultDuration == nil {
		return 1
	}
	return *r.DefaultDuration
}

func (r AppConfigRecommend) GetDefaultLookAhead() int {
	if r.DefaultLookAhead == nil {
		return 24
	}
	return *r.DefaultLookAhead
}

type AppConfigMqtt struct {
	Host        string // Publishing is disabled if empty
	Port        int16
	Username    string
	Password    string
	TopicPrefix *string `mapstructure:"topic_prefix"`
}

func (m AppConfigMqtt) Enabled() bool {
	return m.Host != ""
}

func (m AppConfigMqtt) GetPort() int16 {
	if m.Port == 0 {
		return 1883
	}
	return m.Port
}

func (m AppConfigMqtt) GetTopicPrefix() string {
	if m.TopicPrefix == nil {
		return "spotwindow"
	}
	return strings.TrimSuffix(*m.TopicPrefix, "/")
}

type AppConfigDisplay struct {
	// Timezone for displaying times, default: UTC
	Timezone *string `mapstructure:"timezone"`
}

func (d AppConfigDisplay) GetTimezone() string {
	if d.Timezone == nil {
		return "UTC"
	}
	return *d.Timezone
}

type AppConfigLogging struct {
	// Min log level for database : "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	DbLevel *string `mapstructure:"db_level"`
	// Log attributes format: "TEXT", "JSON", default: "JSON"
	DbAttrsFormat *string `mapstructure:"db_attrs_format"`
	// Maximum number of log entries in the database, default: 10000
	DbMaxEntries *int `mapstructure:"db_max_entries"`
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetDbLevel() slog.Level {
	return logging.LevelFromString(l.DbLevel)
}

func (l AppConfigLogging) GetDbAttrsFormat() logging.LogAttrFormat {
	if l.DbAttrsFormat != nil && strings.EqualFold(*l.DbAttrsFormat, "text") {
		return logging.LogAttrFormatText
	}
	return logging.LogAttrFormatJSON
}

func (l AppConfigLogging) GetDbMaxEntries() int {
	if l.DbMaxEntries == nil {
		return 10000
	}
	return *l.DbMaxEntries
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Api         AppConfigApi
	Database    AppConfigDatabase
	EnergyPrice AppConfigEnergyPrice `mapstructure:"energy_price"`
	Recommend   AppConfigRecommend   `mapstructure:"recommend"`
	Mqtt        AppConfigMqtt        `mapstructure:"mqtt"`
	Display     AppConfigDisplay     `mapstructure:"display"`
	Logging     AppConfigLogging     `mapstructure:"logging"`
}

// Validate reports every setting that makes startup impossible.
func (c *AppConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(c.EnergyPrice.Area) == "" {
		errs = append(errs, &types.ConfigError{Key: "energy_price.area", Reason: "market zone is required"})
	}

	providers := c.EnergyPrice.GetProviders()
	for _, p := range providers {
		if !lo.Contains(knownProviders, p) {
			errs = append(errs, &types.ConfigError{Key: "energy_price.providers", Reason: "unknown provider " + p})
		}
	}

	if c.EnergyPrice.Fallback != "" && !c.EnergyPrice.HasFallback() {
		errs = append(errs, &types.ConfigError{Key: "energy_price.fallback", Reason: "unknown fallback " + c.EnergyPrice.Fallback})
	}

	if lo.Contains(providers, ProviderEntsoe) && c.EnergyPrice.Token == "" && !c.EnergyPrice.HasFallback() {
		errs = append(errs, &types.ConfigError{Key: "energy_price.token", Reason: "ENTSO-E security token is missing"})
	}

	if lo.Contains(providers, ProviderTibber) && (c.EnergyPrice.TibberToken == "" || c.EnergyPrice.TibberHomeId == "") {
		errs = append(errs, &types.ConfigError{Key: "energy_price.tibber_token", Reason: "Tibber token and home id are required"})
	}

	if p := c.EnergyPrice.ResolutionPolicy; p != nil &&
		!strings.EqualFold(*p, string(normalize.PolicyLenient)) && !strings.EqualFold(*p, string(normalize.PolicyStrict)) {
		errs = append(errs, &types.ConfigError{Key: "energy_price.resolution_policy", Reason: "must be lenient or strict"})
	}

	maxLookAhead := c.Recommend.GetMaxLookAhead()
	if err := types.CheckRange("recommend.max_look_ahead", maxLookAhead, 1, maxLookAheadLimit); err != nil {
		errs = append(errs, &types.ConfigError{Key: "recommend.max_look_ahead", Reason: err.Error()})
	}
	if err := types.CheckRange("recommend.default_look_ahead", c.Recommend.GetDefaultLookAhead(), 1, maxLookAhead); err != nil {
		errs = append(errs, &types.ConfigError{Key: "recommend.default_look_ahead", Reason: err.Error()})
	}
	if err := types.CheckRange("recommend.default_duration", c.Recommend.GetDefaultDuration(), 1, c.Recommend.GetDefaultLookAhead()); err != nil {
		errs = append(errs, &types.ConfigError{Key: "recommend.default_duration", Reason: err.Error()})
	}

	return errors.Join(errs...)
}

// Load reads an optional .env file, then the yaml config. Environment
// variables override the file, e.g. ENERGY_PRICE_TOKEN for energy_price.token.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Default().Debug("no .env file loaded", slog.Any("error", err))
	}

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.AddConfigPath("config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// AutomaticEnv only applies to keys viper already knows about
	viper.SetDefault("energy_price.token", "")
	viper.SetDefault("energy_price.area", "")
	viper.SetDefault("energy_price.tibber_token", "")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	return unmarshal()
}

func unmarshal() (*AppConfig, error) {
	var c AppConfig
	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}
	return &c, nil
}

// Watch calls onChange with the reloaded config every time the config file
// is written.
func Watch(logger *slog.Logger, onChange func(*AppConfig)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		c, err := unmarshal()
		if err != nil {
			logger.Error("failed to reload config", slog.String("file", e.Name), slog.Any("error", err))
			return
		}
		logger.Info("config reloaded", slog.String("file", e.Name))
		onChange(c)
	})
	viper.WatchConfig()
}
