package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const DateLayout = "2006-01-02"

type Config struct {
	Seed     *int64   `yaml:"seed,omitempty"`
	Log      Log      `yaml:"log"`
	Database Database `yaml:"database"`
	Upload   Upload   `yaml:"upload"`
	Metrics  Metrics  `yaml:"metrics"`
	Datasets Datasets `yaml:"datasets"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Database struct {
	Provider string `yaml:"provider"`
	URLEnv   string `yaml:"url_env"`
}

type Upload struct {
	Enabled      bool   `yaml:"enabled"`
	Kind         string `yaml:"kind"` // s3 or gcs
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	UseSSL       bool   `yaml:"use_ssl"`
	AccessKeyEnv string `yaml:"access_key_env,omitempty"`
	SecretKeyEnv string `yaml:"secret_key_env,omitempty"`
}

type Metrics struct {
	PushgatewayURL string `yaml:"pushgateway_url,omitempty"`
	Job            string `yaml:"job,omitempty"`
}

type Datasets struct {
	Customers    Customers    `yaml:"customers"`
	Transactions Transactions `yaml:"transactions"`
}

type Output struct {
	Path      string `yaml:"path,omitempty"`
	Format    string `yaml:"format"`
	Table     string `yaml:"table,omitempty"`
	Truncate  bool   `yaml:"truncate,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
}

type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type DateRange struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Bounds parses the range. Times are UTC midnight.
func (r DateRange) Bounds() (time.Time, time.Time, error) {
	start, err := ParseDate(r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", r.Start, err)
	}
	end, err := ParseDate(r.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", r.End, err)
	}
	return start, end, nil
}

func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

type Distribution struct {
	Values  []string  `yaml:"values"`
	Weights []float64 `yaml:"weights"`
}

type Income struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
	Floor  float64 `yaml:"floor"`
}

type Customers struct {
	Enable     *bool        `yaml:"enabled,omitempty"`
	NRows      int          `yaml:"n_rows"`
	Age        IntRange     `yaml:"age"`
	Income     Income       `yaml:"income"`
	SignupDate DateRange    `yaml:"signup_date"`
	Region     Distribution `yaml:"region"`
	Output     Output       `yaml:"output"`
}

func (c Customers) Enabled() bool { return c.Enable == nil || *c.Enable }

type IncomeTiers struct {
	LowMax float64 `yaml:"low_max"`
	MidMax float64 `yaml:"mid_max"`
}

type Activity struct {
	Low  float64 `yaml:"low_income_mean_tx_per_month"`
	Mid  float64 `yaml:"mid_income_mean_tx_per_month"`
	High float64 `yaml:"high_income_mean_tx_per_month"`
}

type Amount struct {
	Sigma      float64 `yaml:"base_log_normal_sigma"`
	LowFactor  float64 `yaml:"low_income_factor"`
	MidFactor  float64 `yaml:"mid_income_factor"`
	HighFactor float64 `yaml:"high_income_factor"`
	MinIncome  float64 `yaml:"min_income"`
}

type Categories struct {
	MerchantCategories []string  `yaml:"merchant_categories"`
	Weights            []float64 `yaml:"weights"`
}

func (c Categories) Distribution() Distribution {
	return Distribution{Values: c.MerchantCategories, Weights: c.Weights}
}

type ChannelRules struct {
	Default            Distribution            `yaml:"default_distribution"`
	ByMerchantCategory map[string]Distribution `yaml:"by_merchant_category,omitempty"`
}

type EntryModeRules struct {
	Default   Distribution            `yaml:"default_distribution"`
	ByChannel map[string]Distribution `yaml:"by_channel,omitempty"`
}

type CountryRules struct {
	DomesticProbabilityByRegion       map[string]float64      `yaml:"domestic_probability_by_region,omitempty"`
	InternationalDestinationsByRegion map[string]Distribution `yaml:"international_destinations_by_region,omitempty"`
	DefaultInternationalDestinations  Distribution            `yaml:"default_international_destinations"`
}

type BusinessRules struct {
	Channels           ChannelRules   `yaml:"channels"`
	EntryModes         EntryModeRules `yaml:"entry_modes"`
	TransactionCountry CountryRules   `yaml:"transaction_country"`
}

type Transactions struct {
	Enable             *bool         `yaml:"enabled,omitempty"`
	DateRange          DateRange     `yaml:"date_range"`
	IncomeTiers        IncomeTiers   `yaml:"income_tiers"`
	CustomerActivity   Activity      `yaml:"customer_activity"`
	Amount             Amount        `yaml:"amount"`
	Categories         Categories    `yaml:"categories"`
	StatusDistribution Distribution  `yaml:"status_distribution"`
	BusinessRules      BusinessRules `yaml:"business_rules"`
	WarnRows           int           `yaml:"warn_rows,omitempty"`
	Output             Output        `yaml:"output"`
}

func (t Transactions) Enabled() bool { return t.Enable == nil || *t.Enable }

// Load reads the file viper discovered and applies flag and env overrides on top.
func Load() (*Config, error) {
	path := viper.ConfigFileUsed()
	if path == "" {
		return nil, fmt.Errorf("no config file found (run 'txsynth init' or pass --config)")
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if viper.IsSet("seed") {
		seed := viper.GetInt64("seed")
		cfg.Seed = &seed
	}
	if viper.IsSet("log.level") {
		cfg.Log.Level = viper.GetString("log.level")
	}
	if viper.IsSet("log.json") {
		cfg.Log.JSON = viper.GetBool("log.json")
	}

	return cfg, nil
}

// LoadFile decodes a YAML config. Keys are decoded with yaml.v3 rather than
// viper because viper lowercases map keys and region codes are case-sensitive.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.Provider == "" {
		c.Database.Provider = "sqlite"
	}
	if c.Database.URLEnv == "" {
		c.Database.URLEnv = "DATABASE_URL"
	}
	if c.Upload.Kind == "" {
		c.Upload.Kind = "s3"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "txsynth"
	}

	cust := &c.Datasets.Customers
	if cust.Income.Floor == 0 {
		cust.Income.Floor = DefaultIncomeFloor
	}
	cust.Output.applyDefaults("customers")

	tx := &c.Datasets.Transactions
	if tx.Amount.MinIncome == 0 {
		tx.Amount.MinIncome = DefaultIncomeFloor
	}
	if tx.WarnRows == 0 {
		tx.WarnRows = DefaultWarnRows
	}
	tx.Output.applyDefaults("transactions")
}

func (o *Output) applyDefaults(dataset string) {
	if o.Format == "" {
		o.Format = "csv"
	}
	if o.Table == "" {
		o.Table = dataset
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.Path == "" && IsFileFormat(o.Format) {
		o.Path = fmt.Sprintf("data/%s.%s", dataset, o.Format)
	}
}

func IsFileFormat(format string) bool {
	switch format {
	case "csv", "json", "parquet":
		return true
	}
	return false
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

// Write serialises the config as YAML.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
