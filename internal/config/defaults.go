package config

const (
	DefaultIncomeFloor = 15000.0
	DefaultWarnRows    = 1_000_000
	DefaultConfigFile  = "txsynth.yaml"
)

func boolPtr(b bool) *bool { return &b }

// Default returns the configuration written by `txsynth init`.
func Default() *Config {
	seed := int64(42)
	cfg := &Config{
		Seed:     &seed,
		Log:      Log{Level: "info"},
		Database: Database{Provider: "sqlite", URLEnv: "DATABASE_URL"},
		Upload: Upload{
			Kind:         "s3",
			Bucket:       "txsynth",
			Prefix:       "runs",
			Endpoint:     "localhost:9000",
			AccessKeyEnv: "TXSYNTH_S3_ACCESS_KEY",
			SecretKeyEnv: "TXSYNTH_S3_SECRET_KEY",
		},
		Metrics: Metrics{Job: "txsynth"},
		Datasets: Datasets{
			Customers: Customers{
				Enable: boolPtr(true),
				NRows:  1000,
				Age:    IntRange{Min: 18, Max: 75},
				Income: Income{Mean: 40000, StdDev: 20000, Floor: DefaultIncomeFloor},
				SignupDate: DateRange{
					Start: "2020-01-01",
					End:   "2023-01-01",
				},
				Region: Distribution{
					Values:  []string{"ES", "FR", "DE", "US", "CN"},
					Weights: []float64{0.4, 0.2, 0.2, 0.1, 0.1},
				},
				Output: Output{Path: "data/customers.csv", Format: "csv", Table: "customers", BatchSize: 500},
			},
			Transactions: Transactions{
				Enable:      boolPtr(true),
				DateRange:   DateRange{Start: "2020-01-01", End: "2023-01-01"},
				IncomeTiers: IncomeTiers{LowMax: 30000, MidMax: 80000},
				CustomerActivity: Activity{
					Low:  0.5,
					Mid:  1.0,
					High: 2.0,
				},
				Amount: Amount{
					Sigma:      0.8,
					LowFactor:  0.02,
					MidFactor:  0.03,
					HighFactor: 0.04,
					MinIncome:  DefaultIncomeFloor,
				},
				Categories: Categories{
					MerchantCategories: []string{
						"groceries", "restaurants", "travel", "entertainment", "utilities",
						"health", "shopping", "transport", "education", "other",
					},
					Weights: []float64{0.25, 0.15, 0.05, 0.08, 0.1, 0.07, 0.15, 0.08, 0.02, 0.05},
				},
				StatusDistribution: Distribution{
					Values:  []string{"completed", "pending", "declined", "reversed"},
					Weights: []float64{0.9, 0.03, 0.05, 0.02},
				},
				BusinessRules: BusinessRules{
					Channels: ChannelRules{
						Default: Distribution{
							Values:  []string{"in-store", "online", "mobile"},
							Weights: []float64{0.5, 0.3, 0.2},
						},
						ByMerchantCategory: map[string]Distribution{
							"groceries": {Values: []string{"in-store", "online", "mobile"}, Weights: []float64{0.8, 0.1, 0.1}},
							"travel":    {Values: []string{"in-store", "online", "mobile"}, Weights: []float64{0.1, 0.7, 0.2}},
							"utilities": {Values: []string{"online", "mobile"}, Weights: []float64{0.7, 0.3}},
						},
					},
					EntryModes: EntryModeRules{
						Default: Distribution{
							Values:  []string{"chip", "contactless", "swipe", "manual"},
							Weights: []float64{0.4, 0.4, 0.1, 0.1},
						},
						ByChannel: map[string]Distribution{
							"online": {Values: []string{"manual"}, Weights: []float64{1.0}},
							"mobile": {Values: []string{"contactless", "manual"}, Weights: []float64{0.7, 0.3}},
						},
					},
					TransactionCountry: CountryRules{
						DomesticProbabilityByRegion: map[string]float64{
							"ES": 0.95,
							"FR": 0.93,
							"DE": 0.94,
							"US": 0.97,
							"CN": 0.98,
						},
						InternationalDestinationsByRegion: map[string]Distribution{
							"US": {Values: []string{"MX", "CA", "ES", "FR"}, Weights: []float64{0.4, 0.4, 0.1, 0.1}},
						},
						DefaultInternationalDestinations: Distribution{
							Values:  []string{"ES", "FR", "DE", "IT", "PT", "GB", "US"},
							Weights: []float64{0.15, 0.2, 0.15, 0.15, 0.15, 0.1, 0.1},
						},
					},
				},
				WarnRows: DefaultWarnRows,
				Output:   Output{Path: "data/transactions.csv", Format: "csv", Table: "transactions", BatchSize: 500},
			},
		},
	}
	return cfg
}
