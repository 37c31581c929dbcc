package pipeline

import (
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/customers"
	"github.com/Lumos-Labs-HQ/txsynth/internal/sampler"
	"github.com/rs/zerolog"
)

type IncomeTier string

const (
	TierLow  IncomeTier = "low"
	TierMid  IncomeTier = "mid"
	TierHigh IncomeTier = "high"
)

// Profile is a customer plus the fields derived for this run only.
type Profile struct {
	customers.Customer

	Tier            IncomeTier
	ActiveStart     time.Time
	ActiveEnd       time.Time
	ActiveMonths    int
	NumTransactions int
}

// Row is one replica of a profile carrying the per-transaction attributes
// assigned so far.
type Row struct {
	Profile

	TransactionID    string
	Timestamp        time.Time
	Amount           float64
	MerchantCategory string
	Status           string
	Channel          string
	EntryMode        string
	Country          string
	IsInternational  bool
}

type Transaction struct {
	TransactionID    string
	CustomerID       string
	Timestamp        time.Time
	Amount           float64
	MerchantCategory string
	Status           string
	Channel          string
	EntryMode        string
	Country          string
	IsInternational  bool
}

// Env is what every stage reads besides its input rows.
type Env struct {
	Config      config.Transactions
	Sampler     *sampler.Sampler
	Log         zerolog.Logger
	GlobalStart time.Time
	GlobalEnd   time.Time
}

func NewEnv(cfg config.Transactions, s *sampler.Sampler, log zerolog.Logger) (*Env, error) {
	start, end, err := cfg.DateRange.Bounds()
	if err != nil {
		return nil, fmt.Errorf("date_range: %w", err)
	}
	return &Env{Config: cfg, Sampler: s, Log: log, GlobalStart: start, GlobalEnd: end}, nil
}

// DegenerateInputError is returned when an income survives the floor but
// still yields a base spend that is not a positive finite number.
type DegenerateInputError struct {
	CustomerID string
	Income     float64
	BaseSpend  float64
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("customer %s: income %g gives non-positive base spend %g", e.CustomerID, e.Income, e.BaseSpend)
}
