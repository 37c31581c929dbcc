package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/customers"
	"github.com/Lumos-Labs-HQ/txsynth/internal/sampler"
	"github.com/rs/zerolog"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newEnv(t *testing.T, cfg config.Transactions, seed int64) *Env {
	t.Helper()
	env, err := NewEnv(cfg, sampler.New(seed), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to build env: %v", err)
	}
	return env
}

func sampleCustomers(t *testing.T, n int, seed int64) []customers.Customer {
	t.Helper()
	cfg := config.Default().Datasets.Customers
	cfg.NRows = n
	cs, err := customers.NewGenerator(cfg, sampler.New(seed)).Generate()
	if err != nil {
		t.Fatalf("Failed to generate customers: %v", err)
	}
	return cs
}

func run(t *testing.T, cs []customers.Customer, cfg config.Transactions, seed int64) *Result {
	t.Helper()
	res, err := Generate(context.Background(), cs, newEnv(t, cfg, seed), nil)
	if err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}
	return res
}

func TestTierFor(t *testing.T) {
	tiers := config.IncomeTiers{LowMax: 30000, MidMax: 80000}
	tests := []struct {
		income float64
		want   IncomeTier
	}{
		{0, TierLow},
		{29999.99, TierLow},
		{30000, TierMid},
		{79999, TierMid},
		{80000, TierHigh},
		{1e7, TierHigh},
	}
	for _, tt := range tests {
		if got := TierFor(tt.income, tiers); got != tt.want {
			t.Errorf("TierFor(%g): expected %s, got %s", tt.income, tt.want, got)
		}
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"full year", date(2022, 1, 1), date(2023, 1, 1), 12},
		{"day ignored", date(2022, 1, 31), date(2022, 2, 1), 1},
		{"same month", date(2022, 3, 2), date(2022, 3, 28), 0},
		{"negative clamped", date(2023, 5, 1), date(2023, 1, 1), 0},
		{"multi year", date(2020, 11, 15), date(2023, 1, 1), 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsBetween(tt.start, tt.end); got != tt.want {
				t.Errorf("Expected %d months, got %d", tt.want, got)
			}
		})
	}
}

func TestComputeActivePeriods(t *testing.T) {
	env := newEnv(t, config.Default().Datasets.Transactions, 1)
	in := []Profile{
		{Customer: customers.Customer{ID: "early", SignupDate: date(2019, 6, 1)}},
		{Customer: customers.Customer{ID: "late", SignupDate: date(2022, 7, 10)}},
	}

	out, err := ComputeActivePeriods(in, env)
	if err != nil {
		t.Fatalf("Stage failed: %v", err)
	}

	if !out[0].ActiveStart.Equal(env.GlobalStart) {
		t.Errorf("Expected early signup to start at the global start, got %s", out[0].ActiveStart)
	}
	if !out[1].ActiveStart.Equal(date(2022, 7, 10)) {
		t.Errorf("Expected late signup to start at signup, got %s", out[1].ActiveStart)
	}
	if out[1].ActiveMonths != 6 {
		t.Errorf("Expected 6 active months, got %d", out[1].ActiveMonths)
	}
	if in[0].ActiveMonths != 0 {
		t.Error("Expected stage to leave its input untouched")
	}
}

func TestZeroActiveMonthsMeansNoTransactions(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	cs := []customers.Customer{
		{ID: "at-end", Income: 200000, SignupDate: date(2023, 1, 1), Region: "ES"},
		{ID: "after-end", Income: 200000, SignupDate: date(2024, 3, 1), Region: "ES"},
		{ID: "same-month", Income: 200000, SignupDate: date(2022, 12, 31), Region: "ES"},
	}
	cfg.DateRange.End = "2022-12-31T23:59:59Z"

	for seed := int64(0); seed < 50; seed++ {
		res := run(t, cs, cfg, seed)
		for _, p := range res.Profiles {
			if p.ActiveMonths != 0 {
				t.Fatalf("Expected 0 active months for %s, got %d", p.ID, p.ActiveMonths)
			}
			if p.NumTransactions != 0 {
				t.Fatalf("Expected 0 transactions for %s, got %d", p.ID, p.NumTransactions)
			}
		}
		if len(res.Transactions) != 0 {
			t.Fatalf("Expected no transaction rows, got %d", len(res.Transactions))
		}
	}
}

func TestSignupAfterEndAlwaysZero(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	cs := []customers.Customer{{ID: "late", Income: 500000, SignupDate: date(2030, 1, 1), Region: "US"}}

	for seed := int64(0); seed < 100; seed++ {
		if res := run(t, cs, cfg, seed); len(res.Transactions) != 0 {
			t.Fatalf("Seed %d: expected 0 transactions, got %d", seed, len(res.Transactions))
		}
	}
}

func TestHighTierTwelveMonthMean(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	cfg.DateRange = config.DateRange{Start: "2022-01-01", End: "2023-01-01"}
	cfg.IncomeTiers = config.IncomeTiers{LowMax: 30000, MidMax: 80000}
	cfg.CustomerActivity = config.Activity{Low: 0.5, Mid: 1.0, High: 2.0}
	cs := []customers.Customer{{ID: "rich", Income: 100000, SignupDate: date(2022, 1, 1), Region: "ES"}}

	const runs = 300
	total := 0
	for seed := int64(0); seed < runs; seed++ {
		res := run(t, cs, cfg, seed)
		if res.Profiles[0].Tier != TierHigh {
			t.Fatalf("Expected high tier, got %s", res.Profiles[0].Tier)
		}
		if res.Profiles[0].ActiveMonths != 12 {
			t.Fatalf("Expected 12 active months, got %d", res.Profiles[0].ActiveMonths)
		}
		total += len(res.Transactions)
	}

	mean := float64(total) / runs
	if math.Abs(mean-24) > 1.5 {
		t.Errorf("Expected mean transaction count near 24, got %g", mean)
	}
}

func TestExpansionIsExact(t *testing.T) {
	cs := sampleCustomers(t, 200, 11)
	res := run(t, cs, config.Default().Datasets.Transactions, 12)

	want := 0
	for _, p := range res.Profiles {
		want += p.NumTransactions
	}
	if len(res.Transactions) != want {
		t.Fatalf("Expected %d rows, got %d", want, len(res.Transactions))
	}

	// replicas are contiguous and follow customer order
	i := 0
	for _, p := range res.Profiles {
		for j := 0; j < p.NumTransactions; j++ {
			if res.Transactions[i].CustomerID != p.ID {
				t.Fatalf("Expected row %d to belong to %s, got %s", i, p.ID, res.Transactions[i].CustomerID)
			}
			i++
		}
	}
}

func TestTransactionInvariants(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	cs := sampleCustomers(t, 300, 21)
	res := run(t, cs, cfg, 22)

	if len(res.Transactions) == 0 {
		t.Fatal("Expected some transactions")
	}

	byID := make(map[string]Profile, len(res.Profiles))
	for _, p := range res.Profiles {
		byID[p.ID] = p
	}

	seen := make(map[string]bool, len(res.Transactions))
	for _, tx := range res.Transactions {
		p := byID[tx.CustomerID]

		if tx.Timestamp.Before(p.ActiveStart) || !tx.Timestamp.Before(p.ActiveEnd) {
			t.Errorf("Timestamp %s outside [%s, %s)", tx.Timestamp, p.ActiveStart, p.ActiveEnd)
		}

		base := BaseSpend(p.Income, p.Tier, cfg.Amount)
		if tx.Amount < 1 || tx.Amount > 5*base {
			t.Errorf("Amount %g outside [1, %g]", tx.Amount, 5*base)
		}
		if cents := tx.Amount * 100; math.Abs(cents-math.Round(cents)) > 1e-6 {
			t.Errorf("Amount %g has more than 2 decimals", tx.Amount)
		}

		if tx.IsInternational != (tx.Country != p.Region) {
			t.Errorf("is_international=%v but country=%s region=%s", tx.IsInternational, tx.Country, p.Region)
		}

		if seen[tx.TransactionID] {
			t.Errorf("Duplicate transaction id %s", tx.TransactionID)
		}
		seen[tx.TransactionID] = true
	}
}

func TestConditionalDraws(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	cfg.BusinessRules.Channels.ByMerchantCategory["travel"] = config.Distribution{
		Values:  []string{"online"},
		Weights: []float64{1},
	}
	res := run(t, sampleCustomers(t, 300, 31), cfg, 32)

	for _, tx := range res.Transactions {
		if tx.MerchantCategory == "travel" && tx.Channel != "online" {
			t.Errorf("Expected travel to be online, got %s", tx.Channel)
		}
		if tx.Channel == "online" && tx.EntryMode != "manual" {
			t.Errorf("Expected online entry mode to be manual, got %s", tx.EntryMode)
		}
	}
}

func TestDomesticOnlyRegions(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	cfg.BusinessRules.TransactionCountry.DomesticProbabilityByRegion = nil
	res := run(t, sampleCustomers(t, 100, 41), cfg, 42)

	for _, tx := range res.Transactions {
		if tx.IsInternational {
			t.Fatalf("Expected every transaction to be domestic, got %+v", tx)
		}
	}
}

func TestAssignAmountsDegenerateIncome(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	cfg.Amount.MinIncome = 0
	env := newEnv(t, cfg, 1)

	rows := []Row{{Profile: Profile{Customer: customers.Customer{ID: "broke", Income: 0}, Tier: TierLow}}}
	_, err := AssignAmounts(rows, env)

	var degenerate *DegenerateInputError
	if !errors.As(err, &degenerate) {
		t.Fatalf("Expected DegenerateInputError, got %v", err)
	}
	if degenerate.CustomerID != "broke" {
		t.Errorf("Expected customer id 'broke', got '%s'", degenerate.CustomerID)
	}
}

func TestAssignAmountsFloorsIncome(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	env := newEnv(t, cfg, 1)

	rows := []Row{{Profile: Profile{Customer: customers.Customer{ID: "zero", Income: 0}, Tier: TierLow}}}
	out, err := AssignAmounts(rows, env)
	if err != nil {
		t.Fatalf("Expected floored income to succeed, got %v", err)
	}
	if out[0].Amount < 1 {
		t.Errorf("Expected a positive amount, got %g", out[0].Amount)
	}
}

func TestClampAmount(t *testing.T) {
	tests := []struct {
		x, base, want float64
	}{
		{0.2, 100, 1},
		{12.345, 100, 12.35},
		{12.344, 100, 12.34},
		{1000, 100, 500},
		{250.12345, 50.0213, 250.1},
		{0.5, 0.1, 0.5},
		{3, 0.1, 0.5},
	}
	for _, tt := range tests {
		if got := ClampAmount(tt.x, tt.base); got != tt.want {
			t.Errorf("ClampAmount(%g, %g): expected %g, got %g", tt.x, tt.base, tt.want, got)
		}
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := config.Default().Datasets.Transactions
	cs := sampleCustomers(t, 50, 5)

	a := run(t, cs, cfg, 77)
	b := run(t, cs, cfg, 77)

	if len(a.Transactions) != len(b.Transactions) {
		t.Fatalf("Expected equal row counts, got %d and %d", len(a.Transactions), len(b.Transactions))
	}
	for i := range a.Transactions {
		if a.Transactions[i] != b.Transactions[i] {
			t.Fatalf("Expected identical rows at %d", i)
		}
	}
}

type recorder struct{ stages []string }

func (r *recorder) ObserveStage(stage string, _ time.Duration) { r.stages = append(r.stages, stage) }

func TestObserverSeesEveryStage(t *testing.T) {
	env := newEnv(t, config.Default().Datasets.Transactions, 1)
	rec := &recorder{}

	if _, err := Generate(context.Background(), sampleCustomers(t, 5, 1), env, rec); err != nil {
		t.Fatalf("Pipeline failed: %v", err)
	}

	p := New(env, nil)
	want := len(p.ProfileSteps) + len(p.RowSteps) + 2
	if len(rec.stages) != want {
		t.Errorf("Expected %d observed stages, got %d: %v", want, len(rec.stages), rec.stages)
	}
	if rec.stages[0] != "income_tier" || rec.stages[len(rec.stages)-1] != "finalize" {
		t.Errorf("Unexpected stage order: %v", rec.stages)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env := newEnv(t, config.Default().Datasets.Transactions, 1)
	if _, err := Generate(ctx, sampleCustomers(t, 5, 1), env, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestTransactionsTable(t *testing.T) {
	res := run(t, sampleCustomers(t, 20, 3), config.Default().Datasets.Transactions, 4)
	tbl := TransactionsTable(res.Transactions)

	if tbl.Len() != len(res.Transactions) {
		t.Errorf("Expected %d rows, got %d", len(res.Transactions), tbl.Len())
	}
	names := tbl.ColumnNames()
	for i, want := range Columns {
		if names[i] != want {
			t.Errorf("Expected column %d to be %s, got %s", i, want, names[i])
		}
	}
}
