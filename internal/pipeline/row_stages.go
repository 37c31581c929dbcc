package pipeline

import (
	"fmt"
	"math"
	"slices"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/sampler"
	"github.com/shopspring/decimal"
)

func AssignTimestamps(in []Row, env *Env) ([]Row, error) {
	out := slices.Clone(in)
	for i := range out {
		out[i].Timestamp = env.Sampler.UniformTime(out[i].ActiveStart, out[i].ActiveEnd)
	}
	return out, nil
}

func spendFactor(tier IncomeTier, a config.Amount) float64 {
	switch tier {
	case TierLow:
		return a.LowFactor
	case TierMid:
		return a.MidFactor
	}
	return a.HighFactor
}

// BaseSpend is the expected monthly spend of one transaction. Incomes
// below minIncome are raised to it first.
func BaseSpend(income float64, tier IncomeTier, a config.Amount) float64 {
	return math.Max(income, a.MinIncome) * spendFactor(tier, a) / 12
}

// ClampAmount rounds to cents and bounds the result to [1, 5*base]. The
// upper bound is truncated to cents so rounding never pushes past it, and
// wins when 5*base is below 1.
func ClampAmount(x, base float64) float64 {
	lo := decimal.NewFromInt(1)
	hi := decimal.NewFromFloat(5 * base).Truncate(2)

	v := decimal.NewFromFloat(x).Round(2)
	if v.LessThan(lo) {
		v = lo
	}
	if v.GreaterThan(hi) {
		v = hi
	}
	return v.InexactFloat64()
}

// AssignAmounts draws log-normal amounts whose mean is the base spend.
func AssignAmounts(in []Row, env *Env) ([]Row, error) {
	out := slices.Clone(in)
	sigma := env.Config.Amount.Sigma
	for i := range out {
		r := &out[i]
		base := BaseSpend(r.Income, r.Tier, env.Config.Amount)
		if !(base > 0) || math.IsInf(base, 0) {
			return nil, &DegenerateInputError{CustomerID: r.ID, Income: r.Income, BaseSpend: base}
		}
		mu := math.Log(base) - sigma*sigma/2
		r.Amount = ClampAmount(env.Sampler.LogNormal(mu, sigma), base)
	}
	return out, nil
}

func AssignMerchantCategories(in []Row, env *Env) ([]Row, error) {
	c, err := env.Sampler.NewChooser(env.Config.Categories.MerchantCategories, env.Config.Categories.Weights)
	if err != nil {
		return nil, fmt.Errorf("merchant categories: %w", err)
	}
	out := slices.Clone(in)
	for i := range out {
		out[i].MerchantCategory = c.Pick()
	}
	return out, nil
}

func AssignStatuses(in []Row, env *Env) ([]Row, error) {
	d := env.Config.StatusDistribution
	c, err := env.Sampler.NewChooser(d.Values, d.Weights)
	if err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}
	out := slices.Clone(in)
	for i := range out {
		out[i].Status = c.Pick()
	}
	return out, nil
}

func AssignTransactionIDs(in []Row, env *Env) ([]Row, error) {
	out := slices.Clone(in)
	for i := range out {
		out[i].TransactionID = env.Sampler.UUID()
	}
	return out, nil
}

// conditionalChoosers builds one chooser per override key plus the default.
func conditionalChoosers(s *sampler.Sampler, def config.Distribution, overrides map[string]config.Distribution) (map[string]*sampler.Chooser, *sampler.Chooser, error) {
	var defChooser *sampler.Chooser
	if len(def.Values) > 0 {
		c, err := s.NewChooser(def.Values, def.Weights)
		if err != nil {
			return nil, nil, fmt.Errorf("default distribution: %w", err)
		}
		defChooser = c
	}

	byKey := make(map[string]*sampler.Chooser, len(overrides))
	for key, d := range overrides {
		c, err := s.NewChooser(d.Values, d.Weights)
		if err != nil {
			return nil, nil, fmt.Errorf("distribution for %q: %w", key, err)
		}
		byKey[key] = c
	}
	return byKey, defChooser, nil
}

func AssignChannels(in []Row, env *Env) ([]Row, error) {
	rules := env.Config.BusinessRules.Channels
	byCategory, def, err := conditionalChoosers(env.Sampler, rules.Default, rules.ByMerchantCategory)
	if err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}

	out := slices.Clone(in)
	for i := range out {
		c := config.DistributionFor(out[i].MerchantCategory, byCategory, def)
		if c == nil {
			return nil, fmt.Errorf("channels: no distribution for merchant category %q", out[i].MerchantCategory)
		}
		out[i].Channel = c.Pick()
	}
	return out, nil
}

func AssignEntryModes(in []Row, env *Env) ([]Row, error) {
	rules := env.Config.BusinessRules.EntryModes
	byChannel, def, err := conditionalChoosers(env.Sampler, rules.Default, rules.ByChannel)
	if err != nil {
		return nil, fmt.Errorf("entry modes: %w", err)
	}

	out := slices.Clone(in)
	for i := range out {
		c := config.DistributionFor(out[i].Channel, byChannel, def)
		if c == nil {
			return nil, fmt.Errorf("entry modes: no distribution for channel %q", out[i].Channel)
		}
		out[i].EntryMode = c.Pick()
	}
	return out, nil
}

// AssignCountries books a row domestically with the region's domestic
// probability (1.0 when unset), otherwise draws a destination.
func AssignCountries(in []Row, env *Env) ([]Row, error) {
	rules := env.Config.BusinessRules.TransactionCountry
	byRegion, def, err := conditionalChoosers(env.Sampler, rules.DefaultInternationalDestinations, rules.InternationalDestinationsByRegion)
	if err != nil {
		return nil, fmt.Errorf("transaction country: %w", err)
	}

	out := slices.Clone(in)
	for i := range out {
		r := &out[i]
		p := config.DistributionFor(r.Region, rules.DomesticProbabilityByRegion, 1.0)
		if env.Sampler.Bernoulli(p) {
			r.Country = r.Region
			continue
		}
		c := config.DistributionFor(r.Region, byRegion, def)
		if c == nil {
			return nil, fmt.Errorf("transaction country: no international destinations for region %q", r.Region)
		}
		r.Country = c.Pick()
	}
	return out, nil
}

func DeriveInternational(in []Row, env *Env) ([]Row, error) {
	out := slices.Clone(in)
	for i := range out {
		out[i].IsInternational = out[i].Country != out[i].Region
	}
	return out, nil
}

// Finalize projects rows onto the output record, dropping every
// transient customer field.
func Finalize(in []Row) []Transaction {
	out := make([]Transaction, len(in))
	for i, r := range in {
		out[i] = Transaction{
			TransactionID:    r.TransactionID,
			CustomerID:       r.ID,
			Timestamp:        r.Timestamp,
			Amount:           r.Amount,
			MerchantCategory: r.MerchantCategory,
			Status:           r.Status,
			Channel:          r.Channel,
			EntryMode:        r.EntryMode,
			Country:          r.Country,
			IsInternational:  r.IsInternational,
		}
	}
	return out
}
