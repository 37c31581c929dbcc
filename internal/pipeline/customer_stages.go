package pipeline

import (
	"slices"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
)

func TierFor(income float64, tiers config.IncomeTiers) IncomeTier {
	switch {
	case income < tiers.LowMax:
		return TierLow
	case income < tiers.MidMax:
		return TierMid
	}
	return TierHigh
}

// MonthsBetween counts calendar month boundaries; day of month is ignored.
// Negative spans are clamped to zero.
func MonthsBetween(start, end time.Time) int {
	start, end = start.UTC(), end.UTC()
	m := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	return max(m, 0)
}

func AssignIncomeTiers(in []Profile, env *Env) ([]Profile, error) {
	out := slices.Clone(in)
	for i := range out {
		out[i].Tier = TierFor(out[i].Income, env.Config.IncomeTiers)
	}
	return out, nil
}

func ComputeActivePeriods(in []Profile, env *Env) ([]Profile, error) {
	out := slices.Clone(in)
	for i := range out {
		p := &out[i]
		p.ActiveStart = p.SignupDate
		if p.ActiveStart.Before(env.GlobalStart) {
			p.ActiveStart = env.GlobalStart
		}
		p.ActiveEnd = env.GlobalEnd
		p.ActiveMonths = MonthsBetween(p.ActiveStart, p.ActiveEnd)
	}
	return out, nil
}

func monthlyRate(tier IncomeTier, a config.Activity) float64 {
	switch tier {
	case TierLow:
		return a.Low
	case TierMid:
		return a.Mid
	}
	return a.High
}

// SampleTransactionCounts draws one Poisson count per customer. Counts are
// not capped; a warning is logged when the total crosses warn_rows.
func SampleTransactionCounts(in []Profile, env *Env) ([]Profile, error) {
	out := slices.Clone(in)
	total := 0
	for i := range out {
		p := &out[i]
		lambda := float64(p.ActiveMonths) * monthlyRate(p.Tier, env.Config.CustomerActivity)
		p.NumTransactions = env.Sampler.Poisson(lambda)
		total += p.NumTransactions
	}

	if env.Config.WarnRows > 0 && total > env.Config.WarnRows {
		env.Log.Warn().
			Int("rows", total).
			Int("warn_rows", env.Config.WarnRows).
			Msg("transaction count exceeds warn_rows; output size is unbounded")
	}
	return out, nil
}

// Expand replicates every profile NumTransactions times. Replicas of one
// customer are contiguous and customers keep their input order.
func Expand(in []Profile) []Row {
	total := 0
	for _, p := range in {
		total += max(p.NumTransactions, 0)
	}

	out := make([]Row, 0, total)
	for _, p := range in {
		for j := 0; j < p.NumTransactions; j++ {
			out = append(out, Row{Profile: p})
		}
	}
	return out
}
