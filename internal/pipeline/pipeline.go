// Package pipeline turns a customer table into a transaction table through
// a fixed sequence of stages. Every stage returns a new slice; none mutates
// its input.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/customers"
)

// Step is one named stage over a slice of T.
type Step[T any] struct {
	Name string
	Run  func([]T, *Env) ([]T, error)
}

// Observer receives the wall time of each stage.
type Observer interface {
	ObserveStage(stage string, d time.Duration)
}

type Pipeline struct {
	env          *Env
	observer     Observer
	ProfileSteps []Step[Profile]
	RowSteps     []Step[Row]
}

func New(env *Env, observer Observer) *Pipeline {
	return &Pipeline{
		env:      env,
		observer: observer,
		ProfileSteps: []Step[Profile]{
			{Name: "income_tier", Run: AssignIncomeTiers},
			{Name: "active_period", Run: ComputeActivePeriods},
			{Name: "transaction_volume", Run: SampleTransactionCounts},
		},
		RowSteps: []Step[Row]{
			{Name: "timestamp", Run: AssignTimestamps},
			{Name: "amount", Run: AssignAmounts},
			{Name: "merchant_category", Run: AssignMerchantCategories},
			{Name: "status", Run: AssignStatuses},
			{Name: "transaction_id", Run: AssignTransactionIDs},
			{Name: "channel", Run: AssignChannels},
			{Name: "entry_mode", Run: AssignEntryModes},
			{Name: "transaction_country", Run: AssignCountries},
			{Name: "is_international", Run: DeriveInternational},
		},
	}
}

type Result struct {
	Profiles     []Profile
	Transactions []Transaction
}

func (p *Pipeline) Run(ctx context.Context, cs []customers.Customer) (*Result, error) {
	profiles := make([]Profile, len(cs))
	for i, c := range cs {
		profiles[i] = Profile{Customer: c}
	}

	profiles, err := runSteps(ctx, p, p.ProfileSteps, profiles)
	if err != nil {
		return nil, err
	}

	var rows []Row
	p.timed("expand", func() { rows = Expand(profiles) })
	p.env.Log.Info().Int("customers", len(profiles)).Int("rows", len(rows)).Msg("expanded customers into transactions")

	rows, err = runSteps(ctx, p, p.RowSteps, rows)
	if err != nil {
		return nil, err
	}

	var txs []Transaction
	p.timed("finalize", func() { txs = Finalize(rows) })

	return &Result{Profiles: profiles, Transactions: txs}, nil
}

func runSteps[T any](ctx context.Context, p *Pipeline, steps []Step[T], in []T) ([]T, error) {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var out []T
		var err error
		p.timed(step.Name, func() { out, err = step.Run(in, p.env) })
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s) failed: %w", i+1, step.Name, err)
		}
		in = out
	}
	return in, nil
}

func (p *Pipeline) timed(stage string, fn func()) {
	start := time.Now()
	fn()
	d := time.Since(start)

	p.env.Log.Debug().Str("stage", stage).Dur("took", d).Msg("stage complete")
	if p.observer != nil {
		p.observer.ObserveStage(stage, d)
	}
}

// Generate runs the standard stage sequence once.
func Generate(ctx context.Context, cs []customers.Customer, env *Env, observer Observer) (*Result, error) {
	return New(env, observer).Run(ctx, cs)
}
