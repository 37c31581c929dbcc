// Package runner wires generation, validation and persistence of both
// datasets for one invocation of the CLI.
package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/customers"
	"github.com/Lumos-Labs-HQ/txsynth/internal/export"
	"github.com/Lumos-Labs-HQ/txsynth/internal/metrics"
	"github.com/Lumos-Labs-HQ/txsynth/internal/objstore"
	"github.com/Lumos-Labs-HQ/txsynth/internal/pipeline"
	"github.com/Lumos-Labs-HQ/txsynth/internal/sampler"
	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
	"github.com/Lumos-Labs-HQ/txsynth/internal/validation"
	"github.com/rs/zerolog"
)

const DefaultSQLitePath = "data/txsynth.db"

type Options struct {
	// Only restricts saving to one dataset. Customers are still generated
	// when only transactions are requested.
	Only   string
	DryRun bool
}

type DatasetResult struct {
	Dataset string
	Rows    int
	Report  validation.Report
	Saved   *export.Result
}

type Summary struct {
	Seed     int64
	Datasets []DatasetResult
	Uploaded []objstore.Uploaded
}

// Failed lists the datasets whose validation did not pass.
func (s *Summary) Failed() []string {
	var failed []string
	for _, d := range s.Datasets {
		if !d.Report.OK() {
			failed = append(failed, d.Dataset)
		}
	}
	return failed
}

type Runner struct {
	cfg     *config.Config
	log     zerolog.Logger
	sampler *sampler.Sampler
	metrics *metrics.Recorder

	newStore func(context.Context, config.Upload) (objstore.ObjectStore, error)
}

// New validates cfg and seeds the sampler. A nil seed seeds from the clock.
func New(cfg *config.Config, log zerolog.Logger) (*Runner, error) {
	issues, err := cfg.Validate()
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			log.Warn().Str("path", iss.Path).Msg(iss.Message)
		}
	}
	if err != nil {
		return nil, err
	}

	rec, err := metrics.NewRecorder(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL)
	if err != nil {
		return nil, err
	}

	s := sampler.NewFromClock()
	if cfg.Seed != nil {
		s = sampler.New(*cfg.Seed)
	}

	return &Runner{cfg: cfg, log: log, sampler: s, metrics: rec, newStore: objstore.New}, nil
}

// SetObjectStore replaces the store built from the upload config.
func (r *Runner) SetObjectStore(store objstore.ObjectStore) {
	r.newStore = func(context.Context, config.Upload) (objstore.ObjectStore, error) { return store, nil }
}

func (r *Runner) Seed() int64 { return r.sampler.Seed() }

func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	switch opts.Only {
	case "", "customers", "transactions":
	default:
		return nil, fmt.Errorf("unknown dataset %q (expected customers or transactions)", opts.Only)
	}

	ds := r.cfg.Datasets
	saveCustomers := ds.Customers.Enabled() && (opts.Only == "" || opts.Only == "customers")
	saveTransactions := ds.Transactions.Enabled() && (opts.Only == "" || opts.Only == "transactions")

	summary := &Summary{Seed: r.Seed()}
	r.log.Info().Int64("seed", summary.Seed).Msg("starting generation")

	if !saveCustomers && !saveTransactions {
		r.log.Warn().Msg("no dataset enabled, nothing to do")
		return summary, nil
	}

	db, err := r.database(saveCustomers, saveTransactions)
	if err != nil {
		return nil, err
	}

	cs, err := customers.NewGenerator(ds.Customers, r.sampler).Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate customers: %w", err)
	}
	r.log.Info().Int("rows", len(cs)).Msg("generated customers")

	if saveCustomers {
		res, err := r.finish(ctx, customers.ToTable(cs), validation.CustomerSchema(r.cfg), ds.Customers.Output, db, opts.DryRun)
		if err != nil {
			return nil, err
		}
		summary.Datasets = append(summary.Datasets, res)
	}

	if saveTransactions {
		env, err := pipeline.NewEnv(ds.Transactions, r.sampler, r.log)
		if err != nil {
			return nil, err
		}
		result, err := pipeline.Generate(ctx, cs, env, r.metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to generate transactions: %w", err)
		}

		res, err := r.finish(ctx, pipeline.TransactionsTable(result.Transactions), validation.TransactionSchema(r.cfg), ds.Transactions.Output, db, opts.DryRun)
		if err != nil {
			return nil, err
		}
		summary.Datasets = append(summary.Datasets, res)
	}

	if r.cfg.Upload.Enabled && !opts.DryRun {
		uploaded, err := r.upload(ctx, summary)
		if err != nil {
			return nil, err
		}
		summary.Uploaded = uploaded
	}

	if err := r.metrics.Push(); err != nil {
		r.log.Warn().Err(err).Msg("metrics push failed")
	}

	return summary, nil
}

// finish validates t and saves it when validation passes.
func (r *Runner) finish(ctx context.Context, t *table.Table, schema validation.Schema, out config.Output, db export.Database, dryRun bool) (DatasetResult, error) {
	res := DatasetResult{Dataset: schema.Name, Rows: t.Len()}
	r.metrics.AddRows(schema.Name, t.Len())

	res.Report = validation.Validate(t, schema, r.log)
	r.metrics.AddViolations(schema.Name, len(res.Report.Violations))
	if !res.Report.OK() {
		r.log.Error().Str("dataset", schema.Name).Int("violations", len(res.Report.Violations)).Msg("not saving invalid dataset")
		return res, nil
	}

	if dryRun {
		r.log.Info().Str("dataset", schema.Name).Msg("dry run, not saving")
		return res, nil
	}

	saved, err := export.Write(ctx, t, out, db)
	if err != nil {
		return res, fmt.Errorf("failed to save %s: %w", schema.Name, err)
	}
	r.log.Info().Str("dataset", schema.Name).Str("format", saved.Format).Str("location", saved.Location).Int("rows", saved.Rows).Msg("saved dataset")
	res.Saved = saved
	return res, nil
}

// database resolves the connection only if some requested output needs it.
func (r *Runner) database(withCustomers, withTransactions bool) (export.Database, error) {
	ds := r.cfg.Datasets
	needed := (withCustomers && ds.Customers.Output.Format == "database") ||
		(withTransactions && ds.Transactions.Output.Format == "database")
	if !needed {
		return export.Database{}, nil
	}

	db := export.Database{Provider: r.cfg.Database.Provider}
	url, err := r.cfg.GetDatabaseURL()
	if err != nil {
		if db.Provider != "sqlite" && db.Provider != "sqlite3" {
			return db, err
		}
		if err := os.MkdirAll("data", 0755); err != nil {
			return db, fmt.Errorf("failed to create data directory: %w", err)
		}
		url = DefaultSQLitePath
	}
	db.URL = url
	return db, nil
}

func (r *Runner) upload(ctx context.Context, summary *Summary) ([]objstore.Uploaded, error) {
	var files []string
	for _, d := range summary.Datasets {
		if d.Saved != nil && d.Saved.File != "" {
			files = append(files, d.Saved.File)
		}
	}
	if len(files) == 0 {
		return nil, nil
	}

	store, err := r.newStore(ctx, r.cfg.Upload)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	uploaded, err := objstore.UploadFiles(ctx, store, r.cfg.Upload.Bucket, r.cfg.Upload.Prefix, files, r.log)
	if err != nil {
		return nil, fmt.Errorf("failed to upload outputs: %w", err)
	}
	return uploaded, nil
}

// ValidateFile checks an existing csv or parquet output against the
// dataset's schema under cfg.
func ValidateFile(ctx context.Context, cfg *config.Config, dataset, path string, log zerolog.Logger) (validation.Report, error) {
	schema, ok := validation.For(dataset, cfg)
	if !ok {
		return validation.Report{}, fmt.Errorf("unknown dataset %q (expected customers or transactions)", dataset)
	}

	t, err := export.Read(ctx, path, schema.Kinds())
	if err != nil {
		return validation.Report{}, err
	}
	return validation.Validate(t, schema, log), nil
}
