package config

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const weightTolerance = 1e-6

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding. Path is a dotted path into the YAML document.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Error is the configuration error raised before any generation starts.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	var msgs []string
	for _, iss := range e.Issues {
		if iss.Severity == SeverityError {
			msgs = append(msgs, iss.Path+": "+iss.Message)
		}
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Validate lints the whole config. It returns the issues it found and a
// non-nil *Error when at least one of them is an error.
func (c *Config) Validate() ([]Issue, error) {
	var issues []Issue

	switch c.Database.Provider {
	case "postgresql", "postgres", "mysql", "sqlite", "sqlite3":
	default:
		issues = append(issues, errorf("database.provider", "unsupported database provider %q", c.Database.Provider))
	}

	if c.Upload.Enabled {
		if c.Upload.Kind != "s3" && c.Upload.Kind != "gcs" {
			issues = append(issues, errorf("upload.kind", "must be s3 or gcs, got %q", c.Upload.Kind))
		}
		if c.Upload.Bucket == "" {
			issues = append(issues, errorf("upload.bucket", "bucket is required when upload is enabled"))
		}
	}

	issues = append(issues, validateCustomers(c.Datasets.Customers)...)
	if c.Datasets.Transactions.Enabled() {
		issues = append(issues, validateTransactions(c.Datasets.Transactions, c.Datasets.Customers.Region.Values)...)
	}

	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return issues, &Error{Issues: issues}
		}
	}
	return issues, nil
}

func validateCustomers(c Customers) []Issue {
	var issues []Issue
	p := "datasets.customers"

	if c.NRows < 0 {
		issues = append(issues, errorf(p+".n_rows", "must be >= 0, got %d", c.NRows))
	}
	if c.Age.Min > c.Age.Max {
		issues = append(issues, errorf(p+".age", "min %d is greater than max %d", c.Age.Min, c.Age.Max))
	}
	if c.Income.StdDev < 0 {
		issues = append(issues, errorf(p+".income.stddev", "must be >= 0"))
	}
	if c.Income.Floor <= 0 {
		issues = append(issues, errorf(p+".income.floor", "must be > 0"))
	}
	issues = append(issues, validateDateRange(p+".signup_date", c.SignupDate)...)
	issues = append(issues, ValidateDistribution(p+".region", c.Region)...)
	issues = append(issues, validateOutput(p+".output", c.Output)...)

	return issues
}

type namedValue struct {
	name  string
	value float64
}

func validateTransactions(t Transactions, regions []string) []Issue {
	var issues []Issue
	p := "datasets.transactions"

	issues = append(issues, validateDateRange(p+".date_range", t.DateRange)...)

	tiers := t.IncomeTiers
	if tiers.LowMax <= 0 {
		issues = append(issues, errorf(p+".income_tiers.low_max", "must be > 0"))
	}
	if tiers.MidMax < tiers.LowMax {
		issues = append(issues, errorf(p+".income_tiers.mid_max", "must be >= low_max (%g), got %g", tiers.LowMax, tiers.MidMax))
	}

	for _, f := range []namedValue{
		{"low_income_mean_tx_per_month", t.CustomerActivity.Low},
		{"mid_income_mean_tx_per_month", t.CustomerActivity.Mid},
		{"high_income_mean_tx_per_month", t.CustomerActivity.High},
	} {
		if f.value < 0 || math.IsNaN(f.value) {
			issues = append(issues, errorf(p+".customer_activity."+f.name, "must be >= 0"))
		}
	}

	a := t.Amount
	if a.Sigma < 0 || math.IsNaN(a.Sigma) {
		issues = append(issues, errorf(p+".amount.base_log_normal_sigma", "must be >= 0"))
	}
	for _, f := range []namedValue{
		{"low_income_factor", a.LowFactor},
		{"mid_income_factor", a.MidFactor},
		{"high_income_factor", a.HighFactor},
	} {
		if !(f.value > 0) {
			issues = append(issues, errorf(p+".amount."+f.name, "must be > 0"))
		}
	}
	if !(a.MinIncome > 0) {
		issues = append(issues, errorf(p+".amount.min_income", "must be > 0"))
	}

	issues = append(issues, ValidateDistribution(p+".categories", t.Categories.Distribution())...)
	issues = append(issues, ValidateDistribution(p+".status_distribution", t.StatusDistribution)...)

	rules := t.BusinessRules
	issues = append(issues, ValidateDistribution(p+".business_rules.channels.default_distribution", rules.Channels.Default)...)
	for _, key := range sortedKeys(rules.Channels.ByMerchantCategory) {
		path := p + ".business_rules.channels.by_merchant_category." + key
		issues = append(issues, ValidateDistribution(path, rules.Channels.ByMerchantCategory[key])...)
		if !contains(t.Categories.MerchantCategories, key) {
			issues = append(issues, warnf(path, "merchant category %q is never generated", key))
		}
	}

	issues = append(issues, ValidateDistribution(p+".business_rules.entry_modes.default_distribution", rules.EntryModes.Default)...)
	for _, key := range sortedKeys(rules.EntryModes.ByChannel) {
		issues = append(issues, ValidateDistribution(p+".business_rules.entry_modes.by_channel."+key, rules.EntryModes.ByChannel[key])...)
	}

	country := rules.TransactionCountry
	cp := p + ".business_rules.transaction_country"
	for _, region := range sortedKeys(country.DomesticProbabilityByRegion) {
		prob := country.DomesticProbabilityByRegion[region]
		if prob < 0 || prob > 1 || math.IsNaN(prob) {
			issues = append(issues, errorf(cp+".domestic_probability_by_region."+region, "must be within [0, 1], got %g", prob))
		}
	}
	for _, region := range sortedKeys(country.InternationalDestinationsByRegion) {
		issues = append(issues, ValidateDistribution(cp+".international_destinations_by_region."+region, country.InternationalDestinationsByRegion[region])...)
	}
	hasDefault := len(country.DefaultInternationalDestinations.Values) > 0
	if hasDefault {
		issues = append(issues, ValidateDistribution(cp+".default_international_destinations", country.DefaultInternationalDestinations)...)
	}
	for _, region := range regions {
		prob, ok := country.DomesticProbabilityByRegion[region]
		if !ok || prob >= 1 {
			continue
		}
		if _, ok := country.InternationalDestinationsByRegion[region]; !ok && !hasDefault {
			issues = append(issues, errorf(cp, "region %q can transact abroad but has no destination distribution and no default", region))
		}
	}

	if t.WarnRows < 0 {
		issues = append(issues, errorf(p+".warn_rows", "must be >= 0"))
	}
	issues = append(issues, validateOutput(p+".output", t.Output)...)

	return issues
}

// ValidateDistribution checks a values/weights pair.
func ValidateDistribution(path string, d Distribution) []Issue {
	var issues []Issue

	if len(d.Values) == 0 {
		return append(issues, errorf(path, "values must not be empty"))
	}
	if len(d.Values) != len(d.Weights) {
		return append(issues, errorf(path, "got %d values but %d weights", len(d.Values), len(d.Weights)))
	}

	sum := 0.0
	for i, w := range d.Weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			issues = append(issues, errorf(fmt.Sprintf("%s.weights[%d]", path, i), "weight must be a finite non-negative number, got %g", w))
			continue
		}
		sum += w
	}
	if len(issues) == 0 && math.Abs(sum-1) > weightTolerance {
		issues = append(issues, errorf(path+".weights", "weights must sum to 1, got %g", sum))
	}

	seen := make(map[string]bool, len(d.Values))
	for _, v := range d.Values {
		if seen[v] {
			issues = append(issues, warnf(path+".values", "duplicate value %q", v))
		}
		seen[v] = true
	}

	return issues
}

func validateDateRange(path string, r DateRange) []Issue {
	start, end, err := r.Bounds()
	if err != nil {
		return []Issue{errorf(path, "%v", err)}
	}
	if !start.Before(end) {
		return []Issue{errorf(path, "start %s must be before end %s", r.Start, r.End)}
	}
	return nil
}

func validateOutput(path string, o Output) []Issue {
	switch o.Format {
	case "csv", "json", "parquet":
		if o.Path == "" {
			return []Issue{errorf(path+".path", "path is required for %s output", o.Format)}
		}
	case "database":
		if o.Table == "" {
			return []Issue{errorf(path+".table", "table is required for database output")}
		}
	default:
		return []Issue{errorf(path+".format", "unsupported output format %q (csv, json, parquet, database)", o.Format)}
	}
	return nil
}

func errorf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
