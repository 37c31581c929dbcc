package validation

import (
	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
)

// CustomerSchema derives bounds and enums from the active configuration.
func CustomerSchema(cfg *config.Config) Schema {
	c := cfg.Datasets.Customers
	return Schema{
		Name:            "customers",
		RequiredColumns: []string{"customer_id", "customer_name", "age", "income", "signup_date", "region"},
		DTypes: map[string]string{
			"customer_id":   "string",
			"customer_name": "string",
			"age":           "int",
			"income":        "float",
			"signup_date":   "datetime",
			"region":        "string",
		},
		Constraints: map[string]Constraint{
			"age":         {Min: c.Age.Min, Max: c.Age.Max},
			"income":      {Min: 0.0},
			"signup_date": {Min: c.SignupDate.Start, Max: c.SignupDate.End},
			"region":      {AllowedValues: c.Region.Values},
		},
	}
}

// TransactionSchema keys the channel enum on the real "channel" column and
// fills it from the channel distributions actually configured.
func TransactionSchema(cfg *config.Config) Schema {
	t := cfg.Datasets.Transactions
	return Schema{
		Name: "transactions",
		RequiredColumns: []string{
			"transaction_id", "customer_id", "transaction_timestamp", "transaction_amount",
			"merchant_category", "transaction_status", "channel", "entry_mode",
			"transaction_country", "is_international",
		},
		DTypes: map[string]string{
			"transaction_id":        "string",
			"customer_id":           "string",
			"transaction_timestamp": "datetime",
			"transaction_amount":    "float",
			"merchant_category":     "string",
			"transaction_status":    "string",
			"channel":               "string",
			"entry_mode":            "string",
			"transaction_country":   "string",
			"is_international":      "bool",
		},
		Constraints: map[string]Constraint{
			"transaction_timestamp": {Min: t.DateRange.Start, Max: t.DateRange.End},
			"transaction_amount":    {Min: 0.0},
			"merchant_category":     {AllowedValues: t.Categories.MerchantCategories},
			"transaction_status":    {AllowedValues: t.StatusDistribution.Values},
			"channel":               {AllowedValues: t.ChannelValues()},
			"entry_mode":            {AllowedValues: t.EntryModeValues()},
			"transaction_country":   {AllowedValues: t.CountryValues(cfg.Datasets.Customers.Region.Values)},
		},
	}
}

// For returns the schema of a dataset by name.
func For(dataset string, cfg *config.Config) (Schema, bool) {
	switch dataset {
	case "customers":
		return CustomerSchema(cfg), true
	case "transactions":
		return TransactionSchema(cfg), true
	}
	return Schema{}, false
}

// Kinds maps each declared column to the table kind its dtype expects, for
// reading files that carry no type information.
func (s Schema) Kinds() map[string]table.Kind {
	kinds := make(map[string]table.Kind, len(s.DTypes))
	for col, dtype := range s.DTypes {
		if k, ok := dtypeKinds[dtype]; ok {
			kinds[col] = k
		}
	}
	return kinds
}
