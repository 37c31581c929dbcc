package pipeline

import (
	"time"

	"github.com/Lumos-Labs-HQ/txsynth/internal/table"
)

// Columns is the output column order of the transaction table.
var Columns = []string{
	"transaction_id",
	"customer_id",
	"transaction_timestamp",
	"transaction_amount",
	"merchant_category",
	"transaction_status",
	"channel",
	"entry_mode",
	"transaction_country",
	"is_international",
}

func TransactionsTable(txs []Transaction) *table.Table {
	n := len(txs)
	var (
		ids        = make([]string, n)
		custIDs    = make([]string, n)
		timestamps = make([]time.Time, n)
		amounts    = make([]float64, n)
		categories = make([]string, n)
		statuses   = make([]string, n)
		channels   = make([]string, n)
		entryModes = make([]string, n)
		countries  = make([]string, n)
		intl       = make([]bool, n)
	)
	for i, tx := range txs {
		ids[i] = tx.TransactionID
		custIDs[i] = tx.CustomerID
		timestamps[i] = tx.Timestamp
		amounts[i] = tx.Amount
		categories[i] = tx.MerchantCategory
		statuses[i] = tx.Status
		channels[i] = tx.Channel
		entryModes[i] = tx.EntryMode
		countries[i] = tx.Country
		intl[i] = tx.IsInternational
	}

	t := table.New("transactions")
	_ = t.AddStrings(Columns[0], ids)
	_ = t.AddStrings(Columns[1], custIDs)
	_ = t.AddTimes(Columns[2], timestamps)
	_ = t.AddFloats(Columns[3], amounts)
	_ = t.AddStrings(Columns[4], categories)
	_ = t.AddStrings(Columns[5], statuses)
	_ = t.AddStrings(Columns[6], channels)
	_ = t.AddStrings(Columns[7], entryModes)
	_ = t.AddStrings(Columns[8], countries)
	_ = t.AddBools(Columns[9], intl)
	return t
}
