package config

// DistributionFor returns overrides[key] when present, def otherwise.
func DistributionFor[T any](key string, overrides map[string]T, def T) T {
	if d, ok := overrides[key]; ok {
		return d
	}
	return def
}

// ChannelValues lists every channel the generator can emit.
func (t Transactions) ChannelValues() []string {
	rules := t.BusinessRules.Channels
	return union(rules.Default, rules.ByMerchantCategory)
}

// EntryModeValues lists every entry mode the generator can emit.
func (t Transactions) EntryModeValues() []string {
	rules := t.BusinessRules.EntryModes
	return union(rules.Default, rules.ByChannel)
}

// CountryValues lists every country a transaction can be booked in.
func (t Transactions) CountryValues(regions []string) []string {
	rules := t.BusinessRules.TransactionCountry
	out := union(rules.DefaultInternationalDestinations, rules.InternationalDestinationsByRegion)
	seen := make(map[string]bool, len(out))
	for _, v := range out {
		seen[v] = true
	}
	for _, r := range regions {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func union(def Distribution, overrides map[string]Distribution) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(values []string) {
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	add(def.Values)
	for _, key := range sortedKeys(overrides) {
		add(overrides[key].Values)
	}
	return out
}
