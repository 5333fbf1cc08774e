package totals

import (
	"context"

	"epack-comc-prices/storage"
)

// feePreferenceKey deliberately sits outside the cache namespace so
// cache clears never reset the preference.
const feePreferenceKey = "epack-comc-include-fee"

// FeePreference persists the include-fee toggle.
type FeePreference struct {
	kv storage.KeyValueStore
}

// NewFeePreference creates the preference over a key-value capability.
func NewFeePreference(kv storage.KeyValueStore) *FeePreference {
	return &FeePreference{kv: kv}
}

// IncludeFee reads the preference. Missing or unreadable values default
// to fee-inclusive.
func (p *FeePreference) IncludeFee(ctx context.Context) bool {
	v, err := p.kv.Get(ctx, feePreferenceKey)
	if err != nil {
		return true
	}
	return string(v) != "false"
}

// SetIncludeFee stores the preference.
func (p *FeePreference) SetIncludeFee(ctx context.Context, includeFee bool) error {
	v := "true"
	if !includeFee {
		v = "false"
	}
	return p.kv.Set(ctx, feePreferenceKey, []byte(v))
}
