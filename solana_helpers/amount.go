package solana_helpers

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountToBaseUnits converts a human readable decimal amount to raw base
// units: floor(amount * 10^decimals). Excess precision is truncated,
// never rounded up.
func AmountToBaseUnits(amount string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf(`not a valid amount: "%s"`, amount)
	}

	if !d.IsPositive() {
		return 0, fmt.Errorf("amount has to be positive")
	}

	raw := d.Shift(int32(decimals)).Truncate(0).BigInt()

	if raw.Cmp(new(big.Int).SetUint64(^uint64(0))) > 0 {
		return 0, fmt.Errorf("amount out of range")
	}

	return raw.Uint64(), nil
}
