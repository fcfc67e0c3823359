package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
	"github.com/meghshyam-labs/vyapar-backend/pkg/enums"
)

// Item is one cart line as seen by the calculator. Weights are grams; a nil
// weight means the catalog carries no figure for that level.
type Item struct {
	UnitWeightGrams    *int
	VariantWeightGrams *int
	Qty                int
}

// Calculator prices delivery from cart weight, shipping method, and
// currency. It is pure: no I/O, deterministic for a given config.
type Calculator struct {
	baseFee        decimal.Decimal
	blockFee       decimal.Decimal
	blockGrams     int64
	expeditedFee   decimal.Decimal
	foreignFlatFee decimal.Decimal
	baseCurrency   enums.Currency
}

// NewCalculator builds a calculator from the configured fee schedule.
func NewCalculator(cfg config.ShippingConfig, baseCurrency enums.Currency) *Calculator {
	blockGrams := int64(cfg.BlockGrams)
	if blockGrams <= 0 {
		blockGrams = 500
	}
	return &Calculator{
		baseFee:        decimal.NewFromInt(int64(cfg.BaseFee)),
		blockFee:       decimal.NewFromInt(int64(cfg.BlockFee)),
		blockGrams:     blockGrams,
		expeditedFee:   decimal.NewFromInt(int64(cfg.ExpeditedFee)),
		foreignFlatFee: decimal.NewFromInt(int64(cfg.ForeignFlatFee)),
		baseCurrency:   baseCurrency,
	}
}

// Compute returns the delivery charge for the cart.
//
// Outside the base currency weight never matters: expedited pays a flat fee,
// standard ships free. In the base currency expedited is a flat fee, and
// standard is tiered: the base fee covers the first block of weight and every
// further started block adds the block fee. Weightless carts ship free.
func (c *Calculator) Compute(items []Item, method enums.ShippingMethod, currency enums.Currency) decimal.Decimal {
	if currency != c.baseCurrency {
		if method == enums.ShippingMethodExpedited {
			return c.foreignFlatFee
		}
		return decimal.Zero
	}

	if method == enums.ShippingMethodExpedited {
		return c.expeditedFee
	}

	totalWeight := totalWeightGrams(items)
	if totalWeight <= 0 {
		return decimal.Zero
	}

	extra := totalWeight - c.blockGrams
	if extra <= 0 {
		return c.baseFee
	}

	blocks := (extra + c.blockGrams - 1) / c.blockGrams
	return c.baseFee.Add(c.blockFee.Mul(decimal.NewFromInt(blocks)))
}

func totalWeightGrams(items []Item) int64 {
	var total int64
	for _, item := range items {
		qty := item.Qty
		if qty <= 0 {
			qty = 1
		}
		weight := 0
		switch {
		case item.VariantWeightGrams != nil:
			weight = *item.VariantWeightGrams
		case item.UnitWeightGrams != nil:
			weight = *item.UnitWeightGrams
		}
		if weight <= 0 {
			continue
		}
		total += int64(weight) * int64(qty)
	}
	return total
}
