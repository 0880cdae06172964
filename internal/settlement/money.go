package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
)

// FeeRate is the share of new gains above the high-water mark paid to the
// operator pool.
var FeeRate = decimal.RequireFromString("0.30")

// policy is the rounding and range policy for one currency.
type policy struct {
	currency string
	places   int32
	limit    decimal.Decimal
}

func newPolicy(code string) (policy, error) {
	cur, err := domain.LookupCurrency(code)
	if err != nil {
		return policy{}, err
	}

	return policy{
		currency: cur.Code,
		places:   int32(cur.Fraction),
		limit:    domain.MaxAmount(),
	}, nil
}

// round applies round-half-even to the currency minor unit.
func (p policy) round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(p.places)
}

// check rejects amounts outside the supported range.
func (p policy) check(op string, values ...decimal.Decimal) error {
	for _, v := range values {
		if v.Abs().GreaterThan(p.limit) {
			return &domain.ArithmeticError{Op: op, Value: v.String(), Err: domain.ErrOverflow}
		}
	}
	return nil
}

// returnOn computes balance * pct / 100 exactly.
func returnOn(balance, pct decimal.Decimal) decimal.Decimal {
	return balance.Mul(pct).Shift(-2)
}
