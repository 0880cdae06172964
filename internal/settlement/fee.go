package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gosettle/internal/domain"
)

// pools holds the running balances of both pools and the high-water mark.
type pools struct {
	capital  decimal.Decimal
	operator decimal.Decimal
	hwm      decimal.Decimal
}

// settleWeek applies one week's return to both pools and moves the
// performance fee from the capital pool to the operator pool.
//
// The mark is first lifted to the capital the week starts with, so capital
// brought in by deposits is never charged as a gain. The fee is then charged
// on the part of the post-return capital above that mark.
func (p policy) settleWeek(w *domain.Week, cur pools) (domain.WeeklyResult, error) {
	capitalPnL := p.round(returnOn(cur.capital, w.Percentage))
	operatorPnL := p.round(returnOn(cur.operator, w.Percentage))

	hwmBefore := decimal.Max(cur.hwm, cur.capital)
	candidate := cur.capital.Add(capitalPnL)

	fee := decimal.Zero
	if excess := candidate.Sub(hwmBefore); excess.IsPositive() {
		fee = p.round(excess.Mul(FeeRate))
	}

	res := domain.WeeklyResult{
		WeekID:        w.ID,
		WeekNumber:    w.WeekNumber,
		CapitalStart:  cur.capital,
		OperatorStart: cur.operator,
		CapitalPnL:    capitalPnL,
		OperatorPnL:   operatorPnL,
		FeeGenerated:  fee,
		CapitalEnd:    candidate.Sub(fee),
		OperatorEnd:   cur.operator.Add(operatorPnL).Add(fee),
		HWMBefore:     hwmBefore,
		HWMAfter:      decimal.Max(hwmBefore, candidate),
	}

	if err := p.check("settle week",
		res.CapitalPnL, res.OperatorPnL, res.FeeGenerated,
		res.CapitalEnd, res.OperatorEnd, res.HWMAfter,
	); err != nil {
		return domain.WeeklyResult{}, err
	}

	return res, nil
}
