package budget

import (
	"fmt"

	"github.com/etnz/budget/date"
)

// Asset is something owned whose value is tracked over time with AssetValue records.
//
// The allocation fields are percentages of the asset invested in each class.
type Asset struct {
	Name           string `json:"name"`
	IntStocks      Money  `json:"int_stocks"`
	DomStocks      Money  `json:"dom_stocks"`
	Bonds          Money  `json:"bonds"`
	Cash           Money  `json:"cash"`
	Portfolio      bool   `json:"portfolio"`
	PortfolioAlloc Money  `json:"portfolio_alloc"`
	Currency       string `json:"currency"`
}

// fullAllocation is the only valid total allocation.
var fullAllocation = M(100)

// Allocation returns the total allocation of the asset, in percent.
func (a Asset) Allocation() Money {
	return Sum(a.IntStocks, a.DomStocks, a.Bonds, a.Cash)
}

// Validate checks that the allocation sums to exactly 100%.
func (a Asset) Validate() error {
	if total := a.Allocation(); !total.Equal(fullAllocation) {
		return fmt.Errorf("%w: the total allocation of the asset is not 100%% (got %s%%)", ErrBusinessRule, total)
	}
	return nil
}

func (a Asset) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%t:%s:%s", a.Name, a.IntStocks, a.DomStocks, a.Bonds, a.Cash, a.Portfolio, a.PortfolioAlloc, a.Currency)
}

// AssetValue is the value of an asset on a given day.
type AssetValue struct {
	Asset  int64     `json:"asset"`
	Amount Money     `json:"amount"`
	Date   date.Date `json:"date"`
}

func (v AssetValue) String() string {
	return fmt.Sprintf("%d:%s:%s", v.Asset, v.Amount, v.Date)
}

// LatestValues returns the latest value of each asset, keyed by asset id.
// The latest value is the one with the greatest date, ties broken by the greatest record id.
func LatestValues(values []Record[AssetValue]) map[int64]Record[AssetValue] {
	latest := make(map[int64]Record[AssetValue])
	for _, v := range values {
		cur, exists := latest[v.Value.Asset]
		if !exists || v.Value.Date.After(cur.Value.Date) || (v.Value.Date.Equal(cur.Value.Date) && v.ID > cur.ID) {
			latest[v.Value.Asset] = v
		}
	}
	return latest
}

func (v AssetValue) On() date.Date { return v.Date }
