package budget

import (
	"fmt"

	"github.com/etnz/budget/date"
)

// Objective is a financial goal. Type, Source and Operator are free form, e.g. "monthly", "savings_rate", "min".
type Objective struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Source   string    `json:"source"`
	Operator string    `json:"operator"`
	Amount   Money     `json:"amount"`
	Date     date.Date `json:"date"`
}

func (o Objective) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s", o.Name, o.Type, o.Source, o.Operator, o.Amount, o.Date)
}

func (o Objective) On() date.Date { return o.Date }
