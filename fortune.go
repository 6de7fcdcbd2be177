package budget

import (
	"fmt"

	"github.com/etnz/budget/date"
)

// Fortune is a check of the total wealth on a given day.
type Fortune struct {
	CheckDate date.Date `json:"check_date"`
	Amount    Money     `json:"amount"`
}

func (f Fortune) String() string {
	return fmt.Sprintf("%s:%s", f.CheckDate, f.Amount)
}

func (f Fortune) On() date.Date { return f.CheckDate }
