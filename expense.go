package budget

import (
	"fmt"

	"github.com/etnz/budget/date"
)

// Expense is money spent from an account.
type Expense struct {
	Date    date.Date `json:"date"`
	Name    string    `json:"name"`
	Account int64     `json:"account"`
	Amount  Money     `json:"amount"`
}

func (e Expense) String() string {
	return fmt.Sprintf("%s:%s:%d:%s", e.Date, e.Name, e.Account, e.Amount)
}

// Earning is money received on an account.
type Earning struct {
	Date    date.Date `json:"date"`
	Name    string    `json:"name"`
	Account int64     `json:"account"`
	Amount  Money     `json:"amount"`
}

func (e Earning) String() string {
	return fmt.Sprintf("%s:%s:%d:%s", e.Date, e.Name, e.Account, e.Amount)
}

// Dated is implemented by payloads that happen on a given day.
type Dated interface {
	On() date.Date
}

func (e Expense) On() date.Date { return e.Date }
func (e Earning) On() date.Date { return e.Date }
