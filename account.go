package budget

import (
	"fmt"
	"time"

	"github.com/etnz/budget/date"
)

// Account is a budget envelope. Expenses and earnings reference it by id.
type Account struct {
	Name     string    `json:"name"`
	Amount   Money     `json:"amount"`
	Since    date.Date `json:"since"`
	Until    date.Date `json:"until"`
	Currency string    `json:"currency,omitempty"`
}

// openEnd is the Until date of an account that is still in use.
var openEnd = date.New(2099, time.December, 31)

// NewAccount returns an account starting on the first day of the current month, with no end.
func NewAccount(name string, amount Money) Account {
	return Account{
		Name:   name,
		Amount: amount,
		Since:  date.Today().StartOf(date.Monthly),
		Until:  openEnd,
	}
}

// Active reports whether the account is in use on day d.
func (a Account) Active(d date.Date) bool {
	return !d.Before(a.Since) && !d.After(a.Until)
}

func (a Account) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", a.Name, a.Amount, a.Since, a.Until, a.Currency)
}
