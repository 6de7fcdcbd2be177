package budget

import (
	"fmt"

	"github.com/etnz/budget/date"
)

// Wish is something the user would like to buy.
type Wish struct {
	Date       date.Date `json:"date"`
	Name       string    `json:"name"`
	Importance int       `json:"importance"`
	Urgency    int       `json:"urgency"`
	Amount     Money     `json:"amount"`
	Paid       bool      `json:"paid"`
	PaidAmount Money     `json:"paid_amount"`
}

func (w Wish) String() string {
	return fmt.Sprintf("%s:%s:%d:%d:%s:%t:%s", w.Date, w.Name, w.Importance, w.Urgency, w.Amount, w.Paid, w.PaidAmount)
}

func (w Wish) On() date.Date { return w.Date }
