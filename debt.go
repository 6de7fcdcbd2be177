package budget

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/etnz/budget/date"
)

// DebtStatus tells whether a debt has been paid back.
type DebtStatus int

const (
	Unpaid DebtStatus = iota
	Paid
)

func (s DebtStatus) String() string {
	if s == Paid {
		return "paid"
	}
	return "unpaid"
}

// ParseDebtStatus parses "paid" or "unpaid".
func ParseDebtStatus(s string) (DebtStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return Paid, nil
	case "unpaid":
		return Unpaid, nil
	}
	return Unpaid, fmt.Errorf("%w: invalid debt status %q", ErrValidation, s)
}

func (s DebtStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *DebtStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("invalid debt status %s: %w", data, err)
	}
	v, err := ParseDebtStatus(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// DebtDirection tells who owes the money: To means the user owes it, From means the user is owed.
type DebtDirection int

const (
	To DebtDirection = iota
	From
)

func (d DebtDirection) String() string {
	if d == From {
		return "from"
	}
	return "to"
}

// ParseDebtDirection parses "to" or "from".
func ParseDebtDirection(s string) (DebtDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "to":
		return To, nil
	case "from":
		return From, nil
	}
	return To, fmt.Errorf("%w: invalid debt direction %q", ErrValidation, s)
}

func (d DebtDirection) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *DebtDirection) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("invalid debt direction %s: %w", data, err)
	}
	v, err := ParseDebtDirection(str)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Debt is money owed to or by someone.
type Debt struct {
	Status       DebtStatus    `json:"status"`
	Direction    DebtDirection `json:"direction"`
	CreationDate date.Date     `json:"creation_date"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Amount       Money         `json:"amount"`
}

func (d Debt) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s", d.Status, d.Direction, d.CreationDate, d.Name, d.Title, d.Amount)
}

func (d Debt) On() date.Date { return d.CreationDate }
