package budget

import "fmt"

// Monthly is the only supported recurrence.
const Monthly = "monthly"

// Recurring is an expense repeated every period on an account.
// Account holds the account name, so that it survives the account being replaced by a newer one.
type Recurring struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Amount  Money  `json:"amount"`
	Recurs  string `json:"recurs"`
}

func (r Recurring) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", r.Account, r.Name, r.Amount, r.Recurs)
}
