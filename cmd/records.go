package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
	"github.com/google/subcommands"
)

type accountCmd struct {
	name     string
	amount   string
	currency string
}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "create an account" }
func (*accountCmd) Usage() string {
	return `bw account -name <name> -amount <amount> [-currency <code>]

  Creates an account starting this month, with a monthly amount.
`
}

func (c *accountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Name of the account")
	f.StringVar(&c.amount, "amount", "", "Monthly amount of the account")
	f.StringVar(&c.currency, "currency", "", "Currency of the account")
}

func (c *accountCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required")
		return subcommands.ExitUsageError
	}
	amount, err := budget.ParseMoney(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	currency := strings.ToUpper(c.currency)
	if currency != "" && !budget.KnownCurrency(currency) {
		fmt.Fprintf(os.Stderr, "Error: unknown currency %q\n", c.currency)
		return subcommands.ExitUsageError
	}

	a, status := openOrFail()
	if a == nil {
		return status
	}
	account := budget.NewAccount(c.name, amount)
	account.Currency = currency
	id := a.budget.Accounts.Add(account)
	fmt.Println(id)
	return closeOrFail(a, subcommands.ExitSuccess)
}

// movementCmd adds an expense or an earning.
type movementCmd struct {
	kind    string
	name    string
	amount  string
	account int64
	date    string
}

func newExpenseCmd() *movementCmd { return &movementCmd{kind: "expense"} }
func newEarningCmd() *movementCmd { return &movementCmd{kind: "earning"} }

func (c *movementCmd) Name() string     { return c.kind }
func (c *movementCmd) Synopsis() string { return "add an " + c.kind + " on an account" }
func (c *movementCmd) Usage() string {
	return fmt.Sprintf(`bw %s -name <name> -amount <amount> -account <id> [-d <date>]

  Adds an %s to an existing account, dated today unless -d is set.
`, c.kind, c.kind)
}

func (c *movementCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Label")
	f.StringVar(&c.amount, "amount", "", "Amount")
	f.Int64Var(&c.account, "account", 0, "Account id")
	f.StringVar(&c.date, "d", "", "Date (defaults to today)")
}

func (c *movementCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "Error: -name is required")
		return subcommands.ExitUsageError
	}
	amount, err := budget.ParseMoney(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	on := date.Today()
	if c.date != "" {
		if on, err = date.Parse(c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error: -d: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	a, status := openOrFail()
	if a == nil {
		return status
	}
	if _, err := a.budget.Accounts.Get(c.account); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return closeOrFail(a, subcommands.ExitFailure)
	}
	var id int64
	if c.kind == "earning" {
		id = a.budget.Earnings.Add(budget.Earning{Date: on, Name: c.name, Account: c.account, Amount: amount})
	} else {
		id = a.budget.Expenses.Add(budget.Expense{Date: on, Name: c.name, Account: c.account, Amount: amount})
	}
	fmt.Println(id)
	return closeOrFail(a, subcommands.ExitSuccess)
}

type deleteCmd struct {
	kind string
	id   int64
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a record" }
func (*deleteCmd) Usage() string {
	return `bw delete -k <kind> -id <id>

  Deletes a record. Its id is never given to another record.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "k", "", "Kind of the record")
	f.Int64Var(&c.id, "id", 0, "Id of the record")
}

func (c *deleteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openOrFail()
	if a == nil {
		return status
	}
	if err := deleteRecord(a.budget, c.kind, c.id); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return closeOrFail(a, subcommands.ExitFailure)
	}
	fmt.Fprintf(os.Stderr, "%s %d has been deleted\n", c.kind, c.id)
	return closeOrFail(a, subcommands.ExitSuccess)
}

func deleteRecord(b *budget.Budget, kind string, id int64) error {
	switch kind {
	case budget.KindAccounts:
		return b.Accounts.Delete(id)
	case budget.KindExpenses:
		return b.Expenses.Delete(id)
	case budget.KindEarnings:
		return b.Earnings.Delete(id)
	case budget.KindAssets:
		return b.Assets.Delete(id)
	case budget.KindAssetValues:
		return b.AssetValues.Delete(id)
	case budget.KindDebts:
		return b.Debts.Delete(id)
	case budget.KindWishes:
		return b.Wishes.Delete(id)
	case budget.KindRecurrings:
		return b.Recurrings.Delete(id)
	case budget.KindFortunes:
		return b.Fortunes.Delete(id)
	case budget.KindObjectives:
		return b.Objectives.Delete(id)
	}
	return unknownKind(kind)
}
