package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/budget"
	"github.com/google/subcommands"
)

type rateCmd struct {
	amount string
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "print the exchange rate between two currencies" }
func (*rateCmd) Usage() string {
	return `bw rate [-amount <amount>] <from> [<to>]

  Prints the exchange rate from a currency to another, using the configured
  rate source. <to> defaults to the default currency. With -amount, the
  converted amount is printed instead.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Amount to convert")
}

func (c *rateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "Error: want <from> [<to>]")
		return subcommands.ExitUsageError
	}
	a, status := openOrFail()
	if a == nil {
		return status
	}
	from, to := strings.ToUpper(f.Arg(0)), a.cfg.DefaultCurrency
	if f.NArg() == 2 {
		to = strings.ToUpper(f.Arg(1))
	}

	if c.amount == "" {
		rate, err := a.budget.Rates.Pair(from, to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return closeOrFail(a, subcommands.ExitFailure)
		}
		fmt.Println(strconv.FormatFloat(rate, 'f', -1, 64))
		return closeOrFail(a, subcommands.ExitSuccess)
	}

	amount, err := budget.ParseMoney(c.amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: -amount: %v\n", err)
		return closeOrFail(a, subcommands.ExitUsageError)
	}
	converted, err := a.budget.Rates.Convert(amount, from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return closeOrFail(a, subcommands.ExitFailure)
	}
	fmt.Println(converted.Format(to))
	return closeOrFail(a, subcommands.ExitSuccess)
}
