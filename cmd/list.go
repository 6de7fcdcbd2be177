package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
	"github.com/etnz/budget/renderer"
	"github.com/google/subcommands"
)

type listCmd struct {
	kind   string
	period string
	date   string
	raw    bool
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the records of a kind" }
func (*listCmd) Usage() string {
	return `bw list -k <kind> [-p <period>] [-d <date>] [-raw]

  Lists the records of a kind as a table: accounts, expenses, earnings,
  assets, asset_values, debts, wishes, recurrings, fortunes or objectives.

  With -p only the dated records in the period containing -d (today by
  default) are listed. With -raw every record is printed on its own line as
  id:guid:payload, like the http api does.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "k", budget.KindExpenses, "Kind of records to list")
	f.StringVar(&c.period, "p", "", "Only list records in this period (day, week, month, quarter, year)")
	f.StringVar(&c.date, "d", "", "A day in the period (defaults to today)")
	f.BoolVar(&c.raw, "raw", false, "Print records as id:guid:payload lines")
}

func (c *listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	opts := renderer.Options{Title: strings.ReplaceAll(c.kind, "_", " ")}
	if c.period != "" {
		p, err := date.ParsePeriod(c.period)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		on := date.Today()
		if c.date != "" {
			if on, err = date.Parse(c.date); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitUsageError
			}
		}
		r := date.NewRange(on, p)
		opts.Range = &r
		opts.Title = fmt.Sprintf("%s %s", opts.Title, r)
	}

	a, status := openOrFail()
	if a == nil {
		return status
	}
	opts.Currency = a.cfg.DefaultCurrency

	var out string
	var err error
	if c.raw {
		out, err = rawRecords(a.budget, c.kind)
	} else {
		out, err = renderRecords(a.budget, c.kind, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return closeOrFail(a, subcommands.ExitFailure)
	}
	if c.raw {
		fmt.Print(out)
	} else {
		printMarkdown(out)
	}
	return closeOrFail(a, subcommands.ExitSuccess)
}

// renderRecords renders the records of kind as markdown.
func renderRecords(b *budget.Budget, kind string, opts renderer.Options) (string, error) {
	switch kind {
	case budget.KindAccounts:
		return renderer.Records(kind, b.Accounts.Snapshot(), opts)
	case budget.KindExpenses:
		return renderer.Records(kind, b.Expenses.Snapshot(), opts)
	case budget.KindEarnings:
		return renderer.Records(kind, b.Earnings.Snapshot(), opts)
	case budget.KindAssets:
		return renderer.Records(kind, b.Assets.Snapshot(), opts)
	case budget.KindAssetValues:
		return renderer.Records(kind, b.AssetValues.Snapshot(), opts)
	case budget.KindDebts:
		return renderer.Records(kind, b.Debts.Snapshot(), opts)
	case budget.KindWishes:
		return renderer.Records(kind, b.Wishes.Snapshot(), opts)
	case budget.KindRecurrings:
		return renderer.Records(kind, b.Recurrings.Snapshot(), opts)
	case budget.KindFortunes:
		return renderer.Records(kind, b.Fortunes.Snapshot(), opts)
	case budget.KindObjectives:
		return renderer.Records(kind, b.Objectives.Snapshot(), opts)
	}
	return "", unknownKind(kind)
}

// rawRecords returns one id:guid:payload line per record of kind.
func rawRecords(b *budget.Budget, kind string) (string, error) {
	switch kind {
	case budget.KindAccounts:
		return lines(b.Accounts.Snapshot()), nil
	case budget.KindExpenses:
		return lines(b.Expenses.Snapshot()), nil
	case budget.KindEarnings:
		return lines(b.Earnings.Snapshot()), nil
	case budget.KindAssets:
		return lines(b.Assets.Snapshot()), nil
	case budget.KindAssetValues:
		return lines(b.AssetValues.Snapshot()), nil
	case budget.KindDebts:
		return lines(b.Debts.Snapshot()), nil
	case budget.KindWishes:
		return lines(b.Wishes.Snapshot()), nil
	case budget.KindRecurrings:
		return lines(b.Recurrings.Snapshot()), nil
	case budget.KindFortunes:
		return lines(b.Fortunes.Snapshot()), nil
	case budget.KindObjectives:
		return lines(b.Objectives.Snapshot()), nil
	}
	return "", unknownKind(kind)
}

func lines[T any](records []budget.Record[T]) string {
	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func unknownKind(kind string) error {
	return fmt.Errorf("%w: unknown kind %q, want one of %s", budget.ErrValidation, kind, strings.Join(budget.Kinds, ", "))
}
