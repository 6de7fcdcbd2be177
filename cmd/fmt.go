package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/sqlstore"
	"github.com/google/subcommands"
)

type fmtCmd struct{}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and rewrites every store into its canonical form"
}
func (*fmtCmd) Usage() string {
	return `bw fmt

  Loads every store, which validates it and repairs what can be repaired
  (records without a guid, an id counter behind the records), and writes
  them all back in canonical form.

Usage Examples:
$ bw -data-dir ~/.budget fmt

`
}

func (c *fmtCmd) SetFlags(f *flag.FlagSet) {}

func (c *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openOrFail()
	if a == nil {
		return status
	}
	if err := a.budget.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not save budget: %v\n", err)
		return closeOrFail(a, subcommands.ExitFailure)
	}
	fmt.Fprintf(os.Stderr, "Formatted %s.\n", counts(a.budget))
	return closeOrFail(a, subcommands.ExitSuccess)
}

// counts describes the number of records per kind.
func counts(b *budget.Budget) string {
	c := b.Counts()
	parts := make([]string, 0, len(budget.Kinds))
	for _, kind := range budget.Kinds {
		parts = append(parts, fmt.Sprintf("%d %s", c[kind], kind))
	}
	return strings.Join(parts, ", ")
}

type migrateCmd struct {
	to    string
	toDir string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "copy the budget to another storage" }
func (*migrateCmd) Usage() string {
	return `bw migrate (-to <dsn> | -to-dir <folder>)

  Copies every record, with its id and guid, to a SQL database or to a
  folder of jsonl files. What was stored in the target is replaced.

Usage Examples:
$ bw -data-dir ~/.budget migrate -to sqlite:budget.db
$ bw -database postgres://localhost/budget migrate -to-dir ./backup

`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.to, "to", "", "SQL DSN of the target database (sqlite:<file> or postgres://...)")
	f.StringVar(&c.toDir, "to-dir", "", "Target folder")
}

func (c *migrateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.to == "") == (c.toDir == "") {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -to or -to-dir is required")
		return subcommands.ExitUsageError
	}
	a, status := openOrFail()
	if a == nil {
		return status
	}

	var target budget.Backend
	if c.to != "" {
		db, err := sqlstore.Open(c.to, a.log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return closeOrFail(a, subcommands.ExitFailure)
		}
		defer db.Close()
		target = db
	} else {
		target = budget.NewFileBackend(c.toDir, a.log)
	}

	if err := a.budget.Copy(target); err != nil {
		fmt.Fprintf(os.Stderr, "Error: migration failed: %v\n", err)
		return closeOrFail(a, subcommands.ExitFailure)
	}
	fmt.Fprintf(os.Stderr, "Migrated %s.\n", counts(a.budget))
	return closeOrFail(a, subcommands.ExitSuccess)
}
