package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// tableRows parses md and returns the cells of every body row of the first table.
func tableRows(t *testing.T, md string) (header []string, rows [][]string) {
	t.Helper()
	source := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(source))

	cells := func(n ast.Node) []string {
		var list []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			list = append(list, string(c.Text(source)))
		}
		return list
	}
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case east.KindTableHeader:
			header = cells(n)
		case east.KindTableRow:
			rows = append(rows, cells(n))
		}
		return ast.WalkContinue, nil
	})
	return header, rows
}

func TestRecordsExpenses(t *testing.T) {
	records := []budget.Record[budget.Expense]{
		{ID: 1, GUID: "a", Value: budget.Expense{Date: date.MustParse("2025-09-01"), Name: "Rent", Account: 1, Amount: budget.M(900)}},
		{ID: 3, GUID: "b", Value: budget.Expense{Date: date.MustParse("2025-09-08"), Name: "Groceries | food", Account: 1, Amount: budget.M(42.5)}},
		{ID: 4, GUID: "c", Value: budget.Expense{Date: date.MustParse("2025-10-01"), Name: "Rent", Account: 1, Amount: budget.M(900)}},
	}
	september := date.NewRange(date.MustParse("2025-09-15"), date.Monthly)
	md, err := Records(budget.KindExpenses, records, Options{Title: "Expenses", Range: &september})
	if err != nil {
		t.Fatalf("Records() unexpected error: %v", err)
	}
	if !strings.HasPrefix(md, "## Expenses\n\n") {
		t.Errorf("Records() has no title:\n%s", md)
	}

	header, rows := tableRows(t, md)
	if got := strings.Join(header, ","); got != "ID,Date,Name,Account,Amount" {
		t.Errorf("header = %s", got)
	}
	if len(rows) != 2 {
		t.Fatalf("Records() rendered %d rows, want 2:\n%s", len(rows), md)
	}
	if got := strings.Join(rows[1], ","); got != "3,2025-09-08,Groceries | food,1,42.50" {
		t.Errorf("row 2 = %s", got)
	}
}

func TestRecordsCurrency(t *testing.T) {
	records := []budget.Record[budget.Account]{
		{ID: 1, Value: budget.Account{Name: "Checking", Amount: budget.M(1234.5), Since: date.MustParse("2025-09-01"), Until: date.MustParse("2099-12-31")}},
	}
	md, err := Records(budget.KindAccounts, records, Options{Currency: "USD"})
	if err != nil {
		t.Fatalf("Records() unexpected error: %v", err)
	}
	_, rows := tableRows(t, md)
	if len(rows) != 1 || rows[0][2] != "$1,234.50" {
		t.Errorf("Records() = %v", rows)
	}
}

func TestRecordsEmpty(t *testing.T) {
	md, err := Records[budget.Wish](budget.KindWishes, nil, Options{})
	if err != nil {
		t.Fatalf("Records() unexpected error: %v", err)
	}
	if md != "_no wishes_\n" {
		t.Errorf("Records() = %q", md)
	}
}

func TestRecordsEveryKind(t *testing.T) {
	b := budget.New(budget.NewMemoryBackend(), nil, nil)
	b.Assets.Add(budget.Asset{Name: "Fund", IntStocks: budget.M(100)})
	b.Debts.Add(budget.Debt{Name: "Bob", Direction: budget.From})
	b.Recurrings.Add(budget.Recurring{Account: "Checking", Name: "Rent", Recurs: budget.Monthly})
	b.Objectives.Add(budget.Objective{Name: "Save"})

	for kind, render := range map[string]func() (string, error){
		budget.KindAssets:     func() (string, error) { return Records(budget.KindAssets, b.Assets.Snapshot(), Options{}) },
		budget.KindDebts:      func() (string, error) { return Records(budget.KindDebts, b.Debts.Snapshot(), Options{}) },
		budget.KindRecurrings: func() (string, error) { return Records(budget.KindRecurrings, b.Recurrings.Snapshot(), Options{}) },
		budget.KindObjectives: func() (string, error) { return Records(budget.KindObjectives, b.Objectives.Snapshot(), Options{}) },
	} {
		md, err := render()
		if err != nil {
			t.Errorf("Records(%s) unexpected error: %v", kind, err)
			continue
		}
		if _, rows := tableRows(t, md); len(rows) != 1 {
			t.Errorf("Records(%s) rendered %d rows, want 1:\n%s", kind, len(rows), md)
		}
	}

	if _, err := Records("numbers", []budget.Record[int]{{ID: 1, Value: 3}}, Options{}); err == nil {
		t.Error("Records(int) expected an error")
	}
}
