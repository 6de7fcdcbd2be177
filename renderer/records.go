package renderer

import (
	"fmt"
	"strconv"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// Table is a markdown table of records.
type Table struct {
	Title   string
	Kind    string
	Headers []string
	Align   []string
	Rows    [][]string
}

const (
	left  = ":---"
	right = "---:"
)

// Options filters and decorates the rendered records.
type Options struct {
	Title    string
	Range    *date.Range // only records dated in Range, if not nil
	Currency string      // amounts are formatted in Currency if set
}

// Records renders records of kind as a markdown table.
// Records whose payload is not dated are not filtered by Range.
func Records[T any](kind string, records []budget.Record[T], opts Options) (string, error) {
	t := &Table{Title: opts.Title, Kind: kind}
	money := func(m budget.Money) string {
		if opts.Currency == "" {
			return m.String()
		}
		return m.Format(opts.Currency)
	}

	var headers []string
	for _, r := range records {
		if d, ok := any(r.Value).(budget.Dated); ok && opts.Range != nil && !opts.Range.Contains(d.On()) {
			continue
		}
		h, row := columns(r.Value, money)
		headers = h
		t.Rows = append(t.Rows, append([]string{strconv.FormatInt(r.ID, 10)}, row...))
	}
	if headers == nil {
		var zero T
		headers, _ = columns(zero, money)
	}
	if headers == nil {
		return "", fmt.Errorf("cannot render records of type %T", *new(T))
	}
	t.Headers = append([]string{"ID"}, headers...)
	t.Align = make([]string, len(t.Headers))
	for i, h := range t.Headers {
		switch h {
		case "ID", "Amount", "Paid Amount", "Alloc", "Int. Stocks", "Dom. Stocks", "Bonds", "Cash", "Importance", "Urgency":
			t.Align[i] = right
		default:
			t.Align[i] = left
		}
	}
	for _, row := range t.Rows {
		for i := range row {
			row[i] = cell(row[i])
		}
	}
	return RenderTable(t)
}

// RenderTable renders t as a markdown table.
func RenderTable(t *Table) (string, error) {
	return renderTemplate("records", "records.md", t)
}

// columns returns the headers and the cells of a payload.
func columns(v any, money func(budget.Money) string) ([]string, []string) {
	switch v := v.(type) {
	case budget.Account:
		return []string{"Name", "Amount", "Since", "Until", "Currency"},
			[]string{v.Name, money(v.Amount), v.Since.String(), v.Until.String(), v.Currency}
	case budget.Expense:
		return []string{"Date", "Name", "Account", "Amount"},
			[]string{v.Date.String(), v.Name, strconv.FormatInt(v.Account, 10), money(v.Amount)}
	case budget.Earning:
		return []string{"Date", "Name", "Account", "Amount"},
			[]string{v.Date.String(), v.Name, strconv.FormatInt(v.Account, 10), money(v.Amount)}
	case budget.Asset:
		return []string{"Name", "Int. Stocks", "Dom. Stocks", "Bonds", "Cash", "Portfolio", "Alloc", "Currency"},
			[]string{v.Name, v.IntStocks.String(), v.DomStocks.String(), v.Bonds.String(), v.Cash.String(), yesNo(v.Portfolio), v.PortfolioAlloc.String(), v.Currency}
	case budget.AssetValue:
		return []string{"Date", "Asset", "Amount"},
			[]string{v.Date.String(), strconv.FormatInt(v.Asset, 10), money(v.Amount)}
	case budget.Debt:
		return []string{"Date", "Direction", "Name", "Title", "Amount", "Status"},
			[]string{v.CreationDate.String(), v.Direction.String(), v.Name, v.Title, money(v.Amount), v.Status.String()}
	case budget.Wish:
		return []string{"Date", "Name", "Importance", "Urgency", "Amount", "Paid", "Paid Amount"},
			[]string{v.Date.String(), v.Name, strconv.Itoa(v.Importance), strconv.Itoa(v.Urgency), money(v.Amount), yesNo(v.Paid), money(v.PaidAmount)}
	case budget.Recurring:
		return []string{"Account", "Name", "Amount", "Recurs"},
			[]string{v.Account, v.Name, money(v.Amount), v.Recurs}
	case budget.Fortune:
		return []string{"Date", "Amount"},
			[]string{v.CheckDate.String(), money(v.Amount)}
	case budget.Objective:
		return []string{"Name", "Type", "Source", "Operator", "Amount", "Date"},
			[]string{v.Name, v.Type, v.Source, v.Operator, money(v.Amount), v.Date.String()}
	}
	return nil, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
