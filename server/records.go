package server

import (
	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
)

// decodeAccount keeps the dates and the currency of an edited account, unless input_currency is set.
func decodeAccount(p *params, edit bool) func(*budget.Account) error {
	name, amount, currency := p.str("input_name"), p.money("input_amount"), p.currency("input_currency")
	return func(a *budget.Account) error {
		if !edit {
			*a = budget.NewAccount(name, amount)
		}
		a.Name, a.Amount = name, amount
		if currency != "" {
			a.Currency = currency
		}
		return nil
	}
}

func decodeExpense(b *budget.Budget) decoder[budget.Expense] {
	return func(p *params, _ bool) func(*budget.Expense) error {
		name, day, amount, account := p.str("input_name"), p.date("input_date"), p.money("input_amount"), p.id("input_account")
		return func(e *budget.Expense) error {
			if _, err := b.Accounts.Get(account); err != nil {
				return err
			}
			*e = budget.Expense{Date: day, Name: name, Account: account, Amount: amount}
			return nil
		}
	}
}

func decodeEarning(b *budget.Budget) decoder[budget.Earning] {
	return func(p *params, _ bool) func(*budget.Earning) error {
		name, day, amount, account := p.str("input_name"), p.date("input_date"), p.money("input_amount"), p.id("input_account")
		return func(e *budget.Earning) error {
			if _, err := b.Accounts.Get(account); err != nil {
				return err
			}
			*e = budget.Earning{Date: day, Name: name, Account: account, Amount: amount}
			return nil
		}
	}
}

func decodeAsset(p *params, _ bool) func(*budget.Asset) error {
	v := budget.Asset{
		Name:           p.str("input_name"),
		IntStocks:      p.money("input_int_stocks"),
		DomStocks:      p.money("input_dom_stocks"),
		Bonds:          p.money("input_bonds"),
		Cash:           p.money("input_cash"),
		Portfolio:      p.yes("input_portfolio"),
		PortfolioAlloc: p.money("input_alloc"),
		Currency:       p.currency("input_currency"),
	}
	return func(a *budget.Asset) error {
		if err := v.Validate(); err != nil {
			return err
		}
		currency := a.Currency
		*a = v
		if a.Currency == "" {
			a.Currency = currency
		}
		return nil
	}
}

func decodeAssetValue(b *budget.Budget) decoder[budget.AssetValue] {
	return func(p *params, _ bool) func(*budget.AssetValue) error {
		asset, day, amount := p.id("input_asset"), p.date("input_date"), p.money("input_amount")
		return func(v *budget.AssetValue) error {
			if _, err := b.Assets.Get(asset); err != nil {
				return err
			}
			*v = budget.AssetValue{Asset: asset, Amount: amount, Date: day}
			return nil
		}
	}
}

func decodeDebt(p *params, edit bool) func(*budget.Debt) error {
	name, amount, title := p.str("input_name"), p.money("input_amount"), p.str("input_title")
	direction, err := budget.ParseDebtDirection(p.str("input_direction"))
	if err != nil && p.has("input_direction") {
		p.fail("input_direction", err)
	}
	status := budget.Unpaid
	if edit && p.yes("input_paid") {
		status = budget.Paid
	}
	return func(d *budget.Debt) error {
		if !edit {
			d.CreationDate = date.Today()
		}
		d.Name, d.Amount, d.Title, d.Direction, d.Status = name, amount, title, direction, status
		return nil
	}
}

func decodeFortune(p *params, _ bool) func(*budget.Fortune) error {
	amount, day := p.money("input_amount"), p.date("input_date")
	return func(f *budget.Fortune) error {
		*f = budget.Fortune{CheckDate: day, Amount: amount}
		return nil
	}
}

// decodeWish only reads input_paid_amount of an edit marking the wish paid.
func decodeWish(p *params, edit bool) func(*budget.Wish) error {
	name, amount := p.str("input_name"), p.money("input_amount")
	urgency, importance := p.integer("input_urgency"), p.integer("input_importance")
	var paid bool
	var paidAmount budget.Money
	if edit {
		paid = p.yes("input_paid")
		if paid {
			paidAmount = p.money("input_paid_amount")
		}
	}
	return func(w *budget.Wish) error {
		if !edit {
			w.Date = date.Today()
		}
		w.Name, w.Amount, w.Urgency, w.Importance = name, amount, urgency, importance
		if edit {
			w.Paid = paid
			if paid {
				w.PaidAmount = paidAmount
			}
		}
		return nil
	}
}

// decodeRecurring resolves input_account to the account name.
func decodeRecurring(b *budget.Budget) decoder[budget.Recurring] {
	return func(p *params, _ bool) func(*budget.Recurring) error {
		name, amount, account := p.str("input_name"), p.money("input_amount"), p.id("input_account")
		return func(r *budget.Recurring) error {
			a, err := b.Accounts.Get(account)
			if err != nil {
				return err
			}
			*r = budget.Recurring{Account: a.Value.Name, Name: name, Amount: amount, Recurs: budget.Monthly}
			return nil
		}
	}
}

func decodeObjective(p *params, edit bool) func(*budget.Objective) error {
	v := budget.Objective{
		Name:     p.str("input_name"),
		Type:     p.str("input_type"),
		Source:   p.str("input_source"),
		Operator: p.str("input_operator"),
		Amount:   p.money("input_amount"),
	}
	return func(o *budget.Objective) error {
		v.Date = o.Date
		if !edit {
			v.Date = date.Today()
		}
		*o = v
		return nil
	}
}
