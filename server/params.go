package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
	"github.com/gin-gonic/gin"
)

// params decodes request parameters into typed values.
//
// Every getter records a problem instead of failing, so that a handler
// decodes all its parameters and then checks err() once, before anything is
// built.
type params struct {
	c    *gin.Context
	errs []string
}

func newParams(c *gin.Context) *params { return &params{c: c} }

// lookup returns the raw value of name, from the form body first, then the query string.
func (p *params) lookup(name string) (string, bool) {
	if v, ok := p.c.GetPostForm(name); ok {
		return v, true
	}
	return p.c.GetQuery(name)
}

// has reports whether name is present.
func (p *params) has(name string) bool {
	_, ok := p.lookup(name)
	return ok
}

func (p *params) fail(name string, err error) {
	p.errs = append(p.errs, fmt.Sprintf("%s: %v", name, err))
}

// required returns the raw value of name, recording it as missing if absent.
func (p *params) required(name string) (string, bool) {
	v, ok := p.lookup(name)
	if !ok {
		p.errs = append(p.errs, name+" is missing")
	}
	return v, ok
}

func (p *params) str(name string) string {
	v, _ := p.required(name)
	return strings.TrimSpace(v)
}

// optStr returns the value of name, or "" if absent.
func (p *params) optStr(name string) string {
	v, _ := p.lookup(name)
	return strings.TrimSpace(v)
}

func (p *params) id(name string) int64 {
	v, ok := p.required(name)
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		p.fail(name, fmt.Errorf("invalid id %q", v))
		return 0
	}
	return id
}

func (p *params) integer(name string) int {
	v, ok := p.required(name)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.fail(name, fmt.Errorf("invalid number %q", v))
		return 0
	}
	return i
}

func (p *params) money(name string) budget.Money {
	v, ok := p.required(name)
	if !ok {
		return budget.Money{}
	}
	m, err := budget.ParseMoney(v)
	if err != nil {
		p.fail(name, err)
	}
	return m
}

func (p *params) date(name string) date.Date {
	v, ok := p.required(name)
	if !ok {
		return date.Date{}
	}
	d, err := date.Parse(strings.TrimSpace(v))
	if err != nil {
		p.fail(name, err)
	}
	return d
}

// yes returns true if name is exactly "yes". Any other value is false.
func (p *params) yes(name string) bool {
	v, _ := p.required(name)
	return v == "yes"
}

// currency returns the optional currency code in name, upper cased.
func (p *params) currency(name string) string {
	code := strings.ToUpper(p.optStr(name))
	if code != "" && !budget.KnownCurrency(code) {
		p.fail(name, fmt.Errorf("unknown currency %q", code))
	}
	return code
}

// err returns an ErrValidation listing every problem, or nil.
func (p *params) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", budget.ErrValidation, strings.Join(p.errs, "; "))
}
