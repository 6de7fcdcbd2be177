package server

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/budget"
	"github.com/gin-gonic/gin"
)

func (s *Server) up(c *gin.Context) { content(c, "yes") }

func (s *Server) version(c *gin.Context) { content(c, Version) }

func (s *Server) versionSupport(c *gin.Context) {
	p := newParams(c)
	v := p.str("version")
	if err := p.err(); err != nil {
		fail(c, err)
		return
	}
	if slices.Contains(supportedClients, v) {
		content(c, "yes")
		return
	}
	content(c, "no")
}

// batchAssetValues records the value of several assets on the same day.
// An asset gets a new value only if its amount differs from its latest one,
// an asset without any value counting as zero.
func (s *Server) batchAssetValues(c *gin.Context) {
	p := newParams(c)
	day := p.date("input_date")
	assets := s.budget.Assets.Snapshot()
	amounts := make(map[int64]budget.Money)
	for _, a := range assets {
		name := "input_amount_" + strconv.FormatInt(a.ID, 10)
		if p.has(name) {
			amounts[a.ID] = p.money(name)
		}
	}
	if err := p.err(); err != nil {
		fail(c, err)
		return
	}

	var created int
	err := s.budget.AssetValues.Batch(func(tx *budget.Batch[budget.AssetValue]) error {
		latest := budget.LatestValues(tx.All())
		for _, a := range assets {
			amount, ok := amounts[a.ID]
			if !ok {
				continue
			}
			if amount.Equal(latest[a.ID].Value.Amount) {
				continue
			}
			tx.Add(budget.AssetValue{Asset: a.ID, Amount: amount, Date: day})
			created++
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	s.log.Infow("batch-asset-values", "date", day, "assets", len(amounts), "created", created)
	success(c, "Asset values have been updated", "")
}

// rate returns the exchange rate between two currencies, "to" defaulting to the configured currency.
func (s *Server) rate(c *gin.Context) {
	p := newParams(c)
	from := strings.ToUpper(p.str("from"))
	to := strings.ToUpper(p.optStr("to"))
	if err := p.err(); err != nil {
		fail(c, err)
		return
	}
	if to == "" {
		to = s.opts.DefaultCurrency
	}
	rate, err := s.budget.Rates.Pair(from, to)
	if err != nil {
		fail(c, err)
		return
	}
	content(c, strconv.FormatFloat(rate, 'f', -1, 64))
}

func (s *Server) invalidateRates(c *gin.Context) {
	s.budget.Rates.Invalidate()
	success(c, fmt.Sprintf("exchange rates to %s have been invalidated", s.budget.Rates.Reference()), "")
}
