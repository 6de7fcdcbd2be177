// Package eodhd fetches exchange rates from the eodhd.com API.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBaseURL is the root of the eodhd API.
const DefaultBaseURL = "https://eodhd.com/api"

// RateFetcher is a budget.RateFetcher using eodhd's real-time forex quotes.
//
// Quotes are cached on disk for a day, so that an application restarting many times a day
// does not burn the API quota.
type RateFetcher struct {
	APIKey  string
	BaseURL string       // DefaultBaseURL if empty
	Client  *http.Client // a daily caching client if nil
	Log     *zap.SugaredLogger
}

// NewRateFetcher returns a RateFetcher with a daily disk cache in cacheDir (os.TempDir() if empty).
func NewRateFetcher(apiKey, cacheDir string, timeout time.Duration, log *zap.SugaredLogger) *RateFetcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	client := newCachingClient(cacheDir, date.Daily, log)
	client.Timeout = timeout
	return &RateFetcher{APIKey: apiKey, Client: client, Log: log}
}

// ticker returns the eodhd forex ticker for the pair, in the format "FROMTO.FOREX".
func ticker(from, to string) string {
	return strings.ToUpper(from+to) + ".FOREX"
}

// FetchRate implements budget.RateFetcher.
func (f *RateFetcher) FetchRate(ctx context.Context, code, reference string) (float64, error) {
	// https://eodhd.com/api/real-time/EURUSD.FOREX?api_token=demo&fmt=json
	// {
	//   "code": "EURUSD.FOREX",
	//   "timestamp": 1757424960,
	//   "gmtoffset": 0,
	//   "open": 1.1712,
	//   "high": 1.1760,
	//   "low": 1.1705,
	//   "close": 1.1748,
	//   "volume": 0,
	//   "previousClose": 1.1713,
	//   "change": 0.0035,
	//   "change_p": 0.2988
	// }
	// when the quote is unknown, numbers are replaced by "NA".
	if f.APIKey == "" {
		return 0, fmt.Errorf("%w: eodhd api key is not set", budget.ErrRateUnavailable)
	}
	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	addr := fmt.Sprintf("%s/real-time/%s?fmt=json&api_token=%s", strings.TrimSuffix(base, "/"), ticker(code, reference), f.APIKey)

	type Info struct {
		Code          string `json:"code"`
		Close         any    `json:"close"`
		PreviousClose any    `json:"previousClose"`
	}
	var info Info
	client := f.Client
	if client == nil {
		client = newCachingClient("", date.Daily, f.log())
	}
	if err := jwget(ctx, client, addr, &info); err != nil {
		return 0, fmt.Errorf("cannot fetch %s: %w", ticker(code, reference), err)
	}

	rate := number(info.Close)
	if !rate.IsPositive() {
		// markets closed, or the quote is stale.
		rate = number(info.PreviousClose)
	}
	if !rate.IsPositive() {
		return 0, fmt.Errorf("%w: eodhd has no quote for %s", budget.ErrRateUnavailable, ticker(code, reference))
	}
	f.log().Debugw("eodhd-quote", "ticker", info.Code, "close", rate)
	return rate.InexactFloat64(), nil
}

func (f *RateFetcher) log() *zap.SugaredLogger {
	if f.Log == nil {
		return zap.NewNop().Sugar()
	}
	return f.Log
}

// number reads a json number, eodhd writes "NA" for missing ones.
func number(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}
