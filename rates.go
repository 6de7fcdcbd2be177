package budget

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a single rate fetch.
const DefaultFetchTimeout = 10 * time.Second

// RateFetcher fetches the exchange rate of currency code to the reference currency,
// that is the price of one unit of code in reference.
type RateFetcher interface {
	FetchRate(ctx context.Context, code, reference string) (float64, error)
}

// RateFetcherFunc adapts a function to the RateFetcher interface.
type RateFetcherFunc func(ctx context.Context, code, reference string) (float64, error)

func (f RateFetcherFunc) FetchRate(ctx context.Context, code, reference string) (float64, error) {
	return f(ctx, code, reference)
}

type rateEntry struct {
	rate    float64
	fetched time.Time
}

// Rates is a cache of exchange rates to a reference currency.
//
// A rate is fetched the first time it is needed, and then kept until Invalidate is called.
// Concurrent lookups of the same missing rate share a single fetch.
// Failed fetches are never cached.
type Rates struct {
	reference string
	fetcher   RateFetcher
	timeout   time.Duration
	log       *zap.SugaredLogger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]rateEntry
	gen   uint64 // incremented by Invalidate
}

// RatesOption configures Rates.
type RatesOption func(*Rates)

// WithFetchTimeout sets the maximum duration of a single fetch.
func WithFetchTimeout(d time.Duration) RatesOption {
	return func(r *Rates) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRatesLogger sets the logger.
func WithRatesLogger(log *zap.SugaredLogger) RatesOption {
	return func(r *Rates) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRates returns an empty cache of rates to reference, filled using fetcher.
// A nil fetcher only knows the reference currency.
func NewRates(reference string, fetcher RateFetcher, opts ...RatesOption) *Rates {
	r := &Rates{
		reference: normCode(reference),
		fetcher:   fetcher,
		timeout:   DefaultFetchTimeout,
		log:       zap.NewNop().Sugar(),
		cache:     make(map[string]rateEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func normCode(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

// Reference returns the currency all rates are expressed in.
func (r *Rates) Reference() string { return r.reference }

// Rate returns the rate of code to the reference currency.
// The reference currency, and the empty code, have a rate of 1.
func (r *Rates) Rate(code string) (float64, error) {
	code = normCode(code)
	if code == "" || code == r.reference {
		return 1, nil
	}
	r.mu.RLock()
	e, ok := r.cache[code]
	gen := r.gen
	r.mu.RUnlock()
	if ok {
		return e.rate, nil
	}

	// flights are per generation: a lookup after Invalidate never joins an older fetch.
	key := code + "@" + strconv.FormatUint(gen, 10)
	v, err, shared := r.group.Do(key, func() (any, error) {
		// a concurrent fetch might have completed in between.
		if rate, _, ok := r.Cached(code); ok {
			return rate, nil
		}
		rate, err := r.fetch(code)
		if err != nil {
			return 0.0, err
		}
		r.mu.Lock()
		stale := r.gen != gen
		if !stale {
			r.cache[code] = rateEntry{rate: rate, fetched: time.Now()}
		}
		r.mu.Unlock()
		r.log.Infow("fetch-rate", "from", code, "to", r.reference, "rate", rate, "stale", stale)
		return rate, nil
	})
	if err != nil {
		r.log.Warnw("fetch-rate-failed", "from", code, "to", r.reference, "shared", shared, "error", err)
		return 0, err
	}
	return v.(float64), nil
}

// fetch calls the fetcher under its own timeout, so that a caller giving up does not cancel
// a fetch other callers are waiting for.
func (r *Rates) fetch(code string) (float64, error) {
	if r.fetcher == nil {
		return 0, fmt.Errorf("%w: %s/%s: no rate source configured", ErrRateUnavailable, code, r.reference)
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	type result struct {
		rate float64
		err  error
	}
	done := make(chan result, 1)
	go func() {
		rate, err := r.fetcher.FetchRate(ctx, code, r.reference)
		done <- result{rate, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	if res.err != nil {
		if errors.Is(res.err, ErrRateUnavailable) {
			return 0, res.err
		}
		return 0, fmt.Errorf("%w: %s/%s: %w", ErrRateUnavailable, code, r.reference, res.err)
	}
	if math.IsNaN(res.rate) || math.IsInf(res.rate, 0) || res.rate <= 0 {
		return 0, fmt.Errorf("%w: %s/%s: invalid rate %v", ErrRateUnavailable, code, r.reference, res.rate)
	}
	return res.rate, nil
}

// Pair returns the rate to convert an amount in from into to.
// It is exactly 1 when both currencies are the same, without any fetch.
func (r *Rates) Pair(from, to string) (float64, error) {
	from, to = normCode(from), normCode(to)
	if from == to {
		return 1, nil
	}
	f, err := r.Rate(from)
	if err != nil {
		return 0, err
	}
	t, err := r.Rate(to)
	if err != nil {
		return 0, err
	}
	return f / t, nil
}

// Convert converts m from one currency into another, rounded to the cent.
func (r *Rates) Convert(m Money, from, to string) (Money, error) {
	rate, err := r.Pair(from, to)
	if err != nil {
		return Money{}, err
	}
	if rate == 1 {
		return m, nil
	}
	return m.Mul(decimal.NewFromFloat(rate)), nil
}

// Cached returns the cached rate of code, and when it was fetched.
func (r *Rates) Cached(code string) (rate float64, fetched time.Time, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.cache[normCode(code)]
	return e.rate, e.fetched, ok
}

// Invalidate clears the cache. Rates are fetched again on the next lookup.
func (r *Rates) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.cache)
	r.cache = make(map[string]rateEntry)
	r.gen++
	r.log.Infow("invalidate-rates", "entries", n, "generation", r.gen)
}
