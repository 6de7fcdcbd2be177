package budget

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// StaticRates is a RateFetcher with fixed rates, keyed by currency code.
// Every rate is to the same reference currency, whatever the one asked for.
type StaticRates map[string]float64

func (s StaticRates) FetchRate(_ context.Context, code, reference string) (float64, error) {
	for k, v := range s {
		if strings.EqualFold(k, code) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: no static rate for %s/%s", ErrRateUnavailable, code, reference)
}

// JSONRateFetcher reads rates from any JSON API.
//
// URL is a template where "{from}" and "{to}" are replaced by the currency codes, e.g.
//
//	https://api.frankfurter.app/latest?from={from}&to={to}
//
// Path is the JSONPath expression selecting the rate in the response, e.g. "$.rates.EUR".
// "{to}" and "{from}" are also replaced in Path. The selected value must be a number, or a
// string holding a number.
type JSONRateFetcher struct {
	URL    string
	Path   string
	Client *http.Client // optional
}

// NewJSONRateFetcher returns a JSONRateFetcher whose http requests time out after timeout.
func NewJSONRateFetcher(url, path string, timeout time.Duration) *JSONRateFetcher {
	return &JSONRateFetcher{URL: url, Path: path, Client: &http.Client{Timeout: timeout}}
}

func (f *JSONRateFetcher) FetchRate(ctx context.Context, code, reference string) (float64, error) {
	r := strings.NewReplacer("{from}", url.QueryEscape(code), "{to}", url.QueryEscape(reference))
	addr := r.Replace(f.URL)
	path := strings.NewReplacer("{from}", code, "{to}", reference).Replace(f.Path)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	var jobj any
	if err := jwget(ctx, client, addr, &jobj); err != nil {
		return 0, fmt.Errorf("error in wget %s/%s: %w", code, reference, err)
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0, fmt.Errorf("error parsing %s/%s: %q %w", code, reference, path, err)
	}
	// because jsonpath is never clear about wheter it returns a list of 1 answer, or a single answer:
	// by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	switch v := jval.(type) {
	case float64:
		return v, nil
	case string:
		val, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("error parsing %s/%s: %q is not a number: %w", code, reference, v, err)
		}
		return val, nil
	}
	return 0, fmt.Errorf("error parsing %s/%s: %q %s %v", code, reference, path, "not a number", jval)
}
