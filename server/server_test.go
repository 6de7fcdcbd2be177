package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/etnz/budget"
	"github.com/etnz/budget/date"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestServer returns a server over an empty budget persisted in memory.
func newTestServer(t *testing.T, opts Options) (*Server, *budget.Budget, *budget.MemoryBackend) {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	backend := budget.NewMemoryBackend()
	rates := budget.NewRates("USD", budget.StaticRates{"EUR": 1.1, "GBP": 1.25}, budget.WithRatesLogger(log))
	b, err := budget.Open(backend, rates, log)
	if err != nil {
		t.Fatalf("budget.Open() unexpected error: %v", err)
	}
	return New(b, opts, log), b, backend
}

func post(t *testing.T, s *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

// expect checks the status and body of a response.
func expect(t *testing.T, w *httptest.ResponseRecorder, status int, body string) {
	t.Helper()
	if w.Code != status || w.Body.String() != body {
		t.Errorf("got %d %q, want %d %q", w.Code, w.Body.String(), status, body)
	}
}

// listed returns the payloads of a list response, without the "id:guid:" prefix.
func listed(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, body %q", w.Code, w.Body.String())
	}
	var payloads []string
	for _, line := range strings.Split(strings.TrimSuffix(w.Body.String(), "\n"), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			t.Fatalf("invalid list line %q", line)
		}
		payloads = append(payloads, parts[0]+":"+parts[2])
	}
	return payloads
}

func TestExpenseScenario(t *testing.T) {
	s, b, backend := newTestServer(t, Options{FlushPerRequest: true})

	w := post(t, s, "/api/accounts/add/", url.Values{"input_name": {"Checking"}, "input_amount": {"1000.00"}})
	expect(t, w, http.StatusOK, "1")

	expense := url.Values{
		"input_name":    {"Groceries"},
		"input_date":    {"2025-09-08"},
		"input_amount":  {"42.50"},
		"input_account": {"1"},
	}
	expect(t, post(t, s, "/api/expenses/add/", expense), http.StatusOK, "1")

	expense.Set("input_id", "1")
	expense.Set("input_amount", "50.00")
	expect(t, post(t, s, "/api/expenses/edit/", expense), http.StatusOK, "Success: expense 1 has been modified")

	got := listed(t, get(t, s, "/api/expenses/list/"))
	if want := "1:2025-09-08:Groceries:1:50.00"; len(got) != 1 || got[0] != want {
		t.Errorf("list = %q, want [%q]", got, want)
	}

	// flushed after the edit
	_, lines, err := backend.Read(budget.KindExpenses)
	if err != nil || len(lines) != 1 || !strings.Contains(string(lines[0]), `"amount":"50.00"`) {
		t.Errorf("persisted expenses = %q, %v", lines, err)
	}

	expect(t, post(t, s, "/api/expenses/delete/", url.Values{"input_id": {"1"}}), http.StatusOK, "Success: expense 1 has been deleted")
	if got := listed(t, get(t, s, "/api/expenses/list/")); len(got) != 0 {
		t.Errorf("list after delete = %q, want empty", got)
	}
	expect(t, post(t, s, "/api/expenses/delete/", url.Values{"input_id": {"1"}}), http.StatusNotFound, "Error: not found: expenses 1 does not exist")

	nextID, lines, err := backend.Read(budget.KindExpenses)
	if err != nil || nextID != 2 || len(lines) != 0 {
		t.Errorf("persisted expenses = %d %q %v, want next id 2 and no record", nextID, lines, err)
	}
	if b.Changed() {
		t.Error("budget has unsaved changes after the last request")
	}
}

func TestNoFlushPerRequest(t *testing.T) {
	s, b, backend := newTestServer(t, Options{})
	expect(t, post(t, s, "/api/fortunes/add/", url.Values{"input_amount": {"12000"}, "input_date": {"2025-01-31"}}), http.StatusOK, "1")
	if _, _, err := backend.Read(budget.KindFortunes); err == nil {
		t.Error("fortunes were persisted before Close")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if _, lines, err := backend.Read(budget.KindFortunes); err != nil || len(lines) != 1 {
		t.Errorf("persisted fortunes = %q, %v", lines, err)
	}
}

func TestReferencedIDs(t *testing.T) {
	s, b, _ := newTestServer(t, Options{})
	expense := url.Values{
		"input_name":    {"Groceries"},
		"input_date":    {"2025-09-08"},
		"input_amount":  {"42.50"},
		"input_account": {"5"},
	}
	expect(t, post(t, s, "/api/expenses/add/", expense), http.StatusNotFound, "Error: not found: accounts 5 does not exist")
	expect(t, post(t, s, "/api/recurrings/add/", expense), http.StatusNotFound, "Error: not found: accounts 5 does not exist")
	expect(t, post(t, s, "/api/asset_values/add/", url.Values{"input_asset": {"3"}, "input_date": {"2025-09-08"}, "input_amount": {"1"}}),
		http.StatusNotFound, "Error: not found: assets 3 does not exist")
	if b.Changed() || b.Expenses.NextID() != 1 {
		t.Error("a rejected request changed the budget")
	}
}

func TestValidation(t *testing.T) {
	s, b, _ := newTestServer(t, Options{})
	testCases := []struct {
		path string
		form url.Values
		want string
	}{
		{
			path: "/api/accounts/add/",
			form: url.Values{"input_name": {"Checking"}},
			want: "input_amount is missing",
		},
		{
			path: "/api/accounts/add/",
			form: url.Values{"input_name": {"Checking"}, "input_amount": {"12a"}},
			want: "input_amount: ",
		},
		{
			path: "/api/accounts/add/",
			form: url.Values{"input_name": {"Checking"}, "input_amount": {"1"}, "input_currency": {"XYZ"}},
			want: `unknown currency "XYZ"`,
		},
		{
			path: "/api/expenses/add/",
			form: url.Values{"input_name": {"Groceries"}, "input_date": {"yesterday"}, "input_amount": {"1"}, "input_account": {"1"}},
			want: "input_date: ",
		},
		{
			path: "/api/expenses/edit/",
			form: url.Values{"input_id": {"-1"}, "input_name": {"Groceries"}, "input_date": {"2025-01-01"}, "input_amount": {"1"}, "input_account": {"1"}},
			want: `input_id: invalid id "-1"`,
		},
		{
			path: "/api/debts/add/",
			form: url.Values{"input_name": {"Bob"}, "input_amount": {"10"}, "input_title": {"lunch"}, "input_direction": {"sideways"}},
			want: "input_direction: ",
		},
		{
			path: "/api/wishes/add/",
			form: url.Values{"input_name": {"Bike"}, "input_amount": {"300"}, "input_urgency": {"high"}, "input_importance": {"1"}},
			want: `input_urgency: invalid number "high"`,
		},
		{
			path: "/api/server/version/support/",
			form: url.Values{},
			want: "version is missing",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			w := post(t, s, tc.path, tc.form)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if body := w.Body.String(); !strings.HasPrefix(body, "Error: invalid parameter") || !strings.Contains(body, tc.want) {
				t.Errorf("body = %q, want an error containing %q", body, tc.want)
			}
		})
	}
	if b.Changed() {
		t.Error("an invalid request changed the budget")
	}
}

func TestAssetAllocation(t *testing.T) {
	s, b, _ := newTestServer(t, Options{})
	asset := url.Values{
		"input_name":       {"World ETF"},
		"input_int_stocks": {"60"},
		"input_dom_stocks": {"20"},
		"input_bonds":      {"10"},
		"input_cash":       {"5"},
		"input_portfolio":  {"yes"},
		"input_alloc":      {"50"},
	}
	w := post(t, s, "/api/assets/add/", asset)
	if w.Code != http.StatusUnprocessableEntity || !strings.Contains(w.Body.String(), "the total allocation of the asset is not 100%") {
		t.Errorf("95%% allocation: got %d %q", w.Code, w.Body.String())
	}
	if b.Assets.Len() != 0 {
		t.Fatal("rejected asset was stored")
	}

	asset.Set("input_cash", "10")
	expect(t, post(t, s, "/api/assets/add/", asset), http.StatusOK, "1")
	r, err := b.Assets.Get(1)
	if err != nil || !r.Value.Portfolio || r.Value.Name != "World ETF" {
		t.Errorf("stored asset = %v, %v", r, err)
	}

	// an edit breaking the allocation leaves the asset untouched.
	asset.Set("input_id", "1")
	asset.Set("input_bonds", "0")
	if w := post(t, s, "/api/assets/edit/", asset); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("edit to 90%%: status = %d, want 422", w.Code)
	}
	if r, _ := b.Assets.Get(1); !r.Value.Bonds.Equal(budget.M(10)) {
		t.Errorf("bonds = %s, want 10.00", r.Value.Bonds)
	}
}

func TestRedirect(t *testing.T) {
	s, _, _ := newTestServer(t, Options{})
	form := url.Values{"server": {"yes"}, "back_page": {"/accounts/"}, "input_name": {"Checking"}, "input_amount": {"1000"}}
	w := post(t, s, "/api/accounts/add/", form)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if got, want := w.Header().Get("Location"), "/accounts/?success=true&message=account+1+has+been+created"; got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}

	form.Del("input_amount")
	w = post(t, s, "/api/accounts/add/", form)
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid Location: %v", err)
	}
	if loc.Path != "/accounts/" || loc.Query().Get("error") != "true" || !strings.Contains(loc.Query().Get("message"), "input_amount is missing") {
		t.Errorf("Location = %q", loc)
	}
}

func TestQueryParameters(t *testing.T) {
	s, b, _ := newTestServer(t, Options{})
	expect(t, post(t, s, "/api/accounts/add/?input_name=Savings&input_amount=250&input_currency=eur", nil), http.StatusOK, "1")

	// the form body wins over the query string.
	w := post(t, s, "/api/accounts/edit/?input_id=1&input_name=Query&input_amount=1", url.Values{"input_name": {"Body"}})
	expect(t, w, http.StatusOK, "Success: account 1 has been modified")

	r, err := b.Accounts.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if r.Value.Name != "Body" || r.Value.Currency != "EUR" || !r.Value.Amount.Equal(budget.M(1)) {
		t.Errorf("account = %v", r.Value)
	}
	if want := date.Today().StartOf(date.Monthly); r.Value.Since != want || r.Value.Until != date.New(2099, 12, 31) {
		t.Errorf("account dates = %s..%s, want %s..2099-12-31", r.Value.Since, r.Value.Until, want)
	}
}

func TestSecure(t *testing.T) {
	s, _, _ := newTestServer(t, Options{Secure: true, User: "admin", Password: "secret"})

	w := get(t, s, "/api/server/up/")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without credentials = %d, want 401", w.Code)
	}
	if got, want := w.Header().Get("WWW-Authenticate"), `Basic realm="budgetwarrior"`; got != want {
		t.Errorf("WWW-Authenticate = %q, want %q", got, want)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/server/up/", nil)
	req.SetBasicAuth("admin", "wrong")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status with a wrong password = %d, want 401", w.Code)
	}

	req.SetBasicAuth("admin", "secret")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	expect(t, w, http.StatusOK, "yes")
}

func TestServerEndpoints(t *testing.T) {
	s, _, _ := newTestServer(t, Options{})
	expect(t, get(t, s, "/api/server/up/"), http.StatusOK, "yes")
	expect(t, get(t, s, "/api/server/version/"), http.StatusOK, Version)
	for version, want := range map[string]string{"1.0": "yes", "1.0.1": "yes", "1.0.2": "yes", "0.9": "no", "2.0": "no"} {
		expect(t, post(t, s, "/api/server/version/support/", url.Values{"version": {version}}), http.StatusOK, want)
	}
}

func TestBatchAssetValues(t *testing.T) {
	s, b, _ := newTestServer(t, Options{})
	for _, name := range []string{"House", "Savings"} {
		b.Assets.Add(budget.Asset{Name: name, Cash: budget.M(100)})
	}

	// asset 2 has no value yet, zero is not a change.
	expect(t, post(t, s, "/api/asset_values/batch/", url.Values{"input_date": {"2025-01-01"}, "input_amount_1": {"100"}, "input_amount_2": {"0"}}),
		http.StatusOK, "Success: Asset values have been updated")
	// asset 1 did not change.
	expect(t, post(t, s, "/api/asset_values/batch/", url.Values{"input_date": {"2025-02-01"}, "input_amount_1": {"100.00"}, "input_amount_2": {"50"}}),
		http.StatusOK, "Success: Asset values have been updated")

	got := listed(t, get(t, s, "/api/asset_values/list/"))
	want := []string{"1:1:100.00:2025-01-01", "2:2:50.00:2025-02-01"}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("asset values = %q, want %q", got, want)
	}

	// an invalid amount rejects the whole batch.
	w := post(t, s, "/api/asset_values/batch/", url.Values{"input_date": {"2025-03-01"}, "input_amount_1": {"200"}, "input_amount_2": {"lots"}})
	if w.Code != http.StatusBadRequest || b.AssetValues.Len() != 2 {
		t.Errorf("invalid batch: status %d, %d values", w.Code, b.AssetValues.Len())
	}
}

func TestRecords(t *testing.T) {
	s, b, _ := newTestServer(t, Options{})
	today := date.Today()
	expect(t, post(t, s, "/api/accounts/add/", url.Values{"input_name": {"Checking"}, "input_amount": {"1000"}}), http.StatusOK, "1")

	testCases := []struct {
		kind string
		add  url.Values
		edit url.Values
		want string // payload after the edit
	}{
		{
			kind: "earnings",
			add:  url.Values{"input_name": {"Salary"}, "input_date": {"2025-01-25"}, "input_amount": {"3000"}, "input_account": {"1"}},
			edit: url.Values{"input_name": {"Salary"}, "input_date": {"2025-01-26"}, "input_amount": {"3100"}, "input_account": {"1"}},
			want: "1:2025-01-26:Salary:1:3100.00",
		},
		{
			kind: "debts",
			add:  url.Values{"input_name": {"Bob"}, "input_amount": {"20"}, "input_title": {"lunch"}, "input_direction": {"from"}},
			edit: url.Values{"input_name": {"Bob"}, "input_amount": {"20"}, "input_title": {"lunch"}, "input_direction": {"from"}, "input_paid": {"yes"}},
			want: "1:paid:from:" + today.String() + ":Bob:lunch:20.00",
		},
		{
			kind: "fortunes",
			add:  url.Values{"input_amount": {"12000"}, "input_date": {"2025-01-31"}},
			edit: url.Values{"input_amount": {"12500"}, "input_date": {"2025-01-31"}},
			want: "1:2025-01-31:12500.00",
		},
		{
			kind: "wishes",
			add:  url.Values{"input_name": {"Bike"}, "input_amount": {"300"}, "input_urgency": {"2"}, "input_importance": {"3"}},
			edit: url.Values{"input_name": {"Bike"}, "input_amount": {"300"}, "input_urgency": {"2"}, "input_importance": {"3"}, "input_paid": {"no"}, "input_paid_amount": {"280"}},
			want: "1:" + today.String() + ":Bike:3:2:300.00:false:0.00",
		},
		{
			kind: "recurrings",
			add:  url.Values{"input_name": {"Rent"}, "input_amount": {"900"}, "input_account": {"1"}},
			edit: url.Values{"input_name": {"Rent"}, "input_amount": {"950"}, "input_account": {"1"}},
			want: "1:Checking:Rent:950.00:monthly",
		},
		{
			kind: "objectives",
			add:  url.Values{"input_name": {"Save"}, "input_type": {"monthly"}, "input_source": {"savings_rate"}, "input_operator": {"min"}, "input_amount": {"20"}},
			edit: url.Values{"input_name": {"Save more"}, "input_type": {"monthly"}, "input_source": {"savings_rate"}, "input_operator": {"min"}, "input_amount": {"25"}},
			want: "1:Save more:monthly:savings_rate:min:25.00:" + today.String(),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.kind, func(t *testing.T) {
			expect(t, post(t, s, "/api/"+tc.kind+"/add/", tc.add), http.StatusOK, "1")
			tc.edit.Set("input_id", "1")
			if w := post(t, s, "/api/"+tc.kind+"/edit/", tc.edit); w.Code != http.StatusOK {
				t.Fatalf("edit: %d %q", w.Code, w.Body.String())
			}
			if got := listed(t, get(t, s, "/api/"+tc.kind+"/list/")); len(got) != 1 || got[0] != tc.want {
				t.Errorf("list = %q, want [%q]", got, tc.want)
			}
		})
	}

	// a paid wish gets its paid amount.
	wish := url.Values{"input_id": {"1"}, "input_name": {"Bike"}, "input_amount": {"300"}, "input_urgency": {"2"}, "input_importance": {"3"}, "input_paid": {"yes"}, "input_paid_amount": {"280"}}
	expect(t, post(t, s, "/api/wishes/edit/", wish), http.StatusOK, "Success: wish 1 has been modified")
	if r, _ := b.Wishes.Get(1); !r.Value.Paid || !r.Value.PaidAmount.Equal(budget.M(280)) {
		t.Errorf("wish = %v", r.Value)
	}
}

func TestCurrency(t *testing.T) {
	s, _, _ := newTestServer(t, Options{DefaultCurrency: "USD"})
	expect(t, get(t, s, "/api/currency/rate/?from=EUR"), http.StatusOK, "1.1")
	expect(t, get(t, s, "/api/currency/rate/?from=eur&to=EUR"), http.StatusOK, "1")
	expect(t, get(t, s, "/api/currency/rate/?from=USD&to=GBP"), http.StatusOK, "0.8")

	w := get(t, s, "/api/currency/rate/?from=XYZ")
	if w.Code != http.StatusServiceUnavailable || !strings.HasPrefix(w.Body.String(), "Error: exchange rate unavailable") {
		t.Errorf("unknown currency: %d %q", w.Code, w.Body.String())
	}
	if w := get(t, s, "/api/currency/rate/"); w.Code != http.StatusBadRequest {
		t.Errorf("missing from: status %d, want 400", w.Code)
	}

	expect(t, post(t, s, "/api/currency/invalidate/", nil), http.StatusOK, "Success: exchange rates to USD have been invalidated")
}

func TestRoutes(t *testing.T) {
	s, _, _ := newTestServer(t, Options{})
	routes := make(map[string]bool)
	for _, r := range s.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, kind := range budget.Kinds {
		for _, want := range []string{
			"POST /api/" + kind + "/add/",
			"POST /api/" + kind + "/edit/",
			"POST /api/" + kind + "/delete/",
			"GET /api/" + kind + "/list/",
		} {
			if !routes[want] {
				t.Errorf("missing route %s", want)
			}
		}
	}
}
