package budget

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Kinds of records, also the names they are persisted under.
const (
	KindAccounts    = "accounts"
	KindExpenses    = "expenses"
	KindEarnings    = "earnings"
	KindAssets      = "assets"
	KindAssetValues = "asset_values"
	KindDebts       = "debts"
	KindWishes      = "wishes"
	KindRecurrings  = "recurrings"
	KindFortunes    = "fortunes"
	KindObjectives  = "objectives"
)

// Kinds lists every kind, in load order.
var Kinds = []string{
	KindAccounts, KindExpenses, KindEarnings, KindAssets, KindAssetValues,
	KindDebts, KindWishes, KindRecurrings, KindFortunes, KindObjectives,
}

// persister is the untyped part of a Store.
type persister interface {
	Kind() string
	Load() error
	Save() error
	Flush() error
	Changed() bool
	Len() int
}

// Budget holds every store of the application, and the currency rates.
//
// A Budget is opened once at startup, shared by every request, and closed at shutdown.
type Budget struct {
	Accounts    *Store[Account]
	Expenses    *Store[Expense]
	Earnings    *Store[Earning]
	Assets      *Store[Asset]
	AssetValues *Store[AssetValue]
	Debts       *Store[Debt]
	Wishes      *Store[Wish]
	Recurrings  *Store[Recurring]
	Fortunes    *Store[Fortune]
	Objectives  *Store[Objective]

	Rates *Rates

	backend Backend
	log     *zap.SugaredLogger
	stores  []persister
}

// New returns a Budget with empty stores persisted to backend.
// A nil logger discards logs.
func New(backend Backend, rates *Rates, log *zap.SugaredLogger) *Budget {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	b := &Budget{
		Accounts:    NewStore[Account](KindAccounts, backend, log),
		Expenses:    NewStore[Expense](KindExpenses, backend, log),
		Earnings:    NewStore[Earning](KindEarnings, backend, log),
		Assets:      NewStore[Asset](KindAssets, backend, log),
		AssetValues: NewStore[AssetValue](KindAssetValues, backend, log),
		Debts:       NewStore[Debt](KindDebts, backend, log),
		Wishes:      NewStore[Wish](KindWishes, backend, log),
		Recurrings:  NewStore[Recurring](KindRecurrings, backend, log),
		Fortunes:    NewStore[Fortune](KindFortunes, backend, log),
		Objectives:  NewStore[Objective](KindObjectives, backend, log),
		Rates:       rates,
		backend:     backend,
		log:         log,
	}
	b.stores = []persister{
		b.Accounts, b.Expenses, b.Earnings, b.Assets, b.AssetValues,
		b.Debts, b.Wishes, b.Recurrings, b.Fortunes, b.Objectives,
	}
	return b
}

// Open returns a Budget with every store loaded from backend.
//
// A nil rates gives a cache in USD without any rate source.
func Open(backend Backend, rates *Rates, log *zap.SugaredLogger) (*Budget, error) {
	if rates == nil {
		rates = NewRates("USD", nil)
	}
	b := New(backend, rates, log)
	for _, s := range b.stores {
		if err := s.Load(); err != nil {
			return nil, err
		}
	}
	b.log.Infow("open-budget", "kinds", len(b.stores), "reference", rates.Reference())
	return b, nil
}

// Backend returns the medium the stores are persisted to.
func (b *Budget) Backend() Backend { return b.backend }

// Flush persists every changed store. Every store is attempted, errors are joined.
func (b *Budget) Flush() error {
	var errs []error
	for _, s := range b.stores {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save persists every store, changed or not.
func (b *Budget) Save() error {
	var errs []error
	for _, s := range b.stores {
		if err := s.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes the stores. The Budget must not be used afterwards.
func (b *Budget) Close() error {
	if err := b.Flush(); err != nil {
		return fmt.Errorf("cannot close budget: %w", err)
	}
	b.log.Infow("close-budget")
	return nil
}

// Changed reports whether any store has changes not yet persisted.
func (b *Budget) Changed() bool {
	for _, s := range b.stores {
		if s.Changed() {
			return true
		}
	}
	return false
}

// Counts returns the number of records per kind.
func (b *Budget) Counts() map[string]int {
	counts := make(map[string]int, len(b.stores))
	for _, s := range b.stores {
		counts[s.Kind()] = s.Len()
	}
	return counts
}

// Copy saves every store of b into another backend, e.g. to migrate from files to a database.
func (b *Budget) Copy(to Backend) error {
	dst := New(to, b.Rates, b.log)
	copyStore(b.Accounts, dst.Accounts)
	copyStore(b.Expenses, dst.Expenses)
	copyStore(b.Earnings, dst.Earnings)
	copyStore(b.Assets, dst.Assets)
	copyStore(b.AssetValues, dst.AssetValues)
	copyStore(b.Debts, dst.Debts)
	copyStore(b.Wishes, dst.Wishes)
	copyStore(b.Recurrings, dst.Recurrings)
	copyStore(b.Fortunes, dst.Fortunes)
	copyStore(b.Objectives, dst.Objectives)
	return dst.Save()
}

// copyStore replaces the content of dst with src's, keeping ids, guids and the counter.
func copyStore[T any](src, dst *Store[T]) {
	src.mu.RLock()
	defer src.mu.RUnlock()
	records := make([]*Record[T], len(src.records))
	for i, r := range src.records {
		c := *r
		records[i] = &c
	}
	dst.mu.Lock()
	defer dst.mu.Unlock()
	dst.reset(records, src.nextID)
	dst.changed = true
}
