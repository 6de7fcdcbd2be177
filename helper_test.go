package budget

import (
	"testing"

	"github.com/etnz/budget/date"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

// day is a helper for test to create a date from a const string.
func day(s string) date.Date { return date.MustParse(s) }

// newTestStore returns an empty store of kind persisted in memory.
func newTestStore[T any](t *testing.T, kind string) (*Store[T], *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend()
	return NewStore[T](kind, backend, zaptest.NewLogger(t).Sugar()), backend
}

// cmpOpts compares values with unexported fields.
var cmpOpts = cmp.Options{
	cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
}

// countingBackend counts reads and writes to a MemoryBackend.
type countingBackend struct {
	*MemoryBackend
	reads, writes int
}

func (b *countingBackend) Read(kind string) (int64, [][]byte, error) {
	b.reads++
	return b.MemoryBackend.Read(kind)
}

func (b *countingBackend) Write(kind string, nextID int64, lines [][]byte) error {
	b.writes++
	return b.MemoryBackend.Write(kind, nextID, lines)
}
