package budget

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend is the medium a Store is persisted to.
//
// A kind is persisted as a counter and an ordered list of lines, one JSON
// object per record. Write must publish the whole kind atomically: readers
// either see the previous content or the new one.
type Backend interface {
	// Read returns the persisted counter and lines for kind.
	// It returns an error wrapping fs.ErrNotExist if kind was never written.
	Read(kind string) (nextID int64, lines [][]byte, err error)
	// Write replaces everything persisted for kind.
	Write(kind string, nextID int64, lines [][]byte) error
}

// Record is a stored entity: a payload with its identity.
type Record[T any] struct {
	ID    int64
	GUID  string
	Value T
}

// String returns the record as "id:guid:payload".
func (r Record[T]) String() string {
	return fmt.Sprintf("%d:%s:%v", r.ID, r.GUID, r.Value)
}

// Store is an ordered collection of records of the same kind.
//
// IDs are assigned from a counter that only moves forward, so an id is never
// reused, even after the record holding it has been deleted. The counter is
// persisted with the records.
//
// Store is safe for concurrent use.
type Store[T any] struct {
	kind    string
	backend Backend
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	records []*Record[T]
	byID    map[int64]*Record[T]
	byGUID  map[string]*Record[T]
	nextID  int64
	changed bool
}

// NewStore returns an empty store for kind, persisted to backend.
// A nil logger discards logs.
func NewStore[T any](kind string, backend Backend, log *zap.SugaredLogger) *Store[T] {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store[T]{
		kind:    kind,
		backend: backend,
		log:     log,
		byID:    make(map[int64]*Record[T]),
		byGUID:  make(map[string]*Record[T]),
		nextID:  1,
	}
}

// Kind returns the kind of records in the store, also the name it is persisted under.
func (s *Store[T]) Kind() string { return s.kind }

// Load replaces the content of the store with the persisted one.
//
// A kind that was never persisted loads as an empty store. On any other
// error the store is left untouched.
func (s *Store[T]) Load() error {
	nextID, lines, err := s.backend.Read(s.kind)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.reset(nil, 1)
		s.log.Debugw("load-store", "kind", s.kind, "records", 0, "missing", true)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: cannot read %q: %w", ErrPersistence, s.kind, err)
	}

	records := make([]*Record[T], 0, len(lines))
	ids := make(map[int64]struct{}, len(lines))
	guids := make(map[string]struct{}, len(lines))
	var maxID int64
	var repaired bool
	for i, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		r, err := decodeRecord[T](line)
		if err != nil {
			return fmt.Errorf("%w: parse error %s record %d: %w", ErrPersistence, s.kind, i+1, err)
		}
		if r.ID <= 0 {
			return fmt.Errorf("%w: parse error %s record %d: invalid id %d", ErrPersistence, s.kind, i+1, r.ID)
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("%w: parse error %s record %d: duplicate id %d", ErrPersistence, s.kind, i+1, r.ID)
		}
		if r.GUID == "" {
			r.GUID = uuid.NewString()
			repaired = true
			s.log.Warnw("assign-missing-guid", "kind", s.kind, "id", r.ID, "guid", r.GUID)
		}
		if _, dup := guids[r.GUID]; dup {
			return fmt.Errorf("%w: parse error %s record %d: duplicate guid %q", ErrPersistence, s.kind, i+1, r.GUID)
		}
		ids[r.ID] = struct{}{}
		guids[r.GUID] = struct{}{}
		maxID = max(maxID, r.ID)
		records = append(records, r)
	}

	if nextID <= maxID {
		s.log.Warnw("repair-next-id", "kind", s.kind, "persisted", nextID, "next_id", maxID+1)
		nextID = maxID + 1
		repaired = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(records, nextID)
	s.changed = repaired
	s.log.Debugw("load-store", "kind", s.kind, "records", len(records), "next_id", nextID)
	return nil
}

// reset replaces the whole content. Caller holds the write lock.
func (s *Store[T]) reset(records []*Record[T], nextID int64) {
	s.records = records
	s.nextID = nextID
	s.changed = false
	s.reindex()
}

// reindex rebuilds both indexes from s.records. Caller holds the write lock.
func (s *Store[T]) reindex() {
	s.byID = make(map[int64]*Record[T], len(s.records))
	s.byGUID = make(map[string]*Record[T], len(s.records))
	for _, r := range s.records {
		s.byID[r.ID] = r
		s.byGUID[r.GUID] = r
	}
}

// Save persists the whole store, and clears the changed flag on success.
// No mutation can happen while the store is being written.
func (s *Store[T]) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// Flush persists the store only if it has changed since the last Load or Save.
func (s *Store[T]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.changed {
		return nil
	}
	return s.save()
}

func (s *Store[T]) save() error {
	lines := make([][]byte, 0, len(s.records))
	for _, r := range s.records {
		line, err := encodeRecord(r)
		if err != nil {
			return fmt.Errorf("%w: cannot encode %s %d: %w", ErrPersistence, s.kind, r.ID, err)
		}
		lines = append(lines, line)
	}
	if err := s.backend.Write(s.kind, s.nextID, lines); err != nil {
		return fmt.Errorf("%w: cannot write %q: %w", ErrPersistence, s.kind, err)
	}
	s.changed = false
	s.log.Infow("save-store", "kind", s.kind, "records", len(lines), "next_id", s.nextID)
	return nil
}

// Add appends a new record with a fresh GUID and returns its id.
func (s *Store[T]) Add(v T) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(uuid.NewString(), v)
}

// AddWithGUID is like Add but keeps the GUID supplied by the caller.
// An empty guid gets a fresh one. A guid already in the store is rejected with ErrDuplicate.
func (s *Store[T]) AddWithGUID(guid string, v T) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addWithGUID(guid, v)
}

func (s *Store[T]) addWithGUID(guid string, v T) (int64, error) {
	if guid == "" {
		guid = uuid.NewString()
	}
	if _, exists := s.byGUID[guid]; exists {
		return 0, fmt.Errorf("%w: %s guid %q already exists", ErrDuplicate, s.kind, guid)
	}
	return s.add(guid, v), nil
}

func (s *Store[T]) add(guid string, v T) int64 {
	r := &Record[T]{ID: s.nextID, GUID: guid, Value: v}
	s.nextID++
	s.records = append(s.records, r)
	s.byID[r.ID] = r
	s.byGUID[r.GUID] = r
	s.changed = true
	return r.ID
}

// Edit applies f to a copy of the value of record id. The copy replaces the
// stored value only if f returns nil, otherwise the store is left untouched
// and f's error is returned.
func (s *Store[T]) Edit(id int64, f func(*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit(id, f)
}

func (s *Store[T]) edit(id int64, f func(*T) error) error {
	r, exists := s.byID[id]
	if !exists {
		return s.notFound(id)
	}
	v := r.Value
	if err := f(&v); err != nil {
		return err
	}
	r.Value = v
	s.changed = true
	return nil
}

// Delete removes record id. Remaining records keep their ids.
func (s *Store[T]) Delete(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(id)
}

func (s *Store[T]) delete(id int64) error {
	r, exists := s.byID[id]
	if !exists {
		return s.notFound(id)
	}
	for i, x := range s.records {
		if x == r {
			s.records = append(s.records[:i:i], s.records[i+1:]...)
			break
		}
	}
	delete(s.byID, id)
	delete(s.byGUID, r.GUID)
	s.changed = true
	return nil
}

func (s *Store[T]) notFound(id int64) error {
	return fmt.Errorf("%w: %s %d does not exist", ErrNotFound, s.kind, id)
}

// Get returns the record id.
//
// The record is shared with the store: a caller that modifies it must call
// SetChanged, and must not do so concurrently with other users of the store.
// Prefer Edit.
func (s *Store[T]) Get(id int64) (*Record[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, exists := s.byID[id]
	if !exists {
		return nil, s.notFound(id)
	}
	return r, nil
}

// Exists reports whether record id is in the store.
func (s *Store[T]) Exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.byID[id]
	return exists
}

// FindGUID returns the record with the given GUID.
func (s *Store[T]) FindGUID(guid string) (*Record[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, exists := s.byGUID[guid]
	return r, exists
}

// All returns the records in insertion order. The slice is fresh, the records are shared.
func (s *Store[T]) All() []*Record[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Record[T](nil), s.records...)
}

// Snapshot returns a copy of every record in insertion order.
func (s *Store[T]) Snapshot() []Record[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]Record[T], len(s.records))
	for i, r := range s.records {
		list[i] = *r
	}
	return list
}

// Len returns the number of records.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// NextID returns the id the next added record will get.
func (s *Store[T]) NextID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// Changed reports whether the store has changes not yet persisted.
func (s *Store[T]) Changed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// SetChanged marks the store as changed, for callers that modified a record obtained with Get.
func (s *Store[T]) SetChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changed = true
}

// Batch gives access to a Store while its write lock is held.
type Batch[T any] struct {
	s *Store[T]
}

func (b *Batch[T]) Add(v T) int64                               { return b.s.add(uuid.NewString(), v) }
func (b *Batch[T]) AddWithGUID(guid string, v T) (int64, error) { return b.s.addWithGUID(guid, v) }
func (b *Batch[T]) Edit(id int64, f func(*T) error) error       { return b.s.edit(id, f) }
func (b *Batch[T]) Delete(id int64) error                       { return b.s.delete(id) }

// Get returns a copy of record id.
func (b *Batch[T]) Get(id int64) (Record[T], error) {
	r, exists := b.s.byID[id]
	if !exists {
		return Record[T]{}, b.s.notFound(id)
	}
	return *r, nil
}

// All returns a copy of every record in insertion order.
func (b *Batch[T]) All() []Record[T] {
	list := make([]Record[T], len(b.s.records))
	for i, r := range b.s.records {
		list[i] = *r
	}
	return list
}

// Batch runs f with exclusive access to the store. If f returns an error,
// every change it made is rolled back and the error is returned.
func (s *Store[T]) Batch(f func(*Batch[T]) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append([]*Record[T](nil), s.records...)
	values := make([]T, len(records))
	for i, r := range records {
		values[i] = r.Value
	}
	nextID, changed := s.nextID, s.changed

	if err := f(&Batch[T]{s: s}); err != nil {
		for i, r := range records {
			r.Value = values[i]
		}
		s.records, s.nextID, s.changed = records, nextID, changed
		s.reindex()
		return err
	}
	return nil
}

// encodeRecord writes r as a single JSON object: id and guid first, then the payload fields.
func encodeRecord[T any](r *Record[T]) ([]byte, error) {
	payload, err := json.Marshal(r.Value)
	if err != nil {
		return nil, err
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) < 2 || payload[0] != '{' {
		return nil, fmt.Errorf("payload must encode as a json object, got %s", payload)
	}
	guid, err := json.Marshal(r.GUID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"id":%d,"guid":%s`, r.ID, guid)
	if body := bytes.TrimSpace(payload[1 : len(payload)-1]); len(body) > 0 {
		buf.WriteByte(',')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeRecord is the reverse of encodeRecord.
func decodeRecord[T any](line []byte) (*Record[T], error) {
	var head struct {
		ID   int64  `json:"id"`
		GUID string `json:"guid"`
	}
	if err := json.Unmarshal(line, &head); err != nil {
		return nil, fmt.Errorf("not a correct json: %w", err)
	}
	r := &Record[T]{ID: head.ID, GUID: head.GUID}
	if err := json.Unmarshal(line, &r.Value); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return r, nil
}
