package budget

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// This file contains code to persist stores in a folder, in a way that is still human-readable and git-friendly.
//
// Each kind lives in its own <kind>.jsonl file. The first line is a header holding the id counter:
//
//	{"next_id":4}
//	{"id":1,"guid":"…","name":"Checking","amount":"1000.00", …}
//	{"id":3,"guid":"…","name":"Savings","amount":"250.00", …}
//
// Files are never written in place: the new content goes to <kind>.jsonl.tmp, is synced, and then renamed
// over the previous file.

const fileExt = ".jsonl"

// header is the first line of a store file.
type header struct {
	NextID int64 `json:"next_id"`
}

// FileBackend persists stores as jsonl files in a directory.
type FileBackend struct {
	Dir string
	Log *zap.SugaredLogger // optional
}

// NewFileBackend returns a FileBackend storing files in dir.
func NewFileBackend(dir string, log *zap.SugaredLogger) *FileBackend {
	return &FileBackend{Dir: dir, Log: log}
}

// Filename returns the file storing kind.
func (b *FileBackend) Filename(kind string) string {
	return filepath.Join(b.Dir, kind+fileExt)
}

// Read implements Backend.
func (b *FileBackend) Read(kind string) (int64, [][]byte, error) {
	filename := b.Filename(kind)
	f, err := os.Open(filename)
	if err != nil {
		return 0, nil, err // already wraps fs.ErrNotExist when relevant.
	}
	defer f.Close()

	nextID := int64(1)
	var lines [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	i, headed := 0, false
	for scanner.Scan() {
		i++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !headed {
			if nextID, err = decodeHeader(line); err != nil {
				return 0, nil, fmt.Errorf("parse error %s:%d: %w", filename, i, err)
			}
			headed = true
			continue
		}
		// the scanner reuses its buffer.
		lines = append(lines, bytes.Clone(line))
	}
	if err := scanner.Err(); err != nil {
		return 0, nil, fmt.Errorf("cannot read %q: %w", filename, err)
	}
	return nextID, lines, nil
}

// decodeHeader decodes the first line of a file. Anything but a header, a
// record in particular, is an error.
func decodeHeader(line []byte) (int64, error) {
	var h struct {
		NextID *int64 `json:"next_id"`
	}
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&h); err != nil {
		return 0, fmt.Errorf("missing header: %w", err)
	}
	if h.NextID == nil {
		return 0, errors.New("missing header: no next_id")
	}
	return *h.NextID, nil
}

// Write implements Backend.
func (b *FileBackend) Write(kind string, nextID int64, lines [][]byte) error {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return fmt.Errorf("persist error: cannot create folder %q: %w", b.Dir, err)
	}
	filename := b.Filename(kind)
	tmp := filename + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("persist error: cannot create file %q: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	if err := writeLines(w, nextID, lines); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("persist error: write error on file %q: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("persist error: cannot sync file %q: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist error: cannot close file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("persist error: cannot replace file %q: %w", filename, err)
	}
	if b.Log != nil {
		b.Log.Debugw("write-store-file", "name", filename, "records", len(lines))
	}
	return nil
}

// writeLines writes the header and every line, then flushes w.
// Returns bare io errors.
func writeLines(w *bufio.Writer, nextID int64, lines [][]byte) error {
	h, err := json.Marshal(header{NextID: nextID})
	if err != nil {
		return err
	}
	if _, err := w.Write(append(h, '\n')); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

// MemoryBackend keeps persisted stores in memory. Useful for tests and dry runs.
type MemoryBackend struct {
	mu    sync.Mutex
	kinds map[string]memoryKind
}

type memoryKind struct {
	nextID int64
	lines  [][]byte
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{kinds: make(map[string]memoryKind)}
}

// Read implements Backend.
func (b *MemoryBackend) Read(kind string) (int64, [][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	k, ok := b.kinds[kind]
	if !ok {
		return 0, nil, fmt.Errorf("memory %q: %w", kind, fs.ErrNotExist)
	}
	return k.nextID, cloneLines(k.lines), nil
}

// Write implements Backend.
func (b *MemoryBackend) Write(kind string, nextID int64, lines [][]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kinds[kind] = memoryKind{nextID: nextID, lines: cloneLines(lines)}
	return nil
}

func cloneLines(lines [][]byte) [][]byte {
	c := make([][]byte, len(lines))
	for i, l := range lines {
		c[i] = bytes.Clone(l)
	}
	return c
}
