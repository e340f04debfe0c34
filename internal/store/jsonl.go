// v0
// internal/store/jsonl.go
package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// FileStore is an append-only JSON-lines log with the full history indexed in memory.
// It serves the single-node local mode.
type FileStore struct {
	lg   *slog.Logger
	path string
	now  func() time.Time

	mu     sync.RWMutex
	f      *os.File
	events []scan.Event
}

// NewFileStore opens (or creates) path and loads every valid line into memory.
func NewFileStore(path string, lg *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := &FileStore{lg: lg.With("component", "file_store"), path: path, now: time.Now, f: f}
	if err := s.load(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("load store: %w", err)
	}
	s.lg.Info("store_loaded", "path", path, "events", len(s.events))
	return s, nil
}

// load indexes every complete line. A trailing fragment with no newline is
// the remains of an interrupted write: it is kept when it still decodes and
// cut off otherwise, so the next append starts on a fresh line.
func (s *FileStore) load() error {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r := bufio.NewReader(s.f)
	var complete int64
	for {
		line, err := r.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return nil
			}
			return s.repairTail(line, complete)
		}
		if err != nil {
			return err
		}
		complete += int64(len(line))
		s.index(line)
	}
}

func (s *FileStore) index(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	var e scan.Event
	if err := json.Unmarshal(line, &e); err != nil {
		s.lg.Warn("skipping_bad_record", "err", err)
		return
	}
	s.events = append(s.events, e)
}

func (s *FileStore) repairTail(tail []byte, complete int64) error {
	var e scan.Event
	if err := json.Unmarshal(bytes.TrimSpace(tail), &e); err == nil {
		if _, err := s.f.Seek(0, io.SeekEnd); err != nil {
			return err
		}
		if _, err := s.f.Write([]byte{'\n'}); err != nil {
			return err
		}
		s.events = append(s.events, e)
		return s.f.Sync()
	}
	s.lg.Warn("store_truncated_torn_record", "offset", complete, "bytes", len(tail))
	if err := s.f.Truncate(complete); err != nil {
		return err
	}
	return s.f.Sync()
}

// Append writes e as one line and fsyncs before indexing it.
func (s *FileStore) Append(ctx context.Context, e scan.Event) (scan.Event, error) {
	if err := ctx.Err(); err != nil {
		return scan.Event{}, err
	}
	e, err := prepare(e, s.now)
	if err != nil {
		return scan.Event{}, err
	}
	enc, err := json.Marshal(e)
	if err != nil {
		return scan.Event{}, fmt.Errorf("encode event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return scan.Event{}, ErrClosed
	}
	if _, err := s.f.Seek(0, io.SeekEnd); err != nil {
		return scan.Event{}, Transient("append", err)
	}
	// one write per line keeps a partially written record out of the index
	if _, err := s.f.Write(append(enc, '\n')); err != nil {
		return scan.Event{}, Transient("append", err)
	}
	if err := s.f.Sync(); err != nil {
		return scan.Event{}, Transient("append", err)
	}
	s.events = append(s.events, e)
	return e, nil
}

// Query scans the in-memory index.
func (s *FileStore) Query(ctx context.Context, f Filter) ([]scan.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.f == nil {
		return nil, ErrClosed
	}
	out := make([]scan.Event, 0, len(s.events))
	for _, e := range s.events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Clear truncates the log and drops the index.
func (s *FileStore) Clear(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, ErrClosed
	}
	if err := s.f.Truncate(0); err != nil {
		return 0, Transient("clear", err)
	}
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return 0, Transient("clear", err)
	}
	n := int64(len(s.events))
	s.events = nil
	s.lg.Warn("store_cleared", "path", s.path, "deleted", n)
	return n, nil
}

// Close flushes and closes the file.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
