// v0
// internal/store/store_test.go
package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func engines(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		EngineMemory: func(t *testing.T) Store { return NewMemoryStore() },
		EngineJSON: func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "scans.jsonl"), discardLogger())
			if err != nil {
				t.Fatalf("open file store: %v", err)
			}
			return s
		},
		EngineSQLite: func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "scans.db"))
			if err != nil {
				t.Fatalf("open sqlite store: %v", err)
			}
			return s
		},
	}
}

func sample(user string, ts time.Time) scan.Event {
	return scan.Event{UserID: user, QRCode: "PAPER_001", ItemName: "Newspaper", Category: scan.CategoryDry, Weight: 250, Unit: scan.UnitGram, Timestamp: ts}
}

func TestStoreContract(t *testing.T) {
	for name, open := range engines(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			now := time.Now().UTC().Truncate(time.Millisecond)

			stored, err := s.Append(ctx, scan.Event{UserID: "alice", QRCode: "GLASS_BOTTLE_001", ItemName: "Glass Bottle", Category: scan.CategoryDry, Weight: 1.5,
				Impact: &scan.Impact{CO2Saved: 0.3, EnergySaved: 1.2}})
			if err != nil {
				t.Fatalf("append: %v", err)
			}
			if stored.ID == "" || stored.Timestamp.IsZero() || stored.Unit != scan.UnitKilogram {
				t.Fatalf("expected id, timestamp and unit default, got %+v", stored)
			}

			if _, err := s.Append(ctx, sample("alice", now.AddDate(0, 0, -10))); err != nil {
				t.Fatalf("append old: %v", err)
			}
			if _, err := s.Append(ctx, sample("bob", now)); err != nil {
				t.Fatalf("append bob: %v", err)
			}

			if _, err := s.Append(ctx, scan.Event{QRCode: "X_001", ItemName: "x", Category: "metal"}); !errors.Is(err, scan.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}

			all, err := s.Query(ctx, Filter{})
			if err != nil {
				t.Fatalf("query all: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("expected 3 events (rejected one not stored), got %d", len(all))
			}

			alice, err := s.Query(ctx, Filter{UserID: "alice", Since: now.AddDate(0, 0, -1)})
			if err != nil {
				t.Fatalf("query alice: %v", err)
			}
			if len(alice) != 1 || alice[0].ID != stored.ID {
				t.Fatalf("expected only the recent alice event, got %+v", alice)
			}
			if alice[0].Impact == nil || alice[0].Impact.CO2Saved != 0.3 {
				t.Fatalf("impact hint must round-trip, got %+v", alice[0].Impact)
			}
			if alice[0].Timestamp.Location() != time.UTC {
				t.Fatalf("expected UTC timestamps")
			}

			n, err := s.Clear(ctx)
			if err != nil || n != 3 {
				t.Fatalf("clear: n=%d err=%v", n, err)
			}
			if left, _ := s.Query(ctx, Filter{}); len(left) != 0 {
				t.Fatalf("expected empty store after clear, got %d", len(left))
			}
		})
	}
}

func TestStoreConcurrentAppends(t *testing.T) {
	for name, open := range engines(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			var wg sync.WaitGroup
			for _, user := range []string{"u1", "u2", "u3", "u4"} {
				user := user
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 25; i++ {
						if _, err := s.Append(ctx, sample(user, time.Time{})); err != nil {
							t.Errorf("append %s: %v", user, err)
							return
						}
					}
				}()
			}
			wg.Wait()

			for _, user := range []string{"u1", "u2", "u3", "u4"} {
				got, err := s.Query(ctx, Filter{UserID: user})
				if err != nil {
					t.Fatalf("query: %v", err)
				}
				if len(got) != 25 {
					t.Fatalf("user %s: expected 25 events, got %d", user, len(got))
				}
			}
		})
	}
}

func TestFileStoreReloadsAndSkipsBadLines(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scans.jsonl")

	s, err := NewFileStore(path, discardLogger())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := s.Append(ctx, sample("alice", time.Time{})); err != nil {
		t.Fatalf("append: %v", err)
	}
	// simulate a torn line from a crash
	if _, err := s.f.WriteString("{\"id\":\"broken\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewFileStore(path, discardLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "alice" {
		t.Fatalf("expected the single valid event, got %+v", got)
	}
}

func TestFileStoreRepairsTornTail(t *testing.T) {
	tests := []struct {
		name      string
		tail      string
		wantUsers []string
	}{
		{name: "undecodable fragment is cut", tail: `{"id":"torn","qrCode":"X`, wantUsers: []string{"carol"}},
		{name: "whitespace fragment is cut", tail: "  ", wantUsers: []string{"carol"}},
		{name: "complete record without newline is kept", tail: `{"id":"kept","userId":"bob","qrCode":"GLASS_001","category":"dry","weight":1,"unit":"kg","timestamp":"2024-05-01T10:00:00Z"}`, wantUsers: []string{"bob", "carol"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "scans.jsonl")
			if err := os.WriteFile(path, []byte(tt.tail), 0o644); err != nil {
				t.Fatalf("seed: %v", err)
			}

			s, err := NewFileStore(path, discardLogger())
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			appended, err := s.Append(ctx, sample("carol", time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)))
			if err != nil {
				t.Fatalf("append: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			reopened, err := NewFileStore(path, discardLogger())
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()
			got, err := reopened.Query(ctx, Filter{})
			if err != nil {
				t.Fatalf("query: %v", err)
			}
			if len(got) != len(tt.wantUsers) {
				t.Fatalf("expected %d events after reopen, got %+v", len(tt.wantUsers), got)
			}
			for i, user := range tt.wantUsers {
				if got[i].UserID != user {
					t.Fatalf("event %d: expected user %q, got %q", i, user, got[i].UserID)
				}
			}
			if last := got[len(got)-1]; last.ID != appended.ID {
				t.Fatalf("appended event lost: expected id %q, got %q", appended.ID, last.ID)
			}
		})
	}
}

func TestClosedStoreRejectsCalls(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Close()
	if _, err := s.Query(context.Background(), Filter{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewByEngineRejectsUnknown(t *testing.T) {
	if _, err := NewByEngine(context.Background(), Options{Engine: "cassandra"}, discardLogger()); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
	s, err := NewByEngine(context.Background(), Options{Engine: "MEMORY"}, discardLogger())
	if err != nil {
		t.Fatalf("memory engine: %v", err)
	}
	_ = s.Close()
}
