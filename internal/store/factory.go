// v0
// internal/store/factory.go
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	EngineMemory = "memory"
	EngineJSON   = "json"
	EngineSQLite = "sqlite"
	EngineMongo  = "mongo"
)

// Options selects and configures an engine.
type Options struct {
	Engine          string
	Path            string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	Timeout         time.Duration
}

// NewByEngine opens the engine named in opts. An empty engine selects SQLite.
func NewByEngine(ctx context.Context, opts Options, lg *slog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Engine)) {
	case "", EngineSQLite:
		return NewSQLiteStore(opts.Path)
	case EngineJSON:
		return NewFileStore(opts.Path, lg)
	case EngineMemory:
		return NewMemoryStore(), nil
	case EngineMongo:
		return NewMongoStore(ctx, MongoConfig{
			URI:        opts.MongoURI,
			Database:   opts.MongoDatabase,
			Collection: opts.MongoCollection,
			Timeout:    opts.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported store engine: %q", opts.Engine)
	}
}
