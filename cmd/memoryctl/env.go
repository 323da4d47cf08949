package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/runtimeconfig"
	"github.com/agentcore/memoryruntime/storage/memstore"
	"github.com/agentcore/memoryruntime/storage/sqlitestore"
	"github.com/agentcore/memoryruntime/tokenizer"
)

// env bundles the wired runtime and its underlying storage handle (if any)
// for the duration of one invocation.
type env struct {
	store   memoryruntime.Storage
	runtime *memoryruntime.Runtime
	db      *sql.DB
}

func (e *env) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// newEnv wires a Runtime against either an in-memory store or a sqlite
// database at dbPath, using runtimeconfig.Default for thresholds.
func newEnv(ctx context.Context, dbPath string) (*env, error) {
	cfg := runtimeconfig.Default()
	tok := tokenizer.New(cfg.Tokenizer.Model)
	compaction := memoryruntime.NewCompactionManager(cfg.Compaction.ToRuntime(), tok, nil)
	subagents := memoryruntime.NewSubagentRegistry(true)

	if dbPath == "" {
		store := memstore.New()
		rt := memoryruntime.NewRuntime(store, compaction, memoryruntime.WithSubagentRegistry(subagents))
		return &env{store: store, runtime: rt}, nil
	}

	db, err := sqlitestore.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	store := sqlitestore.New(db)
	rt := memoryruntime.NewRuntime(store, compaction, memoryruntime.WithSubagentRegistry(subagents))
	return &env{store: store, runtime: rt, db: db}, nil
}

type envKey struct{}

func setEnv(c *cobra.Command, e *env) {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c.SetContext(context.WithValue(ctx, envKey{}, e))
}

func envFrom(c *cobra.Command) *env {
	ctx := c.Context()
	if ctx == nil {
		return nil
	}
	e, _ := ctx.Value(envKey{}).(*env)
	return e
}
