package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/agentcore/memoryruntime"
	"github.com/agentcore/memoryruntime/storage"
)

// Store is a durable Storage implementation: every record is serialized as
// a JSON blob keyed by id, with a couple of secondary by-thread indices for
// ordered retrieval — the same key/value shape storage.Storage documents,
// just backed by tables instead of maps.
type Store struct {
	db *sql.DB
}

// New wraps an already-opened, already-migrated database handle (see
// Open) in a Store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ storage.Storage = (*Store)(nil)

// --- Threads ---

func (s *Store) GetThread(ctx context.Context, id string) (*memoryruntime.Thread, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM threads WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, storage.ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get thread: %w", err)
	}
	var t memoryruntime.Thread
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("sqlitestore: decode thread: %w", err)
	}
	return &t, nil
}

func (s *Store) SaveThread(ctx context.Context, thread *memoryruntime.Thread) error {
	return s.putThread(ctx, s.db, thread)
}

func (s *Store) putThread(ctx context.Context, exec execer, thread *memoryruntime.Thread) error {
	data, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode thread: %w", err)
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO threads (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, thread.ID, data)
	if err != nil {
		return fmt.Errorf("sqlitestore: save thread: %w", err)
	}
	return nil
}

func (s *Store) DeleteThread(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin delete thread: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlitestore: delete thread: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM states WHERE thread_id = ?`, id); err != nil {
		return fmt.Errorf("sqlitestore: delete thread states: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM steps WHERE thread_id = ?`, id); err != nil {
		return fmt.Errorf("sqlitestore: delete thread steps: %w", err)
	}
	return tx.Commit()
}

// --- States ---

func (s *Store) GetState(ctx context.Context, id string) (*memoryruntime.State, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM states WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, storage.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get state: %w", err)
	}
	var st memoryruntime.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("sqlitestore: decode state: %w", err)
	}
	return &st, nil
}

func (s *Store) SaveState(ctx context.Context, state *memoryruntime.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO states (id, thread_id, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, state.ID, state.ThreadID, data)
	if err != nil {
		return fmt.Errorf("sqlitestore: save state: %w", err)
	}
	return nil
}

func (s *Store) GetStatesByThread(ctx context.Context, threadID string) ([]*memoryruntime.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM states WHERE thread_id = ? ORDER BY seq ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list states: %w", err)
	}
	defer rows.Close()

	var out []*memoryruntime.State
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan state: %w", err)
		}
		var st memoryruntime.State
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("sqlitestore: decode state: %w", err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// --- Chunks ---

func (s *Store) GetChunk(ctx context.Context, id string) (*memoryruntime.Chunk, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM chunks WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, storage.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get chunk: %w", err)
	}
	var c memoryruntime.Chunk
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("sqlitestore: decode chunk: %w", err)
	}
	return &c, nil
}

func (s *Store) SaveChunk(ctx context.Context, chunk *memoryruntime.Chunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode chunk: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, chunk.ID, data)
	if err != nil {
		return fmt.Errorf("sqlitestore: save chunk: %w", err)
	}
	return nil
}

func (s *Store) GetChunks(ctx context.Context, ids []string) ([]*memoryruntime.Chunk, error) {
	out := make([]*memoryruntime.Chunk, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetChunk(ctx, id)
		if err == storage.ErrChunkNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// --- Steps ---

func (s *Store) GetStep(ctx context.Context, id string) (*memoryruntime.Step, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM steps WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, storage.ErrStepNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get step: %w", err)
	}
	var st memoryruntime.Step
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("sqlitestore: decode step: %w", err)
	}
	return &st, nil
}

func (s *Store) SaveStep(ctx context.Context, step *memoryruntime.Step) error {
	data, err := json.Marshal(step)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode step: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO steps (id, thread_id, data) VALUES (?, ?, ?)`, step.ID, step.ThreadID, data)
	if err != nil {
		return fmt.Errorf("sqlitestore: save step: %w", err)
	}
	return nil
}

func (s *Store) UpdateStep(ctx context.Context, step *memoryruntime.Step) error {
	data, err := json.Marshal(step)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode step: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE steps SET data = ? WHERE id = ?`, data, step.ID)
	if err != nil {
		return fmt.Errorf("sqlitestore: update step: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlitestore: update step rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrStepNotFound
	}
	return nil
}

func (s *Store) GetStepsByThread(ctx context.Context, threadID string) ([]*memoryruntime.Step, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM steps WHERE thread_id = ? ORDER BY seq ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list steps: %w", err)
	}
	defer rows.Close()

	var out []*memoryruntime.Step
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan step: %w", err)
		}
		var st memoryruntime.Step
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("sqlitestore: decode step: %w", err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// --- Event queue ---
//
// The queue is carried inline on Thread.EventQueue (see thread.go) rather
// than in a separate table: reads load the thread row, and push, pop and
// clear are a read-modify-write of the thread row inside a transaction.

func (s *Store) GetEventQueue(ctx context.Context, threadID string) ([]memoryruntime.QueuedEvent, error) {
	t, err := s.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return t.EventQueue, nil
}

func (s *Store) PushEvent(ctx context.Context, threadID string, event memoryruntime.QueuedEvent) error {
	return s.withThread(ctx, threadID, func(t *memoryruntime.Thread) {
		t.EventQueue = append(t.EventQueue, event)
	})
}

func (s *Store) PopEvent(ctx context.Context, threadID string) (memoryruntime.QueuedEvent, bool, error) {
	var popped memoryruntime.QueuedEvent
	var ok bool
	err := s.withThread(ctx, threadID, func(t *memoryruntime.Thread) {
		if len(t.EventQueue) == 0 {
			return
		}
		popped = t.EventQueue[0]
		t.EventQueue = t.EventQueue[1:]
		ok = true
	})
	if err != nil {
		return memoryruntime.QueuedEvent{}, false, err
	}
	return popped, ok, nil
}

func (s *Store) PeekEvent(ctx context.Context, threadID string) (memoryruntime.QueuedEvent, bool, error) {
	t, err := s.GetThread(ctx, threadID)
	if err != nil {
		return memoryruntime.QueuedEvent{}, false, err
	}
	if len(t.EventQueue) == 0 {
		return memoryruntime.QueuedEvent{}, false, nil
	}
	return t.EventQueue[0], true, nil
}

func (s *Store) GetEventQueueLength(ctx context.Context, threadID string) (int, error) {
	t, err := s.GetThread(ctx, threadID)
	if err != nil {
		return 0, err
	}
	return len(t.EventQueue), nil
}

func (s *Store) ClearEventQueue(ctx context.Context, threadID string) error {
	return s.withThread(ctx, threadID, func(t *memoryruntime.Thread) {
		t.EventQueue = nil
	})
}

// execer is the subset of *sql.DB / *sql.Tx used by putThread.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withThread loads threadID inside a transaction, applies mutate to it, and
// writes it back, giving PushEvent/PopEvent/ClearEventQueue atomicity
// against concurrent callers even though the queue has no table of its
// own.
func (s *Store) withThread(ctx context.Context, threadID string, mutate func(*memoryruntime.Thread)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer tx.Rollback()

	var data []byte
	err = tx.QueryRowContext(ctx, `SELECT data FROM threads WHERE id = ?`, threadID).Scan(&data)
	if err == sql.ErrNoRows {
		return storage.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlitestore: get thread for update: %w", err)
	}

	var t memoryruntime.Thread
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("sqlitestore: decode thread: %w", err)
	}

	mutate(&t)

	if err := s.putThread(ctx, tx, &t); err != nil {
		return err
	}
	return tx.Commit()
}
