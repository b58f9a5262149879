package recording

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Recording appends lines to one stored recording. Lines are buffered in a
// transaction and committed every batchSize lines and on Finish.
// It is not safe for concurrent use.
type Recording struct {
	store   *Store
	id      int64
	tx      *sql.Tx
	seq     int
	pending int
}

// ID returns the recording id.
func (r *Recording) ID() int64 {
	return r.id
}

// RecordLine stores one raw trace line.
func (r *Recording) RecordLine(text string) error {
	if r.tx == nil {
		tx, err := r.store.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		r.tx = tx
	}

	if _, err := r.tx.Exec("INSERT INTO lines (recording_id, seq, text) VALUES (?, ?, ?)", r.id, r.seq, text); err != nil {
		return fmt.Errorf("insert line %d: %w", r.seq, err)
	}
	r.seq++
	r.pending++

	if r.pending >= batchSize {
		return r.flush()
	}
	return nil
}

func (r *Recording) flush() error {
	if r.tx == nil {
		return nil
	}
	err := r.tx.Commit()
	r.tx = nil
	r.pending = 0
	if err != nil {
		return fmt.Errorf("commit lines: %w", err)
	}
	return nil
}

// Finish commits buffered lines and stamps the recording with the exit
// code of the traced command.
func (r *Recording) Finish(ctx context.Context, exitCode int) error {
	if err := r.flush(); err != nil {
		return err
	}
	_, err := r.store.db.ExecContext(ctx,
		"UPDATE recordings SET finished_at = ?, exit_code = ?, line_count = ? WHERE id = ?",
		r.store.clock.Now().UTC().Format(time.RFC3339Nano), exitCode, r.seq, r.id)
	if err != nil {
		return fmt.Errorf("finish recording: %w", err)
	}
	return nil
}
