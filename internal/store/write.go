package store

import (
	"context"
	"fmt"

	"github.com/roach88/gwp/internal/contract"
)

// BatchResult describes one AppendEvents call.
type BatchResult struct {
	// BatchID is empty when every event was already present.
	BatchID    string
	Source     string
	Appended   int
	Duplicates int
	// FirstSeq and LastSeq bound the appended rows; both are 0 when nothing
	// was appended.
	FirstSeq int64
	LastSeq  int64
}

// AppendEvents appends events to the log in the given order, in a single
// transaction. source names where the events came from (typically the file
// path) and takes part in each event's content-addressed id.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: re-importing the same
// source appends nothing and creates no batch.
func (s *Store) AppendEvents(ctx context.Context, source string, events []contract.Event) (BatchResult, error) {
	result := BatchResult{Source: source}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("append events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	batchID := s.idGen.Generate()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO batches (id, source, event_count)
		VALUES (?, ?, 0)
	`, batchID, source); err != nil {
		return result, fmt.Errorf("append events: insert batch: %w", err)
	}

	for i, e := range events {
		if e == nil {
			return BatchResult{Source: source}, fmt.Errorf("append events: event %d is nil", i)
		}
		id, err := contract.EventID(source, int64(i), e)
		if err != nil {
			return BatchResult{Source: source}, fmt.Errorf("append events: %w", err)
		}
		payload, err := marshalEvent(e)
		if err != nil {
			return BatchResult{Source: source}, fmt.Errorf("append events: event %d: %w", i, err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO events (id, batch_id, kind, contract_id, effective_date, payload)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			id,
			batchID,
			string(e.Kind()),
			e.ContractID(),
			e.EffectiveDate().String(),
			payload,
		)
		if err != nil {
			return BatchResult{Source: source}, fmt.Errorf("append events: insert event %d: %w", i, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return BatchResult{Source: source}, fmt.Errorf("append events: rows affected: %w", err)
		}
		if n == 0 {
			result.Duplicates++
			continue
		}

		seq, err := res.LastInsertId()
		if err != nil {
			return BatchResult{Source: source}, fmt.Errorf("append events: last insert id: %w", err)
		}
		if result.FirstSeq == 0 {
			result.FirstSeq = seq
		}
		result.LastSeq = seq
		result.Appended++
	}

	if result.Appended == 0 {
		// Nothing new: drop the empty batch.
		return result, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE batches SET event_count = ? WHERE id = ?
	`, result.Appended, batchID); err != nil {
		return BatchResult{Source: source}, fmt.Errorf("append events: update batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{Source: source}, fmt.Errorf("append events: commit: %w", err)
	}

	result.BatchID = batchID
	return result, nil
}
