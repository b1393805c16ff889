package store

import (
	"context"
	"fmt"

	"github.com/roach88/gwp/internal/contract"
)

// StoredEvent is an event together with its position in the log.
type StoredEvent struct {
	Seq     int64
	ID      string
	BatchID string
	Event   contract.Event
}

// Batch describes one import.
type Batch struct {
	ID         string
	Source     string
	EventCount int
	FirstSeq   int64
	LastSeq    int64
}

// ReadEvents returns every event in log order.
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ReadEvents(ctx context.Context) ([]contract.Event, error) {
	stored, err := s.ReadStoredEvents(ctx)
	if err != nil {
		return nil, err
	}
	events := make([]contract.Event, len(stored))
	for i, se := range stored {
		events[i] = se.Event
	}
	return events, nil
}

// ReadStoredEvents returns every event with its seq, id and batch, ordered
// by seq ASC, id ASC COLLATE BINARY.
func (s *Store) ReadStoredEvents(ctx context.Context) ([]StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, batch_id, payload
		FROM events
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	stored := []StoredEvent{}
	for rows.Next() {
		var (
			se      StoredEvent
			payload string
		)
		if err := rows.Scan(&se.Seq, &se.ID, &se.BatchID, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		se.Event, err = unmarshalEvent(payload)
		if err != nil {
			return nil, fmt.Errorf("event seq %d: %w", se.Seq, err)
		}
		stored = append(stored, se)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return stored, nil
}

// CountEvents returns the number of events in the log.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// LastSeq returns the highest seq in the log, or 0 when it is empty.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ListContractIDs returns every contract id that appears in the log, ascending.
func (s *Store) ListContractIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT contract_id
		FROM events
		ORDER BY contract_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query contract ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contract id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contract ids: %w", err)
	}
	return ids, nil
}

// ListBatches returns every import in the order it was appended.
func (s *Store) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.source, b.event_count, MIN(e.seq), MAX(e.seq)
		FROM batches b
		JOIN events e ON e.batch_id = b.id
		GROUP BY b.id, b.source, b.event_count
		ORDER BY MIN(e.seq) ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []Batch{}
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.Source, &b.EventCount, &b.FirstSeq, &b.LastSeq); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}
