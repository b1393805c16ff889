package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/gwp/internal/contract"
	"github.com/roach88/gwp/internal/eventlog"
)

// marshalEvent converts an event to canonical JSON TEXT for storage.
// The payload uses the same keys as the JSON-lines wire format.
func marshalEvent(e contract.Event) (string, error) {
	data, err := contract.MarshalCanonical(contract.Fields(e))
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}
	return string(data), nil
}

// unmarshalEvent converts a stored payload back to a typed event.
func unmarshalEvent(payload string) (contract.Event, error) {
	var rec eventlog.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	e, err := rec.ToEvent()
	if err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return e, nil
}
