package materialize

import (
	"fmt"

	"github.com/roach88/gwp/internal/contract"
)

// Digest returns a content hash of a snapshot. Equal snapshots always have
// equal digests regardless of map iteration order.
func Digest(s Snapshot) (string, error) {
	list := make([]any, 0, s.Len())
	for _, c := range s.Contracts() {
		list = append(list, map[string]any{
			"contract_id":   c.ID,
			"premium":       c.Premium,
			"started_at":    c.StartedAt.String(),
			"terminated_at": c.TerminatedAt.String(),
		})
	}

	canonical, err := contract.MarshalCanonical(map[string]any{"contracts": list})
	if err != nil {
		return "", fmt.Errorf("digest snapshot: %w", err)
	}
	return contract.HashWithDomain(contract.DomainSnapshot, canonical), nil
}
