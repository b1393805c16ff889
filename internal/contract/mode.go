package contract

import (
	"fmt"
	"strings"
)

// Mode selects which event kinds take part in a report.
type Mode string

const (
	// ModeLifecycle keeps creation and termination events only, so every
	// contract keeps its initial premium.
	ModeLifecycle Mode = "lifecycle"

	// ModeAll keeps every event.
	ModeAll Mode = "all"
)

// ValidModes lists the accepted report modes.
var ValidModes = []Mode{ModeLifecycle, ModeAll}

// modeAliases maps the historical task names onto modes.
var modeAliases = map[string]Mode{
	"task1": ModeLifecycle,
	"task2": ModeAll,
}

// ParseMode returns the Mode for a name or one of its aliases.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, m := range ValidModes {
		if string(m) == name {
			return m, nil
		}
	}
	if m, ok := modeAliases[name]; ok {
		return m, nil
	}
	return "", fmt.Errorf("invalid mode %q: must be one of %v", s, ValidModes)
}

// Includes reports whether events of kind k take part in reports of mode m.
func (m Mode) Includes(k Kind) bool {
	switch m {
	case ModeLifecycle:
		return k == KindContractCreated || k == KindContractTerminated
	case ModeAll:
		return true
	default:
		return false
	}
}

// Filter returns the events m includes, in their original order.
// The input slice is not modified.
func (m Mode) Filter(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if m.Includes(e.Kind()) {
			out = append(out, e)
		}
	}
	return out
}

func (m Mode) String() string { return string(m) }
