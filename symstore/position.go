package symstore

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orizon-lang/symbuilder/symstore/symerr"
)

// Position is the sole trace-replay wire format the store reinterprets for
// time-travel integration (spec 6): a (sequence, steps) pair, or one of
// the sentinel positions min/max/invalidate.
type Position struct {
	Sentinel string // "", "min", "max", or "invalidate"
	Sequence uint64
	Steps    uint64
}

var positionSentinels = map[string]bool{"min": true, "max": true, "invalidate": true}

// ParsePosition parses "SEQ:STEPS" in hex, with optional grouping
// separators ' or ` within each half, or a case-insensitive sentinel name.
func ParsePosition(s string) (Position, error) {
	trimmed := strings.TrimSpace(s)

	lower := strings.ToLower(trimmed)
	if positionSentinels[lower] {
		return Position{Sentinel: lower}, nil
	}

	parts := strings.SplitN(trimmed, ":", 2)
	if len(parts) != 2 {
		return Position{}, symerr.InvalidArgumentf("BAD_POSITION", map[string]interface{}{"input": s}, "position %q is not SEQ:STEPS and not a known sentinel", s)
	}

	seq, err := parseGroupedHex(parts[0])
	if err != nil {
		return Position{}, symerr.InvalidArgumentf("BAD_POSITION", map[string]interface{}{"input": s}, "bad sequence in position %q: %v", s, err)
	}

	steps, err := parseGroupedHex(parts[1])
	if err != nil {
		return Position{}, symerr.InvalidArgumentf("BAD_POSITION", map[string]interface{}{"input": s}, "bad step count in position %q: %v", s, err)
	}

	return Position{Sequence: seq, Steps: steps}, nil
}

func parseGroupedHex(s string) (uint64, error) {
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "`", "")
	s = strings.TrimSpace(s)

	return strconv.ParseUint(s, 16, 64)
}

// String renders the canonical ungrouped form; sentinels render lowercase.
func (p Position) String() string {
	if p.Sentinel != "" {
		return p.Sentinel
	}

	return fmt.Sprintf("%x:%x", p.Sequence, p.Steps)
}

// Less orders positions for replay-range comparisons: min < any normal
// position < max. Invalidate has no rank of its own and orders like the
// ordinary position 0:0.
func (p Position) Less(other Position) bool {
	rank := func(p Position) int {
		switch p.Sentinel {
		case "min":
			return 0
		case "max":
			return 2
		default:
			return 1
		}
	}

	pr, or := rank(p), rank(other)
	if pr != or {
		return pr < or
	}

	if pr != 1 {
		return false
	}

	if p.Sequence != other.Sequence {
		return p.Sequence < other.Sequence
	}

	return p.Steps < other.Steps
}
