package simcli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/shangan/internal/domain/simulation"
)

const maxRivals = simulation.MaxParticipants - 1

// parseRival parses "N:w=170,i=80" into a 1-based rival index and its known
// scores. Either score may be omitted.
func parseRival(s string) (int, simulation.RivalScores, error) {
	var out simulation.RivalScores

	idx, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, out, fmt.Errorf("%w %q: want N:w=..,i=..", ErrInvalidRival, s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 1 || n > maxRivals {
		return 0, out, fmt.Errorf("%w %q: index must be 1..%d", ErrInvalidRival, s, maxRivals)
	}

	for _, kv := range strings.Split(rest, ",") {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return 0, out, fmt.Errorf("%w %q: %q is not key=value", ErrInvalidRival, s, kv)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, out, fmt.Errorf("%w %q: %w", ErrInvalidRival, s, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, out, fmt.Errorf("%w %q: score must be finite", ErrInvalidRival, s)
		}
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "w", "written":
			out.Written = simulation.Score(f)
		case "i", "interview":
			out.Interview = simulation.Score(f)
		default:
			return 0, out, fmt.Errorf("%w %q: unknown key %q", ErrInvalidRival, s, k)
		}
	}
	return n, out, nil
}

// rivalScores expands --rival flags into a positional slice. Later flags for
// the same index win.
func rivalScores(flags []string) ([]simulation.RivalScores, error) {
	var out []simulation.RivalScores
	for _, f := range flags {
		n, rs, err := parseRival(f)
		if err != nil {
			return nil, err
		}
		for len(out) < n {
			out = append(out, simulation.RivalScores{})
		}
		out[n-1] = rs
	}
	return out, nil
}
