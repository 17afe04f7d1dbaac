package xboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/park285/fairy-xboard/internal/board"
)

// Engine scores at or beyond this magnitude encode a forced mate rather
// than a material evaluation: plies to mate = mateBase - |score|.
const (
	mateThreshold = 9000
	mateBase      = 10000
)

// Snapshot is the running analysis state folded from successive thinking
// lines. It mutates in place until the terminal move line resolves the
// request, after which callers receive a copy that never changes.
type Snapshot struct {
	Depth  int
	Score  int
	TimeMS int64
	Nodes  int64
	NPS    int64
	PV     []string
}

// Fold consumes one engine output line. It reports true when the line had
// the thinking shape `<ply> <score> <time> <nodes> [<move>...]` and the
// snapshot was updated. Time arrives in centiseconds and is stored as
// milliseconds. Trailing tokens that do not parse as move tokens for the
// given board dimensions are dropped: the protocol intermixes numeric and
// move fields positionally, so a stray token is noise, not an error.
func (s *Snapshot) Fold(line string, files, ranks int) bool {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return false
	}
	depth, err := strconv.Atoi(fields[0])
	if err != nil || depth < 0 {
		return false
	}
	score, err := strconv.Atoi(fields[1])
	if err != nil {
		return false
	}
	centis, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || centis < 0 {
		return false
	}
	nodes, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil || nodes < 0 {
		return false
	}

	s.Depth = depth
	s.Score = score
	s.TimeMS = centis * 10
	s.Nodes = nodes
	if s.TimeMS > 0 {
		s.NPS = s.Nodes * 1000 / s.TimeMS
	} else {
		s.NPS = 0
	}

	s.PV = s.PV[:0]
	for _, tok := range fields[4:] {
		if _, err := board.ParseMove(tok, files, ranks); err == nil {
			s.PV = append(s.PV, tok)
		}
	}
	return true
}

// Clone returns an independent copy, used when a snapshot escapes the
// dispatch goroutine.
func (s *Snapshot) Clone() Snapshot {
	out := *s
	out.PV = append([]string(nil), s.PV...)
	return out
}

// IsMateScore reports whether score uses the forced-mate encoding.
func IsMateScore(score int) bool {
	return score >= mateThreshold || score <= -mateThreshold
}

// MateIn returns the number of full moves to mate for a mate-encoded
// score; the sign tracks which side delivers it.
func MateIn(score int) int {
	abs := score
	if abs < 0 {
		abs = -abs
	}
	moves := (mateBase - abs + 1) / 2
	if score < 0 {
		return -moves
	}
	return moves
}

// FormatScore renders centipawns as pawn units ("+1.20") and mate-encoded
// scores as "#N" / "#-N".
func FormatScore(score int) string {
	if IsMateScore(score) {
		return fmt.Sprintf("#%d", MateIn(score))
	}
	return fmt.Sprintf("%+.2f", float64(score)/100)
}
