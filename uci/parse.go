package uci

import (
	"regexp"
	"strconv"
	"strings"
)

var scoreRe = regexp.MustCompile(`score (cp|mate) (-?\d+)`)

// parseSearchOutput extracts the final evaluation from the lines of one
// search. Later info lines supersede earlier ones; lines that fit no
// known shape are ignored rather than treated as errors, since engines
// emit all kinds of chatter.
func parseSearchOutput(lines []string) Result {
	result := Result{BestMove: "(none)"}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "info "):
			m := scoreRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			value, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			if m[1] == "cp" {
				result.CP = value
				result.HasMate = false
				result.Mate = 0
			} else {
				result.Mate = value
				result.HasMate = true
				if value > 0 {
					result.CP = MateScore
				} else {
					result.CP = -MateScore
				}
			}
		case strings.HasPrefix(line, "bestmove"):
			if fields := strings.Fields(line); len(fields) >= 2 {
				result.BestMove = fields[1]
			}
		}
	}
	return result
}
