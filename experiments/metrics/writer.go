package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SearchRecord is one row of a benchmark report: a search over one
// position plus its outcome and counters.
type SearchRecord struct {
	FEN         string
	TopK        int
	Depth       int
	ThresholdCP int
	RootMoves   int
	BestMove    string
	BestMoveCP  int
	SearchMetric
}

// Writer writes benchmark results as CSV under a timestamped directory.
type Writer struct {
	baseDir string
}

func NewWriter(dir string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join(dir, timestamp)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &Writer{baseDir: baseDir}, nil
}

// Dir returns the directory this writer writes into.
func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteSearchRecords(records []SearchRecord) error {
	path := filepath.Join(w.baseDir, "searches.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create searches file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{
		"fen", "simulations", "top_k", "depth", "threshold_cp",
		"root_moves", "expansions", "engine_calls", "cache_hits",
		"pruned", "fallbacks", "duration_ms", "best_move", "best_move_cp",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write searches header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.FEN,
			strconv.Itoa(r.Simulations),
			strconv.Itoa(r.TopK),
			strconv.Itoa(r.Depth),
			strconv.Itoa(r.ThresholdCP),
			strconv.Itoa(r.RootMoves),
			strconv.Itoa(r.Expansions),
			strconv.Itoa(r.EngineCalls),
			strconv.Itoa(r.CacheHits),
			strconv.Itoa(r.Pruned),
			strconv.Itoa(r.Fallbacks),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			r.BestMove,
			strconv.Itoa(r.BestMoveCP),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write search record: %w", err)
		}
	}
	return writer.Error()
}
