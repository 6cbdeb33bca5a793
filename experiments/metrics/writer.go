package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// SweepRecord is one row of sweep-level output.
type SweepRecord struct {
	RunID        string
	Combinations int
	Completed    int
	Failed       int
	Skipped      int
	Terminals    int
	Duplicates   int
	Partial      bool
	Duration     time.Duration
}

// HandRecord is one row of per-hand output.
type HandRecord struct {
	RunID     string
	Hand      string
	Worker    int
	Completed bool
	SearchMetric
}

type Writer struct {
	baseDir string
}

func NewWriter(name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format(time.RFC3339)
	baseDir := filepath.Join("experiments", name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) WriteSweepRecords(records []SweepRecord) error {
	// Create a file
	path := filepath.Join(w.baseDir, "sweep_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sweep records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	header := []string{"run_id", "combinations", "completed", "failed", "skipped", "terminals", "duplicates", "partial", "duration"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write sweep records header: %w", err)
	}

	// Write each row
	for _, record := range records {
		row := []string{
			record.RunID,
			strconv.Itoa(record.Combinations),
			strconv.Itoa(record.Completed),
			strconv.Itoa(record.Failed),
			strconv.Itoa(record.Skipped),
			strconv.Itoa(record.Terminals),
			strconv.Itoa(record.Duplicates),
			strconv.FormatBool(record.Partial),
			record.Duration.String(),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write sweep record row: %w", err)
		}
	}

	return nil
}

func (w *Writer) WriteHandRecords(records []HandRecord) error {
	// Create a file
	path := filepath.Join(w.baseDir, "hand_records.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create hand records file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	// Write header
	header := []string{"run_id", "hand", "worker", "completed", "duration", "paths", "terminals", "replays", "cache_hits", "cache_misses", "hit_rate", "duplicate_skips", "failed_actions", "max_depth", "partial"}
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write hand records header: %w", err)
	}

	// Write each row
	for _, record := range records {
		row := []string{
			record.RunID,
			record.Hand,
			strconv.Itoa(record.Worker),
			strconv.FormatBool(record.Completed),
			record.Duration.String(),
			strconv.Itoa(record.Paths),
			strconv.Itoa(record.Terminals),
			strconv.Itoa(record.Replays),
			strconv.Itoa(record.CacheHits),
			strconv.Itoa(record.CacheMisses),
			strconv.FormatFloat(record.HitRate(), 'f', 4, 64),
			strconv.Itoa(record.DuplicateSkips),
			strconv.Itoa(record.FailedActions),
			strconv.Itoa(record.MaxDepth),
			strconv.FormatBool(record.Partial),
		}
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write hand record row: %w", err)
		}
	}

	return nil
}
