package results

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"comboenum/searcher"

	"github.com/klauspost/compress/zstd"
)

// Checkpoint is a compressed dump of a collection's lines, so a long sweep
// can park its findings on disk and a later run can pick them back up.
type Checkpoint struct {
	RunID     string
	CreatedAt time.Time
	Partial   bool
	Terminals []searcher.Terminal
}

// Checkpoint captures the collection's current contents.
func (c *Collection) Checkpoint(runID string) Checkpoint {
	return Checkpoint{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Partial:   c.partial,
		Terminals: c.Terminals(),
	}
}

// Restore folds a checkpoint back into the collection.
func (c *Collection) Restore(cp Checkpoint) {
	for _, t := range cp.Terminals {
		c.Add(t)
	}
	if cp.Partial {
		c.partial = true
	}
}

// WriteCheckpoint writes a gob-encoded, zstd-compressed checkpoint.
func WriteCheckpoint(path string, cp Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(cp); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return zw.Close()
}

// ReadCheckpoint loads a checkpoint written by WriteCheckpoint.
func ReadCheckpoint(path string) (Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var cp Checkpoint
	if err := gob.NewDecoder(zr).Decode(&cp); err != nil {
		return Checkpoint{}, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return cp, nil
}
