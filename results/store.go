package results

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"comboenum/searcher"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// HandKey canonicalizes an opening hand into a stable text key, independent
// of draw order.
func HandKey(hand []int) string {
	sorted := make([]int, len(hand))
	copy(sorted, hand)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// Run identifies one sweep in the store.
type Run struct {
	ID        string
	StartedAt time.Time
	Pool      []int
	HandSize  int
	MaxDepth  int
}

// NewRun mints a run with a fresh ID.
func NewRun(pool []int, handSize, maxDepth int) Run {
	return Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Pool:      pool,
		HandSize:  handSize,
		MaxDepth:  maxDepth,
	}
}

// Store persists sweep output to sqlite. Persistence is an optimization,
// never a correctness requirement: forward replay from the root can always
// rebuild anything the store holds. Its main job is making long sweeps
// resumable and their results queryable.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	pool       TEXT NOT NULL,
	hand_size  INTEGER NOT NULL,
	max_depth  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS hands (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	hand      TEXT NOT NULL,
	completed INTEGER NOT NULL,
	partial   INTEGER NOT NULL,
	paths     INTEGER NOT NULL,
	terminals INTEGER NOT NULL,
	PRIMARY KEY (run_id, hand)
);
CREATE TABLE IF NOT EXISTS terminals (
	run_id TEXT NOT NULL REFERENCES runs(id),
	hash   INTEGER NOT NULL,
	line   TEXT NOT NULL,
	board  TEXT NOT NULL,
	depth  INTEGER NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, hash)
);
`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create results schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateRun(run Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, pool, hand_size, max_depth) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.Format(time.RFC3339), HandKey(run.Pool), run.HandSize, run.MaxDepth,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// SaveHand records the outcome of one opening hand. Saving the same hand
// again overwrites, which is what a resumed run wants.
func (s *Store) SaveHand(runID string, hand []int, completed, partial bool, paths, terminals int) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO hands (run_id, hand, completed, partial, paths, terminals) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, HandKey(hand), boolInt(completed), boolInt(partial), paths, terminals,
	)
	if err != nil {
		return fmt.Errorf("failed to record hand %v: %w", hand, err)
	}
	return nil
}

// SaveTerminals writes the deduplicated lines of a collection.
func (s *Store) SaveTerminals(runID string, terminals []searcher.Terminal) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin terminal batch: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO terminals (run_id, hash, line, board, depth, reason) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare terminal insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range terminals {
		_, err := stmt.Exec(runID, int64(t.Signature.Hash), lineText(t), t.Signature.String(), t.Depth, t.Reason.String())
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record terminal %d: %w", uint64(t.Signature.Hash), err)
		}
	}
	return tx.Commit()
}

// CompletedHands lists the hand keys a run already finished, for resuming.
func (s *Store) CompletedHands(runID string) (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT hand FROM hands WHERE run_id = ? AND completed = 1`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed hands: %w", err)
	}
	defer rows.Close()

	hands := make(map[string]bool)
	for rows.Next() {
		var hand string
		if err := rows.Scan(&hand); err != nil {
			return nil, err
		}
		hands[hand] = true
	}
	return hands, rows.Err()
}

func lineText(t searcher.Terminal) string {
	parts := make([]string, len(t.Sequence))
	for i, a := range t.Sequence {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
