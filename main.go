package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"comboenum/coordinator"
	"comboenum/engine"
	"comboenum/experiments/metrics"
	"comboenum/game"
	"comboenum/results"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type config struct {
	poolSize   int
	handSize   int
	workers    int
	maxDepth   int
	maxPaths   int
	tableSize  int
	deepening  bool
	dbPath     string
	checkpoint string
	resumeRun  string
}

func loadConfig() config {
	// .env is a development convenience; absence is fine
	_ = godotenv.Load()

	return config{
		poolSize:   envInt("POOL_SIZE", 10),
		handSize:   envInt("HAND_SIZE", 3),
		workers:    envInt("WORKERS", 4),
		maxDepth:   envInt("MAX_DEPTH", 12),
		maxPaths:   envInt("MAX_PATHS", 100000),
		tableSize:  envInt("TABLE_SIZE", 1<<18),
		deepening:  os.Getenv("DEEPENING") == "true",
		dbPath:     os.Getenv("DB_PATH"),
		checkpoint: os.Getenv("CHECKPOINT"),
		resumeRun:  os.Getenv("RESUME_RUN_ID"),
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatal().Str("key", key).Str("value", raw).Msg("invalid integer in environment")
	}
	return v
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	cfg := loadConfig()

	// A signal requests a cooperative stop: in-flight paths finish, then
	// the sweep returns whatever it has, flagged partial.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := samplePool(cfg.poolSize)
	run := results.NewRun(pool, cfg.handSize, cfg.maxDepth)

	var store *results.Store
	skip := map[string]bool{}
	if cfg.dbPath != "" {
		var err error
		store, err = results.Open(cfg.dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open results store")
		}
		defer store.Close()

		if cfg.resumeRun != "" {
			run.ID = cfg.resumeRun
			done, err := store.CompletedHands(run.ID)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to load completed hands")
			}
			skip = done
			log.Info().Str("run", run.ID).Int("skip", len(skip)).Msg("resuming earlier run")
		} else if err := store.CreateRun(run); err != nil {
			log.Fatal().Err(err).Msg("failed to record run")
		}
	}

	coord := coordinator.New(coordinator.Config{
		Pool:      pool,
		HandSize:  cfg.handSize,
		Workers:   cfg.workers,
		MaxDepth:  cfg.maxDepth,
		MaxPaths:  cfg.maxPaths,
		TableSize: cfg.tableSize,
		Deepening: cfg.deepening,
		Skip:      skip,
		NewSource: func() engine.Source {
			return engine.NewScriptedFunc(sampleScript)
		},
	})

	sweep, err := coord.Run(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("sweep stopped early")
	}

	if store != nil {
		for _, rec := range sweep.Records {
			if err := store.SaveHand(run.ID, rec.Hand, rec.Completed, rec.Partial, rec.Paths, rec.Terminals); err != nil {
				log.Error().Err(err).Ints("hand", rec.Hand).Msg("failed to save hand record")
			}
		}
		if err := store.SaveTerminals(run.ID, sweep.Terminals.Terminals()); err != nil {
			log.Error().Err(err).Msg("failed to save terminals")
		}
	}

	if cfg.checkpoint != "" {
		if err := results.WriteCheckpoint(cfg.checkpoint, sweep.Terminals.Checkpoint(run.ID)); err != nil {
			log.Error().Err(err).Msg("failed to write checkpoint")
		}
	}

	writeReports(run.ID, sweep)

	log.Info().Str("run", run.ID).
		Int("distinct_boards", sweep.Terminals.Len()).
		Int("duplicates", sweep.Terminals.Duplicates()).
		Bool("partial", sweep.Terminals.Partial()).
		Msg("enumeration complete")
}

func writeReports(runID string, sweep *coordinator.Sweep) {
	writer, err := metrics.NewWriter("sweep")
	if err != nil {
		log.Error().Err(err).Msg("failed to create report writer")
		return
	}

	sweepRecords := []metrics.SweepRecord{{
		RunID:        runID,
		Combinations: sweep.Total,
		Completed:    sweep.Completed,
		Failed:       sweep.Failed,
		Skipped:      sweep.Skipped,
		Terminals:    sweep.Terminals.Len(),
		Duplicates:   sweep.Terminals.Duplicates(),
		Partial:      sweep.Terminals.Partial(),
		Duration:     sweep.Duration,
	}}
	if err := writer.WriteSweepRecords(sweepRecords); err != nil {
		log.Error().Err(err).Msg("failed to write sweep records")
	}

	handRecords := make([]metrics.HandRecord, len(sweep.Records))
	for i, rec := range sweep.Records {
		handRecords[i] = metrics.HandRecord{
			RunID:        runID,
			Hand:         results.HandKey(rec.Hand),
			Worker:       rec.Worker,
			Completed:    rec.Completed,
			SearchMetric: rec.Metric,
		}
	}
	if err := writer.WriteHandRecords(handRecords); err != nil {
		log.Error().Err(err).Msg("failed to write hand records")
	}
}

// samplePool makes a pool of demo card codes; even codes carry a self-mill
// effect once fielded.
func samplePool(size int) []int {
	pool := make([]int, size)
	for i := range pool {
		pool[i] = 1001 + i
	}
	return pool
}

// sampleScript builds a deterministic scripted game for an opening hand:
// any hand card can be summoned, any fielded even-code card can send
// itself to the grave, and stopping is always allowed.
func sampleScript(cfg engine.Config) *engine.ScriptNode {
	return sampleNode(cfg.Hand, nil, nil)
}

func sampleNode(hand, field, grave []int) *engine.ScriptNode {
	node := &engine.ScriptNode{
		Snapshot: game.Snapshot{Hand: hand, Field: field, Grave: grave},
	}

	for i, card := range hand {
		node.Choices = append(node.Choices, engine.Choice{
			Action: game.ActionID{Kind: game.SummonAction, Card: card, From: game.ZoneHand},
			Next:   sampleNode(without(hand, i), appendCard(field, card), grave),
		})
	}
	for i, card := range field {
		if card%2 != 0 {
			continue
		}
		node.Choices = append(node.Choices, engine.Choice{
			Action: game.ActionID{Kind: game.ActivateAction, Card: card, From: game.ZoneField},
			Next:   sampleNode(hand, without(field, i), appendCard(grave, card)),
		})
	}
	return node.Stop()
}

func without(cards []int, i int) []int {
	out := make([]int, 0, len(cards)-1)
	out = append(out, cards[:i]...)
	return append(out, cards[i+1:]...)
}

func appendCard(cards []int, card int) []int {
	out := make([]int, len(cards)+1)
	copy(out, cards)
	out[len(cards)] = card
	return out
}
