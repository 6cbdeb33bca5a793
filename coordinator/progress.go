package coordinator

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// progressInterval throttles how often a sweep reports progress.
const progressInterval = 5 * time.Second

// Progress is a point-in-time view of a running sweep.
type Progress struct {
	Done      int
	Total     int
	Elapsed   time.Duration
	Remaining time.Duration // estimated, zero until there is data
}

func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

// reportProgress starts a reporter goroutine that periodically reads the
// shared completion counter and logs (and optionally forwards) progress.
// Workers only touch the atomic counter, so reporting never blocks their
// throughput. The returned stop function emits one final report.
func (c *Coordinator) reportProgress(start time.Time, total int, done *atomic.Int64) func() {
	report := func() {
		p := snapshotProgress(start, total, done)
		log.Info().Int("done", p.Done).Int("total", p.Total).
			Dur("elapsed", p.Elapsed).Dur("remaining", p.Remaining).
			Msgf("sweep progress: %.1f%%", 100*p.Fraction())
		if c.config.Progress != nil {
			c.config.Progress(p)
		}
	}

	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				report()
			}
		}
	}()

	return func() {
		close(stop)
		<-finished
		report()
	}
}

func snapshotProgress(start time.Time, total int, done *atomic.Int64) Progress {
	completed := int(done.Load())
	elapsed := time.Since(start)

	var remaining time.Duration
	if completed > 0 && completed < total {
		perCombo := elapsed / time.Duration(completed)
		remaining = perCombo * time.Duration(total-completed)
	}

	return Progress{
		Done:      completed,
		Total:     total,
		Elapsed:   elapsed,
		Remaining: remaining,
	}
}
