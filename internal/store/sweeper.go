package store

import (
	"context"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/tallr-app/tallr/internal/core"
	"github.com/tallr-app/tallr/internal/logging"
)

// sweepParser parses standard 5-field cron expressions (minute, hour, dom, month, dow).
var sweepParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// Default sweep policy.
const (
	DefaultSweepSchedule = "* * * * *"
	DefaultDoneGrace     = 30 * time.Second
	DefaultIdleMax       = time.Hour
)

// SweeperConfig holds the dependencies and policy for the cleanup sweeper.
type SweeperConfig struct {
	Store      *Store
	Logger     *logging.Logger
	Schedule   string        // cron expression; defaults to every minute
	DoneGrace  time.Duration // age before unpinned DONE tasks are removed
	IdleMax    time.Duration // age before unpinned IDLE tasks are removed
	RemoveIdle bool
}

// Sweeper periodically removes expired tasks from the store.
type Sweeper struct {
	store      *Store
	logger     *logging.Logger
	schedule   cronlib.Schedule
	doneGrace  time.Duration
	idleMax    time.Duration
	removeIdle bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a Sweeper from the config, applying defaults for any
// zero policy values.
func NewSweeper(cfg SweeperConfig) (*Sweeper, error) {
	expr := cfg.Schedule
	if expr == "" {
		expr = DefaultSweepSchedule
	}
	schedule, err := sweepParser.Parse(expr)
	if err != nil {
		return nil, core.ErrValidation(core.CodeInvalidSchedule, "invalid cleanup schedule").WithCause(err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	doneGrace := cfg.DoneGrace
	if doneGrace <= 0 {
		doneGrace = DefaultDoneGrace
	}
	idleMax := cfg.IdleMax
	if idleMax <= 0 {
		idleMax = DefaultIdleMax
	}

	return &Sweeper{
		store:      cfg.Store,
		logger:     logger.WithComponent("sweeper"),
		schedule:   schedule,
		doneGrace:  doneGrace,
		idleMax:    idleMax,
		removeIdle: cfg.RemoveIdle,
	}, nil
}

// Start begins the sweep loop in a background goroutine. One sweep runs
// immediately; later runs follow the schedule.
func (sw *Sweeper) Start(ctx context.Context) {
	ctx, sw.cancel = context.WithCancel(ctx)
	sw.wg.Add(1)
	go sw.loop(ctx)
	sw.logger.Info("cleanup sweeper started",
		"done_grace", sw.doneGrace,
		"idle_max", sw.idleMax,
		"remove_idle", sw.removeIdle)
}

// Stop cancels the sweep loop and waits for it to exit.
func (sw *Sweeper) Stop() {
	if sw.cancel != nil {
		sw.cancel()
	}
	sw.wg.Wait()
	sw.logger.Info("cleanup sweeper stopped")
}

func (sw *Sweeper) loop(ctx context.Context) {
	defer sw.wg.Done()

	sw.store.RemoveExpired(sw.doneGrace, sw.idleMax, sw.removeIdle)

	for {
		next := sw.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			sw.store.RemoveExpired(sw.doneGrace, sw.idleMax, sw.removeIdle)
		}
	}
}
