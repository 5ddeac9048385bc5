package service

import (
    "context"
    "errors"
    "time"

    "github.com/google/logger"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

// Scheduler advances raffles along their time-driven transitions.
// Each Tick scans non-terminal raffles and, per raffle, opens at
// start time and ends at end time.  Tick is idempotent: a raffle
// already in the state its clock calls for is left untouched, and a
// raffle whose draw has already run reports ErrAlreadyDrawn which the
// tick swallows.
type Scheduler struct {
    store    store.Store
    winner   *WinnerService
    now      func() time.Time
    attempts int
}

func NewScheduler(s store.Store, winner *WinnerService, attempts int) *Scheduler {
    return &Scheduler{
        store:    s,
        winner:   winner,
        now:      func() time.Time { return time.Now().UTC() },
        attempts: attempts,
    }
}

// WithClock overrides the time source, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
    s.now = now
    return s
}

// Run ticks at the given interval until ctx is cancelled.  Meant to be
// launched as a goroutine from main.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            s.Tick(ctx)
        }
    }
}

// Tick performs one scheduler pass.  Failures on individual raffles
// are logged and do not stop the pass.
func (s *Scheduler) Tick(ctx context.Context) {
    ids, err := s.store.SchedulableRaffleIDs(ctx)
    if err != nil {
        logger.Errorf("scheduler scan failed: %v", err)
        return
    }
    for _, id := range ids {
        if err := s.advance(ctx, id); err != nil {
            logger.Errorf("scheduler: raffle %d: %v", id, err)
        }
    }
}

// advance applies the time-driven transitions due for one raffle and
// triggers the draw when the raffle just ended.  A raffle whose start
// and end times have both passed opens and ends within the same pass.
// A raffle found already ENDED without a recorded result gets its draw
// retried: the end and the draw commit separately, so a crash or a
// publish-side failure between them must not strand the raffle.
func (s *Scheduler) advance(ctx context.Context, id uint64) error {
    ended := false
    err := runAtomic(ctx, s.store, s.attempts, func(tx store.Tx) error {
        ended = false
        r, err := tx.GetRaffleForUpdate(ctx, id)
        if err != nil {
            return err
        }
        now := s.now()
        status := r.Status
        if status == model.StatusEnded {
            ended = !r.Drawn()
            return nil
        }
        if (status == model.StatusDraft || status == model.StatusComingSoon) &&
            !now.Before(r.StartTime) {
            if err := tx.UpdateRaffleStatus(ctx, id, status, model.StatusActive); err != nil {
                return err
            }
            status = model.StatusActive
        }
        if (status == model.StatusActive || status == model.StatusSoldOut) &&
            !now.Before(r.EndTime) {
            if err := tx.UpdateRaffleStatus(ctx, id, status, model.StatusEnded); err != nil {
                return err
            }
            ended = true
        }
        return nil
    })
    if err != nil {
        return err
    }
    if ended {
        if _, err := s.winner.Draw(ctx, id); err != nil && !errors.Is(err, ErrAlreadyDrawn) {
            return err
        }
    }
    return nil
}
