package service

import (
    "context"
    "fmt"
    "time"

    "github.com/google/logger"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/queue"
    "github.com/iliyamo/raffle-service/internal/store"
)

// DrawPublisher announces a completed draw to interested consumers.
// Publishing is best effort: a failure is logged and never rolls back
// the recorded result.
type DrawPublisher interface {
    PublishDrawCompleted(ctx context.Context, ev queue.DrawCompletedEvent) error
}

// WinnerService performs the winner draw for ENDED raffles.  The draw
// runs exactly once per raffle: the unit re-checks that no result
// exists while holding the raffle lock, and the store's conditional
// result write backs that check at commit time.
type WinnerService struct {
    store     store.Store
    rng       Rand
    now       func() time.Time
    attempts  int
    publisher DrawPublisher
}

// NewWinnerService constructs a WinnerService.  publisher may be nil
// when no broker is configured.
func NewWinnerService(s store.Store, rng Rand, attempts int, publisher DrawPublisher) *WinnerService {
    return &WinnerService{
        store:     s,
        rng:       rng,
        now:       func() time.Time { return time.Now().UTC() },
        attempts:  attempts,
        publisher: publisher,
    }
}

// WithClock overrides the time source, for tests.
func (s *WinnerService) WithClock(now func() time.Time) *WinnerService {
    s.now = now
    return s
}

// Draw selects the winners of an ENDED raffle and records the ordered
// outcome list.  The candidate pool is the full ticket set: a draw
// landing on an unsold ticket yields a no-winner outcome whose prize
// share goes unclaimed.  Winning owners are credited their prize value
// in the same unit that records the result.
func (s *WinnerService) Draw(ctx context.Context, raffleID uint64) (*model.DrawResult, error) {
    var result *model.DrawResult
    err := runAtomic(ctx, s.store, s.attempts, func(tx store.Tx) error {
        result = nil
        r, err := tx.GetRaffleForUpdate(ctx, raffleID)
        if err != nil {
            return err
        }
        if r.Status != model.StatusEnded {
            return fmt.Errorf("%w: raffle is %s, draws require ENDED", ErrInvalidState, r.Status)
        }
        if r.Drawn() {
            return fmt.Errorf("%w: raffle %d", ErrAlreadyDrawn, raffleID)
        }
        pool, err := tx.TicketsByRaffle(ctx, raffleID)
        if err != nil {
            return err
        }
        res := drawOutcomes(pool, r, s.rng, s.now())
        for _, o := range res.Outcomes {
            if o.Winner() && o.PrizeCents > 0 {
                if err := tx.AdjustBalance(ctx, *o.WinnerID, o.PrizeCents); err != nil {
                    return err
                }
            }
        }
        if err := tx.SaveDrawResult(ctx, raffleID, res); err != nil {
            return err
        }
        result = res
        return nil
    })
    if err != nil {
        return nil, err
    }
    logger.Infof("raffle %d drawn: %d outcome(s), %d winner(s)",
        raffleID, len(result.Outcomes), len(result.Winners()))
    s.publish(ctx, raffleID, result)
    return result, nil
}

// drawOutcomes runs the without-replacement selection over the full
// ticket pool.  Per-draw prize value depends on the distribution type:
// FULL assigns the whole prize to every draw, SPLIT divides it evenly
// across number_of_draws whether or not a draw finds a winner.
func drawOutcomes(pool []model.Ticket, r *model.Raffle, rng Rand, at time.Time) *model.DrawResult {
    draws := r.NumberOfDraws
    if draws > len(pool) {
        draws = len(pool)
    }
    perDraw := r.PrizeValueCents
    if r.Distribution == model.DistributionSplit {
        perDraw = r.PrizeValueCents / int64(r.NumberOfDraws)
    }
    outcomes := make([]model.DrawOutcome, 0, draws)
    remaining := append([]model.Ticket(nil), pool...)
    for i := 0; i < draws; i++ {
        j := rng.Intn(len(remaining))
        t := remaining[j]
        remaining[j] = remaining[len(remaining)-1]
        remaining = remaining[:len(remaining)-1]
        o := model.DrawOutcome{
            DrawIndex:    i + 1,
            TicketNumber: t.Number,
            PrizeCents:   perDraw,
            DrawnAt:      at,
        }
        if t.OwnerID != nil {
            uid := *t.OwnerID
            o.WinnerID = &uid
        }
        outcomes = append(outcomes, o)
    }
    return &model.DrawResult{Version: model.DrawResultVersion, Outcomes: outcomes}
}

func (s *WinnerService) publish(ctx context.Context, raffleID uint64, res *model.DrawResult) {
    if s.publisher == nil {
        return
    }
    ev := queue.DrawCompletedEvent{
        RaffleID: raffleID,
        DrawnAt:  s.now().Format(time.RFC3339),
    }
    for _, o := range res.Outcomes {
        out := queue.DrawOutcomeEvent{
            DrawIndex:    o.DrawIndex,
            TicketNumber: o.TicketNumber,
            PrizeCents:   o.PrizeCents,
        }
        if o.WinnerID != nil {
            out.WinnerID = *o.WinnerID
        }
        ev.Outcomes = append(ev.Outcomes, out)
    }
    if err := s.publisher.PublishDrawCompleted(ctx, ev); err != nil {
        logger.Warningf("publish draw event for raffle %d failed: %v", raffleID, err)
    }
}
