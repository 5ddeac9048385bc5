package service

import (
    "context"
    "fmt"
    "time"

    "github.com/google/logger"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

// RaffleService owns raffle creation and the command side of the
// lifecycle state machine: activate, pause, cancel and the forced end.
// Time-driven transitions are applied by the Scheduler through the
// same conditional-update primitives.
type RaffleService struct {
    store    store.Store
    winner   *WinnerService
    now      func() time.Time
    attempts int
}

// NewRaffleService constructs a RaffleService.  The winner service is
// invoked after a successful manual end so results appear without
// waiting for the next scheduler tick.
func NewRaffleService(s store.Store, w *WinnerService, attempts int) *RaffleService {
    return &RaffleService{
        store:    s,
        winner:   w,
        now:      func() time.Time { return time.Now().UTC() },
        attempts: attempts,
    }
}

// WithClock overrides the time source, for tests.
func (s *RaffleService) WithClock(now func() time.Time) *RaffleService {
    s.now = now
    return s
}

// CreateParams carries the raffle configuration submitted by an
// operator.  Validation happens before any mutation.
type CreateParams struct {
    Name              string
    Description       string
    PrizeDescription  string
    TermsLink         string
    StartTime         time.Time
    EndTime           time.Time
    TicketPriceCents  int64
    NumberOfTickets   int
    MaxTicketsPerUser int
    NumberOfDraws     int
    PrizeValueCents   int64
    Distribution      model.DistributionType
}

func (p CreateParams) validate() error {
    if p.Name == "" {
        return fmt.Errorf("%w: name is required", ErrValidation)
    }
    if !p.EndTime.After(p.StartTime) {
        return fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
    }
    if p.TicketPriceCents < 0 {
        return fmt.Errorf("%w: ticket_price must not be negative", ErrValidation)
    }
    if p.NumberOfTickets < 1 {
        return fmt.Errorf("%w: number_of_tickets must be at least 1", ErrValidation)
    }
    if p.MaxTicketsPerUser < 1 || p.MaxTicketsPerUser > p.NumberOfTickets {
        return fmt.Errorf("%w: max_tickets_per_user must be between 1 and number_of_tickets", ErrValidation)
    }
    if p.NumberOfDraws < 1 || p.NumberOfDraws > p.NumberOfTickets {
        return fmt.Errorf("%w: number_of_draws must be between 1 and number_of_tickets", ErrValidation)
    }
    if p.PrizeValueCents < 0 {
        return fmt.Errorf("%w: prize_value must not be negative", ErrValidation)
    }
    if !p.Distribution.Valid() {
        return fmt.Errorf("%w: prize_distribution_type must be FULL or SPLIT", ErrValidation)
    }
    return nil
}

// Create validates the configuration, then inserts the raffle in DRAFT
// together with its full ticket set in one atomic unit.  The inventory
// is immutable from this point on.
func (s *RaffleService) Create(ctx context.Context, p CreateParams) (*model.Raffle, error) {
    if err := p.validate(); err != nil {
        return nil, err
    }
    r := &model.Raffle{
        Name:              p.Name,
        Description:       p.Description,
        PrizeDescription:  p.PrizeDescription,
        TermsLink:         p.TermsLink,
        StartTime:         p.StartTime.UTC(),
        EndTime:           p.EndTime.UTC(),
        TicketPriceCents:  p.TicketPriceCents,
        NumberOfTickets:   p.NumberOfTickets,
        MaxTicketsPerUser: p.MaxTicketsPerUser,
        Status:            model.StatusDraft,
        NumberOfDraws:     p.NumberOfDraws,
        PrizeValueCents:   p.PrizeValueCents,
        Distribution:      p.Distribution,
    }
    err := runAtomic(ctx, s.store, s.attempts, func(tx store.Tx) error {
        if err := tx.CreateRaffle(ctx, r); err != nil {
            return err
        }
        tickets := make([]model.Ticket, r.NumberOfTickets)
        for i := range tickets {
            tickets[i] = model.Ticket{RaffleID: r.ID, Number: i + 1}
        }
        return tx.CreateTicketsBulk(ctx, tickets)
    })
    if err != nil {
        return nil, err
    }
    logger.Infof("raffle %d created: %q, %d tickets, %d draws", r.ID, r.Name, r.NumberOfTickets, r.NumberOfDraws)
    return r, nil
}

// Get returns a raffle by ID.
func (s *RaffleService) Get(ctx context.Context, id uint64) (*model.Raffle, error) {
    return s.store.GetRaffle(ctx, id)
}

// List returns all raffles.
func (s *RaffleService) List(ctx context.Context) ([]model.Raffle, error) {
    return s.store.ListRaffles(ctx)
}

// FreeTicketCount returns how many tickets of a raffle are still unsold.
func (s *RaffleService) FreeTicketCount(ctx context.Context, id uint64) (int, error) {
    return s.store.FreeTicketCount(ctx, id)
}

// Activate opens a DRAFT or PAUSED raffle.  The target depends on the
// clock: COMING_SOON before start_time, ACTIVE after.
func (s *RaffleService) Activate(ctx context.Context, id uint64) (*model.Raffle, error) {
    return s.transition(ctx, id, func(r *model.Raffle) (model.Status, error) {
        if r.Status != model.StatusDraft && r.Status != model.StatusPaused {
            return "", fmt.Errorf("%w: cannot activate raffle in status %s", ErrInvalidState, r.Status)
        }
        if s.now().Before(r.StartTime) {
            return model.StatusComingSoon, nil
        }
        return model.StatusActive, nil
    })
}

// Pause suspends any non-terminal raffle that is not already paused.
func (s *RaffleService) Pause(ctx context.Context, id uint64) (*model.Raffle, error) {
    return s.transition(ctx, id, func(r *model.Raffle) (model.Status, error) {
        if r.Status.Terminal() || r.Status == model.StatusPaused {
            return "", fmt.Errorf("%w: cannot pause raffle in status %s", ErrInvalidState, r.Status)
        }
        return model.StatusPaused, nil
    })
}

// Cancel aborts any non-terminal raffle.  Cancelled raffles never draw.
func (s *RaffleService) Cancel(ctx context.Context, id uint64) (*model.Raffle, error) {
    return s.transition(ctx, id, func(r *model.Raffle) (model.Status, error) {
        if r.Status.Terminal() {
            return "", fmt.Errorf("%w: cannot cancel raffle in status %s", ErrInvalidState, r.Status)
        }
        return model.StatusCancelled, nil
    })
}

// End forces a raffle to ENDED ahead of schedule, overwriting its
// end_time with the current instant, then triggers the winner draw.
// The draw guard makes the trigger safe even if a concurrent scheduler
// tick got there first.
func (s *RaffleService) End(ctx context.Context, id uint64) (*model.Raffle, error) {
    endTime := s.now()
    var ended bool
    err := runAtomic(ctx, s.store, s.attempts, func(tx store.Tx) error {
        ended = false
        r, err := tx.GetRaffleForUpdate(ctx, id)
        if err != nil {
            return err
        }
        switch r.Status {
        case model.StatusActive, model.StatusSoldOut, model.StatusComingSoon:
        default:
            return fmt.Errorf("%w: cannot end raffle in status %s", ErrInvalidState, r.Status)
        }
        if err := tx.MarkRaffleEnded(ctx, id, r.Status, endTime); err != nil {
            return err
        }
        ended = true
        return nil
    })
    if err != nil {
        return nil, err
    }
    if ended && s.winner != nil {
        if _, err := s.winner.Draw(ctx, id); err != nil {
            // The scheduler re-attempts the draw on its next tick; the
            // end itself has already committed.
            logger.Errorf("draw after manual end of raffle %d failed: %v", id, err)
        }
    }
    return s.store.GetRaffle(ctx, id)
}

// transition loads the raffle under lock, asks decide for the target
// status and commits the conditional update in the same unit.
func (s *RaffleService) transition(ctx context.Context, id uint64, decide func(*model.Raffle) (model.Status, error)) (*model.Raffle, error) {
    err := runAtomic(ctx, s.store, s.attempts, func(tx store.Tx) error {
        r, err := tx.GetRaffleForUpdate(ctx, id)
        if err != nil {
            return err
        }
        target, err := decide(r)
        if err != nil {
            return err
        }
        if !r.Status.CanTransition(target) {
            return fmt.Errorf("%w: %s -> %s", ErrInvalidState, r.Status, target)
        }
        return tx.UpdateRaffleStatus(ctx, id, r.Status, target)
    })
    if err != nil {
        return nil, err
    }
    return s.store.GetRaffle(ctx, id)
}
