package service

import (
    "context"
    "fmt"
    "time"

    "github.com/google/logger"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

// InventoryService owns ticket allocation.  Purchase and Refund each
// run as one atomic unit that holds the raffle row lock from the
// precondition checks through the write, so two concurrent purchases
// can never claim the same ticket and the per-user cap cannot be
// jointly exceeded.
type InventoryService struct {
    store    store.Store
    rng      Rand
    now      func() time.Time
    attempts int
}

// NewInventoryService constructs an InventoryService with the given
// random source.
func NewInventoryService(s store.Store, rng Rand, attempts int) *InventoryService {
    return &InventoryService{
        store:    s,
        rng:      rng,
        now:      func() time.Time { return time.Now().UTC() },
        attempts: attempts,
    }
}

// WithClock overrides the time source, for tests.
func (s *InventoryService) WithClock(now func() time.Time) *InventoryService {
    s.now = now
    return s
}

// Purchase reserves count tickets of an ACTIVE raffle for the user,
// debiting count*ticket_price from the user's balance in the same
// unit.  Tickets are chosen uniformly at random among the free ones.
// When the purchase empties the inventory the raffle flips to
// SOLD_OUT before the unit commits.
func (s *InventoryService) Purchase(ctx context.Context, raffleID, userID uint64, count int) ([]model.Ticket, error) {
    if count < 1 {
        return nil, fmt.Errorf("%w: ticket count must be at least 1", ErrValidation)
    }
    var bought []model.Ticket
    err := runAtomic(ctx, s.store, s.attempts, func(tx store.Tx) error {
        bought = nil
        r, err := tx.GetRaffleForUpdate(ctx, raffleID)
        if err != nil {
            return err
        }
        if r.Status != model.StatusActive {
            return fmt.Errorf("%w: raffle is %s, purchases require ACTIVE", ErrInvalidState, r.Status)
        }
        free, err := tx.FreeTickets(ctx, raffleID)
        if err != nil {
            return err
        }
        if len(free) < count {
            return fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientInventory, count, len(free))
        }
        owned, err := tx.CountOwnedByUser(ctx, raffleID, userID)
        if err != nil {
            return err
        }
        if owned+count > r.MaxTicketsPerUser {
            return fmt.Errorf("%w: limit %d, user holds %d, requested %d",
                ErrPerUserLimit, r.MaxTicketsPerUser, owned, count)
        }
        if err := tx.AdjustBalance(ctx, userID, -r.TicketPriceCents*int64(count)); err != nil {
            return err
        }
        at := s.now()
        ids := make([]uint64, count)
        picked := make([]model.Ticket, count)
        for i, idx := range sampleIndices(s.rng, len(free), count) {
            t := free[idx]
            uid := userID
            ts := at
            t.OwnerID = &uid
            t.PurchaseTime = &ts
            ids[i] = t.ID
            picked[i] = t
        }
        if err := tx.AssignTickets(ctx, ids, userID, at); err != nil {
            return err
        }
        if len(free) == count {
            if err := tx.UpdateRaffleStatus(ctx, raffleID, model.StatusActive, model.StatusSoldOut); err != nil {
                return err
            }
        }
        bought = picked
        return nil
    })
    if err != nil {
        return nil, err
    }
    logger.Infof("user %d bought %d ticket(s) of raffle %d", userID, len(bought), raffleID)
    return bought, nil
}

// Refund releases a sold ticket and credits its price back to the
// owner.  Allowed while the raffle is ACTIVE, PAUSED or SOLD_OUT; a
// refund out of SOLD_OUT reopens the raffle as ACTIVE in the same
// unit.  Ownership is checked under the ticket lock so a ticket
// resold between the request and the unit cannot be refunded by its
// previous owner; admin callers skip the ownership check.
func (s *InventoryService) Refund(ctx context.Context, ticketID, requesterID uint64, admin bool) error {
    err := runAtomic(ctx, s.store, s.attempts, func(tx store.Tx) error {
        t, err := tx.GetTicketForUpdate(ctx, ticketID)
        if err != nil {
            return err
        }
        r, err := tx.GetRaffleForUpdate(ctx, t.RaffleID)
        if err != nil {
            return err
        }
        switch r.Status {
        case model.StatusActive, model.StatusPaused, model.StatusSoldOut:
        default:
            return fmt.Errorf("%w: cannot refund while raffle is %s", ErrInvalidState, r.Status)
        }
        if !t.Owned() {
            return fmt.Errorf("%w: ticket %d has no owner", ErrInvalidState, ticketID)
        }
        if !admin && *t.OwnerID != requesterID {
            return fmt.Errorf("%w: ticket %d", ErrNotOwner, ticketID)
        }
        if err := tx.AdjustBalance(ctx, *t.OwnerID, r.TicketPriceCents); err != nil {
            return err
        }
        if err := tx.ReleaseTicket(ctx, ticketID); err != nil {
            return err
        }
        if r.Status == model.StatusSoldOut {
            return tx.UpdateRaffleStatus(ctx, r.ID, model.StatusSoldOut, model.StatusActive)
        }
        return nil
    })
    if err != nil {
        return err
    }
    logger.Infof("ticket %d refunded", ticketID)
    return nil
}

// TicketsByUser returns every ticket the user owns.
func (s *InventoryService) TicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
    return s.store.TicketsByUser(ctx, userID)
}

// SoldTickets returns the owned tickets of a raffle, paginated.
func (s *InventoryService) SoldTickets(ctx context.Context, raffleID uint64, offset, limit int) ([]model.Ticket, int, error) {
    return s.store.SoldTickets(ctx, raffleID, offset, limit)
}
