// Package store defines the persistence contract consumed by the
// service layer.  Two implementations exist: the MySQL store in
// internal/repository and the in-memory store in
// internal/store/memory.  All state-mutating business operations run
// inside Atomically so that their precondition checks and writes
// commit as one unit; a detected write conflict surfaces as
// ErrConflict and is retried by the caller a bounded number of times.
package store

import (
    "context"
    "time"

    "github.com/iliyamo/raffle-service/internal/model"
)

// Tx is the transactional view handed to the function passed to
// Store.Atomically.  Reads performed through Tx observe the
// transaction's own writes, and GetRaffleForUpdate locks the raffle
// row so that concurrent units on the same raffle serialize.
type Tx interface {
    // CreateRaffle inserts a new raffle and populates its ID and
    // timestamps on the passed struct.
    CreateRaffle(ctx context.Context, r *model.Raffle) error

    // CreateTicketsBulk inserts the full ticket set of a raffle in a
    // single statement.
    CreateTicketsBulk(ctx context.Context, tickets []model.Ticket) error

    // GetRaffleForUpdate loads a raffle and acquires an exclusive lock
    // on it for the remainder of the unit.  Returns ErrRaffleNotFound.
    GetRaffleForUpdate(ctx context.Context, id uint64) (*model.Raffle, error)

    // UpdateRaffleStatus moves a raffle from one status to another.
    // The update is conditional on the current status still being
    // `from`; a lost race surfaces as ErrConflict.
    UpdateRaffleStatus(ctx context.Context, id uint64, from, to model.Status) error

    // MarkRaffleEnded sets status ENDED and overwrites end_time, used
    // by the manual end command.  Conditional on `from` like
    // UpdateRaffleStatus.
    MarkRaffleEnded(ctx context.Context, id uint64, from model.Status, endTime time.Time) error

    // SaveDrawResult writes the draw result exactly once.  The write is
    // conditional on no result existing yet; ErrConflict signals that
    // another unit drew first.
    SaveDrawResult(ctx context.Context, raffleID uint64, res *model.DrawResult) error

    // TicketsByRaffle returns every ticket of a raffle ordered by
    // ticket number.
    TicketsByRaffle(ctx context.Context, raffleID uint64) ([]model.Ticket, error)

    // FreeTickets returns the currently unowned tickets of a raffle.
    FreeTickets(ctx context.Context, raffleID uint64) ([]model.Ticket, error)

    // CountOwnedByUser returns how many tickets of the raffle the user
    // already owns.
    CountOwnedByUser(ctx context.Context, raffleID, userID uint64) (int, error)

    // AssignTickets sets owner and purchase time on the given tickets.
    AssignTickets(ctx context.Context, ticketIDs []uint64, userID uint64, at time.Time) error

    // GetTicketForUpdate loads a ticket with an exclusive lock.
    // Returns ErrTicketNotFound.
    GetTicketForUpdate(ctx context.Context, id uint64) (*model.Ticket, error)

    // ReleaseTicket clears owner and purchase time on a ticket.
    ReleaseTicket(ctx context.Context, id uint64) error

    // AdjustBalance applies a signed delta to a user's balance.  A
    // debit that would take the balance below zero fails with
    // ErrInsufficientFunds; an unknown user fails with ErrUserNotFound.
    AdjustBalance(ctx context.Context, userID uint64, deltaCents int64) error
}

// Store is the durable storage collaborator.  Read methods outside
// Atomically observe committed state only.
type Store interface {
    // Atomically runs fn as a single atomic unit.  If fn returns an
    // error the unit is rolled back with no partial effect.
    Atomically(ctx context.Context, fn func(Tx) error) error

    GetRaffle(ctx context.Context, id uint64) (*model.Raffle, error)
    ListRaffles(ctx context.Context) ([]model.Raffle, error)

    // SchedulableRaffleIDs returns the IDs of raffles the scheduler
    // still has work on: every non-terminal raffle, plus ENDED raffles
    // whose draw result has not been recorded yet.
    SchedulableRaffleIDs(ctx context.Context) ([]uint64, error)

    GetTicket(ctx context.Context, id uint64) (*model.Ticket, error)
    TicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error)

    // SoldTickets returns the owned tickets of a raffle, paginated,
    // along with the total owned count.
    SoldTickets(ctx context.Context, raffleID uint64, offset, limit int) ([]model.Ticket, int, error)

    // FreeTicketCount returns how many tickets of a raffle are unowned.
    FreeTicketCount(ctx context.Context, raffleID uint64) (int, error)

    CreateUser(ctx context.Context, u *model.User) error
    GetUserByEmail(ctx context.Context, email string) (*model.User, error)
    GetUserByID(ctx context.Context, id uint64) (*model.User, error)
}
