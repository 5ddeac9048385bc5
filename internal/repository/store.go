package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

// Store composes the MySQL repositories into the store.Store contract.
// Atomic units run inside a database transaction; the raffle row lock
// taken by GetRaffleForUpdate serializes units touching the same
// raffle while units on different raffles proceed independently.
type Store struct {
    db      *sql.DB
    raffles *RaffleRepo
    tickets *TicketRepo
    users   *UserRepo
}

// NewStore wires the repositories around a shared DB handle.
func NewStore(db *sql.DB) *Store {
    return &Store{
        db:      db,
        raffles: NewRaffleRepo(db),
        tickets: NewTicketRepo(db),
        users:   NewUserRepo(db),
    }
}

var _ store.Store = (*Store)(nil)

// Atomically runs fn inside a transaction.  Any error from fn rolls
// the transaction back; commit errors are mapped so that a
// serialization failure at commit time is retryable.
func (s *Store) Atomically(ctx context.Context, fn func(store.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return mapTxError(err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&sqlTx{tx: tx, s: s}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return mapTxError(err)
    }
    committed = true
    return nil
}

func (s *Store) GetRaffle(ctx context.Context, id uint64) (*model.Raffle, error) {
    return s.raffles.GetByID(ctx, id)
}

func (s *Store) ListRaffles(ctx context.Context) ([]model.Raffle, error) {
    return s.raffles.List(ctx)
}

func (s *Store) SchedulableRaffleIDs(ctx context.Context) ([]uint64, error) {
    return s.raffles.SchedulableIDs(ctx)
}

func (s *Store) GetTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
    return s.tickets.GetByID(ctx, id)
}

func (s *Store) TicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
    return s.tickets.ByUser(ctx, userID)
}

func (s *Store) SoldTickets(ctx context.Context, raffleID uint64, offset, limit int) ([]model.Ticket, int, error) {
    return s.tickets.Sold(ctx, raffleID, offset, limit)
}

func (s *Store) FreeTicketCount(ctx context.Context, raffleID uint64) (int, error) {
    return s.tickets.FreeCount(ctx, raffleID)
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
    return s.users.Create(ctx, u)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
    return s.users.GetByEmail(ctx, email)
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
    return s.users.GetByID(ctx, id)
}

// sqlTx adapts an open *sql.Tx to the store.Tx contract by delegating
// to the repositories' ...Tx methods.
type sqlTx struct {
    tx *sql.Tx
    s  *Store
}

func (t *sqlTx) CreateRaffle(ctx context.Context, r *model.Raffle) error {
    return t.s.raffles.CreateTx(ctx, t.tx, r)
}

func (t *sqlTx) CreateTicketsBulk(ctx context.Context, tickets []model.Ticket) error {
    return t.s.tickets.CreateBulkTx(ctx, t.tx, tickets)
}

func (t *sqlTx) GetRaffleForUpdate(ctx context.Context, id uint64) (*model.Raffle, error) {
    return t.s.raffles.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) UpdateRaffleStatus(ctx context.Context, id uint64, from, to model.Status) error {
    return t.s.raffles.UpdateStatusTx(ctx, t.tx, id, from, to)
}

func (t *sqlTx) MarkRaffleEnded(ctx context.Context, id uint64, from model.Status, endTime time.Time) error {
    return t.s.raffles.MarkEndedTx(ctx, t.tx, id, from, endTime)
}

func (t *sqlTx) SaveDrawResult(ctx context.Context, raffleID uint64, res *model.DrawResult) error {
    return t.s.raffles.SaveResultTx(ctx, t.tx, raffleID, res)
}

func (t *sqlTx) TicketsByRaffle(ctx context.Context, raffleID uint64) ([]model.Ticket, error) {
    return t.s.tickets.ByRaffleTx(ctx, t.tx, raffleID)
}

func (t *sqlTx) FreeTickets(ctx context.Context, raffleID uint64) ([]model.Ticket, error) {
    return t.s.tickets.FreeByRaffleTx(ctx, t.tx, raffleID)
}

func (t *sqlTx) CountOwnedByUser(ctx context.Context, raffleID, userID uint64) (int, error) {
    return t.s.tickets.CountOwnedByUserTx(ctx, t.tx, raffleID, userID)
}

func (t *sqlTx) AssignTickets(ctx context.Context, ticketIDs []uint64, userID uint64, at time.Time) error {
    return t.s.tickets.AssignTx(ctx, t.tx, ticketIDs, userID, at)
}

func (t *sqlTx) GetTicketForUpdate(ctx context.Context, id uint64) (*model.Ticket, error) {
    return t.s.tickets.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) ReleaseTicket(ctx context.Context, id uint64) error {
    return t.s.tickets.ReleaseTx(ctx, t.tx, id)
}

func (t *sqlTx) AdjustBalance(ctx context.Context, userID uint64, deltaCents int64) error {
    return t.s.users.AdjustBalanceTx(ctx, t.tx, userID, deltaCents)
}
