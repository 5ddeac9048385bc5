package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

// TicketRepo provides data access to the tickets table.  Tickets are
// created once per raffle as a dense batch numbered 1..N and only
// their owner_id and purchase_time columns mutate afterwards.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the provided database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

func scanTicket(row interface{ Scan(...interface{}) error }) (*model.Ticket, error) {
    var t model.Ticket
    var owner sql.NullInt64
    var purchased sql.NullTime
    err := row.Scan(&t.ID, &t.RaffleID, &t.Number, &owner, &purchased)
    if err != nil {
        return nil, err
    }
    if owner.Valid {
        v := uint64(owner.Int64)
        t.OwnerID = &v
    }
    if purchased.Valid {
        v := purchased.Time.UTC()
        t.PurchaseTime = &v
    }
    return &t, nil
}

// CreateBulkTx inserts all tickets of a raffle in one statement and
// assigns the generated IDs back onto the slice.  MySQL hands out
// consecutive IDs for a multi-row insert, so the first LastInsertId
// plus the offset identifies each row.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) error {
    if len(tickets) == 0 {
        return nil
    }
    var sb strings.Builder
    sb.WriteString(`INSERT INTO tickets (raffle_id, ticket_number) VALUES `)
    args := make([]interface{}, 0, len(tickets)*2)
    for i, t := range tickets {
        if i > 0 {
            sb.WriteString(",")
        }
        sb.WriteString("(?, ?)")
        args = append(args, t.RaffleID, t.Number)
    }
    res, err := tx.ExecContext(ctx, sb.String(), args...)
    if err != nil {
        return mapTxError(err)
    }
    first, err := res.LastInsertId()
    if err != nil {
        return err
    }
    for i := range tickets {
        tickets[i].ID = uint64(first) + uint64(i)
    }
    return nil
}

const ticketColumns = `id, raffle_id, ticket_number, owner_id, purchase_time`

func collectTickets(rows *sql.Rows) ([]model.Ticket, error) {
    defer rows.Close()
    out := make([]model.Ticket, 0)
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *t)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ByRaffleTx returns every ticket of a raffle, ordered by number.
func (r *TicketRepo) ByRaffleTx(ctx context.Context, tx *sql.Tx, raffleID uint64) ([]model.Ticket, error) {
    q := `SELECT ` + ticketColumns + ` FROM tickets WHERE raffle_id = ? ORDER BY ticket_number`
    rows, err := tx.QueryContext(ctx, q, raffleID)
    if err != nil {
        return nil, mapTxError(err)
    }
    return collectTickets(rows)
}

// FreeByRaffleTx returns the unowned tickets of a raffle.  The caller
// holds the raffle row lock, so the set cannot change underneath the
// transaction.
func (r *TicketRepo) FreeByRaffleTx(ctx context.Context, tx *sql.Tx, raffleID uint64) ([]model.Ticket, error) {
    q := `SELECT ` + ticketColumns + ` FROM tickets
          WHERE raffle_id = ? AND owner_id IS NULL ORDER BY ticket_number`
    rows, err := tx.QueryContext(ctx, q, raffleID)
    if err != nil {
        return nil, mapTxError(err)
    }
    return collectTickets(rows)
}

// CountOwnedByUserTx returns how many tickets of the raffle the user
// already owns, inside the transaction so the per-user cap check sees
// the unit's own writes.
func (r *TicketRepo) CountOwnedByUserTx(ctx context.Context, tx *sql.Tx, raffleID, userID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM tickets WHERE raffle_id = ? AND owner_id = ?`
    var n int
    if err := tx.QueryRowContext(ctx, q, raffleID, userID).Scan(&n); err != nil {
        return 0, mapTxError(err)
    }
    return n, nil
}

// AssignTx sets owner and purchase time on the given tickets.  Only
// currently-unowned rows are matched; if another unit claimed one of
// them first the affected count comes up short and the unit conflicts.
func (r *TicketRepo) AssignTx(ctx context.Context, tx *sql.Tx, ticketIDs []uint64, userID uint64, at time.Time) error {
    if len(ticketIDs) == 0 {
        return nil
    }
    placeholders := strings.Repeat(",?", len(ticketIDs))[1:]
    q := `UPDATE tickets SET owner_id = ?, purchase_time = ?
          WHERE owner_id IS NULL AND id IN (` + placeholders + `)`
    args := make([]interface{}, 0, len(ticketIDs)+2)
    args = append(args, userID, at.UTC())
    for _, id := range ticketIDs {
        args = append(args, id)
    }
    res, err := tx.ExecContext(ctx, q, args...)
    if err != nil {
        return mapTxError(err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n != int64(len(ticketIDs)) {
        return store.ErrConflict
    }
    return nil
}

// GetForUpdateTx loads a ticket with an exclusive row lock.
func (r *TicketRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Ticket, error) {
    q := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ? FOR UPDATE`
    t, err := scanTicket(tx.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, store.ErrTicketNotFound
    }
    if err != nil {
        return nil, mapTxError(err)
    }
    return t, nil
}

// ReleaseTx clears owner and purchase time on a ticket.
func (r *TicketRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE tickets SET owner_id = NULL, purchase_time = NULL WHERE id = ?`
    res, err := tx.ExecContext(ctx, q, id)
    if err != nil {
        return mapTxError(err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return store.ErrTicketNotFound
    }
    return nil
}

// GetByID retrieves a ticket outside any transaction.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
    q := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = ?`
    t, err := scanTicket(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, store.ErrTicketNotFound
    }
    if err != nil {
        return nil, err
    }
    return t, nil
}

// ByUser returns every ticket the user owns across all raffles.
func (r *TicketRepo) ByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
    q := `SELECT ` + ticketColumns + ` FROM tickets
          WHERE owner_id = ? ORDER BY raffle_id, ticket_number`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    return collectTickets(rows)
}

// Sold returns the owned tickets of a raffle, paginated, plus the
// total owned count.
func (r *TicketRepo) Sold(ctx context.Context, raffleID uint64, offset, limit int) ([]model.Ticket, int, error) {
    const countQ = `SELECT COUNT(*) FROM tickets WHERE raffle_id = ? AND owner_id IS NOT NULL`
    var total int
    if err := r.db.QueryRowContext(ctx, countQ, raffleID).Scan(&total); err != nil {
        return nil, 0, err
    }
    if limit <= 0 {
        limit = 50
    }
    q := `SELECT ` + ticketColumns + ` FROM tickets
          WHERE raffle_id = ? AND owner_id IS NOT NULL
          ORDER BY ticket_number LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, q, raffleID, limit, offset)
    if err != nil {
        return nil, 0, err
    }
    out, err := collectTickets(rows)
    if err != nil {
        return nil, 0, err
    }
    return out, total, nil
}

// FreeCount returns how many tickets of a raffle are unowned.
func (r *TicketRepo) FreeCount(ctx context.Context, raffleID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM tickets WHERE raffle_id = ? AND owner_id IS NULL`
    var n int
    if err := r.db.QueryRowContext(ctx, q, raffleID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}
