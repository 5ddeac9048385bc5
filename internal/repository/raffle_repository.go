package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "time"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

// RaffleRepo provides data access to the raffles table.  The draw
// result is persisted as a JSON document in the `result` column and
// is written at most once; the conditional UPDATE in SaveResultTx is
// the double-draw guard at the storage level.  All timestamps are UTC.
type RaffleRepo struct {
    db *sql.DB
}

// NewRaffleRepo returns a RaffleRepo bound to the provided database.
func NewRaffleRepo(db *sql.DB) *RaffleRepo { return &RaffleRepo{db: db} }

const raffleColumns = `id, name, description, prize_description, terms_link,
       start_time, end_time, ticket_price_cents, number_of_tickets,
       max_tickets_per_user, status, number_of_draws, prize_value_cents,
       prize_distribution_type, result, version, created_at, updated_at`

// scanRaffle reads one raffle row.  The result column is NULL until a
// draw has run; a stored document is decoded into model.DrawResult.
func scanRaffle(row interface{ Scan(...interface{}) error }) (*model.Raffle, error) {
    var r model.Raffle
    var result sql.NullString
    err := row.Scan(
        &r.ID, &r.Name, &r.Description, &r.PrizeDescription, &r.TermsLink,
        &r.StartTime, &r.EndTime, &r.TicketPriceCents, &r.NumberOfTickets,
        &r.MaxTicketsPerUser, &r.Status, &r.NumberOfDraws, &r.PrizeValueCents,
        &r.Distribution, &result, &r.Version, &r.CreatedAt, &r.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if result.Valid {
        var res model.DrawResult
        if err := json.Unmarshal([]byte(result.String), &res); err != nil {
            return nil, fmt.Errorf("decode draw result for raffle %d: %w", r.ID, err)
        }
        r.Result = &res
    }
    return &r, nil
}

// CreateTx inserts a new raffle within the provided transaction and
// populates the generated ID and DB-default fields on the struct.
func (r *RaffleRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Raffle) error {
    const q = `INSERT INTO raffles
        (name, description, prize_description, terms_link, start_time, end_time,
         ticket_price_cents, number_of_tickets, max_tickets_per_user, status,
         number_of_draws, prize_value_cents, prize_distribution_type)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        m.Name, m.Description, m.PrizeDescription, m.TermsLink,
        m.StartTime.UTC(), m.EndTime.UTC(), m.TicketPriceCents, m.NumberOfTickets,
        m.MaxTicketsPerUser, m.Status, m.NumberOfDraws, m.PrizeValueCents,
        m.Distribution,
    )
    if err != nil {
        return mapTxError(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    // Query back the row to populate version and timestamps.
    sel := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = ?`
    got, err := scanRaffle(tx.QueryRowContext(ctx, sel, m.ID))
    if err != nil {
        return err
    }
    *m = *got
    return nil
}

// GetForUpdateTx loads a raffle and locks its row for the remainder of
// the transaction.  The lock is the per-raffle serialization point for
// every state-mutating unit, so check-then-act sequences inside one
// unit cannot interleave with another unit on the same raffle.
func (r *RaffleRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Raffle, error) {
    q := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = ? FOR UPDATE`
    m, err := scanRaffle(tx.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, store.ErrRaffleNotFound
    }
    if err != nil {
        return nil, mapTxError(err)
    }
    return m, nil
}

// UpdateStatusTx moves the raffle to a new status, conditional on the
// current status still matching.  Zero affected rows means another
// unit won the race and is reported as store.ErrConflict.
func (r *RaffleRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to model.Status) error {
    const q = `UPDATE raffles SET status = ?, version = version + 1 WHERE id = ? AND status = ?`
    res, err := tx.ExecContext(ctx, q, to, id, from)
    if err != nil {
        return mapTxError(err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return store.ErrConflict
    }
    return nil
}

// MarkEndedTx sets status ENDED and overwrites end_time, conditional
// on the current status like UpdateStatusTx.
func (r *RaffleRepo) MarkEndedTx(ctx context.Context, tx *sql.Tx, id uint64, from model.Status, endTime time.Time) error {
    const q = `UPDATE raffles SET status = ?, end_time = ?, version = version + 1
               WHERE id = ? AND status = ?`
    res, err := tx.ExecContext(ctx, q, model.StatusEnded, endTime.UTC(), id, from)
    if err != nil {
        return mapTxError(err)
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return store.ErrConflict
    }
    return nil
}

// SaveResultTx writes the draw result document, conditional on no
// result existing yet.  A second writer sees zero affected rows and
// gets store.ErrConflict, which the winner selector reports as an
// already-performed draw.
func (r *RaffleRepo) SaveResultTx(ctx context.Context, tx *sql.Tx, id uint64, res *model.DrawResult) error {
    doc, err := json.Marshal(res)
    if err != nil {
        return fmt.Errorf("encode draw result: %w", err)
    }
    const q = `UPDATE raffles SET result = ?, version = version + 1
               WHERE id = ? AND result IS NULL`
    out, err := tx.ExecContext(ctx, q, string(doc), id)
    if err != nil {
        return mapTxError(err)
    }
    n, err := out.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return store.ErrConflict
    }
    return nil
}

// GetByID retrieves a raffle outside any transaction.
func (r *RaffleRepo) GetByID(ctx context.Context, id uint64) (*model.Raffle, error) {
    q := `SELECT ` + raffleColumns + ` FROM raffles WHERE id = ?`
    m, err := scanRaffle(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, store.ErrRaffleNotFound
    }
    if err != nil {
        return nil, err
    }
    return m, nil
}

// List returns all raffles ordered by creation time descending.
func (r *RaffleRepo) List(ctx context.Context) ([]model.Raffle, error) {
    q := `SELECT ` + raffleColumns + ` FROM raffles ORDER BY created_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Raffle, 0)
    for rows.Next() {
        m, err := scanRaffle(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *m)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// SchedulableIDs returns the IDs of raffles the scheduler still has to
// look at, including ended raffles whose draw has not been recorded.
func (r *RaffleRepo) SchedulableIDs(ctx context.Context) ([]uint64, error) {
    const q = `SELECT id FROM raffles
        WHERE status NOT IN (?, ?) OR (status = ? AND result IS NULL)
        ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, model.StatusEnded, model.StatusCancelled, model.StatusEnded)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return ids, nil
}
