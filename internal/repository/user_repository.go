package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

// UserRepo provides data access to the users table.  Balances are
// stored in cents; every adjustment happens through AdjustBalanceTx so
// that debits participate in the purchase's atomic unit.
type UserRepo struct{ db *sql.DB }

// NewUserRepo returns a UserRepo bound to the provided database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, password_hash, role, balance_cents, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
    var u model.User
    err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
        &u.BalanceCents, &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &u, nil
}

// Create inserts a user and populates the generated ID.  The email is
// normalized to lower case; a duplicate surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
    u.Email = strings.ToLower(strings.TrimSpace(u.Email))
    const q = `INSERT INTO users (email, password_hash, role, balance_cents) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, u.Email, u.PasswordHash, u.Role, u.BalanceCents)
    if err != nil {
        if isDuplicate(err) {
            return store.ErrEmailExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    u.ID = uint64(id)
    sel := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
    got, err := scanUser(r.db.QueryRowContext(ctx, sel, u.ID))
    if err != nil {
        return err
    }
    *u = *got
    return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    q := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`
    u, err := scanUser(r.db.QueryRowContext(ctx, q, email))
    if err == sql.ErrNoRows {
        return nil, store.ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    q := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
    u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, store.ErrUserNotFound
    }
    if err != nil {
        return nil, err
    }
    return u, nil
}

// AdjustBalanceTx applies a signed delta to the user's balance inside
// the provided transaction.  The row is locked first so the
// non-negative check and the update commit as one step.
func (r *UserRepo) AdjustBalanceTx(ctx context.Context, tx *sql.Tx, userID uint64, deltaCents int64) error {
    const sel = `SELECT balance_cents FROM users WHERE id = ? FOR UPDATE`
    var balance int64
    err := tx.QueryRowContext(ctx, sel, userID).Scan(&balance)
    if err == sql.ErrNoRows {
        return store.ErrUserNotFound
    }
    if err != nil {
        return mapTxError(err)
    }
    if balance+deltaCents < 0 {
        return store.ErrInsufficientFunds
    }
    const upd = `UPDATE users SET balance_cents = balance_cents + ? WHERE id = ?`
    if _, err := tx.ExecContext(ctx, upd, deltaCents, userID); err != nil {
        return mapTxError(err)
    }
    return nil
}
