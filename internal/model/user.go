package model

import "time"

// User roles accepted by the API.  ADMIN manages raffles and triggers
// lifecycle commands; PLAYER purchases tickets.
const (
    RoleAdmin  = "ADMIN"
    RolePlayer = "PLAYER"
)

// User mirrors the users table.  Balance is tracked in cents and is
// debited on purchase, credited on refund, and credited with prize
// value when a draw names the user a winner.
type User struct {
    ID           uint64    `json:"id"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Role         string    `json:"role"`
    BalanceCents int64     `json:"balance_cents"`
    CreatedAt    time.Time `json:"created_at"`
    UpdatedAt    time.Time `json:"updated_at"`
}
