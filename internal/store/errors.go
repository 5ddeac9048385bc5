// Sentinel errors shared by every store implementation.  Higher layers
// use errors.Is against these values to distinguish failure cases; the
// MySQL store additionally wraps driver errors so that deadlocks and
// lock timeouts surface as ErrConflict.
package store

import "errors"

// ErrRaffleNotFound indicates the raffle ID resolved to no row.
var ErrRaffleNotFound = errors.New("raffle not found")

// ErrTicketNotFound indicates the ticket ID resolved to no row.
var ErrTicketNotFound = errors.New("ticket not found")

// ErrUserNotFound indicates the user ID or email resolved to no row.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists indicates a user with the same email already exists.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict indicates the atomic unit lost a race: a conditional
// update matched zero rows, or the engine aborted the transaction
// (deadlock, lock wait timeout).  It is transient; callers retry the
// whole unit a bounded number of times.
var ErrConflict = errors.New("store conflict")

// ErrInsufficientFunds indicates a balance debit would go negative.
var ErrInsufficientFunds = errors.New("insufficient funds")
