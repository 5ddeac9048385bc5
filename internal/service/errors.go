// Package service implements the raffle engine: ticket inventory
// allocation, the lifecycle state machine, the winner draw and the
// scheduler that advances raffles on a tick.  Every state-mutating
// operation runs as one atomic unit against the store and is retried a
// bounded number of times when the unit loses a race.
package service

import (
    "context"
    "errors"
    "fmt"

    "github.com/iliyamo/raffle-service/internal/store"
)

// Business-rule sentinels.  Handlers match these with errors.Is to
// choose response codes; messages wrapped around them carry the
// specifics.
var (
    // ErrValidation rejects malformed raffle configuration before any
    // mutation happens.
    ErrValidation = errors.New("invalid raffle configuration")

    // ErrInvalidState rejects a command that is not legal from the
    // raffle's current status.
    ErrInvalidState = errors.New("invalid state transition")

    // ErrInsufficientInventory rejects a purchase larger than the
    // remaining free ticket count.
    ErrInsufficientInventory = errors.New("insufficient ticket inventory")

    // ErrPerUserLimit rejects a purchase that would push the buyer
    // over max_tickets_per_user.
    ErrPerUserLimit = errors.New("per-user ticket limit exceeded")

    // ErrAlreadyDrawn rejects a second draw attempt on a raffle whose
    // result is already recorded.
    ErrAlreadyDrawn = errors.New("winners already drawn")

    // ErrNotOwner rejects a refund requested by someone other than the
    // ticket's current owner.
    ErrNotOwner = errors.New("ticket owned by another user")

    // ErrStoreBusy is returned when an atomic unit kept conflicting
    // after the configured number of attempts.  The request may be
    // retried by the client.
    ErrStoreBusy = errors.New("store busy, retry")
)

// runAtomic executes fn as a single atomic unit, retrying the whole
// unit up to attempts times when the store reports a transient
// conflict.  Business-rule errors abort immediately: they were
// produced from state read under the unit's own locks and will not
// change on retry.
func runAtomic(ctx context.Context, s store.Store, attempts int, fn func(store.Tx) error) error {
    if attempts < 1 {
        attempts = 1
    }
    var err error
    for i := 0; i < attempts; i++ {
        err = s.Atomically(ctx, fn)
        if err == nil || !errors.Is(err, store.ErrConflict) {
            return err
        }
    }
    return fmt.Errorf("%w: %v", ErrStoreBusy, err)
}
