package model

import (
    "fmt"
    "time"
)

// Ticket is one allocatable unit of participation in a raffle.  Ticket
// numbers form a dense set 1..N unique within their raffle.  A ticket
// has an owner iff it has a purchase time; both fields are cleared
// together on refund.
//
// Fields:
//  ID           – primary key identifier.
//  RaffleID     – owning raffle.
//  Number       – position within the raffle, 1..NumberOfTickets.
//  OwnerID      – purchasing user, nil while unsold.
//  PurchaseTime – when the ticket was bought, nil while unsold.
type Ticket struct {
    ID           uint64     `json:"id"`
    RaffleID     uint64     `json:"raffle_id"`
    Number       int        `json:"ticket_number"`
    OwnerID      *uint64    `json:"owner_id,omitempty"`
    PurchaseTime *time.Time `json:"purchase_time,omitempty"`
}

// Owned reports whether the ticket currently has an owner.
func (t *Ticket) Owned() bool { return t.OwnerID != nil }

// Label returns the human-readable ticket reference, e.g. "12-0007".
func (t *Ticket) Label() string {
    return fmt.Sprintf("%d-%04d", t.RaffleID, t.Number)
}
