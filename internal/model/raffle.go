package model

import "time"

// Status is the lifecycle state of a raffle.  It is a closed
// enumeration: transitions between states are only legal along the
// edges encoded in CanTransition.  ENDED and CANCELLED are terminal
// and have no outgoing edges.
type Status string

const (
    StatusDraft      Status = "DRAFT"       // created, tickets generated, not yet open
    StatusComingSoon Status = "COMING_SOON" // activated before its start time
    StatusActive     Status = "ACTIVE"      // open for ticket purchases
    StatusSoldOut    Status = "SOLD_OUT"    // every ticket has an owner
    StatusPaused     Status = "PAUSED"      // purchases suspended by an operator
    StatusEnded      Status = "ENDED"       // past end time or ended manually; draw eligible
    StatusCancelled  Status = "CANCELLED"   // aborted; no draw will ever run
)

// Terminal reports whether no further transitions are permitted from s.
func (s Status) Terminal() bool {
    return s == StatusEnded || s == StatusCancelled
}

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
    switch s {
    case StatusDraft, StatusComingSoon, StatusActive, StatusSoldOut,
        StatusPaused, StatusEnded, StatusCancelled:
        return true
    }
    return false
}

// transitions encodes the legal status graph.  ACTIVE and SOLD_OUT
// move in both directions (inventory driven), ACTIVE and PAUSED move
// in both directions (command driven), and every non-terminal state
// may be cancelled.  There are no self edges.
var transitions = map[Status][]Status{
    StatusDraft:      {StatusComingSoon, StatusActive, StatusPaused, StatusCancelled},
    StatusComingSoon: {StatusActive, StatusPaused, StatusEnded, StatusCancelled},
    StatusActive:     {StatusSoldOut, StatusPaused, StatusEnded, StatusCancelled},
    StatusSoldOut:    {StatusActive, StatusPaused, StatusEnded, StatusCancelled},
    StatusPaused:     {StatusComingSoon, StatusActive, StatusCancelled},
}

// CanTransition reports whether moving from s to target is legal.
func (s Status) CanTransition(target Status) bool {
    for _, t := range transitions[s] {
        if t == target {
            return true
        }
    }
    return false
}

// DistributionType selects how the prize value is assigned across draws.
type DistributionType string

const (
    // DistributionFull pays the full prize value on every winning draw.
    DistributionFull DistributionType = "FULL"
    // DistributionSplit divides the prize value evenly across all draws,
    // whether or not a given draw produces a winner.
    DistributionSplit DistributionType = "SPLIT"
)

// Valid reports whether d is a known distribution type.
func (d DistributionType) Valid() bool {
    return d == DistributionFull || d == DistributionSplit
}

// Raffle is a time-boxed draw event with a fixed ticket inventory.
// The full ticket set (numbers 1..NumberOfTickets) is generated
// atomically when the raffle is created and never grows or shrinks
// afterwards.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name.
//  Description       – free-form description text.
//  PrizeDescription  – what the winner receives.
//  TermsLink         – optional URL to the full terms.
//  StartTime         – when purchases may begin (UTC).
//  EndTime           – when the raffle ends (UTC, after StartTime).
//  TicketPriceCents  – price per ticket in cents.
//  NumberOfTickets   – size of the ticket inventory, immutable.
//  MaxTicketsPerUser – per-user purchase cap, 1..NumberOfTickets.
//  Status            – current lifecycle state.
//  NumberOfDraws     – how many winners are drawn, 1..NumberOfTickets.
//  PrizeValueCents   – total prize value in cents.
//  Distribution      – FULL or SPLIT prize assignment.
//  Result            – nil until the draw has run exactly once.
//  Version           – optimistic concurrency token maintained by the store.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last modification timestamp.
type Raffle struct {
    ID                uint64           `json:"id"`
    Name              string           `json:"name"`
    Description       string           `json:"description"`
    PrizeDescription  string           `json:"prize_description"`
    TermsLink         string           `json:"terms_link,omitempty"`
    StartTime         time.Time        `json:"start_time"`
    EndTime           time.Time        `json:"end_time"`
    TicketPriceCents  int64            `json:"ticket_price_cents"`
    NumberOfTickets   int              `json:"number_of_tickets"`
    MaxTicketsPerUser int              `json:"max_tickets_per_user"`
    Status            Status           `json:"status"`
    NumberOfDraws     int              `json:"number_of_draws"`
    PrizeValueCents   int64            `json:"prize_value_cents"`
    Distribution      DistributionType `json:"prize_distribution_type"`
    Result            *DrawResult      `json:"result,omitempty"`
    Version           uint32           `json:"-"`
    CreatedAt         time.Time        `json:"created_at"`
    UpdatedAt         time.Time        `json:"updated_at"`
}

// Drawn reports whether the winner draw has already been recorded.
func (r *Raffle) Drawn() bool { return r.Result != nil }
