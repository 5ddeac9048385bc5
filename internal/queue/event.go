// Package queue defines message payloads exchanged over the message
// broker, the publisher that emits them, and the background consumer
// that writes them to the draw log.
package queue

// DrawOutcomeEvent is one entry of a completed draw. WinnerID is zero
// when the drawn ticket had no owner.
type DrawOutcomeEvent struct {
    DrawIndex    int    `json:"draw_index"`
    TicketNumber int    `json:"ticket_number"`
    WinnerID     uint64 `json:"winner_id,omitempty"`
    PrizeCents   int64  `json:"prize_cents"`
}

// DrawCompletedEvent is published when a raffle's winner draw has been
// recorded. It contains enough information for downstream consumers to
// log or notify without querying the primary database.
type DrawCompletedEvent struct {
    RaffleID uint64             `json:"raffle_id"`
    DrawnAt  string             `json:"drawn_at"`
    Outcomes []DrawOutcomeEvent `json:"outcomes"`
}
