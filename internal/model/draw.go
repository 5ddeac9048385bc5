package model

import "time"

// DrawResultVersion identifies the current encoding of DrawResult.
// The result is persisted as a structured document; the version field
// lets readers of historical rows detect older encodings.
const DrawResultVersion = 1

// DrawOutcome records a single unit of winner selection.  A draw that
// lands on an unsold ticket has a nil WinnerID; its prize share is
// still assigned but never paid out.
//
// Fields:
//  DrawIndex    – 1-based position in the draw sequence.
//  TicketNumber – the ticket pulled from the pool.
//  WinnerID     – owner of the ticket, nil for a no-winner draw.
//  PrizeCents   – prize value assigned to this draw.
//  DrawnAt      – when the draw was performed (UTC).
type DrawOutcome struct {
    DrawIndex    int        `json:"draw_index"`
    TicketNumber int        `json:"ticket_number"`
    WinnerID     *uint64    `json:"winner_id,omitempty"`
    PrizeCents   int64      `json:"prize_cents"`
    DrawnAt      time.Time  `json:"drawn_at"`
}

// Winner reports whether this outcome carries a real winner.
func (o DrawOutcome) Winner() bool { return o.WinnerID != nil }

// DrawResult is the immutable, ordered outcome list of a raffle's
// single winner draw.  It is written exactly once, when the raffle is
// ENDED, and never modified afterwards.
type DrawResult struct {
    Version  int           `json:"version"`
    Outcomes []DrawOutcome `json:"outcomes"`
}

// Winners returns the outcomes that produced a real winner, in draw order.
func (r *DrawResult) Winners() []DrawOutcome {
    out := make([]DrawOutcome, 0, len(r.Outcomes))
    for _, o := range r.Outcomes {
        if o.Winner() {
            out = append(out, o)
        }
    }
    return out
}
