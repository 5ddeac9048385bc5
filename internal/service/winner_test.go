package service

import (
    "context"
    "errors"
    "sync"
    "testing"

    "github.com/iliyamo/raffle-service/internal/model"
)

// endRaffle moves an ACTIVE raffle to ENDED without triggering the
// draw, so that Draw can be exercised directly.
func endRaffle(t *testing.T, e *env, id uint64) {
    t.Helper()
    e.raffles.winner = nil
    if _, err := e.raffles.End(context.Background(), id); err != nil {
        t.Fatalf("end raffle: %v", err)
    }
    e.raffles.winner = e.winners
}

func TestDraw(t *testing.T) {
    ctx := context.Background()

    t.Run("selects distinct tickets without replacement", func(t *testing.T) {
        e := newEnv(t, 11)
        p := baseParams()
        p.NumberOfDraws = 5
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 0)
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 10); err != nil {
            t.Fatalf("purchase: %v", err)
        }
        endRaffle(t, e, r.ID)

        res, err := e.winners.Draw(ctx, r.ID)
        if err != nil {
            t.Fatalf("draw: %v", err)
        }
        if len(res.Outcomes) != 5 {
            t.Fatalf("got %d outcomes, want 5", len(res.Outcomes))
        }
        seen := map[int]bool{}
        for i, o := range res.Outcomes {
            if o.DrawIndex != i+1 {
                t.Errorf("outcome %d has draw_index %d", i, o.DrawIndex)
            }
            if seen[o.TicketNumber] {
                t.Fatalf("ticket %d drawn twice", o.TicketNumber)
            }
            seen[o.TicketNumber] = true
            if o.WinnerID == nil || *o.WinnerID != alice {
                t.Errorf("outcome %d should name the sole buyer", i)
            }
        }
    })

    t.Run("FULL pays the whole prize on every winning draw", func(t *testing.T) {
        e := newEnv(t, 12)
        p := baseParams()
        p.NumberOfTickets = 3
        p.MaxTicketsPerUser = 3
        p.NumberOfDraws = 2
        p.PrizeValueCents = 500
        p.Distribution = model.DistributionFull
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 0)
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 3); err != nil {
            t.Fatalf("purchase: %v", err)
        }
        endRaffle(t, e, r.ID)

        res, err := e.winners.Draw(ctx, r.ID)
        if err != nil {
            t.Fatalf("draw: %v", err)
        }
        for _, o := range res.Outcomes {
            if o.PrizeCents != 500 {
                t.Errorf("FULL outcome prize = %d, want 500", o.PrizeCents)
            }
        }
        if got := balanceOf(t, e.store, alice); got != 1000 {
            t.Errorf("winner balance = %d, want 1000", got)
        }
    })

    t.Run("SPLIT divides the prize and leaves no-winner shares unclaimed", func(t *testing.T) {
        e := newEnv(t, 13)
        p := baseParams()
        p.NumberOfTickets = 3
        p.MaxTicketsPerUser = 3
        p.NumberOfDraws = 3
        p.PrizeValueCents = 300
        p.Distribution = model.DistributionSplit
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 0)
        // one of the three tickets stays unsold
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 2); err != nil {
            t.Fatalf("purchase: %v", err)
        }
        endRaffle(t, e, r.ID)

        res, err := e.winners.Draw(ctx, r.ID)
        if err != nil {
            t.Fatalf("draw: %v", err)
        }
        if len(res.Outcomes) != 3 {
            t.Fatalf("got %d outcomes, want 3", len(res.Outcomes))
        }
        winners := 0
        for _, o := range res.Outcomes {
            if o.PrizeCents != 100 {
                t.Errorf("SPLIT share = %d, want 100", o.PrizeCents)
            }
            if o.Winner() {
                winners++
            }
        }
        if winners != 2 {
            t.Fatalf("expected 2 winning outcomes, got %d", winners)
        }
        // only the won shares are paid out
        if got := balanceOf(t, e.store, alice); got != 200 {
            t.Errorf("winner balance = %d, want 200", got)
        }
    })

    t.Run("a draw on an unended raffle fails", func(t *testing.T) {
        e := newEnv(t, 14)
        r := activeRaffle(t, e, baseParams())
        if _, err := e.winners.Draw(ctx, r.ID); !errors.Is(err, ErrInvalidState) {
            t.Errorf("expected ErrInvalidState, got %v", err)
        }
    })

    t.Run("the second draw reports AlreadyDrawn", func(t *testing.T) {
        e := newEnv(t, 15)
        r := activeRaffle(t, e, baseParams())
        endRaffle(t, e, r.ID)
        if _, err := e.winners.Draw(ctx, r.ID); err != nil {
            t.Fatalf("first draw: %v", err)
        }
        if _, err := e.winners.Draw(ctx, r.ID); !errors.Is(err, ErrAlreadyDrawn) {
            t.Errorf("expected ErrAlreadyDrawn, got %v", err)
        }
    })

    t.Run("concurrent draws record exactly one result", func(t *testing.T) {
        e := newEnv(t, 16)
        r := activeRaffle(t, e, baseParams())
        endRaffle(t, e, r.ID)

        const n = 8
        var wg sync.WaitGroup
        var mu sync.Mutex
        succeeded := 0
        for i := 0; i < n; i++ {
            wg.Add(1)
            go func() {
                defer wg.Done()
                _, err := e.winners.Draw(ctx, r.ID)
                if err == nil {
                    mu.Lock()
                    succeeded++
                    mu.Unlock()
                } else if !errors.Is(err, ErrAlreadyDrawn) {
                    t.Errorf("unexpected draw error: %v", err)
                }
            }()
        }
        wg.Wait()
        if succeeded != 1 {
            t.Fatalf("%d draws succeeded, want exactly 1", succeeded)
        }
        got, _ := e.store.GetRaffle(ctx, r.ID)
        if !got.Drawn() {
            t.Fatal("no result recorded")
        }
    })

    t.Run("drawn tickets with no owner yield no-winner outcomes", func(t *testing.T) {
        e := newEnv(t, 17)
        p := baseParams()
        p.NumberOfTickets = 4
        p.NumberOfDraws = 4
        p.MaxTicketsPerUser = 4
        r := activeRaffle(t, e, p)
        // nobody buys anything
        endRaffle(t, e, r.ID)

        res, err := e.winners.Draw(ctx, r.ID)
        if err != nil {
            t.Fatalf("draw: %v", err)
        }
        if len(res.Winners()) != 0 {
            t.Errorf("expected no winners on an unsold raffle, got %d", len(res.Winners()))
        }
        for _, o := range res.Outcomes {
            if o.Winner() {
                t.Errorf("outcome %d claims a winner", o.DrawIndex)
            }
        }
    })
}
