package service

import (
    "context"
    "errors"
    "sync"
    "testing"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

func TestPurchase(t *testing.T) {
    ctx := context.Background()

    t.Run("assigns distinct tickets and debits the balance", func(t *testing.T) {
        e := newEnv(t, 1)
        p := baseParams()
        p.TicketPriceCents = 250
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 1000)

        bought, err := e.inventory.Purchase(ctx, r.ID, alice, 3)
        if err != nil {
            t.Fatalf("purchase: %v", err)
        }
        if len(bought) != 3 {
            t.Fatalf("expected 3 tickets, got %d", len(bought))
        }
        seen := map[int]bool{}
        for _, tk := range bought {
            if seen[tk.Number] {
                t.Fatalf("ticket number %d assigned twice", tk.Number)
            }
            seen[tk.Number] = true
            if tk.OwnerID == nil || *tk.OwnerID != alice {
                t.Fatalf("ticket %d not owned by buyer", tk.Number)
            }
        }
        if got := balanceOf(t, e.store, alice); got != 1000-3*250 {
            t.Errorf("balance = %d, want %d", got, 1000-3*250)
        }
        free, _ := e.store.FreeTicketCount(ctx, r.ID)
        if free != 7 {
            t.Errorf("free tickets = %d, want 7", free)
        }
    })

    t.Run("rejects counts below one", func(t *testing.T) {
        e := newEnv(t, 1)
        r := activeRaffle(t, e, baseParams())
        alice := newUser(t, e.store, "alice@example.com", 0)
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 0); !errors.Is(err, ErrValidation) {
            t.Errorf("expected ErrValidation, got %v", err)
        }
    })

    t.Run("enforces the per-user cap across purchases", func(t *testing.T) {
        e := newEnv(t, 2)
        p := baseParams()
        p.MaxTicketsPerUser = 5
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 0)

        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 3); err != nil {
            t.Fatalf("first purchase: %v", err)
        }
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 3); !errors.Is(err, ErrPerUserLimit) {
            t.Fatalf("expected ErrPerUserLimit, got %v", err)
        }
        // the failed purchase must not have assigned anything
        owned, _ := e.store.TicketsByUser(ctx, alice)
        if len(owned) != 3 {
            t.Errorf("user owns %d tickets, want 3", len(owned))
        }
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 2); err != nil {
            t.Errorf("purchase up to the cap should succeed, got %v", err)
        }
    })

    t.Run("fails when inventory is short", func(t *testing.T) {
        e := newEnv(t, 3)
        p := baseParams()
        p.NumberOfTickets = 4
        p.MaxTicketsPerUser = 4
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 0)
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 5); !errors.Is(err, ErrInsufficientInventory) {
            t.Errorf("expected ErrInsufficientInventory, got %v", err)
        }
    })

    t.Run("fails when the balance cannot cover the price", func(t *testing.T) {
        e := newEnv(t, 4)
        p := baseParams()
        p.TicketPriceCents = 500
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 499)
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 1); !errors.Is(err, store.ErrInsufficientFunds) {
            t.Errorf("expected ErrInsufficientFunds, got %v", err)
        }
        if got := balanceOf(t, e.store, alice); got != 499 {
            t.Errorf("failed purchase changed balance to %d", got)
        }
    })

    t.Run("flips to SOLD_OUT when the last ticket sells", func(t *testing.T) {
        e := newEnv(t, 5)
        p := baseParams()
        p.NumberOfTickets = 2
        p.MaxTicketsPerUser = 2
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 0)

        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 2); err != nil {
            t.Fatalf("purchase: %v", err)
        }
        got, _ := e.store.GetRaffle(ctx, r.ID)
        if got.Status != model.StatusSoldOut {
            t.Fatalf("status = %s, want SOLD_OUT", got.Status)
        }
        bob := newUser(t, e.store, "bob@example.com", 0)
        if _, err := e.inventory.Purchase(ctx, r.ID, bob, 1); !errors.Is(err, ErrInvalidState) {
            t.Errorf("purchases on SOLD_OUT must fail with ErrInvalidState, got %v", err)
        }
    })

    t.Run("rejects purchases outside ACTIVE", func(t *testing.T) {
        e := newEnv(t, 6)
        r, err := e.raffles.Create(ctx, baseParams())
        if err != nil {
            t.Fatalf("create: %v", err)
        }
        alice := newUser(t, e.store, "alice@example.com", 0)
        if _, err := e.inventory.Purchase(ctx, r.ID, alice, 1); !errors.Is(err, ErrInvalidState) {
            t.Errorf("DRAFT purchase: expected ErrInvalidState, got %v", err)
        }
    })

    t.Run("concurrent buyers never share a ticket", func(t *testing.T) {
        e := newEnv(t, 7)
        p := baseParams()
        p.NumberOfTickets = 20
        p.MaxTicketsPerUser = 2
        r := activeRaffle(t, e, p)

        const buyers = 10
        ids := make([]uint64, buyers)
        for i := range ids {
            ids[i] = newUser(t, e.store, string(rune('a'+i))+"@example.com", 0)
        }
        var wg sync.WaitGroup
        for _, uid := range ids {
            wg.Add(1)
            go func(uid uint64) {
                defer wg.Done()
                _, _ = e.inventory.Purchase(ctx, r.ID, uid, 2)
            }(uid)
        }
        wg.Wait()

        all, _, err := e.store.SoldTickets(ctx, r.ID, 0, 100)
        if err != nil {
            t.Fatalf("sold tickets: %v", err)
        }
        if len(all) != 20 {
            t.Fatalf("sold %d tickets, want 20", len(all))
        }
        perUser := map[uint64]int{}
        byNumber := map[int]bool{}
        for _, tk := range all {
            if byNumber[tk.Number] {
                t.Fatalf("ticket number %d sold twice", tk.Number)
            }
            byNumber[tk.Number] = true
            perUser[*tk.OwnerID]++
        }
        for uid, n := range perUser {
            if n > 2 {
                t.Errorf("user %d holds %d tickets, cap is 2", uid, n)
            }
        }
        got, _ := e.store.GetRaffle(ctx, r.ID)
        if got.Status != model.StatusSoldOut {
            t.Errorf("status = %s, want SOLD_OUT after full sale", got.Status)
        }
    })

    t.Run("concurrent purchases by one user respect the cap", func(t *testing.T) {
        e := newEnv(t, 8)
        p := baseParams()
        p.NumberOfTickets = 20
        p.MaxTicketsPerUser = 3
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 0)

        var wg sync.WaitGroup
        for i := 0; i < 8; i++ {
            wg.Add(1)
            go func() {
                defer wg.Done()
                _, _ = e.inventory.Purchase(ctx, r.ID, alice, 1)
            }()
        }
        wg.Wait()

        owned, err := e.store.TicketsByUser(ctx, alice)
        if err != nil {
            t.Fatalf("tickets by user: %v", err)
        }
        if len(owned) != 3 {
            t.Fatalf("user holds %d tickets, cap is 3", len(owned))
        }
    })
}

func TestRefund(t *testing.T) {
    ctx := context.Background()

    t.Run("releases the ticket and credits the price back", func(t *testing.T) {
        e := newEnv(t, 1)
        p := baseParams()
        p.TicketPriceCents = 300
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 900)

        bought, err := e.inventory.Purchase(ctx, r.ID, alice, 2)
        if err != nil {
            t.Fatalf("purchase: %v", err)
        }
        if err := e.inventory.Refund(ctx, bought[0].ID, alice, false); err != nil {
            t.Fatalf("refund: %v", err)
        }
        if got := balanceOf(t, e.store, alice); got != 600 {
            t.Errorf("balance = %d, want 600", got)
        }
        tk, _ := e.store.GetTicket(ctx, bought[0].ID)
        if tk.Owned() {
            t.Error("refunded ticket still owned")
        }
        if tk.PurchaseTime != nil {
            t.Error("refunded ticket kept its purchase time")
        }
    })

    t.Run("refunding an unowned ticket fails", func(t *testing.T) {
        e := newEnv(t, 2)
        activeRaffle(t, e, baseParams())
        alice := newUser(t, e.store, "alice@example.com", 0)
        // ticket 1 of the raffle was never sold
        if err := e.inventory.Refund(ctx, 1, alice, false); !errors.Is(err, ErrInvalidState) {
            t.Errorf("expected ErrInvalidState, got %v", err)
        }
    })

    t.Run("refund out of SOLD_OUT reopens the raffle", func(t *testing.T) {
        e := newEnv(t, 3)
        p := baseParams()
        p.NumberOfTickets = 2
        p.MaxTicketsPerUser = 2
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 0)

        bought, err := e.inventory.Purchase(ctx, r.ID, alice, 2)
        if err != nil {
            t.Fatalf("purchase: %v", err)
        }
        if err := e.inventory.Refund(ctx, bought[1].ID, alice, false); err != nil {
            t.Fatalf("refund: %v", err)
        }
        got, _ := e.store.GetRaffle(ctx, r.ID)
        if got.Status != model.StatusActive {
            t.Errorf("status = %s, want ACTIVE after refund", got.Status)
        }
        free, _ := e.store.FreeTicketCount(ctx, r.ID)
        if free != 1 {
            t.Errorf("free tickets = %d, want 1", free)
        }
    })

    t.Run("only the current owner can refund", func(t *testing.T) {
        e := newEnv(t, 5)
        p := baseParams()
        p.TicketPriceCents = 100
        r := activeRaffle(t, e, p)
        alice := newUser(t, e.store, "alice@example.com", 100)
        bob := newUser(t, e.store, "bob@example.com", 100)

        bought, err := e.inventory.Purchase(ctx, r.ID, alice, 1)
        if err != nil {
            t.Fatalf("purchase: %v", err)
        }
        if err := e.inventory.Refund(ctx, bought[0].ID, bob, false); !errors.Is(err, ErrNotOwner) {
            t.Fatalf("expected ErrNotOwner, got %v", err)
        }
        tk, _ := e.store.GetTicket(ctx, bought[0].ID)
        if !tk.Owned() || *tk.OwnerID != alice {
            t.Error("ticket must stay with its owner after a rejected refund")
        }
        if got := balanceOf(t, e.store, bob); got != 100 {
            t.Errorf("bob's balance = %d, want 100 unchanged", got)
        }

        // an admin may refund on the owner's behalf
        if err := e.inventory.Refund(ctx, bought[0].ID, bob, true); err != nil {
            t.Fatalf("admin refund: %v", err)
        }
        if got := balanceOf(t, e.store, alice); got != 100 {
            t.Errorf("alice's balance = %d, want 100 after admin refund", got)
        }
    })

    t.Run("refunds are rejected once the raffle ended", func(t *testing.T) {
        e := newEnv(t, 4)
        r := activeRaffle(t, e, baseParams())
        alice := newUser(t, e.store, "alice@example.com", 0)
        bought, err := e.inventory.Purchase(ctx, r.ID, alice, 1)
        if err != nil {
            t.Fatalf("purchase: %v", err)
        }
        if _, err := e.raffles.End(ctx, r.ID); err != nil {
            t.Fatalf("end: %v", err)
        }
        if err := e.inventory.Refund(ctx, bought[0].ID, alice, false); !errors.Is(err, ErrInvalidState) {
            t.Errorf("expected ErrInvalidState, got %v", err)
        }
    })
}
