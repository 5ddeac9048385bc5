package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

func TestCreate(t *testing.T) {
    ctx := context.Background()

    t.Run("creates the raffle in DRAFT with its full inventory", func(t *testing.T) {
        e := newEnv(t, 1)
        r, err := e.raffles.Create(ctx, baseParams())
        if err != nil {
            t.Fatalf("create: %v", err)
        }
        if r.Status != model.StatusDraft {
            t.Errorf("status = %s, want DRAFT", r.Status)
        }
        free, err := e.store.FreeTicketCount(ctx, r.ID)
        if err != nil {
            t.Fatalf("free count: %v", err)
        }
        if free != 10 {
            t.Errorf("free tickets = %d, want 10", free)
        }
        all, err := e.store.ListRaffles(ctx)
        if err != nil || len(all) != 1 {
            t.Fatalf("list = %d raffles, err %v", len(all), err)
        }
    })

    t.Run("rejects invalid configurations", func(t *testing.T) {
        e := newEnv(t, 2)
        cases := map[string]func(*CreateParams){
            "empty name":          func(p *CreateParams) { p.Name = "" },
            "end before start":    func(p *CreateParams) { p.EndTime = p.StartTime.Add(-time.Hour) },
            "end equals start":    func(p *CreateParams) { p.EndTime = p.StartTime },
            "negative price":      func(p *CreateParams) { p.TicketPriceCents = -1 },
            "zero tickets":        func(p *CreateParams) { p.NumberOfTickets = 0 },
            "zero cap":            func(p *CreateParams) { p.MaxTicketsPerUser = 0 },
            "cap above inventory": func(p *CreateParams) { p.MaxTicketsPerUser = 11 },
            "zero draws":          func(p *CreateParams) { p.NumberOfDraws = 0 },
            "too many draws":      func(p *CreateParams) { p.NumberOfDraws = 11 },
            "negative prize":      func(p *CreateParams) { p.PrizeValueCents = -5 },
            "bad distribution":    func(p *CreateParams) { p.Distribution = "HALVES" },
        }
        for name, mutate := range cases {
            p := baseParams()
            mutate(&p)
            if _, err := e.raffles.Create(ctx, p); !errors.Is(err, ErrValidation) {
                t.Errorf("%s: expected ErrValidation, got %v", name, err)
            }
        }
    })
}

func TestLifecycleCommands(t *testing.T) {
    ctx := context.Background()

    t.Run("activating before start yields COMING_SOON", func(t *testing.T) {
        e := newEnv(t, 1)
        r, err := e.raffles.Create(ctx, baseParams())
        if err != nil {
            t.Fatalf("create: %v", err)
        }
        // clock still before start_time
        r, err = e.raffles.Activate(ctx, r.ID)
        if err != nil {
            t.Fatalf("activate: %v", err)
        }
        if r.Status != model.StatusComingSoon {
            t.Errorf("status = %s, want COMING_SOON", r.Status)
        }
    })

    t.Run("activating after start yields ACTIVE", func(t *testing.T) {
        e := newEnv(t, 2)
        activeRaffle(t, e, baseParams())
    })

    t.Run("pause and resume", func(t *testing.T) {
        e := newEnv(t, 3)
        r := activeRaffle(t, e, baseParams())
        r, err := e.raffles.Pause(ctx, r.ID)
        if err != nil {
            t.Fatalf("pause: %v", err)
        }
        if r.Status != model.StatusPaused {
            t.Fatalf("status = %s, want PAUSED", r.Status)
        }
        if _, err := e.raffles.Pause(ctx, r.ID); !errors.Is(err, ErrInvalidState) {
            t.Errorf("pausing a paused raffle: expected ErrInvalidState, got %v", err)
        }
        r, err = e.raffles.Activate(ctx, r.ID)
        if err != nil {
            t.Fatalf("resume: %v", err)
        }
        if r.Status != model.StatusActive {
            t.Errorf("status = %s, want ACTIVE after resume", r.Status)
        }
    })

    t.Run("cancel is allowed from any non-terminal state and is final", func(t *testing.T) {
        e := newEnv(t, 4)
        r, err := e.raffles.Create(ctx, baseParams())
        if err != nil {
            t.Fatalf("create: %v", err)
        }
        r, err = e.raffles.Cancel(ctx, r.ID)
        if err != nil {
            t.Fatalf("cancel: %v", err)
        }
        if r.Status != model.StatusCancelled {
            t.Fatalf("status = %s, want CANCELLED", r.Status)
        }
        if _, err := e.raffles.Activate(ctx, r.ID); !errors.Is(err, ErrInvalidState) {
            t.Errorf("activate after cancel: expected ErrInvalidState, got %v", err)
        }
        if _, err := e.raffles.Cancel(ctx, r.ID); !errors.Is(err, ErrInvalidState) {
            t.Errorf("double cancel: expected ErrInvalidState, got %v", err)
        }
    })

    t.Run("manual end records the end time and draws", func(t *testing.T) {
        e := newEnv(t, 5)
        r := activeRaffle(t, e, baseParams())
        endAt := e.clock.Now()
        r, err := e.raffles.End(ctx, r.ID)
        if err != nil {
            t.Fatalf("end: %v", err)
        }
        if r.Status != model.StatusEnded {
            t.Fatalf("status = %s, want ENDED", r.Status)
        }
        if !r.EndTime.Equal(endAt) {
            t.Errorf("end_time = %s, want %s", r.EndTime, endAt)
        }
        if !r.Drawn() {
            t.Error("manual end must trigger the draw")
        }
        if _, err := e.raffles.End(ctx, r.ID); !errors.Is(err, ErrInvalidState) {
            t.Errorf("double end: expected ErrInvalidState, got %v", err)
        }
    })

    t.Run("commands on unknown raffles report not found", func(t *testing.T) {
        e := newEnv(t, 6)
        if _, err := e.raffles.Activate(ctx, 999); !errors.Is(err, store.ErrRaffleNotFound) {
            t.Errorf("expected ErrRaffleNotFound, got %v", err)
        }
    })
}
