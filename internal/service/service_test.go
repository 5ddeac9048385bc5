package service

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
    "github.com/iliyamo/raffle-service/internal/store/memory"
)

// fakeClock is a mutable time source shared by the services under test.
type fakeClock struct {
    mu sync.Mutex
    t  time.Time
}

func (c *fakeClock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.t
}

func (c *fakeClock) Set(t time.Time) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.t = c.t.Add(d)
}

type env struct {
    store     *memory.Store
    clock     *fakeClock
    raffles   *RaffleService
    inventory *InventoryService
    winners   *WinnerService
    scheduler *Scheduler
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newEnv(t *testing.T, seed int64) *env {
    t.Helper()
    st := memory.New()
    clock := &fakeClock{t: baseTime}
    rng := NewSeededRand(seed)
    winners := NewWinnerService(st, rng, 3, nil)
    winners.WithClock(clock.Now)
    raffles := NewRaffleService(st, winners, 3)
    raffles.WithClock(clock.Now)
    inventory := NewInventoryService(st, rng, 3)
    inventory.WithClock(clock.Now)
    scheduler := NewScheduler(st, winners, 3)
    scheduler.WithClock(clock.Now)
    return &env{
        store:     st,
        clock:     clock,
        raffles:   raffles,
        inventory: inventory,
        winners:   winners,
        scheduler: scheduler,
    }
}

// baseParams returns a valid raffle configuration starting one hour
// after the test clock's origin and running for a day.
func baseParams() CreateParams {
    return CreateParams{
        Name:              "Spring Giveaway",
        Description:       "win things",
        PrizeDescription:  "a very large teapot",
        StartTime:         baseTime.Add(time.Hour),
        EndTime:           baseTime.Add(25 * time.Hour),
        TicketPriceCents:  0,
        NumberOfTickets:   10,
        MaxTicketsPerUser: 10,
        NumberOfDraws:     1,
        PrizeValueCents:   0,
        Distribution:      model.DistributionFull,
    }
}

// newUser registers a user with the given starting balance and returns
// its ID.
func newUser(t *testing.T, st *memory.Store, email string, balanceCents int64) uint64 {
    t.Helper()
    ctx := context.Background()
    u := &model.User{Email: email, PasswordHash: "x", Role: model.RolePlayer}
    if err := st.CreateUser(ctx, u); err != nil {
        t.Fatalf("create user %s: %v", email, err)
    }
    if balanceCents > 0 {
        err := st.Atomically(ctx, func(tx store.Tx) error {
            return tx.AdjustBalance(ctx, u.ID, balanceCents)
        })
        if err != nil {
            t.Fatalf("fund user %s: %v", email, err)
        }
    }
    return u.ID
}

// activeRaffle creates a raffle from params and moves it to ACTIVE by
// advancing the clock past its start time.
func activeRaffle(t *testing.T, e *env, p CreateParams) *model.Raffle {
    t.Helper()
    ctx := context.Background()
    r, err := e.raffles.Create(ctx, p)
    if err != nil {
        t.Fatalf("create raffle: %v", err)
    }
    e.clock.Set(p.StartTime.Add(time.Minute))
    r, err = e.raffles.Activate(ctx, r.ID)
    if err != nil {
        t.Fatalf("activate raffle: %v", err)
    }
    if r.Status != model.StatusActive {
        t.Fatalf("expected ACTIVE after activation, got %s", r.Status)
    }
    return r
}

func balanceOf(t *testing.T, st *memory.Store, userID uint64) int64 {
    t.Helper()
    u, err := st.GetUserByID(context.Background(), userID)
    if err != nil {
        t.Fatalf("get user %d: %v", userID, err)
    }
    return u.BalanceCents
}
