// Package memory implements store.Store on plain maps guarded by a
// mutex.  It backs local development runs (STORE_DRIVER=memory) and
// the service-layer tests.  A transaction works on a deep copy of the
// state and swaps it in on success, so a failed unit leaves no
// partial effect, matching the rollback behavior of the MySQL store.
package memory

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
)

// Store holds all records in memory.  The single mutex serializes
// atomic units, so conflicting writes cannot interleave and
// store.ErrConflict is never produced by this implementation.
type Store struct {
    mu sync.Mutex

    raffles map[uint64]*model.Raffle
    tickets map[uint64]*model.Ticket
    users   map[uint64]*model.User

    nextRaffleID uint64
    nextTicketID uint64
    nextUserID   uint64
}

// New returns an empty in-memory store.
func New() *Store {
    return &Store{
        raffles: make(map[uint64]*model.Raffle),
        tickets: make(map[uint64]*model.Ticket),
        users:   make(map[uint64]*model.User),
    }
}

// state is the mutable snapshot a transaction works on.
type state struct {
    raffles map[uint64]*model.Raffle
    tickets map[uint64]*model.Ticket
    users   map[uint64]*model.User

    nextRaffleID uint64
    nextTicketID uint64
    nextUserID   uint64
}

func cloneRaffle(r *model.Raffle) *model.Raffle {
    c := *r
    if r.Result != nil {
        res := *r.Result
        res.Outcomes = append([]model.DrawOutcome(nil), r.Result.Outcomes...)
        c.Result = &res
    }
    return &c
}

func cloneTicket(t *model.Ticket) *model.Ticket {
    c := *t
    if t.OwnerID != nil {
        v := *t.OwnerID
        c.OwnerID = &v
    }
    if t.PurchaseTime != nil {
        v := *t.PurchaseTime
        c.PurchaseTime = &v
    }
    return &c
}

func (s *Store) snapshot() *state {
    st := &state{
        raffles:      make(map[uint64]*model.Raffle, len(s.raffles)),
        tickets:      make(map[uint64]*model.Ticket, len(s.tickets)),
        users:        make(map[uint64]*model.User, len(s.users)),
        nextRaffleID: s.nextRaffleID,
        nextTicketID: s.nextTicketID,
        nextUserID:   s.nextUserID,
    }
    for id, r := range s.raffles {
        st.raffles[id] = cloneRaffle(r)
    }
    for id, t := range s.tickets {
        st.tickets[id] = cloneTicket(t)
    }
    for id, u := range s.users {
        c := *u
        st.users[id] = &c
    }
    return st
}

func (s *Store) commit(st *state) {
    s.raffles = st.raffles
    s.tickets = st.tickets
    s.users = st.users
    s.nextRaffleID = st.nextRaffleID
    s.nextTicketID = st.nextTicketID
    s.nextUserID = st.nextUserID
}

// Atomically runs fn against a snapshot and commits it only when fn
// succeeds.
func (s *Store) Atomically(ctx context.Context, fn func(store.Tx) error) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if err := ctx.Err(); err != nil {
        return err
    }
    st := s.snapshot()
    if err := fn(&tx{st: st}); err != nil {
        return err
    }
    s.commit(st)
    return nil
}

// tx implements store.Tx over a state snapshot.
type tx struct {
    st *state
}

func (t *tx) CreateRaffle(ctx context.Context, r *model.Raffle) error {
    t.st.nextRaffleID++
    r.ID = t.st.nextRaffleID
    now := time.Now().UTC()
    r.CreatedAt = now
    r.UpdatedAt = now
    t.st.raffles[r.ID] = cloneRaffle(r)
    return nil
}

func (t *tx) CreateTicketsBulk(ctx context.Context, tickets []model.Ticket) error {
    for i := range tickets {
        t.st.nextTicketID++
        tickets[i].ID = t.st.nextTicketID
        t.st.tickets[tickets[i].ID] = cloneTicket(&tickets[i])
    }
    return nil
}

func (t *tx) GetRaffleForUpdate(ctx context.Context, id uint64) (*model.Raffle, error) {
    r, ok := t.st.raffles[id]
    if !ok {
        return nil, store.ErrRaffleNotFound
    }
    return cloneRaffle(r), nil
}

func (t *tx) UpdateRaffleStatus(ctx context.Context, id uint64, from, to model.Status) error {
    r, ok := t.st.raffles[id]
    if !ok {
        return store.ErrRaffleNotFound
    }
    if r.Status != from {
        return store.ErrConflict
    }
    r.Status = to
    r.Version++
    r.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *tx) MarkRaffleEnded(ctx context.Context, id uint64, from model.Status, endTime time.Time) error {
    r, ok := t.st.raffles[id]
    if !ok {
        return store.ErrRaffleNotFound
    }
    if r.Status != from {
        return store.ErrConflict
    }
    r.Status = model.StatusEnded
    r.EndTime = endTime
    r.Version++
    r.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *tx) SaveDrawResult(ctx context.Context, raffleID uint64, res *model.DrawResult) error {
    r, ok := t.st.raffles[raffleID]
    if !ok {
        return store.ErrRaffleNotFound
    }
    if r.Result != nil {
        return store.ErrConflict
    }
    cp := *res
    cp.Outcomes = append([]model.DrawOutcome(nil), res.Outcomes...)
    r.Result = &cp
    r.Version++
    r.UpdatedAt = time.Now().UTC()
    return nil
}

func (t *tx) TicketsByRaffle(ctx context.Context, raffleID uint64) ([]model.Ticket, error) {
    return ticketsOf(t.st, raffleID, func(*model.Ticket) bool { return true }), nil
}

func (t *tx) FreeTickets(ctx context.Context, raffleID uint64) ([]model.Ticket, error) {
    return ticketsOf(t.st, raffleID, func(tk *model.Ticket) bool { return !tk.Owned() }), nil
}

func (t *tx) CountOwnedByUser(ctx context.Context, raffleID, userID uint64) (int, error) {
    n := 0
    for _, tk := range t.st.tickets {
        if tk.RaffleID == raffleID && tk.OwnerID != nil && *tk.OwnerID == userID {
            n++
        }
    }
    return n, nil
}

func (t *tx) AssignTickets(ctx context.Context, ticketIDs []uint64, userID uint64, at time.Time) error {
    for _, id := range ticketIDs {
        tk, ok := t.st.tickets[id]
        if !ok {
            return store.ErrTicketNotFound
        }
        uid := userID
        ts := at
        tk.OwnerID = &uid
        tk.PurchaseTime = &ts
    }
    return nil
}

func (t *tx) GetTicketForUpdate(ctx context.Context, id uint64) (*model.Ticket, error) {
    tk, ok := t.st.tickets[id]
    if !ok {
        return nil, store.ErrTicketNotFound
    }
    return cloneTicket(tk), nil
}

func (t *tx) ReleaseTicket(ctx context.Context, id uint64) error {
    tk, ok := t.st.tickets[id]
    if !ok {
        return store.ErrTicketNotFound
    }
    tk.OwnerID = nil
    tk.PurchaseTime = nil
    return nil
}

func (t *tx) AdjustBalance(ctx context.Context, userID uint64, deltaCents int64) error {
    u, ok := t.st.users[userID]
    if !ok {
        return store.ErrUserNotFound
    }
    if u.BalanceCents+deltaCents < 0 {
        return store.ErrInsufficientFunds
    }
    u.BalanceCents += deltaCents
    u.UpdatedAt = time.Now().UTC()
    return nil
}

// ticketsOf collects the tickets of a raffle matching keep, ordered by
// ticket number for deterministic output.
func ticketsOf(st *state, raffleID uint64, keep func(*model.Ticket) bool) []model.Ticket {
    out := make([]model.Ticket, 0)
    for _, tk := range st.tickets {
        if tk.RaffleID == raffleID && keep(tk) {
            out = append(out, *cloneTicket(tk))
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
    return out
}

// ----- read-only methods -----

func (s *Store) GetRaffle(ctx context.Context, id uint64) (*model.Raffle, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    r, ok := s.raffles[id]
    if !ok {
        return nil, store.ErrRaffleNotFound
    }
    return cloneRaffle(r), nil
}

func (s *Store) ListRaffles(ctx context.Context) ([]model.Raffle, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Raffle, 0, len(s.raffles))
    for _, r := range s.raffles {
        out = append(out, *cloneRaffle(r))
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    return out, nil
}

func (s *Store) SchedulableRaffleIDs(ctx context.Context) ([]uint64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    ids := make([]uint64, 0)
    for id, r := range s.raffles {
        if !r.Status.Terminal() || (r.Status == model.StatusEnded && r.Result == nil) {
            ids = append(ids, id)
        }
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
    return ids, nil
}

func (s *Store) GetTicket(ctx context.Context, id uint64) (*model.Ticket, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    tk, ok := s.tickets[id]
    if !ok {
        return nil, store.ErrTicketNotFound
    }
    return cloneTicket(tk), nil
}

func (s *Store) TicketsByUser(ctx context.Context, userID uint64) ([]model.Ticket, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Ticket, 0)
    for _, tk := range s.tickets {
        if tk.OwnerID != nil && *tk.OwnerID == userID {
            out = append(out, *cloneTicket(tk))
        }
    }
    sort.Slice(out, func(i, j int) bool {
        if out[i].RaffleID != out[j].RaffleID {
            return out[i].RaffleID < out[j].RaffleID
        }
        return out[i].Number < out[j].Number
    })
    return out, nil
}

func (s *Store) SoldTickets(ctx context.Context, raffleID uint64, offset, limit int) ([]model.Ticket, int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    st := &state{tickets: s.tickets}
    sold := ticketsOf(st, raffleID, func(tk *model.Ticket) bool { return tk.Owned() })
    total := len(sold)
    if offset >= total {
        return []model.Ticket{}, total, nil
    }
    end := offset + limit
    if limit <= 0 || end > total {
        end = total
    }
    return sold[offset:end], total, nil
}

func (s *Store) FreeTicketCount(ctx context.Context, raffleID uint64) (int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    n := 0
    for _, tk := range s.tickets {
        if tk.RaffleID == raffleID && !tk.Owned() {
            n++
        }
    }
    return n, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    email := strings.ToLower(strings.TrimSpace(u.Email))
    for _, existing := range s.users {
        if existing.Email == email {
            return store.ErrEmailExists
        }
    }
    s.nextUserID++
    u.ID = s.nextUserID
    u.Email = email
    now := time.Now().UTC()
    u.CreatedAt = now
    u.UpdatedAt = now
    c := *u
    s.users[u.ID] = &c
    return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    email = strings.ToLower(strings.TrimSpace(email))
    for _, u := range s.users {
        if u.Email == email {
            c := *u
            return &c, nil
        }
    }
    return nil, store.ErrUserNotFound
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.users[id]
    if !ok {
        return nil, store.ErrUserNotFound
    }
    c := *u
    return &c, nil
}
