package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/service"
)

// PublicHandler serves the unauthenticated read endpoints: raffle
// listing, detail, published results and the sold-ticket board.
type PublicHandler struct {
    Raffles   *service.RaffleService
    Inventory *service.InventoryService
}

func NewPublicHandler(raffles *service.RaffleService, inventory *service.InventoryService) *PublicHandler {
    if raffles == nil || inventory == nil {
        panic("nil service passed to NewPublicHandler")
    }
    return &PublicHandler{Raffles: raffles, Inventory: inventory}
}

// List handles GET /v1/raffles.
func (h *PublicHandler) List(c echo.Context) error {
    raffles, err := h.Raffles.List(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"raffles": raffles, "count": len(raffles)})
}

// Get handles GET /v1/raffles/:id.  The response includes how many
// tickets are still available.
func (h *PublicHandler) Get(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid raffle id"})
    }
    ctx := c.Request().Context()
    r, err := h.Raffles.Get(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    free, err := h.Raffles.FreeTicketCount(ctx, id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"raffle": r, "tickets_available": free})
}

// Result handles GET /v1/raffles/:id/result.  Before the draw has run
// the endpoint responds 404 so pollers can distinguish "not yet" from
// a recorded outcome.
func (h *PublicHandler) Result(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid raffle id"})
    }
    r, err := h.Raffles.Get(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    if !r.Drawn() {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "result not available"})
    }
    return c.JSON(http.StatusOK, echo.Map{"raffle_id": r.ID, "result": r.Result})
}

// SoldTickets handles GET /v1/raffles/:id/tickets: the paginated list
// of sold tickets with their owners, newest page parameters first.
func (h *PublicHandler) SoldTickets(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid raffle id"})
    }
    offset := queryInt(c, "offset", 0)
    limit := queryInt(c, "limit", 50)
    if limit < 1 || limit > 200 {
        limit = 50
    }
    if offset < 0 {
        offset = 0
    }
    tickets, total, err := h.Inventory.SoldTickets(c.Request().Context(), id, offset, limit)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "tickets": ticketViews(tickets),
        "total":   total,
        "offset":  offset,
        "limit":   limit,
    })
}

func queryInt(c echo.Context, name string, def int) int {
    v := c.QueryParam(name)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        return def
    }
    return n
}

type ticketView struct {
    ID           uint64 `json:"id"`
    RaffleID     uint64 `json:"raffle_id"`
    TicketNumber int    `json:"ticket_number"`
    Label        string `json:"label"`
    OwnerID      uint64 `json:"owner_id,omitempty"`
    PurchaseTime string `json:"purchase_time,omitempty"`
}

func ticketViews(tickets []model.Ticket) []ticketView {
    out := make([]ticketView, 0, len(tickets))
    for _, t := range tickets {
        v := ticketView{
            ID:           t.ID,
            RaffleID:     t.RaffleID,
            TicketNumber: t.Number,
            Label:        t.Label(),
        }
        if t.OwnerID != nil {
            v.OwnerID = *t.OwnerID
        }
        if t.PurchaseTime != nil {
            v.PurchaseTime = t.PurchaseTime.UTC().Format(time.RFC3339)
        }
        out = append(out, v)
    }
    return out
}
