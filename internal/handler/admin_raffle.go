package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/service"
)

// AdminHandler groups the services required for raffle administration.
// All methods assume JWT authentication and the ADMIN role have been
// enforced by middleware.
type AdminHandler struct {
    Raffles   *service.RaffleService
    Scheduler *service.Scheduler
}

// NewAdminHandler constructs an AdminHandler and panics if any
// dependency is nil.
func NewAdminHandler(raffles *service.RaffleService, scheduler *service.Scheduler) *AdminHandler {
    if raffles == nil || scheduler == nil {
        panic("nil service passed to NewAdminHandler")
    }
    return &AdminHandler{Raffles: raffles, Scheduler: scheduler}
}

type createRaffleReq struct {
    Name                  string    `json:"name"`
    Description           string    `json:"description"`
    PrizeDescription      string    `json:"prize_description"`
    TermsLink             string    `json:"terms_link"`
    StartTime             time.Time `json:"start_time"`
    EndTime               time.Time `json:"end_time"`
    TicketPriceCents      int64     `json:"ticket_price_cents"`
    NumberOfTickets       int       `json:"number_of_tickets"`
    MaxTicketsPerUser     int       `json:"max_tickets_per_user"`
    NumberOfDraws         int       `json:"number_of_draws"`
    PrizeValueCents       int64     `json:"prize_value_cents"`
    PrizeDistributionType string    `json:"prize_distribution_type"`
}

// Create handles POST /v1/raffles.  The raffle is created in DRAFT
// with its full ticket inventory generated up front.
func (h *AdminHandler) Create(c echo.Context) error {
    var req createRaffleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    r, err := h.Raffles.Create(c.Request().Context(), service.CreateParams{
        Name:              req.Name,
        Description:       req.Description,
        PrizeDescription:  req.PrizeDescription,
        TermsLink:         req.TermsLink,
        StartTime:         req.StartTime,
        EndTime:           req.EndTime,
        TicketPriceCents:  req.TicketPriceCents,
        NumberOfTickets:   req.NumberOfTickets,
        MaxTicketsPerUser: req.MaxTicketsPerUser,
        NumberOfDraws:     req.NumberOfDraws,
        PrizeValueCents:   req.PrizeValueCents,
        Distribution:      model.DistributionType(req.PrizeDistributionType),
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, r)
}

// Activate handles POST /v1/raffles/:id/activate.
func (h *AdminHandler) Activate(c echo.Context) error {
    return h.command(c, h.Raffles.Activate)
}

// Pause handles POST /v1/raffles/:id/pause.
func (h *AdminHandler) Pause(c echo.Context) error {
    return h.command(c, h.Raffles.Pause)
}

// Cancel handles POST /v1/raffles/:id/cancel.
func (h *AdminHandler) Cancel(c echo.Context) error {
    return h.command(c, h.Raffles.Cancel)
}

// End handles POST /v1/raffles/:id/end.  Ending triggers the winner
// draw, so the returned raffle carries the recorded result.
func (h *AdminHandler) End(c echo.Context) error {
    return h.command(c, h.Raffles.End)
}

// command runs one lifecycle transition identified by the :id path
// parameter and returns the updated raffle.
func (h *AdminHandler) command(c echo.Context, fn func(context.Context, uint64) (*model.Raffle, error)) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid raffle id"})
    }
    r, err := fn(c.Request().Context(), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

// Tick handles POST /v1/tick: one manual scheduler pass, for
// operations and tests.  The periodic scheduler runs the same code.
func (h *AdminHandler) Tick(c echo.Context) error {
    h.Scheduler.Tick(c.Request().Context())
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
