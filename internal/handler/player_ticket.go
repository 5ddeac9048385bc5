package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/service"
)

// PlayerHandler serves the authenticated player endpoints: buying
// tickets, refunding them and listing owned tickets.  Methods assume
// JWT authentication has run; they return 401 when the user ID cannot
// be extracted from the context.
type PlayerHandler struct {
    Inventory *service.InventoryService
}

func NewPlayerHandler(inventory *service.InventoryService) *PlayerHandler {
    if inventory == nil {
        panic("nil service passed to NewPlayerHandler")
    }
    return &PlayerHandler{Inventory: inventory}
}

// Purchase handles POST /v1/raffles/:id/purchase.  The body carries a
// ticket count; the assigned ticket numbers are chosen uniformly at
// random from the remaining inventory.
func (h *PlayerHandler) Purchase(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    raffleID, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid raffle id"})
    }
    var body struct {
        Count int `json:"count"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    tickets, err := h.Inventory.Purchase(c.Request().Context(), raffleID, userID, body.Count)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "raffle_id": raffleID,
        "tickets":   ticketViews(tickets),
    })
}

// Refund handles POST /v1/tickets/:id/refund.  A player may only
// refund tickets they own; admins may refund any ticket.
func (h *PlayerHandler) Refund(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ticketID, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
    }
    role, _ := c.Get("role").(string)
    if err := h.Inventory.Refund(c.Request().Context(), ticketID, userID, role == model.RoleAdmin); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "refunded", "ticket_id": ticketID})
}

// MyTickets handles GET /v1/my-tickets: every ticket owned by the
// authenticated user across all raffles.
func (h *PlayerHandler) MyTickets(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    tickets, err := h.Inventory.TicketsByUser(c.Request().Context(), userID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "tickets": ticketViews(tickets),
        "count":   len(tickets),
    })
}
