package handler // handler defines http handlers

import (
    "errors"   // errors provides sentinel comparisons for status mapping
    "net/http" // net/http provides status codes
    "strconv"  // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/raffle-service/internal/service"
    "github.com/iliyamo/raffle-service/internal/store"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// writeError maps a service or store error to its HTTP response.
// Validation failures are 400, missing resources 404, ownership
// violations 403, precondition failures 409, exhausted balances 402
// and an overloaded store 503.
func writeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, store.ErrRaffleNotFound),
        errors.Is(err, store.ErrTicketNotFound),
        errors.Is(err, store.ErrUserNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrNotOwner):
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrInvalidState),
        errors.Is(err, service.ErrAlreadyDrawn),
        errors.Is(err, service.ErrInsufficientInventory),
        errors.Is(err, service.ErrPerUserLimit),
        errors.Is(err, store.ErrEmailExists):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, store.ErrInsufficientFunds):
        return c.JSON(http.StatusPaymentRequired, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrStoreBusy):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store busy, try again"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
