package handler

import (
    "context"  // provides context with cancellation for store calls
    "errors"   // sentinel comparisons
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for store calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/raffle-service/internal/config" // app configuration
    "github.com/iliyamo/raffle-service/internal/model"
    "github.com/iliyamo/raffle-service/internal/store"
    "github.com/iliyamo/raffle-service/internal/utils" // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth and account endpoints.
type AuthHandler struct {
    Cfg   config.Config
    Store store.Store
}

func NewAuthHandler(cfg config.Config, s store.Store) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Store: s}
}

// ----- DTOs -----

type registerReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // PLAYER | ADMIN
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID           uint64 `json:"id"`
    Email        string `json:"email"`
    Role         string `json:"role"`
    BalanceCents int64  `json:"balance_cents"`
}
type authResp struct {
    User   userPart  `json:"user"`
    Access tokenPart `json:"access"`
}

// Register: create user and return an access token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }
    role := strings.ToUpper(strings.TrimSpace(req.Role))
    if role != model.RoleAdmin && role != model.RolePlayer {
        role = model.RolePlayer
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }
    u := &model.User{Email: req.Email, PasswordHash: hash, Role: role}
    if err := h.Store.CreateUser(ctx, u); err != nil {
        if errors.Is(err, store.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }

    return c.JSON(http.StatusCreated, authResp{
        User:   userPart{ID: u.ID, Email: u.Email, Role: role},
        Access: tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Login: verify credentials and return a fresh access token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Store.GetUserByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, store.ErrUserNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }

    return c.JSON(http.StatusOK, authResp{
        User:   userPart{ID: u.ID, Email: u.Email, Role: u.Role, BalanceCents: u.BalanceCents},
        Access: tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Me returns the authenticated user's profile including the current
// balance.
func (h *AuthHandler) Me(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    u, err := h.Store.GetUserByID(c.Request().Context(), userID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: u.Role, BalanceCents: u.BalanceCents})
}

// TopUp credits the authenticated user's balance.  Amount must be a
// positive number of cents.
func (h *AuthHandler) TopUp(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        AmountCents int64 `json:"amount_cents"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if body.AmountCents <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents must be positive"})
    }
    ctx := c.Request().Context()
    err = h.Store.Atomically(ctx, func(tx store.Tx) error {
        return tx.AdjustBalance(ctx, userID, body.AmountCents)
    })
    if err != nil {
        return writeError(c, err)
    }
    u, err := h.Store.GetUserByID(ctx, userID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, userPart{ID: u.ID, Email: u.Email, Role: u.Role, BalanceCents: u.BalanceCents})
}
