package main // Entry point package

import (
    "context"
    "log" // Logging library
    "os"

    "github.com/google/logger"
    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/raffle-service/internal/config" // Internal config loader
    "github.com/iliyamo/raffle-service/internal/database"
    "github.com/iliyamo/raffle-service/internal/handler"
    "github.com/iliyamo/raffle-service/internal/queue"
    "github.com/iliyamo/raffle-service/internal/repository"
    "github.com/iliyamo/raffle-service/internal/router" // Internal router setup
    "github.com/iliyamo/raffle-service/internal/service"
    "github.com/iliyamo/raffle-service/internal/store"
    "github.com/iliyamo/raffle-service/internal/store/memory"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    lg := logger.Init("raffle-service", true, false, os.Stdout)
    defer lg.Close()

    cfg := config.Load() // Load environment config

    // Select the persistence backend.  MySQL is the default; the
    // in-memory store serves development and test environments.
    var st store.Store
    switch cfg.StoreDriver {
    case "memory":
        st = memory.New()
        logger.Infof("using in-memory store")
    default:
        db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
        if err != nil {
            log.Fatalf("open database: %v", err)
        }
        defer db.Close()
        if err := database.Migrate(db); err != nil {
            log.Fatalf("migrate database: %v", err)
        }
        st = repository.NewStore(db)
    }

    // Wire the services: a shared random source, the winner selector
    // with its broker publisher, lifecycle commands and inventory.
    rng := service.NewRand()
    winners := service.NewWinnerService(st, rng, cfg.TxAttempts, queue.NewPublisher())
    raffles := service.NewRaffleService(st, winners, cfg.TxAttempts)
    inventory := service.NewInventoryService(st, rng, cfg.TxAttempts)
    scheduler := service.NewScheduler(st, winners, cfg.TxAttempts)

    // Background consumer appending draw events to logs/draw.log.
    go func() {
        if err := queue.StartDrawConsumer(); err != nil {
            logger.Errorf("draw consumer stopped: %v", err)
        }
    }()

    // Periodic scheduler advancing raffles along their time windows.
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()
    go scheduler.Run(ctx, cfg.TickInterval)

    e := echo.New() // Create Echo instance
    e.HideBanner = true

    rdb := config.NewRedisClient()
    if rdb == nil {
        logger.Warningf("redis unavailable, purchase rate limiting disabled")
    }

    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, st), cfg.JWTSecret)
    router.RegisterPublic(e, handler.NewPublicHandler(raffles, inventory))
    router.RegisterPlayer(e, handler.NewPlayerHandler(inventory), cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
    router.RegisterAdmin(e, handler.NewAdminHandler(raffles, scheduler), cfg.JWTSecret)

    addr := ":" + cfg.Port                                // Address string with port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

    if err := e.Start(addr); err != nil { // Start HTTP server
        log.Fatal(err) // Log and exit if server fails
    }
}
