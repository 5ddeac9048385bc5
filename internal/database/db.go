package database

import (
    "context"
    "database/sql"
    "fmt"
    "os"
    "strconv"
    "time"

    _ "github.com/go-sql-driver/mysql"
)

// Open connects to the MySQL instance backing the raffle store and
// verifies the connection with a ping before handing it out.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
    auth := user
    if pass != "" {
        auth = fmt.Sprintf("%s:%s", user, pass)
    }
    // parseTime maps DATETIME columns to time.Time; loc=UTC keeps the
    // raffle start/end times comparable to the scheduler clock.
    dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
        auth, host, port, name)

    db, err := sql.Open("mysql", dsn)
    if err != nil {
        return nil, err
    }

    open := envPoolSize("DB_MAX_OPEN_CONNS", 25)
    db.SetMaxOpenConns(open)
    db.SetMaxIdleConns(envPoolSize("DB_MAX_IDLE_CONNS", open))
    db.SetConnMaxLifetime(30 * time.Minute)

    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        return nil, err
    }
    return db, nil
}

func envPoolSize(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 {
            return n
        }
    }
    return def
}
