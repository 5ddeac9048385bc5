package database

import (
    "context"
    "database/sql"
    "time"
)

// schema holds the idempotent DDL applied at startup.  Statements use
// IF NOT EXISTS so repeated boots are no-ops; structural changes to
// existing deployments are expected to be applied out of band.
var schema = []string{
    `CREATE TABLE IF NOT EXISTS users (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        email VARCHAR(255) NOT NULL,
        password_hash VARCHAR(255) NOT NULL,
        role VARCHAR(16) NOT NULL DEFAULT 'PLAYER',
        balance_cents BIGINT NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_users_email (email)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS raffles (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name VARCHAR(100) NOT NULL,
        description TEXT NOT NULL,
        prize_description TEXT NOT NULL,
        terms_link VARCHAR(255) NOT NULL DEFAULT '',
        start_time DATETIME NOT NULL,
        end_time DATETIME NOT NULL,
        ticket_price_cents BIGINT NOT NULL,
        number_of_tickets INT NOT NULL,
        max_tickets_per_user INT NOT NULL,
        status VARCHAR(16) NOT NULL DEFAULT 'DRAFT',
        number_of_draws INT NOT NULL DEFAULT 1,
        prize_value_cents BIGINT NOT NULL DEFAULT 0,
        prize_distribution_type VARCHAR(8) NOT NULL DEFAULT 'FULL',
        result JSON NULL,
        version INT UNSIGNED NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_raffles_status (status)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS tickets (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        raffle_id BIGINT UNSIGNED NOT NULL,
        ticket_number INT NOT NULL,
        owner_id BIGINT UNSIGNED NULL,
        purchase_time DATETIME NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uq_tickets_raffle_number (raffle_id, ticket_number),
        KEY idx_tickets_owner (raffle_id, owner_id),
        CONSTRAINT fk_tickets_raffle FOREIGN KEY (raffle_id) REFERENCES raffles (id),
        CONSTRAINT fk_tickets_owner FOREIGN KEY (owner_id) REFERENCES users (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema statements in order.
func Migrate(db *sql.DB) error {
    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    for _, stmt := range schema {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}
