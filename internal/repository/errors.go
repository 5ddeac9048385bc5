// Package repository implements the store contract on MySQL using
// database/sql.  Repositories expose ...Tx methods that operate on an
// existing *sql.Tx; the Store type in store.go composes them into the
// atomic-unit interface consumed by the service layer.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/raffle-service/internal/store"
)

// MySQL server error numbers that indicate the transaction lost a race
// and is safe to retry as a whole.
const (
    mysqlErrLockWaitTimeout = 1205
    mysqlErrDeadlock        = 1213
    mysqlErrDuplicateEntry  = 1062
)

// mapTxError translates engine-level concurrency failures into the
// transient store.ErrConflict sentinel so that callers retry the unit
// instead of surfacing a driver error.  Other errors pass through
// unchanged and are treated as permanent by the service layer.
func mapTxError(err error) error {
    if err == nil {
        return nil
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        switch me.Number {
        case mysqlErrDeadlock, mysqlErrLockWaitTimeout:
            return store.ErrConflict
        }
    }
    return err
}

// isDuplicate reports whether err is a unique-key violation.
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}
