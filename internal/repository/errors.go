// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup, update or delete matches no
// row. Handlers translate it into 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers translate it into 403.
var ErrForbidden = errors.New("forbidden")

// ErrDuplicate is returned when an insert or update violates a unique
// column such as genres.name or plays.title.
var ErrDuplicate = errors.New("duplicate value")

// ErrInvalidReference is returned when a foreign key points at a row
// that does not exist (e.g. linking a play to an unknown actor).
var ErrInvalidReference = errors.New("invalid reference")

// MySQL server error numbers used to classify write failures.
const (
    mysqlDuplicateEntry    = 1062
    mysqlNoReferencedRow   = 1452
    mysqlNoReferencedRowV1 = 1216
)

func mysqlErrNumber(err error) uint16 {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number
    }
    return 0
}

// IsDuplicate reports whether err is a unique-key violation.
func IsDuplicate(err error) bool {
    return mysqlErrNumber(err) == mysqlDuplicateEntry
}

// classify maps driver errors onto the package sentinels and leaves
// everything else untouched.
func classify(err error) error {
    switch mysqlErrNumber(err) {
    case mysqlDuplicateEntry:
        return ErrDuplicate
    case mysqlNoReferencedRow, mysqlNoReferencedRowV1:
        return ErrInvalidReference
    }
    return err
}

// affected turns a zero RowsAffected into ErrNotFound.
func affected(n int64, err error) error {
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}
