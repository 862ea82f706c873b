package dbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/ecopoints/internal/common"
)

// UniqueViolationCode is the Postgres SQLSTATE for unique_violation.
const UniqueViolationCode = "23505"

// NumericOutOfRangeCode is the Postgres SQLSTATE for numeric_value_out_of_range.
const NumericOutOfRangeCode = "22003"

// AsPgError unwraps err into a *pgconn.PgError if it holds one.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	pe, ok := AsPgError(err)
	return ok && pe.Code == UniqueViolationCode
}

// IsNumericOutOfRange reports whether err is a Postgres numeric overflow,
// such as a bigint column pushed past its maximum.
func IsNumericOutOfRange(err error) bool {
	pe, ok := AsPgError(err)
	return ok && pe.Code == NumericOutOfRangeCode
}

// IsUnavailable reports whether err means the store could not be reached or
// did not answer in time.
func IsUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var ce *pgconn.ConnectError
	return errors.As(err, &ce)
}

// Wrap annotates a driver error with the repository error taxonomy.
// Unique violations become common.ErrDuplicateKey, numeric overflow becomes
// common.ErrInvalidInput and connectivity problems become
// common.ErrStoreUnavailable. Anything else is wrapped as "db error".
func Wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", common.ErrDuplicateKey, err)
	case IsNumericOutOfRange(err):
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	case IsUnavailable(err):
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
