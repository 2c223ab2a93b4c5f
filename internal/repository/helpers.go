package repository

import (
	"database/sql"
	"errors"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError is deferred after BeginTx; it is a no-op once the tx committed.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if rErr := rb.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) && *err == nil {
		*err = rErr
	}
}

func chunks(n, size int, fn func(lo, hi int) error) error {
	for lo := 0; lo < n; lo += size {
		hi := min(lo+size, n)
		if err := fn(lo, hi); err != nil {
			return err
		}
	}
	return nil
}
