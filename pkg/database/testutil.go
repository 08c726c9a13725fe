package database

import (
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

// NewMockPool creates a pgxmock pool that satisfies DBTX, so it can be passed
// to any repository constructor. Call ExpectationsWereMet() at the end of the
// test to verify all expectations were exercised.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool()
}
