package postgres

import (
	"context"
	"database/sql"
)

// UnitOfWork runs a group of statements in one transaction
type UnitOfWork struct {
	db *sql.DB
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Execute commits when fn succeeds and rolls back on error or panic
func (u *UnitOfWork) Execute(ctx context.Context, fn func(q SQLQuerier) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
