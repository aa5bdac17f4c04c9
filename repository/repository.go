package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert hits a unique index.
	ErrDuplicate = errors.New("duplicate record")
)

// Repository wraps the gorm handle shared by the catalog and cart stores.
// Inside Transaction the same type is handed out bound to the open tx.
type Repository struct {
	db       *gorm.DB
	lockRows bool
}

// New returns a repository. When lockRows is true, reads made for a stock
// check use SELECT ... FOR UPDATE on databases that support it.
func New(db *gorm.DB, lockRows bool) *Repository {
	return &Repository{db: db, lockRows: lockRows}
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn inside a single database transaction. Any error
// returned by fn rolls the whole unit back.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, lockRows: r.lockRows})
	})
}

// forCheck applies row locking to reads whose result feeds a stock check.
func (r *Repository) forCheck(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.lockRows && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "SQLSTATE 23505"):
		return ErrDuplicate
	default:
		return err
	}
}
