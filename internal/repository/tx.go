package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type txKey struct{}

// WithTx returns a context whose repository calls run inside tx.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// conn picks the transaction carried by ctx, falling back to db.
func conn(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx), nil
	}
	if db == nil {
		return nil, ErrDBNotReady
	}
	return db.WithContext(ctx), nil
}

// Transactor runs fn inside a database transaction. Repositories used with the
// context passed to fn join that transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.db == nil {
		return ErrDBNotReady
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}
