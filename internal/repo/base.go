package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by domain repositories. The handle is either the pool or
// an open transaction.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind returns a Base that issues statements on tx.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}
