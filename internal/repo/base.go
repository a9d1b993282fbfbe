// Package repo holds the gorm plumbing shared by storefront repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the connection a repository issues queries on.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection scoped to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}
