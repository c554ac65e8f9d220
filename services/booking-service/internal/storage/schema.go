package storage

import (
	"context"
	_ "embed"

	"github.com/learnhub/seminarbook/libs/db"
)

//go:embed schema.sql
var Schema string

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *db.Pool) error {
	return pool.ApplySchema(ctx, Schema)
}
