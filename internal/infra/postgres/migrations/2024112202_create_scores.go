package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed 0002_create_scores.sql
var createScoresSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execSplit(ctx, db, createScoresSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execSplit(ctx, db, `DROP TABLE IF EXISTS user_stats;
--bun:split
DROP TABLE IF EXISTS scores`)
		},
	)
}
