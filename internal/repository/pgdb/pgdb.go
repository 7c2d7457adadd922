package pgdb

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier — общий срез возможностей pgx.Tx и pgxpool.Pool.
// Позволяет репозиториям прозрачно участвовать в транзакции вызывающей
// стороны, когда она присутствует в контексте.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q возвращает транзакцию из контекста, если она есть, иначе пул.
func q(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx, err := tr.TxFromCtx(ctx); err == nil {
		return tx
	}
	return pool
}
