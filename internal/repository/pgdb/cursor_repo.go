package pgdb

import (
	"context"
	"errors"

	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CursorRepo хранит курсор сканирования каталога в единственной строке
// таблицы monitor_cursor. Персистентный курсор переживает перезапуск
// процесса, поэтому обход каталога продолжается с прерванного места.
type CursorRepo struct {
	pool *pgxpool.Pool
}

func NewCursorRepo(pool *pgxpool.Pool) *CursorRepo {
	return &CursorRepo{pool: pool}
}

// Get возвращает сохранённый курсор; отсутствие строки — начало каталога.
func (c *CursorRepo) Get(ctx context.Context) (string, error) {
	query := `SELECT cursor FROM monitor_cursor WHERE id = 1;`

	var cursor string
	err := c.pool.QueryRow(ctx, query).Scan(&cursor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return cursor, nil
}

// Set сохраняет курсор для следующего прохода планировщика.
func (c *CursorRepo) Set(ctx context.Context, cursor string) error {
	query := `
		INSERT INTO monitor_cursor (id, cursor, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id)
		DO UPDATE SET cursor = EXCLUDED.cursor, updated_at = NOW();
	`

	if _, err := c.pool.Exec(ctx, query, cursor); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
