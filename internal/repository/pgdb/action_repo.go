package pgdb

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/internal/repository/pgdb/converter"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ActionRepo реализует персистентную очередь действий поверх PostgreSQL.
// Очередь не использует эксклюзивный захват: один и тот же pending-элемент
// может быть выдан двум конкурентным проходам, корректность обеспечивается
// идемпотентностью обработчиков.
type ActionRepo struct {
	pool *pgxpool.Pool
	conv converter.ActionConverter
}

func NewActionRepo(pool *pgxpool.Pool, conv converter.ActionConverter) *ActionRepo {
	return &ActionRepo{
		pool: pool,
		conv: conv,
	}
}

// Enqueue добавляет действие в очередь. Участвует в транзакции вызывающей
// стороны, если она есть в контексте; повторная вставка того же id — no-op.
func (a *ActionRepo) Enqueue(ctx context.Context, action *domain.Action) error {
	model := a.conv.ToModel(action)
	query := `
		INSERT INTO actions (id, type, value, user_id, origin, created_at, processed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING;
	`

	_, err := q(ctx, a.pool).Exec(ctx, query,
		model.ID,
		model.Type,
		model.Value,
		model.UserID,
		model.Origin,
		model.CreatedAt,
		model.Processed,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// FindPendingByType возвращает пачку необработанных действий, старые — первыми.
func (a *ActionRepo) FindPendingByType(ctx context.Context, actionType domain.ActionType, limit int) ([]*domain.Action, error) {
	query := `
		SELECT id, type, value, user_id, origin, created_at, processed
		FROM actions
		WHERE type = $1 AND processed = false
		ORDER BY created_at
		LIMIT $2;
	`

	rows, err := a.pool.Query(ctx, query, string(actionType), limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.ActionModel
	for rows.Next() {
		var model converter.ActionModel
		if err := rows.Scan(
			&model.ID,
			&model.Type,
			&model.Value,
			&model.UserID,
			&model.Origin,
			&model.CreatedAt,
			&model.Processed,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, &model)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return a.conv.ToArrEntity(models), nil
}

// MarkProcessed переводит действие в состояние processed ровно один раз.
// Уже обработанное действие не трогается: переход false -> true необратим.
func (a *ActionRepo) MarkProcessed(ctx context.Context, id string) error {
	query := `
		UPDATE actions
		SET processed = true
		WHERE id = $1 AND processed = false;
	`

	result, err := a.pool.Exec(ctx, query, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if result.RowsAffected() == 0 {
		// Действие уже обработано другим проходом или не существует
		return nil
	}

	return nil
}
