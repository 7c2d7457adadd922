package pgdb

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/internal/repository/pgdb/converter"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// StatsRepo реализует append-only журнал значимых изменений цены.
// Записи никогда не изменяются и не удаляются этим пайплайном.
type StatsRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductStatsConverter
}

func NewStatsRepo(pool *pgxpool.Pool, conv converter.ProductStatsConverter) *StatsRepo {
	return &StatsRepo{
		pool: pool,
		conv: conv,
	}
}

// Append добавляет запись статистики. Повторная вставка того же id — no-op,
// чтобы повторная обработка действия не падала на конфликте ключа.
func (s *StatsRepo) Append(ctx context.Context, stats *domain.ProductStats) error {
	model := s.conv.ToModel(stats)
	query := `
		INSERT INTO product_stats (id, product_id, price, old_price, percentage_change, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`

	_, err := q(ctx, s.pool).Exec(ctx, query,
		model.ID,
		model.ProductID,
		model.Price,
		model.OldPrice,
		model.PercentageChange,
		model.CreatedAt,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
