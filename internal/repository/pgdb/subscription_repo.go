package pgdb

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/internal/repository/pgdb/converter"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// SubscriptionRepo читает подписки пользователей на товары.
// Таблица принадлежит внешнему контуру (API, бот); пайплайн лишь читает
// подписчиков для рассылки и идемпотентно включает связь при добавлении товара.
type SubscriptionRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductUserConverter
}

func NewSubscriptionRepo(pool *pgxpool.Pool, conv converter.ProductUserConverter) *SubscriptionRepo {
	return &SubscriptionRepo{
		pool: pool,
		conv: conv,
	}
}

// SubscribersOf возвращает активных подписчиков товара.
func (s *SubscriptionRepo) SubscribersOf(ctx context.Context, productID string) ([]*domain.ProductUser, error) {
	query := `
		SELECT user_id, product_id, desired_price, enabled
		FROM product_users
		WHERE product_id = $1 AND enabled = true;
	`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.ProductUserModel
	for rows.Next() {
		var model converter.ProductUserModel
		if err := rows.Scan(&model.UserID, &model.ProductID, &model.DesiredPrice, &model.Enabled); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, &model)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return s.conv.ToArrEntity(models), nil
}

// Link идемпотентно создаёт подписку или включает её обратно.
// Желаемую цену пайплайн не трогает — ею управляет внешний контур.
func (s *SubscriptionRepo) Link(ctx context.Context, userID, productID string) error {
	query := `
		INSERT INTO product_users (user_id, product_id, enabled)
		VALUES ($1, $2, true)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET enabled = true;
	`

	if _, err := q(ctx, s.pool).Exec(ctx, query, userID, productID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
