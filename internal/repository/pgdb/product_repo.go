package pgdb

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/internal/repository/pgdb/converter"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `
	id, offer_id, title, full_price, price, old_price, lowest_price,
	in_stock, preorder, url, image, category, format, genre, publisher,
	contributors, created_at, updated_at`

// ProductRepo реализует репозиторий отслеживаемых товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Get возвращает товар по идентификатору маркетплейса.
// Отсутствие записи отдаётся как обёрнутый pgx.ErrNoRows.
func (p *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1;`

	model, err := p.scanOne(q(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

// Upsert идемпотентно создаёт или обновляет товар по его идентификатору.
// Повторное разрешение того же ASIN обновляет запись, а не создаёт дубликат.
func (p *ProductRepo) Upsert(ctx context.Context, product *domain.Product) error {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (
			id, offer_id, title, full_price, price, old_price, lowest_price,
			in_stock, preorder, url, image, category, format, genre, publisher,
			contributors, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id)
		DO UPDATE SET
			offer_id = EXCLUDED.offer_id,
			title = EXCLUDED.title,
			full_price = EXCLUDED.full_price,
			price = EXCLUDED.price,
			old_price = EXCLUDED.old_price,
			lowest_price = EXCLUDED.lowest_price,
			in_stock = EXCLUDED.in_stock,
			preorder = EXCLUDED.preorder,
			url = EXCLUDED.url,
			image = EXCLUDED.image,
			category = EXCLUDED.category,
			format = EXCLUDED.format,
			genre = EXCLUDED.genre,
			publisher = EXCLUDED.publisher,
			contributors = EXCLUDED.contributors,
			updated_at = NOW();
	`

	_, err := q(ctx, p.pool).Exec(ctx, query,
		model.ID,
		model.OfferID,
		model.Title,
		model.FullPrice,
		model.Price,
		model.OldPrice,
		model.LowestPrice,
		model.InStock,
		model.Preorder,
		model.URL,
		model.Image,
		model.Category,
		model.Format,
		model.Genre,
		model.Publisher,
		model.Contributors,
		model.CreatedAt,
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// NextBatchToCheck возвращает очередную пачку товаров после курсора.
// Выборка берёт на одну строку больше лимита: лишняя строка означает, что за
// пачкой есть продолжение, и курсором становится последний выданный
// идентификатор. Без неё каталог исчерпан и возвращается пустой курсор —
// следующий проход начнёт с начала без холостого пустого прохода, даже когда
// размер каталога кратен размеру пачки.
func (p *ProductRepo) NextBatchToCheck(ctx context.Context, cursor string, limit int) ([]*domain.Product, string, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id > $1
		ORDER BY id
		LIMIT $2;
	`

	rows, err := p.pool.Query(ctx, query, cursor, limit+1)
	if err != nil {
		return nil, "", e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.ProductModel
	for rows.Next() {
		model, err := p.scanOne(rows)
		if err != nil {
			return nil, "", e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, model)
	}

	if err := rows.Err(); err != nil {
		return nil, "", e.Wrap(whereami.WhereAmI(), err)
	}

	next := ""
	if limit > 0 && len(models) > limit {
		models = models[:limit]
		next = models[limit-1].ID
	}

	return p.conv.ToArrEntity(models), next, nil
}

// scanRow покрывает pgx.Row и pgx.Rows.
type scanRow interface {
	Scan(dest ...any) error
}

func (p *ProductRepo) scanOne(row scanRow) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID,
		&model.OfferID,
		&model.Title,
		&model.FullPrice,
		&model.Price,
		&model.OldPrice,
		&model.LowestPrice,
		&model.InStock,
		&model.Preorder,
		&model.URL,
		&model.Image,
		&model.Category,
		&model.Format,
		&model.Genre,
		&model.Publisher,
		&model.Contributors,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
