package usecase

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/internal/domain"
)

// ActionRepository — персистентная очередь действий.
// Enqueue участвует в транзакции вызывающей стороны, если она есть в контексте.
type ActionRepository interface {
	Enqueue(ctx context.Context, action *domain.Action) error
	FindPendingByType(ctx context.Context, actionType domain.ActionType, limit int) ([]*domain.Action, error)
	MarkProcessed(ctx context.Context, id string) error
}

type ProductRepository interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, product *domain.Product) error
	// NextBatchToCheck возвращает очередную пачку товаров и новый курсор.
	// Пустой курсор означает начало каталога; по исчерпании скан заворачивается
	// на начало, поэтому каждый товар рано или поздно попадает в проверку.
	NextBatchToCheck(ctx context.Context, cursor string, limit int) ([]*domain.Product, string, error)
}

type SubscriptionRepository interface {
	SubscribersOf(ctx context.Context, productID string) ([]*domain.ProductUser, error)
	// Link идемпотентно создаёт (или включает обратно) подписку пользователя на товар.
	Link(ctx context.Context, userID, productID string) error
}

type StatsRepository interface {
	Append(ctx context.Context, stats *domain.ProductStats) error
}

// CursorRepository хранит курсор сканирования каталога вне памяти процесса,
// чтобы перезапуск не начинал обход с начала.
type CursorRepository interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, cursor string) error
}

// ImageRepository хранит зеркалированные изображения товаров в объектном хранилище.
type ImageRepository interface {
	Upload(ctx context.Context, key string, data []byte, mimeType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// CacheRepository — кэш снимков товара для рендера уведомлений.
type CacheRepository interface {
	GetProduct(ctx context.Context, id string) (*ProductInfo, error)
	SetProduct(ctx context.Context, info *ProductInfo) error
	DeleteProduct(ctx context.Context, id string) error
}
