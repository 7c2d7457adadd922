package usecase

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/internal/domain"
)

// CatalogResolver разрешает ссылки маркетплейса в снимки товара.
type CatalogResolver interface {
	// Resolve принимает сырую ссылку (возможно, сокращённую) и возвращает снимок товара.
	Resolve(ctx context.Context, rawURL string) (*domain.ProductSnapshot, error)
	// Lookup возвращает свежий снимок по известному идентификатору товара.
	Lookup(ctx context.Context, asin string) (*domain.ProductSnapshot, error)
}

// NotificationSender доставляет уведомление одному получателю.
// Семантика fire-and-forget: повторная доставка того же события допустима.
type NotificationSender interface {
	Send(ctx context.Context, req *NotifyMessageReq) error
}

// ImageMirror копирует изображение товара во внутреннее хранилище
// и возвращает ключ объекта.
type ImageMirror interface {
	Mirror(ctx context.Context, productID, imageURL string) (string, error)
}
