package usecase

import (
	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/shopspring/decimal"
)

// MONITOR USECASE

// EnqueueAddProductReq — запрос на постановку ссылки в очередь отслеживания.
type EnqueueAddProductReq struct {
	URL    string
	UserID string
	Origin string // поверхность-источник: api, bot, extension
}

// NotifyMessageReq — уведомление о снижении цены для одного получателя.
type NotifyMessageReq struct {
	UserID           string
	ProductID        string
	Title            string
	URL              string
	Image            string
	OldPrice         decimal.Decimal
	NewPrice         decimal.Decimal
	PercentageChange decimal.Decimal
}

// REPOSITORIES

// ProductInfo — DTO со снимком товара для кэша и рендера уведомлений.
type ProductInfo struct {
	ID       string
	Title    string
	URL      string
	Image    string
	Price    decimal.Decimal
	OldPrice *decimal.Decimal
}

// MAPPERS

func NewEnqueueAddProductReq(url, userID, origin string) *EnqueueAddProductReq {
	return &EnqueueAddProductReq{
		URL:    url,
		UserID: userID,
		Origin: origin,
	}
}

func NewNotifyMessageReq(userID string, info *ProductInfo, oldPrice, newPrice, percentageChange decimal.Decimal) *NotifyMessageReq {
	return &NotifyMessageReq{
		UserID:           userID,
		ProductID:        info.ID,
		Title:            info.Title,
		URL:              info.URL,
		Image:            info.Image,
		OldPrice:         oldPrice,
		NewPrice:         newPrice,
		PercentageChange: percentageChange,
	}
}

func NewProductInfo(product *domain.Product) *ProductInfo {
	return &ProductInfo{
		ID:       product.ID,
		Title:    product.Title,
		URL:      product.URL,
		Image:    product.Image,
		Price:    product.Price,
		OldPrice: product.OldPrice,
	}
}
