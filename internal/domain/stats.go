package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStats — неизменяемая историческая запись значимого изменения цены.
// Запись создаётся только когда процент снижения достиг порога значимости.
type ProductStats struct {
	ID               string
	ProductID        string
	Price            decimal.Decimal
	OldPrice         decimal.Decimal
	PercentageChange decimal.Decimal
	CreatedAt        time.Time
}

func NewProductStats(productID string, price, oldPrice, percentageChange decimal.Decimal) *ProductStats {
	return &ProductStats{
		ID:               uuid.NewString(),
		ProductID:        productID,
		Price:            price,
		OldPrice:         oldPrice,
		PercentageChange: percentageChange,
		CreatedAt:        time.Now().UTC(),
	}
}
