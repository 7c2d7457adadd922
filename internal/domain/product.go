package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает отслеживаемый товар каталога.
// Цены хранятся как decimal, чтобы избежать накопления ошибок плавающей точки.
type Product struct {
	ID           string // идентификатор маркетплейса (ASIN)
	OfferID      string
	Title        string
	FullPrice    decimal.Decimal
	Price        decimal.Decimal
	OldPrice     *decimal.Decimal // цена до последнего обновления
	LowestPrice  decimal.Decimal  // исторический минимум, сбрасывается при возврате в продажу
	InStock      bool
	Preorder     bool
	URL          string
	Image        string
	Category     string
	Format       string
	Genre        string
	Publisher    string
	Contributors string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// ApplySnapshot накладывает свежие данные каталога на товар.
// OldPrice всегда получает предыдущее значение Price; LowestPrice поддерживается
// как бегущий минимум и переинициализируется текущей ценой при возврате товара
// в продажу после отсутствия на складе.
func (p *Product) ApplySnapshot(s *ProductSnapshot) {
	prev := p.Price
	p.OldPrice = &prev

	restocked := !p.InStock && s.InStock

	p.OfferID = s.OfferID
	p.Title = s.Title
	p.FullPrice = s.FullPrice
	p.Price = s.Price
	p.InStock = s.InStock
	p.Preorder = s.Preorder
	p.URL = s.URL
	p.Image = s.Image
	p.Category = s.Category
	p.Format = s.Format
	p.Genre = s.Genre
	p.Publisher = s.Publisher
	p.Contributors = s.Contributors

	if restocked || p.LowestPrice.IsZero() || s.Price.LessThan(p.LowestPrice) {
		p.LowestPrice = s.Price
	}
}

// ProductSnapshot — срез коммерческих данных товара, полученный из каталога.
type ProductSnapshot struct {
	ID           string
	OfferID      string
	Title        string
	FullPrice    decimal.Decimal
	Price        decimal.Decimal
	InStock      bool
	Preorder     bool
	URL          string
	Image        string
	Category     string
	Format       string
	Genre        string
	Publisher    string
	Contributors string
}

// NewProductFromSnapshot создаёт товар по первому успешному разрешению ссылки.
func NewProductFromSnapshot(s *ProductSnapshot) *Product {
	return &Product{
		ID:           s.ID,
		OfferID:      s.OfferID,
		Title:        s.Title,
		FullPrice:    s.FullPrice,
		Price:        s.Price,
		LowestPrice:  s.Price,
		InStock:      s.InStock,
		Preorder:     s.Preorder,
		URL:          s.URL,
		Image:        s.Image,
		Category:     s.Category,
		Format:       s.Format,
		Genre:        s.Genre,
		Publisher:    s.Publisher,
		Contributors: s.Contributors,
		CreatedAt:    time.Now().UTC(),
	}
}
