package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionModel представляет запись таблицы actions в PostgreSQL.
type ActionModel struct {
	ID        string    `db:"id"`
	Type      string    `db:"type"`
	Value     string    `db:"value"`
	UserID    string    `db:"user_id"`
	Origin    string    `db:"origin"`
	CreatedAt time.Time `db:"created_at"`
	Processed bool      `db:"processed"`
}

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID           string              `db:"id"`
	OfferID      string              `db:"offer_id"`
	Title        string              `db:"title"`
	FullPrice    decimal.Decimal     `db:"full_price"`
	Price        decimal.Decimal     `db:"price"`
	OldPrice     decimal.NullDecimal `db:"old_price"`
	LowestPrice  decimal.Decimal     `db:"lowest_price"`
	InStock      bool                `db:"in_stock"`
	Preorder     bool                `db:"preorder"`
	URL          string              `db:"url"`
	Image        string              `db:"image"`
	Category     string              `db:"category"`
	Format       string              `db:"format"`
	Genre        string              `db:"genre"`
	Publisher    string              `db:"publisher"`
	Contributors string              `db:"contributors"`
	CreatedAt    time.Time           `db:"created_at"`
	UpdatedAt    *time.Time          `db:"updated_at"`
}

// ProductUserModel представляет запись таблицы product_users в PostgreSQL.
type ProductUserModel struct {
	UserID       string              `db:"user_id"`
	ProductID    string              `db:"product_id"`
	DesiredPrice decimal.NullDecimal `db:"desired_price"`
	Enabled      bool                `db:"enabled"`
}

// ProductStatsModel представляет запись таблицы product_stats в PostgreSQL.
type ProductStatsModel struct {
	ID               string          `db:"id"`
	ProductID        string          `db:"product_id"`
	Price            decimal.Decimal `db:"price"`
	OldPrice         decimal.Decimal `db:"old_price"`
	PercentageChange decimal.Decimal `db:"percentage_change"`
	CreatedAt        time.Time       `db:"created_at"`
}
