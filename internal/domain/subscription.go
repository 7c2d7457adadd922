package domain

import "github.com/shopspring/decimal"

// ProductUser связывает пользователя с отслеживаемым товаром.
// DesiredPrice — необязательный порог: подписчик без порога уведомляется при
// любом снижении цены, подписчик с порогом — когда цена его достигла.
type ProductUser struct {
	UserID       string
	ProductID    string
	DesiredPrice *decimal.Decimal
	Enabled      bool
}
