package domain

import "github.com/shopspring/decimal"

// StatsThresholdPercent — порог значимости снижения цены в процентных пунктах.
// Граница включительная: ровно 5% считается значимым снижением.
var StatsThresholdPercent = decimal.NewFromInt(5)

var hundred = decimal.NewFromInt(100)

// PercentageChange возвращает процент изменения цены относительно старой.
// Положительное значение — снижение, отрицательное — рост.
// Нулевая или отрицательная старая цена вырождается в 0, чтобы не порождать
// ложные «бесконечные скидки» на некорректных данных.
func PercentageChange(oldPrice, newPrice decimal.Decimal) decimal.Decimal {
	if oldPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	return oldPrice.Sub(newPrice).Div(oldPrice).Mul(hundred)
}

// ShouldRecordStats сообщает, достигло ли снижение цены порога значимости.
func ShouldRecordStats(oldPrice, newPrice decimal.Decimal) bool {
	return PercentageChange(oldPrice, newPrice).GreaterThanOrEqual(StatsThresholdPercent)
}

// ShouldNotify решает, уведомлять ли конкретного подписчика.
// Подписчик без желаемой цены уведомляется при любом снижении; подписчик с
// желаемой ценой — только когда новая цена достигла её или опустилась ниже.
func ShouldNotify(oldPrice, newPrice decimal.Decimal, desiredPrice *decimal.Decimal) bool {
	if !newPrice.LessThan(oldPrice) {
		return false
	}

	if desiredPrice == nil {
		return true
	}

	return newPrice.LessThanOrEqual(*desiredPrice)
}
