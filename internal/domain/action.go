package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionType — вид единицы работы в очереди действий.
type ActionType string

const (
	ActionAddProduct   ActionType = "ADD_PRODUCT"
	ActionCheckProduct ActionType = "CHECK_PRODUCT"
	ActionNotifyPrice  ActionType = "NOTIFY_PRICE"
)

// Action — единица работы. Для ADD_PRODUCT Value содержит ссылку на товар,
// для остальных типов — идентификатор товара (ASIN).
// Processed переходит из false в true ровно один раз и никогда не откатывается.
type Action struct {
	ID        string
	Type      ActionType
	Value     string
	UserID    string // заполняется только для ADD_PRODUCT
	Origin    string // поверхность, создавшая действие (api, bot, scheduler)
	CreatedAt time.Time
	Processed bool
}

func NewAction(actionType ActionType, value, userID, origin string) *Action {
	return &Action{
		ID:        uuid.NewString(),
		Type:      actionType,
		Value:     value,
		UserID:    userID,
		Origin:    origin,
		CreatedAt: time.Now().UTC(),
	}
}
