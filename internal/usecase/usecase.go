package usecase

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/internal/domain"
)

// ActionHandler обрабатывает одно действие очереди.
// Возврат ошибки оставляет действие в статусе pending для повтора на следующем
// проходе; необратимые ошибки входных данных обработчик гасит сам.
type ActionHandler interface {
	Handle(ctx context.Context, action *domain.Action) error
}

type MonitorUC interface {
	EnqueueAddProduct(ctx context.Context, req *EnqueueAddProductReq) (*domain.Action, error)
	ScheduleChecks(ctx context.Context) error
	AddProductHandler() ActionHandler
	CheckProductHandler() ActionHandler
	NotifyPriceHandler() ActionHandler
}
