package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/internal/usecase"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/itsManeka/gibipromo-sub001/pkg/jitter"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
)

// poller — один независимый цикл опроса очереди для конкретного типа действий.
type poller struct {
	actionType domain.ActionType
	handler    usecase.ActionHandler
	interval   time.Duration
}

// Dispatcher опрашивает очередь действий по каждому зарегистрированному типу
// на собственном интервале и маршрутизирует действия в обработчики.
// Действие помечается обработанным только после успешного завершения
// обработчика; ошибка оставляет его в очереди до следующего прохода.
// Эксклюзивного захвата нет: допускается повторная обработка, корректность
// обеспечивают идемпотентные обработчики.
type Dispatcher struct {
	repo      usecase.ActionRepository
	logger    logger.Logger
	batchSize int
	pollers   []poller
	stop      chan struct{}
	wg        sync.WaitGroup
}

func NewDispatcher(repo usecase.ActionRepository, logger logger.Logger, batchSize int) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		logger:    logger,
		batchSize: batchSize,
		stop:      make(chan struct{}),
	}
}

// Register добавляет цикл опроса для типа действий.
// Тип вне известного набора отклоняется: опрос по несуществующему типу
// молча крутился бы над вечно пустой выборкой.
// Вызывается до Start; после запуска состав пуллеров не меняется.
func (d *Dispatcher) Register(actionType domain.ActionType, handler usecase.ActionHandler, interval time.Duration) error {
	switch actionType {
	case domain.ActionAddProduct, domain.ActionCheckProduct, domain.ActionNotifyPrice:
	default:
		return e.Wrap(string(actionType), e.ErrUnknownActionType)
	}

	d.pollers = append(d.pollers, poller{
		actionType: actionType,
		handler:    handler,
		interval:   interval,
	})

	return nil
}

func (d *Dispatcher) Start(ctx context.Context) {
	for _, p := range d.pollers {
		d.wg.Add(1)
		go func(p poller) {
			defer d.wg.Done()
			d.run(ctx, p)
		}(p)
	}
}

func (d *Dispatcher) Stop() {
	close(d.stop)
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, p poller) {
	// Обрабатываем накопившийся бэклог при старте
	d.logger.Infof("Draining pending actions on startup. type: %s", p.actionType)
	d.drain(ctx, p)

	// Джиттер рассинхронизирует пуллеры, стартующие одновременно
	timer := time.NewTimer(jitter.Duration(p.interval, jitter.DefaultJitter))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Infof("Poller stopped by context cancellation. type: %s", p.actionType)
			return
		case <-d.stop:
			d.logger.Infof("Poller stopped. type: %s", p.actionType)
			return
		case <-timer.C:
			d.drain(ctx, p)
			timer.Reset(jitter.Duration(p.interval, jitter.DefaultJitter))
		}
	}
}

// drain вычерпывает очередь данного типа пачками, пока проход продвигается.
// Пачка из одних отказов не даёт прогресса и ждёт следующего тика, а не
// крутится вхолостую, добивая отказавший внешний сервис.
func (d *Dispatcher) drain(ctx context.Context, p poller) {
	for {
		hasMore, err := d.processBatch(ctx, p)
		if err != nil {
			d.logger.Warnf("Batch processing failed. type: %s, error: %v", p.actionType, err)
			return
		}
		if !hasMore {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		default:
		}
	}
}

// processBatch обрабатывает одну пачку действий, старые — первыми.
// Каждое действие помечается обработанным отдельно, чтобы падение посреди
// пачки не теряло уже завершённую работу. hasMore=true только при полной
// пачке с хотя бы одним успехом: упавшие действия повторяются на следующем
// проходе таймера, а не внутри текущего.
func (d *Dispatcher) processBatch(ctx context.Context, p poller) (bool, error) {
	actions, err := d.repo.FindPendingByType(ctx, p.actionType, d.batchSize)
	if err != nil {
		return false, err
	}

	if len(actions) == 0 {
		return false, nil
	}

	processed := 0
	for _, action := range actions {
		if err := d.handleOne(ctx, p.handler, action); err != nil {
			d.logger.Warnf("Action left pending for retry. action_id: %s, type: %s, error: %v",
				action.ID, action.Type, err)
			continue
		}

		if err := d.repo.MarkProcessed(ctx, action.ID); err != nil {
			d.logger.Warnf("Mark processed failed. action_id: %s, error: %v", action.ID, err)
			continue
		}

		processed++
	}

	return len(actions) == d.batchSize && processed > 0, nil
}

// handleOne изолирует обработку одного действия: паника обработчика не должна
// уронить пуллер и сорвать остаток пачки.
func (d *Dispatcher) handleOne(ctx context.Context, handler usecase.ActionHandler, action *domain.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.Wrap("handler panic", fmt.Errorf("%v", r))
		}
	}()

	return handler.Handle(ctx, action)
}
