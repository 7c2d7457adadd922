package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
	"github.com/jackc/pgx/v5"
)

// originScheduler — источник действий, порождаемых самим пайплайном.
const originScheduler = "scheduler"

// Transactor выполняет функцию в транзакции хранилища; транзакция
// передаётся tx-aware репозиториям через контекст.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MonitorUseCase реализует бизнес-логику пайплайна мониторинга цен:
// постановку действий в очередь и обработчики всех трёх типов действий.
type MonitorUseCase struct {
	actionRepo       ActionRepository
	productRepo      ProductRepository
	subscriptionRepo SubscriptionRepository
	statsRepo        StatsRepository
	cursorRepo       CursorRepository
	cacheRepo        CacheRepository
	catalog          CatalogResolver
	notifier         NotificationSender
	imageMirror      ImageMirror
	txm              Transactor
	logger           logger.Logger
	cfg              *cfg.MonitorCfg
}

func NewMonitorUC(
	actionRepo ActionRepository,
	productRepo ProductRepository,
	subscriptionRepo SubscriptionRepository,
	statsRepo StatsRepository,
	cursorRepo CursorRepository,
	cacheRepo CacheRepository,
	catalog CatalogResolver,
	notifier NotificationSender,
	imageMirror ImageMirror,
	txm Transactor,
	logger logger.Logger,
	cfg *cfg.MonitorCfg,
) *MonitorUseCase {
	return &MonitorUseCase{
		actionRepo:       actionRepo,
		productRepo:      productRepo,
		subscriptionRepo: subscriptionRepo,
		statsRepo:        statsRepo,
		cursorRepo:       cursorRepo,
		cacheRepo:        cacheRepo,
		catalog:          catalog,
		notifier:         notifier,
		imageMirror:      imageMirror,
		txm:              txm,
		logger:           logger,
		cfg:              cfg,
	}
}

// handlerFunc адаптирует метод к интерфейсу ActionHandler.
type handlerFunc func(ctx context.Context, action *domain.Action) error

func (f handlerFunc) Handle(ctx context.Context, action *domain.Action) error {
	return f(ctx, action)
}

func (m *MonitorUseCase) AddProductHandler() ActionHandler {
	return handlerFunc(m.handleAddProduct)
}

func (m *MonitorUseCase) CheckProductHandler() ActionHandler {
	return handlerFunc(m.handleCheckProduct)
}

func (m *MonitorUseCase) NotifyPriceHandler() ActionHandler {
	return handlerFunc(m.handleNotifyPrice)
}

// EnqueueAddProduct ставит ссылку в очередь отслеживания от имени пользователя.
// Вызывается внешними поверхностями (API, бот); сам разбор ссылки откладывается
// до обработки действия, чтобы не блокировать вызывающую сторону сетевым вызовом.
func (m *MonitorUseCase) EnqueueAddProduct(ctx context.Context, req *EnqueueAddProductReq) (*domain.Action, error) {
	const op = "MonitorUseCase.EnqueueAddProduct"

	if strings.TrimSpace(req.URL) == "" {
		return nil, e.Wrap(op, e.ErrEmptyActionValue)
	}

	action := domain.NewAction(domain.ActionAddProduct, req.URL, req.UserID, req.Origin)
	if err := m.actionRepo.Enqueue(ctx, action); err != nil {
		return nil, e.Wrap(op, err)
	}

	return action, nil
}

// handleAddProduct разрешает ссылку в товар и подписывает на него пользователя.
// Повторное разрешение того же товара обновляет существующую запись, а не
// создаёт дубликат. Необратимые ошибки входных данных (битая ссылка, товар
// отсутствует в каталоге) логируются и гасятся, чтобы не зациклить очередь.
func (m *MonitorUseCase) handleAddProduct(ctx context.Context, action *domain.Action) error {
	const op = "MonitorUseCase.handleAddProduct"

	snapshot, err := m.catalog.Resolve(ctx, action.Value)
	if err != nil {
		if errors.Is(err, e.ErrInvalidURL) || errors.Is(err, e.ErrProductNotFound) {
			m.logger.Warnf("Unresolvable product link, skipping. action_id: %s, url: %s, error: %v",
				action.ID, action.Value, err)
			return nil
		}
		return e.Wrap(op, err)
	}

	existing, err := m.productRepo.Get(ctx, snapshot.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return e.Wrap(op, err)
	}

	var product *domain.Product
	if existing != nil {
		existing.ApplySnapshot(snapshot)
		product = existing
	} else {
		product = domain.NewProductFromSnapshot(snapshot)
	}

	// Зеркалирование изображения — best-effort: CDN маркетплейса недоступен —
	// товар всё равно ставится на отслеживание с исходной ссылкой.
	if snapshot.Image != "" {
		if key, mErr := m.imageMirror.Mirror(ctx, snapshot.ID, snapshot.Image); mErr != nil {
			m.logger.Warnf("Image mirror failed. product_id: %s, error: %v", snapshot.ID, e.Wrap(op, mErr))
		} else {
			product.Image = key
		}
	}

	err = m.txm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := m.productRepo.Upsert(txCtx, product); err != nil {
			return err
		}

		if action.UserID != "" {
			return m.subscriptionRepo.Link(txCtx, action.UserID, product.ID)
		}

		return nil
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	m.invalidateCache(ctx, product.ID)
	return nil
}

// handleCheckProduct перечитывает цену товара из каталога и при значимом
// снижении ставит NOTIFY_PRICE в очередь в одной транзакции с обновлением
// товара, чтобы падение между ними не потеряло уведомление.
func (m *MonitorUseCase) handleCheckProduct(ctx context.Context, action *domain.Action) error {
	const op = "MonitorUseCase.handleCheckProduct"

	product, err := m.productRepo.Get(ctx, action.Value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			m.logger.Warnf("Check for unknown product, skipping. product_id: %s", action.Value)
			return nil
		}
		return e.Wrap(op, err)
	}

	snapshot, err := m.catalog.Lookup(ctx, product.ID)
	if err != nil {
		if errors.Is(err, e.ErrProductNotFound) {
			m.logger.Warnf("Product vanished from catalog, skipping check. product_id: %s", product.ID)
			return nil
		}
		return e.Wrap(op, err)
	}

	oldPrice := product.Price
	product.ApplySnapshot(snapshot)

	// Уведомление имеет смысл только для товара в продаже: снижение цены
	// недоступной позиции не даёт подписчику ничего купить.
	significant := snapshot.InStock && domain.ShouldRecordStats(oldPrice, product.Price)

	err = m.txm.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := m.productRepo.Upsert(txCtx, product); err != nil {
			return err
		}

		if significant {
			notify := domain.NewAction(domain.ActionNotifyPrice, product.ID, "", originScheduler)
			return m.actionRepo.Enqueue(txCtx, notify)
		}

		return nil
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	m.invalidateCache(ctx, product.ID)
	return nil
}

// handleNotifyPrice записывает статистику снижения и рассылает уведомления
// всем подходящим подписчикам. Отказ доставки одному получателю не блокирует
// остальных; недоставленное уведомление не повторяется синхронно.
func (m *MonitorUseCase) handleNotifyPrice(ctx context.Context, action *domain.Action) error {
	const op = "MonitorUseCase.handleNotifyPrice"

	info, err := m.getProductInfo(ctx, action.Value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			m.logger.Warnf("Notify for unknown product, skipping. product_id: %s", action.Value)
			return nil
		}
		return e.Wrap(op, err)
	}

	if info.OldPrice == nil {
		// Товар ещё ни разу не обновлялся — уведомлять не о чем.
		return nil
	}

	oldPrice := *info.OldPrice
	change := domain.PercentageChange(oldPrice, info.Price)

	if domain.ShouldRecordStats(oldPrice, info.Price) {
		stats := domain.NewProductStats(info.ID, info.Price, oldPrice, change)
		if err := m.statsRepo.Append(ctx, stats); err != nil {
			return e.Wrap(op, err)
		}
	}

	subscribers, err := m.subscriptionRepo.SubscribersOf(ctx, info.ID)
	if err != nil {
		return e.Wrap(op, err)
	}

	for _, sub := range subscribers {
		if !sub.Enabled || !domain.ShouldNotify(oldPrice, info.Price, sub.DesiredPrice) {
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, m.cfg.NotifyTimeout)
		err := m.notifier.Send(sendCtx, NewNotifyMessageReq(sub.UserID, info, oldPrice, info.Price, change))
		cancel()

		if err != nil {
			m.logger.Warnf("Notification delivery failed. user_id: %s, product_id: %s, error: %v",
				sub.UserID, info.ID, e.Wrap(op, err))
		}
	}

	return nil
}

// ScheduleChecks выбирает очередную пачку товаров по персистентному курсору
// и ставит по одному CHECK_PRODUCT на каждый. Курсор сохраняется после
// постановки, поэтому перезапуск процесса продолжает обход с того же места.
func (m *MonitorUseCase) ScheduleChecks(ctx context.Context) error {
	const op = "MonitorUseCase.ScheduleChecks"

	cursor, err := m.cursorRepo.Get(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	products, next, err := m.productRepo.NextBatchToCheck(ctx, cursor, m.cfg.ScanBatchSize)
	if err != nil {
		return e.Wrap(op, err)
	}

	for _, product := range products {
		check := domain.NewAction(domain.ActionCheckProduct, product.ID, "", originScheduler)
		if err := m.actionRepo.Enqueue(ctx, check); err != nil {
			return e.Wrap(op, err)
		}
	}

	if err := m.cursorRepo.Set(ctx, next); err != nil {
		return e.Wrap(op, err)
	}

	m.logger.Debugf("Scheduled checks. count: %d, cursor: %q -> %q", len(products), cursor, next)
	return nil
}

// getProductInfo возвращает снимок товара из кэша, при промахе — из БД
// с фоновым прогревом кэша.
func (m *MonitorUseCase) getProductInfo(ctx context.Context, id string) (*ProductInfo, error) {
	if info, err := m.cacheRepo.GetProduct(ctx, id); err == nil && info != nil {
		return info, nil
	}

	product, err := m.productRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	info := NewProductInfo(product)

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := m.cacheRepo.SetProduct(bgCtx, info); err != nil {
			m.logger.Warnf("Failed to cache product in background: %v", err)
		}
	}()

	return info, nil
}

// invalidateCache удаляет устаревший снимок товара из кэша, логируя отказ.
func (m *MonitorUseCase) invalidateCache(ctx context.Context, id string) {
	if err := m.cacheRepo.DeleteProduct(ctx, id); err != nil {
		m.logger.Warnf("Cache invalidation failed. product_id: %s, error: %v", id, err)
	}
}
