package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any)            {}
func (nopLogger) Infof(format string, args ...any)             {}
func (nopLogger) Warnf(format string, args ...any)             {}
func (nopLogger) Errorf(err error, format string, args ...any) {}

// --- моки хранилищ ---

type mockActionRepo struct {
	mu      sync.Mutex
	actions []*domain.Action
}

func (m *mockActionRepo) Enqueue(ctx context.Context, action *domain.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.actions {
		if a.ID == action.ID {
			return nil
		}
	}
	m.actions = append(m.actions, action)
	return nil
}

func (m *mockActionRepo) FindPendingByType(ctx context.Context, actionType domain.ActionType, limit int) ([]*domain.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Action
	for _, a := range m.actions {
		if a.Type == actionType && !a.Processed {
			out = append(out, a)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockActionRepo) MarkProcessed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.actions {
		if a.ID == id {
			a.Processed = true
		}
	}
	return nil
}

func (m *mockActionRepo) byType(actionType domain.ActionType) []*domain.Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Action
	for _, a := range m.actions {
		if a.Type == actionType {
			out = append(out, a)
		}
	}
	return out
}

type mockProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	upserts  int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: map[string]*domain.Product{}}
}

func (m *mockProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Upsert(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *product
	m.products[product.ID] = &cp
	m.upserts++
	return nil
}

func (m *mockProductRepo) NextBatchToCheck(ctx context.Context, cursor string, limit int) ([]*domain.Product, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Как настоящий репозиторий: выборка limit+1 строк, лишняя строка
	// сигнализирует о продолжении, иначе курсор заворачивается на начало
	var out []*domain.Product
	for _, id := range ids {
		if id <= cursor {
			continue
		}
		cp := *m.products[id]
		out = append(out, &cp)
		if len(out) == limit+1 {
			break
		}
	}

	if len(out) <= limit {
		return out, "", nil
	}
	return out[:limit], out[limit-1].ID, nil
}

type mockSubscriptionRepo struct {
	mu    sync.Mutex
	links map[string][]*domain.ProductUser // productID -> подписчики
}

func newMockSubscriptionRepo() *mockSubscriptionRepo {
	return &mockSubscriptionRepo{links: map[string][]*domain.ProductUser{}}
}

func (m *mockSubscriptionRepo) SubscribersOf(ctx context.Context, productID string) ([]*domain.ProductUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ProductUser(nil), m.links[productID]...), nil
}

func (m *mockSubscriptionRepo) Link(ctx context.Context, userID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.links[productID] {
		if s.UserID == userID {
			s.Enabled = true
			return nil
		}
	}
	m.links[productID] = append(m.links[productID], &domain.ProductUser{
		UserID:    userID,
		ProductID: productID,
		Enabled:   true,
	})
	return nil
}

func (m *mockSubscriptionRepo) add(sub *domain.ProductUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[sub.ProductID] = append(m.links[sub.ProductID], sub)
}

type mockStatsRepo struct {
	mu      sync.Mutex
	entries []*domain.ProductStats
}

func (m *mockStatsRepo) Append(ctx context.Context, stats *domain.ProductStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, stats)
	return nil
}

func (m *mockStatsRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type mockCursorRepo struct {
	mu     sync.Mutex
	cursor string
}

func (m *mockCursorRepo) Get(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, nil
}

func (m *mockCursorRepo) Set(ctx context.Context, cursor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = cursor
	return nil
}

type mockCacheRepo struct {
	mu    sync.Mutex
	infos map[string]*ProductInfo
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{infos: map[string]*ProductInfo{}}
}

func (m *mockCacheRepo) GetProduct(ctx context.Context, id string) (*ProductInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.infos[id], nil
}

func (m *mockCacheRepo) SetProduct(ctx context.Context, info *ProductInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos[info.ID] = info
	return nil
}

func (m *mockCacheRepo) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.infos, id)
	return nil
}

// --- моки внешних систем ---

type mockCatalog struct {
	resolveFn func(rawURL string) (*domain.ProductSnapshot, error)
	lookupFn  func(asin string) (*domain.ProductSnapshot, error)
}

func (m *mockCatalog) Resolve(ctx context.Context, rawURL string) (*domain.ProductSnapshot, error) {
	return m.resolveFn(rawURL)
}

func (m *mockCatalog) Lookup(ctx context.Context, asin string) (*domain.ProductSnapshot, error) {
	return m.lookupFn(asin)
}

type mockNotifier struct {
	mu    sync.Mutex
	sent  []*NotifyMessageReq
	fails map[string]error // userID -> ошибка доставки
}

func (m *mockNotifier) Send(ctx context.Context, req *NotifyMessageReq) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.fails[req.UserID]; ok {
		return err
	}
	m.sent = append(m.sent, req)
	return nil
}

func (m *mockNotifier) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, s := range m.sent {
		out = append(out, s.UserID)
	}
	return out
}

type mockMirror struct {
	err error
}

func (m *mockMirror) Mirror(ctx context.Context, productID, imageURL string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "products/" + productID + ".jpg", nil
}

// mockTxm выполняет функцию без настоящей транзакции.
type mockTxm struct{}

func (mockTxm) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- сборка ---

type fixture struct {
	uc       *MonitorUseCase
	actions  *mockActionRepo
	products *mockProductRepo
	subs     *mockSubscriptionRepo
	stats    *mockStatsRepo
	cursor   *mockCursorRepo
	cache    *mockCacheRepo
	catalog  *mockCatalog
	notifier *mockNotifier
}

func newFixture(catalog *mockCatalog) *fixture {
	f := &fixture{
		actions:  &mockActionRepo{},
		products: newMockProductRepo(),
		subs:     newMockSubscriptionRepo(),
		stats:    &mockStatsRepo{},
		cursor:   &mockCursorRepo{},
		cache:    newMockCacheRepo(),
		catalog:  catalog,
		notifier: &mockNotifier{},
	}

	f.uc = NewMonitorUC(
		f.actions,
		f.products,
		f.subs,
		f.stats,
		f.cursor,
		f.cache,
		f.catalog,
		f.notifier,
		&mockMirror{},
		mockTxm{},
		nopLogger{},
		&cfg.MonitorCfg{
			ActionBatchSize: 10,
			ScanBatchSize:   2,
			NotifyTimeout:   time.Second,
		},
	)
	return f
}

func testSnapshot(asin, price string, inStock bool) *domain.ProductSnapshot {
	return &domain.ProductSnapshot{
		ID:        asin,
		Title:     "Watchmen Edicao Definitiva",
		FullPrice: dec(price).Add(dec("20")),
		Price:     dec(price),
		InStock:   inStock,
		URL:       "https://www.amazon.com.br/dp/" + asin,
		Image:     "https://images.example/" + asin + ".jpg",
	}
}

// --- EnqueueAddProduct ---

func TestEnqueueAddProduct(t *testing.T) {
	f := newFixture(&mockCatalog{})

	action, err := f.uc.EnqueueAddProduct(context.Background(), NewEnqueueAddProductReq(
		"https://www.amazon.com.br/dp/B08N5WRWNW", "user-1", "api"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if action.Type != domain.ActionAddProduct {
		t.Fatalf("unexpected action type: %s", action.Type)
	}
	if action.Processed {
		t.Fatal("freshly enqueued action must be pending")
	}

	pending := f.actions.byType(domain.ActionAddProduct)
	if len(pending) != 1 {
		t.Fatalf("expected 1 enqueued action, got %d", len(pending))
	}
}

func TestEnqueueAddProductEmptyURL(t *testing.T) {
	f := newFixture(&mockCatalog{})

	_, err := f.uc.EnqueueAddProduct(context.Background(), NewEnqueueAddProductReq("   ", "user-1", "api"))
	if !errors.Is(err, e.ErrEmptyActionValue) {
		t.Fatalf("expected ErrEmptyActionValue, got %v", err)
	}

	if len(f.actions.byType(domain.ActionAddProduct)) != 0 {
		t.Fatal("invalid request must not enqueue anything")
	}
}

// --- ADD_PRODUCT ---

func TestHandleAddProductCreatesAndLinks(t *testing.T) {
	catalog := &mockCatalog{
		resolveFn: func(rawURL string) (*domain.ProductSnapshot, error) {
			return testSnapshot("B08N5WRWNW", "79.90", true), nil
		},
	}
	f := newFixture(catalog)

	action := domain.NewAction(domain.ActionAddProduct, "https://www.amazon.com.br/dp/B08N5WRWNW", "user-1", "api")
	if err := f.uc.AddProductHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product, err := f.products.Get(context.Background(), "B08N5WRWNW")
	if err != nil {
		t.Fatalf("product must be stored: %v", err)
	}
	if !product.Price.Equal(dec("79.90")) {
		t.Fatalf("unexpected price: %s", product.Price)
	}
	if product.Image != "products/B08N5WRWNW.jpg" {
		t.Fatalf("mirrored image key expected, got %s", product.Image)
	}

	subs, _ := f.subs.SubscribersOf(context.Background(), "B08N5WRWNW")
	if len(subs) != 1 || subs[0].UserID != "user-1" {
		t.Fatalf("expected one subscription for user-1, got %v", subs)
	}
}

func TestHandleAddProductIdempotentResolution(t *testing.T) {
	catalog := &mockCatalog{
		resolveFn: func(rawURL string) (*domain.ProductSnapshot, error) {
			return testSnapshot("B08N5WRWNW", "79.90", true), nil
		},
	}
	f := newFixture(catalog)

	first := domain.NewAction(domain.ActionAddProduct, "https://www.amazon.com.br/dp/B08N5WRWNW", "user-1", "api")
	second := domain.NewAction(domain.ActionAddProduct, "https://www.amazon.com.br/dp/B08N5WRWNW?tag=x", "user-2", "bot")

	handler := f.uc.AddProductHandler()
	if err := handler.Handle(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := handler.Handle(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Один товар, две подписки
	if len(f.products.products) != 1 {
		t.Fatalf("expected a single product row, got %d", len(f.products.products))
	}
	subs, _ := f.subs.SubscribersOf(context.Background(), "B08N5WRWNW")
	if len(subs) != 2 {
		t.Fatalf("expected two subscriptions, got %d", len(subs))
	}
}

func TestHandleAddProductSwallowsPermanentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"invalid url", e.Wrap("bad link", e.ErrInvalidURL)},
		{"product not found", e.Wrap("B000000000", e.ErrProductNotFound)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &mockCatalog{
				resolveFn: func(rawURL string) (*domain.ProductSnapshot, error) {
					return nil, tt.err
				},
			}
			f := newFixture(catalog)

			action := domain.NewAction(domain.ActionAddProduct, "whatever", "user-1", "api")
			if err := f.uc.AddProductHandler().Handle(context.Background(), action); err != nil {
				t.Fatalf("permanent input error must be swallowed, got %v", err)
			}
			if len(f.products.products) != 0 {
				t.Fatal("nothing must be stored for an unresolvable link")
			}
		})
	}
}

func TestHandleAddProductPropagatesTransientErrors(t *testing.T) {
	catalog := &mockCatalog{
		resolveFn: func(rawURL string) (*domain.ProductSnapshot, error) {
			return nil, e.Wrap("status 503", e.ErrCatalogUnavailable)
		},
	}
	f := newFixture(catalog)

	action := domain.NewAction(domain.ActionAddProduct, "https://www.amazon.com.br/dp/B08N5WRWNW", "user-1", "api")
	if err := f.uc.AddProductHandler().Handle(context.Background(), action); err == nil {
		t.Fatal("transient catalog error must propagate so the action is retried")
	}
}

func TestHandleAddProductMirrorFailureIsBestEffort(t *testing.T) {
	catalog := &mockCatalog{
		resolveFn: func(rawURL string) (*domain.ProductSnapshot, error) {
			return testSnapshot("B08N5WRWNW", "79.90", true), nil
		},
	}
	f := newFixture(catalog)
	f.uc.imageMirror = &mockMirror{err: errors.New("cdn timeout")}

	action := domain.NewAction(domain.ActionAddProduct, "https://www.amazon.com.br/dp/B08N5WRWNW", "user-1", "api")
	if err := f.uc.AddProductHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("mirror failure must not fail the action: %v", err)
	}

	product, err := f.products.Get(context.Background(), "B08N5WRWNW")
	if err != nil {
		t.Fatalf("product must be stored despite mirror failure: %v", err)
	}
	if product.Image != "https://images.example/B08N5WRWNW.jpg" {
		t.Fatalf("original image url expected as fallback, got %s", product.Image)
	}
}

// --- CHECK_PRODUCT ---

func seedProduct(f *fixture, asin, price string, inStock bool) {
	f.products.Upsert(context.Background(), domain.NewProductFromSnapshot(testSnapshot(asin, price, inStock)))
}

func TestHandleCheckProductSignificantDropEnqueuesNotify(t *testing.T) {
	catalog := &mockCatalog{
		lookupFn: func(asin string) (*domain.ProductSnapshot, error) {
			return testSnapshot(asin, "95", true), nil
		},
	}
	f := newFixture(catalog)
	seedProduct(f, "B08N5WRWNW", "100", true)

	action := domain.NewAction(domain.ActionCheckProduct, "B08N5WRWNW", "", "scheduler")
	if err := f.uc.CheckProductHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product, _ := f.products.Get(context.Background(), "B08N5WRWNW")
	if !product.Price.Equal(dec("95")) {
		t.Fatalf("price must be updated, got %s", product.Price)
	}
	if product.OldPrice == nil || !product.OldPrice.Equal(dec("100")) {
		t.Fatalf("old price must hold the pre-check value, got %v", product.OldPrice)
	}

	notifies := f.actions.byType(domain.ActionNotifyPrice)
	if len(notifies) != 1 {
		t.Fatalf("expected one NOTIFY_PRICE action, got %d", len(notifies))
	}
	if notifies[0].Value != "B08N5WRWNW" {
		t.Fatalf("notify must reference the product, got %s", notifies[0].Value)
	}
}

func TestHandleCheckProductMinorDropStaysSilent(t *testing.T) {
	catalog := &mockCatalog{
		lookupFn: func(asin string) (*domain.ProductSnapshot, error) {
			return testSnapshot(asin, "96", true), nil
		},
	}
	f := newFixture(catalog)
	seedProduct(f, "B08N5WRWNW", "100", true)

	action := domain.NewAction(domain.ActionCheckProduct, "B08N5WRWNW", "", "scheduler")
	if err := f.uc.CheckProductHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	product, _ := f.products.Get(context.Background(), "B08N5WRWNW")
	if !product.Price.Equal(dec("96")) {
		t.Fatalf("price must still be updated, got %s", product.Price)
	}
	if len(f.actions.byType(domain.ActionNotifyPrice)) != 0 {
		t.Fatal("a sub-threshold drop must not enqueue a notification")
	}
}

func TestHandleCheckProductOutOfStockStaysSilent(t *testing.T) {
	catalog := &mockCatalog{
		lookupFn: func(asin string) (*domain.ProductSnapshot, error) {
			return testSnapshot(asin, "50", false), nil
		},
	}
	f := newFixture(catalog)
	seedProduct(f, "B08N5WRWNW", "100", true)

	action := domain.NewAction(domain.ActionCheckProduct, "B08N5WRWNW", "", "scheduler")
	if err := f.uc.CheckProductHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.actions.byType(domain.ActionNotifyPrice)) != 0 {
		t.Fatal("a drop on an out-of-stock product must not enqueue a notification")
	}
}

func TestHandleCheckProductUnknownProductSkipped(t *testing.T) {
	f := newFixture(&mockCatalog{})

	action := domain.NewAction(domain.ActionCheckProduct, "B000000000", "", "scheduler")
	if err := f.uc.CheckProductHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("check for an unknown product must be swallowed, got %v", err)
	}
}

func TestHandleCheckProductVanishedFromCatalogSkipped(t *testing.T) {
	catalog := &mockCatalog{
		lookupFn: func(asin string) (*domain.ProductSnapshot, error) {
			return nil, e.Wrap(asin, e.ErrProductNotFound)
		},
	}
	f := newFixture(catalog)
	seedProduct(f, "B08N5WRWNW", "100", true)

	action := domain.NewAction(domain.ActionCheckProduct, "B08N5WRWNW", "", "scheduler")
	if err := f.uc.CheckProductHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("vanished product must be swallowed, got %v", err)
	}
}

func TestHandleCheckProductRepeatedCheckDoesNotDuplicateStats(t *testing.T) {
	catalog := &mockCatalog{
		lookupFn: func(asin string) (*domain.ProductSnapshot, error) {
			return testSnapshot(asin, "95", true), nil
		},
	}
	f := newFixture(catalog)
	seedProduct(f, "B08N5WRWNW", "100", true)

	handler := f.uc.CheckProductHandler()
	action := domain.NewAction(domain.ActionCheckProduct, "B08N5WRWNW", "", "scheduler")
	if err := handler.Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Повторная проверка той же цены: OldPrice становится 95, снижение исчезает
	if err := handler.Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(f.actions.byType(domain.ActionNotifyPrice)); got != 1 {
		t.Fatalf("re-check at the same price must not enqueue another notify, got %d", got)
	}
}

// --- NOTIFY_PRICE ---

func seedNotifiable(f *fixture, asin, oldPrice, newPrice string) {
	product := domain.NewProductFromSnapshot(testSnapshot(asin, oldPrice, true))
	product.ApplySnapshot(testSnapshot(asin, newPrice, true))
	f.products.Upsert(context.Background(), product)
}

func TestHandleNotifyPriceFanOut(t *testing.T) {
	f := newFixture(&mockCatalog{})
	seedNotifiable(f, "B08N5WRWNW", "100", "90")

	f.subs.add(&domain.ProductUser{UserID: "any-drop", ProductID: "B08N5WRWNW", Enabled: true})
	f.subs.add(&domain.ProductUser{UserID: "wants-50", ProductID: "B08N5WRWNW", DesiredPrice: decPtr("50"), Enabled: true})
	f.subs.add(&domain.ProductUser{UserID: "wants-95", ProductID: "B08N5WRWNW", DesiredPrice: decPtr("95"), Enabled: true})
	f.subs.add(&domain.ProductUser{UserID: "disabled", ProductID: "B08N5WRWNW", Enabled: false})

	action := domain.NewAction(domain.ActionNotifyPrice, "B08N5WRWNW", "", "scheduler")
	if err := f.uc.NotifyPriceHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := f.notifier.sentTo()
	seen := map[string]bool{}
	for _, u := range sent {
		seen[u] = true
	}

	if !seen["any-drop"] {
		t.Fatal("subscriber without a desired price must be notified on any drop")
	}
	if !seen["wants-95"] {
		t.Fatal("subscriber whose desired price is reached must be notified")
	}
	if seen["wants-50"] {
		t.Fatal("subscriber whose desired price is not reached must be skipped")
	}
	if seen["disabled"] {
		t.Fatal("disabled subscription must be skipped")
	}
}

func TestHandleNotifyPriceRecordsStatsAtThreshold(t *testing.T) {
	f := newFixture(&mockCatalog{})
	seedNotifiable(f, "B08N5WRWNW", "100", "95")

	action := domain.NewAction(domain.ActionNotifyPrice, "B08N5WRWNW", "", "scheduler")
	if err := f.uc.NotifyPriceHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.stats.count() != 1 {
		t.Fatalf("a 5%% drop must produce a stats record, got %d", f.stats.count())
	}

	entry := f.stats.entries[0]
	if !entry.PercentageChange.Equal(dec("5")) {
		t.Fatalf("unexpected percentage change: %s", entry.PercentageChange)
	}
}

func TestHandleNotifyPriceDeliveryFailureDoesNotBlockOthers(t *testing.T) {
	f := newFixture(&mockCatalog{})
	seedNotifiable(f, "B08N5WRWNW", "100", "90")

	f.subs.add(&domain.ProductUser{UserID: "lucky", ProductID: "B08N5WRWNW", Enabled: true})
	f.subs.add(&domain.ProductUser{UserID: "unlucky", ProductID: "B08N5WRWNW", Enabled: true})
	f.subs.add(&domain.ProductUser{UserID: "also-lucky", ProductID: "B08N5WRWNW", Enabled: true})
	f.notifier.fails = map[string]error{"unlucky": errors.New("broker unavailable")}

	action := domain.NewAction(domain.ActionNotifyPrice, "B08N5WRWNW", "", "scheduler")
	if err := f.uc.NotifyPriceHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("partial delivery failure must not fail the action: %v", err)
	}

	sent := f.notifier.sentTo()
	if len(sent) != 2 {
		t.Fatalf("expected 2 delivered notifications, got %d", len(sent))
	}
}

func TestHandleNotifyPriceWithoutHistoryIsNoop(t *testing.T) {
	f := newFixture(&mockCatalog{})
	seedProduct(f, "B08N5WRWNW", "100", true) // OldPrice == nil

	f.subs.add(&domain.ProductUser{UserID: "user-1", ProductID: "B08N5WRWNW", Enabled: true})

	action := domain.NewAction(domain.ActionNotifyPrice, "B08N5WRWNW", "", "scheduler")
	if err := f.uc.NotifyPriceHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.notifier.sentTo()) != 0 {
		t.Fatal("product without price history must not notify anyone")
	}
	if f.stats.count() != 0 {
		t.Fatal("product without price history must not record stats")
	}
}

func TestHandleNotifyPriceUnknownProductSkipped(t *testing.T) {
	f := newFixture(&mockCatalog{})

	action := domain.NewAction(domain.ActionNotifyPrice, "B000000000", "", "scheduler")
	if err := f.uc.NotifyPriceHandler().Handle(context.Background(), action); err != nil {
		t.Fatalf("notify for an unknown product must be swallowed, got %v", err)
	}
}

// --- ScheduleChecks ---

func TestScheduleChecksSweepsWholeCatalog(t *testing.T) {
	f := newFixture(&mockCatalog{})
	asins := []string{"B000000001", "B000000002", "B000000003", "B000000004", "B000000005"}
	for _, asin := range asins {
		seedProduct(f, asin, "100", true)
	}

	// Размер пачки 2, товаров 5: полный обход за ceil(5/2) = 3 прохода
	for i := 0; i < 3; i++ {
		if err := f.uc.ScheduleChecks(context.Background()); err != nil {
			t.Fatalf("pass %d failed: %v", i, err)
		}
	}

	checks := f.actions.byType(domain.ActionCheckProduct)
	scheduled := map[string]bool{}
	for _, c := range checks {
		scheduled[c.Value] = true
		if c.Origin != "scheduler" {
			t.Fatalf("scheduled check must carry the scheduler origin, got %s", c.Origin)
		}
	}

	for _, asin := range asins {
		if !scheduled[asin] {
			t.Fatalf("product %s was never scheduled", asin)
		}
	}

	// Последний проход вернул неполную пачку: курсор сброшен на начало каталога
	cursor, _ := f.cursor.Get(context.Background())
	if cursor != "" {
		t.Fatalf("cursor must wrap around after the sweep, got %q", cursor)
	}
}

func TestScheduleChecksPersistsCursorBetweenPasses(t *testing.T) {
	f := newFixture(&mockCatalog{})
	for _, asin := range []string{"B000000001", "B000000002", "B000000003"} {
		seedProduct(f, asin, "100", true)
	}

	if err := f.uc.ScheduleChecks(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cursor, _ := f.cursor.Get(context.Background())
	if cursor != "B000000002" {
		t.Fatalf("cursor must point at the last scheduled product, got %q", cursor)
	}

	if err := f.uc.ScheduleChecks(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checks := f.actions.byType(domain.ActionCheckProduct)
	if len(checks) != 3 {
		t.Fatalf("two passes over 3 products must schedule 3 checks, got %d", len(checks))
	}
}

func TestScheduleChecksExactMultipleWrapsWithoutEmptyPass(t *testing.T) {
	f := newFixture(&mockCatalog{})
	asins := []string{"B000000001", "B000000002", "B000000003", "B000000004"}
	for _, asin := range asins {
		seedProduct(f, asin, "100", true)
	}

	// Каталог кратен размеру пачки (4 товара, пачка 2): полный обход
	// укладывается ровно в ceil(4/2) = 2 прохода, без холостого третьего
	for i := 0; i < 2; i++ {
		if err := f.uc.ScheduleChecks(context.Background()); err != nil {
			t.Fatalf("pass %d failed: %v", i, err)
		}
	}

	checks := f.actions.byType(domain.ActionCheckProduct)
	if len(checks) != 4 {
		t.Fatalf("two passes must schedule all 4 products, got %d checks", len(checks))
	}

	cursor, _ := f.cursor.Get(context.Background())
	if cursor != "" {
		t.Fatalf("final full batch must wrap the cursor immediately, got %q", cursor)
	}
}

func TestScheduleChecksEmptyCatalog(t *testing.T) {
	f := newFixture(&mockCatalog{})

	if err := f.uc.ScheduleChecks(context.Background()); err != nil {
		t.Fatalf("empty catalog must not fail: %v", err)
	}
	if len(f.actions.byType(domain.ActionCheckProduct)) != 0 {
		t.Fatal("nothing to schedule on an empty catalog")
	}
}
