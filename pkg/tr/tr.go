package tr

import (
	"context"

	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	txAny := ctx.Value("tx")
	tx, ok := txAny.(pgx.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}

// Manager открывает транзакции над пулом и прокидывает их в контекст,
// чтобы tx-aware репозитории выполнялись в одной транзакции.
type Manager struct {
	pool transaction.Transactional
}

func NewManager(pool transaction.Transactional) *Manager {
	return &Manager{pool: pool}
}

// WithinTransaction выполняет fn в транзакции. Ошибка fn откатывает
// транзакцию; успешное завершение коммитит.
func (m *Manager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, m.pool)
	if err != nil {
		return err
	}
	defer func() {
		if tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()

	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err := fn(ctx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
