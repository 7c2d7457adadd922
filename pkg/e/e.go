package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки разбора ссылок и каталога
	ErrInvalidURL         = fmt.Errorf("invalid marketplace url")
	ErrProductNotFound    = fmt.Errorf("product not found in catalog")
	ErrCatalogUnavailable = fmt.Errorf("catalog upstream unavailable")

	// Ошибки очереди действий
	ErrUnknownActionType = fmt.Errorf("unknown action type")
	ErrEmptyActionValue  = fmt.Errorf("action value is empty")

	// Ошибки зеркалирования изображений
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
