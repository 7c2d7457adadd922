package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

// Client — клиент каталога товаров (Product Advertising API).
// Все вызовы ограничены таймаутом из конфигурации; сетевые отказы и 5xx
// транслируются в e.ErrCatalogUnavailable и считаются временными.
type Client struct {
	httpClient *http.Client
	cfg        *cfg.CatalogCfg
	logger     logger.Logger
}

func NewClient(cfg *cfg.CatalogCfg, logger logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// itemPayload — ответ каталога по одному товару.
type itemPayload struct {
	ASIN         string          `json:"asin"`
	OfferID      string          `json:"offer_id"`
	Title        string          `json:"title"`
	FullPrice    decimal.Decimal `json:"full_price"`
	Price        decimal.Decimal `json:"price"`
	InStock      bool            `json:"in_stock"`
	Preorder     bool            `json:"preorder"`
	URL          string          `json:"url"`
	Image        string          `json:"image"`
	Category     string          `json:"category"`
	Format       string          `json:"format"`
	Genre        string          `json:"genre"`
	Publisher    string          `json:"publisher"`
	Contributors string          `json:"contributors"`
}

// Resolve извлекает идентификатор из сырой ссылки и запрашивает снимок товара.
// Сокращённые ссылки раскрываются следованием за редиректом; сам разбор
// канонической ссылки остаётся чистым шагом ExtractASIN.
func (c *Client) Resolve(ctx context.Context, rawURL string) (*domain.ProductSnapshot, error) {
	target := rawURL
	if IsShortLink(rawURL) {
		expanded, err := c.expandShortLink(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		target = expanded
	}

	asin, err := ExtractASIN(target)
	if err != nil {
		return nil, err
	}

	return c.Lookup(ctx, asin)
}

// Lookup возвращает свежий снимок товара по его идентификатору.
func (c *Client) Lookup(ctx context.Context, asin string) (*domain.ProductSnapshot, error) {
	endpoint := fmt.Sprintf("%s/items/%s?partnerTag=%s", c.cfg.BaseURL, asin, c.cfg.PartnerTag)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.AccessKey != "" {
		req.Header.Set("X-Access-Key", c.cfg.AccessKey)
		req.Header.Set("X-Secret-Key", c.cfg.SecretKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrCatalogUnavailable))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, e.Wrap(asin, e.ErrProductNotFound)
	case resp.StatusCode >= 500:
		return nil, e.Wrap(fmt.Sprintf("status %d", resp.StatusCode), e.ErrCatalogUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("unexpected catalog status %d", resp.StatusCode))
	}

	var item itemPayload
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if item.ASIN == "" {
		item.ASIN = asin
	}

	return &domain.ProductSnapshot{
		ID:           item.ASIN,
		OfferID:      item.OfferID,
		Title:        item.Title,
		FullPrice:    item.FullPrice,
		Price:        item.Price,
		InStock:      item.InStock,
		Preorder:     item.Preorder,
		URL:          item.URL,
		Image:        item.Image,
		Category:     item.Category,
		Format:       item.Format,
		Genre:        item.Genre,
		Publisher:    item.Publisher,
		Contributors: item.Contributors,
	}, nil
}

// expandShortLink раскрывает сокращённую ссылку, следуя за редиректами,
// и возвращает конечный адрес карточки товара.
func (c *Client) expandShortLink(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", e.Wrap(rawURL, e.ErrInvalidURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrCatalogUnavailable))
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()
	c.logger.Debugf("Short link expanded. from: %s, to: %s", rawURL, final)
	return final, nil
}
