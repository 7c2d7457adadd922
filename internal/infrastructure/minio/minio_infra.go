package minio

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/internal/infrastructure"
	"github.com/itsManeka/gibipromo-sub001/internal/usecase"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
)

// maxImageSize ограничивает скачиваемое изображение (5 МБ),
// чтобы битый или подменённый CDN-ответ не раздувал память.
const maxImageSize = 5 << 20

// mirrorExtensions — расширения, под которыми может лежать зеркальная копия.
var mirrorExtensions = []string{"jpg", "png", "webp"}

// MinioInfrastructure зеркалирует изображения товаров из CDN маркетплейса
// во внутренний бакет. Повторное зеркалирование того же товара перезаписывает
// объект под тем же ключом, поэтому операция идемпотентна.
type MinioInfrastructure struct {
	imageRepo  usecase.ImageRepository
	httpClient *http.Client
	cfg        *cfg.MinIOCfg
	logger     logger.Logger
}

func NewMinioInfrastructure(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger) *MinioInfrastructure {
	return &MinioInfrastructure{
		imageRepo:  imageRepo,
		httpClient: &http.Client{Timeout: cfg.DownloadTimeout},
		cfg:        cfg,
		logger:     logger,
	}
}

// Mirror скачивает изображение и кладёт его в бакет под детерминированным
// ключом products/<asin>.<ext>. Возвращает ключ объекта.
func (m *MinioInfrastructure) Mirror(ctx context.Context, productID, imageURL string) (string, error) {
	const op = "MinioInfrastructure.Mirror"

	data, mimeType, err := m.download(ctx, imageURL)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	ext, err := infrastructure.GetExtensionFromMIME(mimeType)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	key := fmt.Sprintf("products/%s.%s", productID, ext)
	if _, err := m.imageRepo.Upload(ctx, key, data, mimeType); err != nil {
		return "", e.Wrap(op, err)
	}

	// Смена MIME-типа у CDN меняет ключ объекта; копии под другими
	// расширениями больше никем не адресуются и подчищаются здесь
	for _, other := range mirrorExtensions {
		if other == ext {
			continue
		}
		staleKey := fmt.Sprintf("products/%s.%s", productID, other)
		if err := m.imageRepo.Delete(ctx, staleKey); err != nil {
			m.logger.Warnf("Stale mirror cleanup failed. key: %s, error: %v", staleKey, err)
		}
	}

	m.logger.Debugf("Image mirrored. product_id: %s, key: %s, size: %d", productID, key, len(data))
	return key, nil
}

func (m *MinioInfrastructure) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected image status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", err
	}

	return data, resp.Header.Get("Content-Type"), nil
}
