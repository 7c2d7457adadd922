package amazon

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/itsManeka/gibipromo-sub001/pkg/e"
)

// asinPattern покрывает канонические формы карточки товара:
// /dp/ASIN, /gp/product/ASIN, /gp/aw/d/ASIN и устаревшую /ASIN/ASIN.
var asinPattern = regexp.MustCompile(`(?i)(?:/dp/|/gp/product/|/gp/aw/d/|/ASIN/)([A-Z0-9]{10})(?:[/?]|$)`)

// shortLinkHosts — сокращатели ссылок Amazon; такие ссылки требуют
// раскрытия редиректа перед извлечением идентификатора.
var shortLinkHosts = map[string]struct{}{
	"amzn.to":   {},
	"a.co":      {},
	"amzn.eu":   {},
	"amzn.asia": {},
}

// ExtractASIN извлекает идентификатор товара из канонической ссылки маркетплейса.
// Функция чистая и не ходит в сеть: сокращённые ссылки должны быть раскрыты
// заранее (см. Client.expandShortLink).
func ExtractASIN(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", e.Wrap(rawURL, e.ErrInvalidURL)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", e.Wrap(rawURL, e.ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, "amazon.") {
		return "", e.Wrap(rawURL, e.ErrInvalidURL)
	}

	m := asinPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", e.Wrap(rawURL, e.ErrInvalidURL)
	}

	return strings.ToUpper(m[1]), nil
}

// IsShortLink сообщает, указывает ли ссылка на сокращатель Amazon.
func IsShortLink(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}

	_, ok := shortLinkHosts[strings.ToLower(u.Hostname())]
	return ok
}
