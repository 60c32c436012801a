package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/doormarket/internal/model"
)

// HTTPClient разрешает товары через внешний сервис каталога.
type HTTPClient struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

// HTTPOption настраивает HTTPClient.
type HTTPOption func(*retryablehttp.Client)

// WithRetry задаёт число повторов и минимальную паузу между ними.
func WithRetry(retries int, waitMin time.Duration) HTTPOption {
	return func(c *retryablehttp.Client) {
		c.RetryMax = retries
		c.RetryWaitMin = waitMin
		if c.RetryWaitMax < waitMin {
			c.RetryWaitMax = waitMin
		}
	}
}

type itemResponse struct {
	ID       int64           `json:"id"`
	Kind     string          `json:"kind"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}

// NewHTTPClient создаёт клиент сервиса каталога по указанному адресу.
// Ответы 429 и 5xx повторяются с учётом заголовка Retry-After.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	rc.HTTPClient.Timeout = 5 * time.Second

	for _, opt := range opts {
		opt(rc)
	}

	return &HTTPClient{
		baseURL:    base,
		httpClient: rc,
	}
}

// Resolve реализует Lookup.
func (c *HTTPClient) Resolve(ctx context.Context, kind model.ItemKind, id int64) (*model.CatalogItem, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown item kind %q: %w", kind, model.ErrItemNotFound)
	}

	url := fmt.Sprintf("%s/api/catalog/%s/%d", c.baseURL, kind, id)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %d: %w", kind, id, model.ErrItemNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result itemResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &model.CatalogItem{
		Kind:      kind,
		ID:        id,
		Name:      result.Name,
		UnitPrice: result.Price,
		ImageURL:  result.ImageURL,
	}, nil
}
