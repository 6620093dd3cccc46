package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jhoicas/stock-service/internal/application/inventory"
	"github.com/jhoicas/stock-service/internal/domain"
	"github.com/jhoicas/stock-service/internal/domain/entity"
)

// Verificar en tiempo de compilación que HTTPClient implementa CatalogLookup.
var _ inventory.CatalogLookup = (*HTTPClient)(nil)

const productBySKUPath = "/api/produtos/sku/"

// HTTPClient adaptador del catálogo de productos sobre su API REST.
// Una sola llamada por resolución, sin reintentos; el timeout acota la espera.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// productPayload respuesta del catálogo para GET /api/produtos/sku/{sku}.
type productPayload struct {
	ID    int64           `json:"idProduto"`
	Name  string          `json:"nomeProduto"`
	SKU   string          `json:"skuProduto"`
	Price decimal.Decimal `json:"precoProduto"`
}

// NewHTTPClient construye el cliente. El transporte propaga el contexto de traza en los headers.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Resolve busca el producto por SKU. 404 se traduce a domain.ErrProductNotFound.
func (c *HTTPClient) Resolve(ctx context.Context, sku string) (*entity.CatalogProduct, error) {
	endpoint := c.baseURL + productBySKUPath + url.PathEscape(sku)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catálogo: construir request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catálogo: llamada HTTP: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("catálogo: HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var p productPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("catálogo: decodificar respuesta: %w", err)
	}
	return &entity.CatalogProduct{
		ID:    p.ID,
		Name:  p.Name,
		SKU:   p.SKU,
		Price: p.Price,
	}, nil
}
