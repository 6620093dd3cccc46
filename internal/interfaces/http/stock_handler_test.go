package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-service/internal/application/dto"
	"github.com/jhoicas/stock-service/internal/application/inventory"
	"github.com/jhoicas/stock-service/internal/domain"
	"github.com/jhoicas/stock-service/internal/domain/entity"
	"github.com/jhoicas/stock-service/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-service/internal/interfaces/http"
)

type stubCatalog map[string]int64

func (c stubCatalog) Resolve(_ context.Context, sku string) (*entity.CatalogProduct, error) {
	id, ok := c[sku]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &entity.CatalogProduct{ID: id, SKU: sku}, nil
}

func newStockApp(t *testing.T, secret string) (*fiber.App, *memory.StockRepository) {
	t.Helper()
	repo := memory.NewStockRepository()
	catalog := stubCatalog{"AP-IPH-001": 1, "AP-IPH-002": 2}
	uc := inventory.NewStockUseCase(repo, catalog, nil, nil)
	app := apphttp.NewServer(apphttp.ServerConfig{AppName: "stock-service-test"}, apphttp.RouterDeps{
		Stock:     uc,
		JWTSecret: secret,
	})
	return app, repo
}

func send(t *testing.T, app *fiber.App, method, path, body, auth string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStockHandler_RegisterAndGet(t *testing.T) {
	app, _ := newStockApp(t, "")

	resp := send(t, app, http.MethodPost, "/api/stock", `{"sku":"AP-IPH-001","quantity":10}`, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.StockMutationResponse](t, resp)
	assert.Equal(t, "AP-IPH-001", created.SKU)
	assert.Equal(t, 10, created.Quantity)

	resp = send(t, app, http.MethodGet, "/api/stock/AP-IPH-001", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[dto.StockResponse](t, resp)
	assert.Equal(t, int64(1), view.ProductID)
	assert.Equal(t, 10, view.Quantity)
}

func TestStockHandler_RegisterErrors(t *testing.T) {
	app, repo := newStockApp(t, "")
	repo.Seed(1, "AP-IPH-001", 1)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"duplicado", `{"sku":"AP-IPH-001","quantity":1}`, http.StatusConflict, "DUPLICATE"},
		{"sku inválido", `{"sku":"XX","quantity":1}`, http.StatusBadRequest, "VALIDATION"},
		{"cantidad ausente", `{"sku":"AP-IPH-002"}`, http.StatusBadRequest, "VALIDATION"},
		{"producto desconocido", `{"sku":"AP-IPH-003","quantity":1}`, http.StatusNotFound, "NOT_FOUND"},
		{"json roto", `{"sku":`, http.StatusBadRequest, "INVALID_BODY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := send(t, app, http.MethodPost, "/api/stock", tc.body, "")
			assert.Equal(t, tc.status, resp.StatusCode)
			body := decode[dto.ErrorResponse](t, resp)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestStockHandler_UpdateQuantity(t *testing.T) {
	app, repo := newStockApp(t, "")
	repo.Seed(1, "AP-IPH-001", 1)

	resp := send(t, app, http.MethodPut, "/api/stock/AP-IPH-001?quantity=25", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.StockMutationResponse](t, resp)
	assert.Equal(t, 25, out.Quantity)

	for _, q := range []string{"0", "-3", "abc", ""} {
		resp = send(t, app, http.MethodPut, "/api/stock/AP-IPH-001?quantity="+q, "", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "quantity=%q", q)
		resp.Body.Close()
	}

	resp = send(t, app, http.MethodPut, "/api/stock/AP-IPH-001?quantity=2147483648", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)

	resp = send(t, app, http.MethodPost, "/api/stock/restore", `{"items":[{"product_id":1,"quantity":9223372036854775807}]}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)

	resp = send(t, app, http.MethodPut, "/api/stock/AP-IPH-009?quantity=5", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestStockHandler_DeductAndRestore(t *testing.T) {
	app, repo := newStockApp(t, "")
	repo.Seed(1, "AP-IPH-001", 5)
	repo.Seed(2, "AP-IPH-002", 3)

	resp := send(t, app, http.MethodPost, "/api/stock/deduct",
		`{"items":[{"product_id":1,"quantity":2},{"product_id":2,"quantity":5}]}`, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	batch := decode[dto.StockBatchResponse](t, resp)
	assert.False(t, batch.Success)
	assert.Equal(t, "stock insuficiente para el producto ID: 2", batch.Message)

	resp = send(t, app, http.MethodPost, "/api/stock/deduct",
		`{"items":[{"product_id":1,"quantity":2},{"product_id":2,"quantity":3}]}`, "")
	batch = decode[dto.StockBatchResponse](t, resp)
	assert.True(t, batch.Success)

	resp = send(t, app, http.MethodPost, "/api/stock/restore", `{"items":[{"product_id":2,"quantity":1}]}`, "")
	batch = decode[dto.StockBatchResponse](t, resp)
	assert.True(t, batch.Success)

	rec, _ := repo.FindByProductID(context.Background(), 1)
	assert.Equal(t, 3, rec.Quantity)
	rec, _ = repo.FindByProductID(context.Background(), 2)
	assert.Equal(t, 1, rec.Quantity)
}

func TestStockHandler_BatchValidation(t *testing.T) {
	app, _ := newStockApp(t, "")

	for _, body := range []string{
		`{"items":[]}`,
		`{}`,
		`{"items":[{"product_id":1,"quantity":0}]}`,
		`{"items":[{"product_id":0,"quantity":1}]}`,
	} {
		for _, path := range []string{"/api/stock/deduct", "/api/stock/restore"} {
			resp := send(t, app, http.MethodPost, path, body, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s %s", path, body)
			resp.Body.Close()
		}
	}
}

func TestStockHandler_ListAndDelete(t *testing.T) {
	app, repo := newStockApp(t, "")
	repo.Seed(1, "AP-IPH-001", 5)
	repo.Seed(2, "AP-IPH-002", 3)

	resp := send(t, app, http.MethodGet, "/api/stock", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]dto.StockResponse](t, resp)
	require.Len(t, list, 2)

	resp = send(t, app, http.MethodDelete, "/api/stock/AP-IPH-001", "", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = send(t, app, http.MethodDelete, "/api/stock/AP-IPH-001", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = send(t, app, http.MethodGet, "/api/stock/AP-IPH-001", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestStockHandler_Health(t *testing.T) {
	app, _ := newStockApp(t, "")
	resp := send(t, app, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestStockHandler_RolesWhenAuthEnabled(t *testing.T) {
	app, repo := newStockApp(t, testJWTSecret)
	repo.Seed(1, "AP-IPH-001", 5)

	resp := send(t, app, http.MethodGet, "/api/stock", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = send(t, app, http.MethodGet, "/api/stock", "", tokenForRole(t, apphttp.RoleViewer))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = send(t, app, http.MethodPost, "/api/stock/deduct",
		`{"items":[{"product_id":1,"quantity":1}]}`, tokenForRole(t, apphttp.RoleViewer))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = send(t, app, http.MethodPost, "/api/stock/deduct",
		`{"items":[{"product_id":1,"quantity":1}]}`, tokenForRole(t, apphttp.RoleCheckout))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = send(t, app, http.MethodDelete, "/api/stock/AP-IPH-001", "", tokenForRole(t, apphttp.RoleCheckout))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = send(t, app, http.MethodDelete, "/api/stock/AP-IPH-001", "", tokenForRole(t, apphttp.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}
