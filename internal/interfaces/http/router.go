package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-service/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock     *inventory.StockUseCase
	JWTSecret string // vacío = rutas de stock sin autenticación
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	stockHandler := NewStockHandler(deps.Stock)

	// authorize devuelve la cadena de middlewares para los roles dados; sin secreto no protege.
	authorize := func(roles ...string) []fiber.Handler {
		if deps.JWTSecret == "" {
			return nil
		}
		return []fiber.Handler{AuthMiddleware(deps.JWTSecret), RequireRole(roles...)}
	}
	route := func(handlers []fiber.Handler, h fiber.Handler) []fiber.Handler {
		return append(handlers, h)
	}

	stock := app.Group("/api/stock")

	// Escritura administrativa
	stock.Post("/", route(authorize(RoleAdmin), stockHandler.Register)...)
	stock.Put("/:sku", route(authorize(RoleAdmin), stockHandler.UpdateQuantity)...)
	stock.Delete("/:sku", route(authorize(RoleAdmin), stockHandler.Delete)...)

	// Flujo de pedidos
	stock.Post("/deduct", route(authorize(RoleAdmin, RoleCheckout), stockHandler.Deduct)...)
	stock.Post("/restore", route(authorize(RoleAdmin, RoleCheckout), stockHandler.Restore)...)

	// Lectura: cualquier rol autenticado
	stock.Get("/", route(authorize(), stockHandler.List)...)
	stock.Get("/:sku", route(authorize(), stockHandler.GetBySKU)...)
}
