package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-service/internal/application/dto"
	"github.com/jhoicas/stock-service/internal/application/inventory"
	"github.com/jhoicas/stock-service/internal/domain"
)

// StockHandler maneja las peticiones HTTP de stock.
type StockHandler struct {
	uc *inventory.StockUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// Register godoc
// @Summary      Registrar stock de un SKU
// @Description  Valida el SKU contra el catálogo de productos y crea el registro de stock.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterStockRequest  true  "sku y cantidad inicial"
// @Success      201   {object}  dto.StockMutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/stock [post]
func (h *StockHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Register(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateQuantity godoc
// @Summary      Actualizar cantidad de un SKU
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        sku       path      string  true  "SKU (ej. AP-IPH-001)"
// @Param        quantity  query     int     true  "Nueva cantidad (> 0)"
// @Success      200       {object}  dto.StockMutationResponse
// @Failure      400       {object}  dto.ErrorResponse
// @Failure      404       {object}  dto.ErrorResponse
// @Failure      500       {object}  dto.ErrorResponse
// @Router       /api/stock/{sku} [put]
func (h *StockHandler) UpdateQuantity(c *fiber.Ctx) error {
	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil || quantity <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity debe ser un entero mayor que cero"})
	}
	out, err := h.uc.UpdateQuantity(c.UserContext(), c.Params("sku"), quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Deduct godoc
// @Summary      Descontar stock (checkout)
// @Description  Todo o nada: si algún producto no tiene stock suficiente no se descuenta ninguno
// @Description  y la respuesta trae success=false con el producto que falló.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.StockBatchRequest  true  "ítems (product_id, quantity)"
// @Success      200   {object}  dto.StockBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/stock/deduct [post]
func (h *StockHandler) Deduct(c *fiber.Ctx) error {
	items, errResp := parseBatch(c)
	if errResp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errResp)
	}
	out, err := h.uc.Deduct(c.UserContext(), items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Restore godoc
// @Summary      Restaurar stock (cancelación)
// @Description  Ítem por ítem; si un producto no tiene stock registrado se detiene y los ítems
// @Description  anteriores quedan restaurados.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.StockBatchRequest  true  "ítems (product_id, quantity)"
// @Success      200   {object}  dto.StockBatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/stock/restore [post]
func (h *StockHandler) Restore(c *fiber.Ctx) error {
	items, errResp := parseBatch(c)
	if errResp != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errResp)
	}
	out, err := h.uc.Restore(c.UserContext(), items)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetBySKU godoc
// @Summary      Consultar stock por SKU
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        sku  path      string  true  "SKU"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku} [get]
func (h *StockHandler) GetBySKU(c *fiber.Ctx) error {
	out, err := h.uc.LookupBySKU(c.UserContext(), c.Params("sku"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar todo el stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.StockResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListAll(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar stock de un SKU
// @Tags         stock
// @Security     Bearer
// @Param        sku  path  string  true  "SKU"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stock/{sku} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("sku")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseBatch(c *fiber.Ctx) ([]dto.StockItemRequest, *dto.ErrorResponse) {
	var in dto.StockBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return nil, &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if len(in.Items) == 0 {
		return nil, &dto.ErrorResponse{Code: "VALIDATION", Message: "items no puede estar vacío"}
	}
	for _, item := range in.Items {
		if item.ProductID <= 0 {
			return nil, &dto.ErrorResponse{Code: "VALIDATION", Message: "product_id inválido"}
		}
		if item.Quantity <= 0 {
			return nil, &dto.ErrorResponse{Code: "VALIDATION", Message: "quantity debe ser mayor que cero"}
		}
	}
	return in.Items, nil
}

// writeError traduce errores de dominio a status HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidSKU), errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicateStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrStockNotFound), errors.Is(err, domain.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
