package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/kmbaye/gestock-api/internal/application/dto"
	"github.com/kmbaye/gestock-api/internal/application/stock"
)

// StockHandler maneja las peticiones HTTP del libro de stock (protegido,
// solo admin y entrepreneur).
type StockHandler struct {
	ledger *stock.Ledger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *stock.Ledger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// Restock godoc
// @Summary      Entrada de mercancía (recalcula costo promedio ponderado)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RestockRequest  true  "Producto, bodega, cantidad, costo"
// @Success      200   {object}  dto.AvailabilityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/restock [post]
func (h *StockHandler) Restock(c *fiber.Ctx) error {
	var in dto.RestockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ProductID == "" || in.WarehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son requeridos"})
	}
	if err := h.ledger.Restock(c.UserContext(), in.ProductID, in.WarehouseID, in.Quantity, in.UnitCost, GetUserID(c)); err != nil {
		return mapDomainError(c, err)
	}
	available, err := h.ledger.Available(c.UserContext(), in.ProductID, in.WarehouseID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{ProductID: in.ProductID, WarehouseID: in.WarehouseID, Available: available})
}

// Adjust godoc
// @Summary      Ajuste manual de stock (positivo o negativo)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "Producto, bodega, cantidad con signo"
// @Success      200   {object}  dto.AvailabilityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ProductID == "" || in.WarehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son requeridos"})
	}
	if in.Quantity.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "quantity no puede ser cero"})
	}
	if err := h.ledger.Adjust(c.UserContext(), in.ProductID, in.WarehouseID, in.Quantity, GetUserID(c), in.Note); err != nil {
		return mapDomainError(c, err)
	}
	available, err := h.ledger.Available(c.UserContext(), in.ProductID, in.WarehouseID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{ProductID: in.ProductID, WarehouseID: in.WarehouseID, Available: available})
}

// Availability godoc
// @Summary      Disponibilidad de un producto (por bodega o total)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "ID del producto"
// @Param        warehouse_id  query  string  false  "ID de la bodega; si falta, suma todas"
// @Success      200  {object}  dto.AvailabilityResponse
// @Router       /api/stock/availability [get]
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id es requerido"})
	}
	warehouseID := c.Query("warehouse_id")
	var (
		available decimal.Decimal
		err       error
	)
	if warehouseID != "" {
		available, err = h.ledger.Available(c.UserContext(), productID, warehouseID)
	} else {
		available, err = h.ledger.AvailableForProduct(c.UserContext(), productID)
	}
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{ProductID: productID, WarehouseID: warehouseID, Available: available})
}

// Movements godoc
// @Summary      Diario de movimientos de un producto en una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "ID del producto"
// @Param        warehouse_id  query  string  true  "ID de la bodega"
// @Param        limit         query  int     false "Límite"  default(20)
// @Param        offset        query  int     false "Offset"  default(0)
// @Success      200  {array}  dto.StockMovementResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	warehouseID := c.Query("warehouse_id")
	if productID == "" || warehouseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y warehouse_id son requeridos"})
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	movs, err := h.ledger.Movements(c.UserContext(), productID, warehouseID, limit, offset)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.StockMovementResponse{
			ID:          m.ID,
			ProductID:   m.ProductID,
			WarehouseID: m.WarehouseID,
			Type:        m.Type,
			Quantity:    m.Quantity,
			UnitCost:    m.UnitCost,
			RefID:       m.RefID,
			CreatedBy:   m.CreatedBy,
			CreatedAt:   m.CreatedAt,
		})
	}
	return c.JSON(out)
}

// Reconcile godoc
// @Summary      Conciliar caché de stock del producto contra los registros
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true  "ID del producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/stock/reconcile [post]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id es requerido"})
	}
	report, err := h.ledger.Reconcile(c.UserContext(), productID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(dto.ReconcileResponse{
		ProductID: report.ProductID,
		Cached:    report.Cached,
		Canonical: report.Canonical,
		Diverged:  report.Diverged,
	})
}
