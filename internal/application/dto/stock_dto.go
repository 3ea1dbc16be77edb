package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RestockRequest body para POST /api/stock/restock.
type RestockRequest struct {
	ProductID   string          `json:"product_id" validate:"required,uuid"`
	WarehouseID string          `json:"warehouse_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UnitCost    decimal.Decimal `json:"unit_cost" validate:"required"`
}

// AdjustStockRequest body para POST /api/stock/adjust (corrección manual,
// cantidad positiva o negativa).
type AdjustStockRequest struct {
	ProductID   string          `json:"product_id" validate:"required,uuid"`
	WarehouseID string          `json:"warehouse_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	Note        string          `json:"note,omitempty"`
}

// AvailabilityResponse disponibilidad de un producto.
type AvailabilityResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Available   decimal.Decimal `json:"available"`
}

// StockMovementResponse entrada del diario de movimientos.
type StockMovementResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	RefID       string          `json:"ref_id,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ReconcileResponse resultado de la conciliación caché vs registros.
type ReconcileResponse struct {
	ProductID string          `json:"product_id"`
	Cached    decimal.Decimal `json:"cached"`
	Canonical decimal.Decimal `json:"canonical"`
	Diverged  bool            `json:"diverged"`
}
