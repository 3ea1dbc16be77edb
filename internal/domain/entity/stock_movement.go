package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de stock.
const (
	MovementTypeRESERVE = "RESERVE"
	MovementTypeCOMMIT  = "COMMIT"
	MovementTypeRELEASE = "RELEASE"
	MovementTypeRESTOCK = "RESTOCK"
	MovementTypeADJUST  = "ADJUST"
)

// StockMovement es una entrada del diario de movimientos de stock.
// RefID referencia la venta (u otra operación) que originó el movimiento.
type StockMovement struct {
	ID          string
	ProductID   string
	WarehouseID string
	Type        string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	RefID       string
	CreatedBy   string
	CreatedAt   time.Time
}
