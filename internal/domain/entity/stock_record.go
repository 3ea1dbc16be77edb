package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord representa el estado de stock de un producto en una bodega.
// Invariantes tras cada mutación: Physical >= 0 y 0 <= Reserved <= Physical.
type StockRecord struct {
	ProductID     string
	WarehouseID   string
	Physical      decimal.Decimal // cantidad física en bodega
	Reserved      decimal.Decimal // cantidad reservada pendiente de venta
	OnOrder       decimal.Decimal // cantidad pedida a proveedor, aún no recibida
	AvgUnitCost   decimal.Decimal // costo promedio ponderado
	ShelfLocation string
	UpdatedAt     time.Time
}

// Available devuelve la cantidad disponible: física menos reservada.
func (s *StockRecord) Available() decimal.Decimal {
	return s.Physical.Sub(s.Reserved)
}
