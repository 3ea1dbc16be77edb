package repository

import (
	"github.com/shopspring/decimal"

	"github.com/kmbaye/gestock-api/internal/domain/entity"
)

// StockRepository define el puerto de persistencia para StockRecord.
// Las mutaciones pasan siempre por stock.Ledger; ningún caller asigna campos
// directamente sobre la fila.
type StockRepository interface {
	// Get obtiene el registro; si no existe devuelve uno en cero (creación
	// perezosa en el primer movimiento).
	Get(productID, warehouseID string) (*entity.StockRecord, error)
	// GetForUpdate obtiene el registro bloqueando la fila (SELECT FOR UPDATE)
	// para serializar mutaciones sobre la misma clave (producto, bodega).
	GetForUpdate(productID, warehouseID string) (*entity.StockRecord, error)
	Upsert(record *entity.StockRecord) error
	// ListByProductForCompany devuelve los registros del producto en las
	// bodegas de la empresa (para disponibilidad multi-bodega).
	ListByProductForCompany(productID, companyID string) ([]*entity.StockRecord, error)
	// SumPhysicalByProduct suma la cantidad física del producto en todas las
	// bodegas (para refrescar la caché del producto y para conciliación).
	SumPhysicalByProduct(productID string) (decimal.Decimal, error)
}
