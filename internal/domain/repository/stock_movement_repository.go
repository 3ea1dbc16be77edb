package repository

import "github.com/kmbaye/gestock-api/internal/domain/entity"

// StockMovementRepository define el puerto del diario de movimientos de stock.
type StockMovementRepository interface {
	Create(mov *entity.StockMovement) error
	ListByProduct(productID, warehouseID string, limit, offset int) ([]*entity.StockMovement, error)
	ListByRef(refID string) ([]*entity.StockMovement, error)
}
