package repository

import (
	"github.com/shopspring/decimal"

	"github.com/kmbaye/gestock-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(product *entity.Product) error
	GetByID(id string) (*entity.Product, error)
	GetByCompanyAndSKU(companyID, sku string) (*entity.Product, error)
	Update(product *entity.Product) error
	// UpdateStockCache refresca la caché derivada de stock total del producto.
	UpdateStockCache(productID string, total decimal.Decimal) error
	ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error)
}
