package repository

import "github.com/kmbaye/gestock-api/internal/domain/entity"

// SaleRepository define el puerto de persistencia para Sale y sus líneas.
// La venta es dueña exclusiva de sus líneas (mismo ciclo de vida).
type SaleRepository interface {
	// Create persiste cabecera y líneas como una unidad.
	Create(sale *entity.Sale, lines []*entity.SaleLine) error
	GetByID(id string) (*entity.Sale, error)
	// GetForUpdate bloquea la cabecera para una transición de estado.
	GetForUpdate(id string) (*entity.Sale, error)
	GetLines(saleID string) ([]*entity.SaleLine, error)
	// Update persiste estado, totales, número de factura y estado de pago.
	Update(sale *entity.Sale) error
	List(limit, offset int) ([]*entity.Sale, error)
	ListByCompany(companyID string, limit, offset int) ([]*entity.Sale, error)
	// ListByClientEmail lista ventas cuyo email de cliente hace match
	// (recortado, sin distinguir mayúsculas).
	ListByClientEmail(email string, limit, offset int) ([]*entity.Sale, error)
}
