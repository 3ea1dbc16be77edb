package billing

import (
	"context"

	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con los
// repositorios de stock y facturación atados a esa tx. Cada ejecución del
// flujo de venta corre dentro de una sola transacción; el rollback es la
// acción compensatoria de las reservas si el caller aborta a mitad.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
		counterRepo repository.InvoiceCounterRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// SaleLineForPDF enriquece una línea con el nombre del producto para el PDF.
type SaleLineForPDF struct {
	entity.SaleLine
	ProductName string
}

// InvoicePDFGenerator genera la representación gráfica (PDF) de una factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(
		ctx context.Context,
		sale *entity.Sale,
		company *entity.Company,
		customer *entity.Customer,
		lines []SaleLineForPDF,
	) ([]byte, error)
}
