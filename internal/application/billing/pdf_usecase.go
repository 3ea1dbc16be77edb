package billing

import (
	"context"
	"fmt"

	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/access"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura de venta.
// Solo se permite generar el PDF si la venta ya tiene número de factura
// (es decir, fue finalizada; una venta anulada conserva su número).
type PDFUseCase struct {
	saleRepo     repository.SaleRepository
	companyRepo  repository.CompanyRepository
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	generator    InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	saleRepo repository.SaleRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	generator InvoicePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		saleRepo:     saleRepo,
		companyRepo:  companyRepo,
		customerRepo: customerRepo,
		productRepo:  productRepo,
		generator:    generator,
	}
}

// DownloadInvoicePDF recupera todos los datos de la venta, verifica el alcance
// del actor y que la venta ya tiene número de factura, y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la venta no existe.
//   - *domain.AccessDeniedError  si el actor no puede leer esta venta.
//   - domain.ErrInvalidInput     si la venta aún no fue finalizada.
func (uc *PDFUseCase) DownloadInvoicePDF(
	ctx context.Context,
	actor access.Actor,
	saleID string,
) (pdfBytes []byte, filename string, err error) {
	sale, err := uc.saleRepo.GetByID(saleID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, "", domain.ErrNotFound
	}
	if err := access.CanRead(actor, sale); err != nil {
		return nil, "", err
	}

	if sale.InvoiceNumber == "" || (sale.Status != entity.SaleStatusFinalized && sale.Status != entity.SaleStatusVoided) {
		return nil, "", fmt.Errorf("%w: la venta está en estado %s, finalícela antes de descargar el PDF",
			domain.ErrInvalidInput, sale.Status)
	}

	company, err := uc.companyRepo.GetByID(sale.CompanyID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", err)
	}
	if company == nil {
		return nil, "", fmt.Errorf("pdf: empresa %s: %w", sale.CompanyID, domain.ErrNotFound)
	}

	// Cliente opcional: una venta de mostrador puede no tener cliente asociado.
	var customer *entity.Customer
	if sale.CustomerID != "" {
		customer, err = uc.customerRepo.GetByID(sale.CustomerID)
		if err != nil {
			return nil, "", fmt.Errorf("pdf: obtener cliente: %w", err)
		}
	}

	rawLines, err := uc.saleRepo.GetLines(saleID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener líneas: %w", err)
	}

	enriched := make([]SaleLineForPDF, 0, len(rawLines))
	for _, l := range rawLines {
		name := "Producto " + l.ProductID // fallback
		if product, pErr := uc.productRepo.GetByID(l.ProductID); pErr == nil && product != nil {
			name = product.Name
		}
		enriched = append(enriched, SaleLineForPDF{
			SaleLine:    *l,
			ProductName: name,
		})
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, sale, company, customer, enriched)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("factura_%s.pdf", sale.InvoiceNumber)
	return pdfBytes, filename, nil
}
