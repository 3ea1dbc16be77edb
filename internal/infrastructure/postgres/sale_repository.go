package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, company_id, COALESCE(customer_id, ''), client_email, seller_id, warehouse_id,
	status, payment_mode, payment_status, subtotal, tax_total, discount_amount, grand_total,
	COALESCE(invoice_number, ''), created_at, updated_at`

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(
		&s.ID, &s.CompanyID, &s.CustomerID, &s.ClientEmail, &s.SellerID, &s.WarehouseID,
		&s.Status, &s.PaymentMode, &s.PaymentStatus, &s.Subtotal, &s.TaxTotal,
		&s.DiscountAmount, &s.GrandTotal, &s.InvoiceNumber, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persiste cabecera y líneas como una unidad. Debe llamarse dentro de
// una transacción del TxRunner.
func (r *SaleRepo) Create(sale *entity.Sale, lines []*entity.SaleLine) error {
	query := `
		INSERT INTO sales (id, company_id, customer_id, client_email, seller_id, warehouse_id,
			status, payment_mode, payment_status, subtotal, tax_total, discount_amount, grand_total,
			invoice_number, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULLIF($14, ''), $15, $16)`
	_, err := r.q.Exec(context.Background(), query,
		sale.ID, sale.CompanyID, sale.CustomerID, sale.ClientEmail, sale.SellerID, sale.WarehouseID,
		sale.Status, sale.PaymentMode, sale.PaymentStatus, sale.Subtotal, sale.TaxTotal,
		sale.DiscountAmount, sale.GrandTotal, sale.InvoiceNumber, sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	lineQuery := `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, discount_pct,
			tax_rate, total_ht, tax_amount, total_ttc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	for _, l := range lines {
		_, err := r.q.Exec(context.Background(), lineQuery,
			l.ID, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.DiscountPct,
			l.TaxRate, l.TotalHT, l.TaxAmount, l.TotalTTC,
		)
		if err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una venta por ID; nil si no existe.
func (r *SaleRepo) GetByID(id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`
	s, err := scanSale(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene la venta bloqueando la cabecera (SELECT FOR UPDATE)
// para una transición de estado.
func (r *SaleRepo) GetForUpdate(id string) (*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`
	s, err := scanSale(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale for update: %w", err)
	}
	return s, nil
}

// GetLines obtiene las líneas de una venta.
func (r *SaleRepo) GetLines(saleID string) ([]*entity.SaleLine, error) {
	query := `
		SELECT id, sale_id, product_id, quantity, unit_price, discount_pct,
			tax_rate, total_ht, tax_amount, total_ttc
		FROM sale_lines WHERE sale_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, saleID)
	if err != nil {
		return nil, fmt.Errorf("get sale lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.SaleLine
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.DiscountPct, &l.TaxRate, &l.TotalHT, &l.TaxAmount, &l.TotalTTC); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// Update persiste estado, totales, número de factura y estado de pago.
// Una violación del único sobre invoice_number se mapea a
// DuplicateInvoiceNumberError: con el contador atómico no debería ocurrir,
// si ocurre es un fallo de integridad.
func (r *SaleRepo) Update(sale *entity.Sale) error {
	query := `
		UPDATE sales SET status = $2, payment_status = $3, subtotal = $4, tax_total = $5,
			discount_amount = $6, grand_total = $7, invoice_number = NULLIF($8, ''), updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		sale.ID, sale.Status, sale.PaymentStatus, sale.Subtotal, sale.TaxTotal,
		sale.DiscountAmount, sale.GrandTotal, sale.InvoiceNumber, sale.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.DuplicateInvoiceNumberError{Number: sale.InvoiceNumber}
		}
		return fmt.Errorf("update sale: %w", err)
	}
	return nil
}

// List lista todas las ventas, más reciente primero (solo admin).
func (r *SaleRepo) List(limit, offset int) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(context.Background(), query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	return scanSales(rows)
}

// ListByCompany lista ventas de una empresa, más reciente primero.
func (r *SaleRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE company_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales by company: %w", err)
	}
	defer rows.Close()
	return scanSales(rows)
}

// ListByClientEmail lista ventas cuyo email de cliente hace match con el del
// actor (recortado, sin distinguir mayúsculas). Un email vacío nunca hace match.
func (r *SaleRepo) ListByClientEmail(email string, limit, offset int) ([]*entity.Sale, error) {
	query := `
		SELECT ` + saleColumns + ` FROM sales
		WHERE client_email <> '' AND lower(trim(client_email)) = lower(trim($1))
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sales by client email: %w", err)
	}
	defer rows.Close()
	return scanSales(rows)
}

func scanSales(rows pgx.Rows) ([]*entity.Sale, error) {
	var list []*entity.Sale
	for rows.Next() {
		var s entity.Sale
		err := rows.Scan(
			&s.ID, &s.CompanyID, &s.CustomerID, &s.ClientEmail, &s.SellerID, &s.WarehouseID,
			&s.Status, &s.PaymentMode, &s.PaymentStatus, &s.Subtotal, &s.TaxTotal,
			&s.DiscountAmount, &s.GrandTotal, &s.InvoiceNumber, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
