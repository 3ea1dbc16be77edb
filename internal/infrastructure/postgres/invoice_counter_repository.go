package postgres

import (
	"context"
	"fmt"

	"github.com/kmbaye/gestock-api/internal/domain/repository"
)

var _ repository.InvoiceCounterRepository = (*InvoiceCounterRepo)(nil)

// InvoiceCounterRepo implementación del contador de facturas sobre PostgreSQL.
type InvoiceCounterRepo struct {
	q Querier
}

// NewInvoiceCounterRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceCounterRepository(q Querier) *InvoiceCounterRepo {
	return &InvoiceCounterRepo{q: q}
}

// Next incrementa el consecutivo de (empresa, año, mes) de forma atómica y
// devuelve el valor post-incremento. El INSERT ... ON CONFLICT DO UPDATE
// bloquea la fila del contador: llamadas concurrentes sobre la misma clave
// serializan ahí y cada una recibe un valor distinto y contiguo. Claves
// distintas no se bloquean entre sí.
func (r *InvoiceCounterRepo) Next(companyID string, year, month int) (int, error) {
	query := `
		INSERT INTO invoice_counters (company_id, year, month, last_value, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (company_id, year, month)
		DO UPDATE SET last_value = invoice_counters.last_value + 1, updated_at = now()
		RETURNING last_value`
	var value int
	if err := r.q.QueryRow(context.Background(), query, companyID, year, month).Scan(&value); err != nil {
		return 0, fmt.Errorf("next invoice counter: %w", err)
	}
	return value, nil
}
