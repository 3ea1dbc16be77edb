package billing

import (
	"fmt"
	"time"

	"github.com/kmbaye/gestock-api/internal/domain"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
	"github.com/kmbaye/gestock-api/internal/observability"
)

// maxSequence es el tope del consecutivo de 4 dígitos por (empresa, mes).
const maxSequence = 9999

// Sequencer emite números de factura únicos, legibles y monotónicos por
// (empresa, año-mes): PREFIX + YYYY + MM + consecutivo de 4 dígitos,
// ej. FAC2025010007. El consecutivo arranca en 1 en la primera venta del mes,
// nunca se reinicia a mitad de mes y nunca reutiliza un número aunque la
// venta que lo consumió se anule después.
type Sequencer struct {
	counterRepo repository.InvoiceCounterRepository // atado al pool, para uso fuera de tx
	prefix      string
}

// NewSequencer construye el secuenciador.
func NewSequencer(counterRepo repository.InvoiceCounterRepository, prefix string) *Sequencer {
	if prefix == "" {
		prefix = "FAC"
	}
	return &Sequencer{counterRepo: counterRepo, prefix: prefix}
}

// NextInvoiceNumber incrementa el contador de (empresa, año, mes) de forma
// atómica y devuelve el número formateado con el valor post-incremento.
func (s *Sequencer) NextInvoiceNumber(companyID string, at time.Time) (string, error) {
	return s.NextInTx(s.counterRepo, companyID, at)
}

// NextInTx igual que NextInvoiceNumber pero con el repositorio del caller
// (misma transacción que la finalización de la venta).
func (s *Sequencer) NextInTx(counterRepo repository.InvoiceCounterRepository, companyID string, at time.Time) (string, error) {
	year, month := at.Year(), int(at.Month())
	n, err := counterRepo.Next(companyID, year, month)
	if err != nil {
		return "", fmt.Errorf("incrementar contador de factura: %w", err)
	}
	if n > maxSequence {
		observability.SequenceExhausted.Inc()
		return "", &domain.SequenceExhaustedError{CompanyID: companyID, Year: year, Month: month, Value: n}
	}
	return fmt.Sprintf("%s%04d%02d%04d", s.prefix, year, month, n), nil
}
