package repository

// InvoiceCounterRepository define el puerto del contador de facturas.
// El contador es propiedad exclusiva del secuenciador; nadie más lo muta.
type InvoiceCounterRepository interface {
	// Next crea la fila (empresa, año, mes) si no existe e incrementa el
	// consecutivo de forma atómica, devolviendo el valor post-incremento.
	// Llamadas concurrentes sobre la misma clave serializan en el bloqueo de
	// fila; claves distintas no se bloquean entre sí.
	Next(companyID string, year, month int) (int, error)
}
