package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores centinela de plomería (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	// ErrLockTimeout indica que no se pudo adquirir el bloqueo de fila dentro del
	// límite configurado. Es reintetable por el caller.
	ErrLockTimeout = errors.New("timeout adquiriendo bloqueo, reintente")
)

// InsufficientStockError: la cantidad pedida supera el disponible (física - reservada).
// La reserva es todo-o-nada: el registro queda intacto.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: producto %s bodega %s, pedido %s disponible %s",
		e.ProductID, e.WarehouseID, e.Requested, e.Available)
}

// InvalidStateError: commit o release sin reserva suficiente que lo respalde.
type InvalidStateError struct {
	ProductID   string
	WarehouseID string
	Op          string // commit | release
	Requested   decimal.Decimal
	Reserved    decimal.Decimal
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("estado inválido en %s: producto %s bodega %s, pedido %s reservado %s",
		e.Op, e.ProductID, e.WarehouseID, e.Requested, e.Reserved)
}

// SequenceExhaustedError: el consecutivo de 4 dígitos se agotó (>9999 ventas
// de una empresa en un mes). Se propaga, nunca se envuelve en silencio.
type SequenceExhaustedError struct {
	CompanyID string
	Year      int
	Month     int
	Value     int
}

func (e *SequenceExhaustedError) Error() string {
	return fmt.Sprintf("consecutivo de factura agotado: empresa %s %04d-%02d llegó a %d",
		e.CompanyID, e.Year, e.Month, e.Value)
}

// InvalidQuantityError: cantidad de línea <= 0.
type InvalidQuantityError struct {
	Quantity decimal.Decimal
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("cantidad inválida: %s (debe ser > 0)", e.Quantity)
}

// InvalidDiscountError: descuento de línea fuera de [0,100] o descuento global
// mayor al total de la venta.
type InvalidDiscountError struct {
	Discount decimal.Decimal
	Global   bool
}

func (e *InvalidDiscountError) Error() string {
	if e.Global {
		return fmt.Sprintf("descuento global inválido: %s supera el total de la venta", e.Discount)
	}
	return fmt.Sprintf("descuento inválido: %s (debe estar entre 0 y 100)", e.Discount)
}

// InvalidTaxRateError: tasa de impuesto negativa.
type InvalidTaxRateError struct {
	Rate decimal.Decimal
}

func (e *InvalidTaxRateError) Error() string {
	return fmt.Sprintf("tasa de impuesto inválida: %s (debe ser >= 0)", e.Rate)
}

// SaleLineError envuelve un error de validación con el índice de la línea que
// lo provocó. Se reporta antes de cualquier mutación de stock.
type SaleLineError struct {
	Line int // índice base cero de la línea
	Err  error
}

func (e *SaleLineError) Error() string {
	return fmt.Sprintf("línea %d: %v", e.Line, e.Err)
}

func (e *SaleLineError) Unwrap() error { return e.Err }

// AccessDeniedError: la política de acceso negó la acción al actor.
type AccessDeniedError struct {
	ActorID string
	Role    string
	SaleID  string
	Action  string // read | write | create
}

func (e *AccessDeniedError) Error() string {
	if e.SaleID == "" {
		return fmt.Sprintf("acceso denegado: actor %s (rol %s) no puede %s", e.ActorID, e.Role, e.Action)
	}
	return fmt.Sprintf("acceso denegado: actor %s (rol %s) no puede %s venta %s",
		e.ActorID, e.Role, e.Action, e.SaleID)
}

// DuplicateInvoiceNumberError: número de factura duplicado. Inalcanzable si el
// bloqueo del contador funciona; cualquier ocurrencia es un fallo fatal de
// integridad, no una condición recuperable.
type DuplicateInvoiceNumberError struct {
	Number string
}

func (e *DuplicateInvoiceNumberError) Error() string {
	return fmt.Sprintf("número de factura duplicado: %s (fallo de integridad del secuenciador)", e.Number)
}
