package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una venta.
// DRAFT -> RESERVED -> FINALIZED, RESERVED -> RELEASED, FINALIZED -> VOIDED.
const (
	SaleStatusDraft     = "DRAFT"
	SaleStatusReserved  = "RESERVED"
	SaleStatusFinalized = "FINALIZED"
	SaleStatusReleased  = "RELEASED"
	SaleStatusVoided    = "VOIDED"
)

// Estados de pago de una venta.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
)

// Modos de pago aceptados.
const (
	PaymentModeCash     = "cash"
	PaymentModeCard     = "card"
	PaymentModeTransfer = "transfer"
	PaymentModeMobile   = "mobile"
)

// Sale representa la cabecera de una venta.
// CustomerID puede ir vacío (venta sin cliente registrado); ClientEmail se
// desnormaliza desde el cliente al crear la venta para el match de lectura
// por email de la política de acceso.
// InvoiceNumber se asigna una sola vez al finalizar y nunca se reasigna,
// ni siquiera si la venta se anula después.
type Sale struct {
	ID             string
	CompanyID      string
	CustomerID     string
	ClientEmail    string
	SellerID       string
	WarehouseID    string
	Status         string // DRAFT | RESERVED | FINALIZED | RELEASED | VOIDED
	PaymentMode    string
	PaymentStatus  string // pending | paid | cancelled
	Subtotal       decimal.Decimal // suma de TotalHT de las líneas
	TaxTotal       decimal.Decimal
	DiscountAmount decimal.Decimal // descuento global sobre el total
	GrandTotal     decimal.Decimal // TTC final
	InvoiceNumber  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
