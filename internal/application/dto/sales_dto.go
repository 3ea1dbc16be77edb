package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea de venta entrante. Si UnitPrice va en cero se usa el
// precio de venta del producto; si TaxRate va nil se usa la tasa del producto.
type SaleLineRequest struct {
	ProductID   string           `json:"product_id" validate:"required,uuid"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	DiscountPct decimal.Decimal  `json:"discount_pct"`
	TaxRate     *decimal.Decimal `json:"tax_rate,omitempty"`
}

// CreateSaleRequest body para POST /api/sales.
// CompanyID solo lo puede fijar un admin; el resto de actores usan la empresa
// de su token.
type CreateSaleRequest struct {
	CompanyID      string            `json:"company_id,omitempty"`
	CustomerID     string            `json:"customer_id,omitempty"`
	WarehouseID    string            `json:"warehouse_id" validate:"required,uuid"`
	PaymentMode    string            `json:"payment_mode" validate:"omitempty,oneof=cash card transfer mobile"`
	GlobalDiscount decimal.Decimal   `json:"global_discount"`
	Lines          []SaleLineRequest `json:"lines" validate:"required,min=1"`
}

// SaleLineResponse línea de venta en respuestas.
type SaleLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TotalHT     decimal.Decimal `json:"total_ht"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalTTC    decimal.Decimal `json:"total_ttc"`
}

// SaleResponse venta con detalle.
type SaleResponse struct {
	ID             string             `json:"id"`
	CompanyID      string             `json:"company_id"`
	CustomerID     string             `json:"customer_id,omitempty"`
	ClientEmail    string             `json:"client_email,omitempty"`
	SellerID       string             `json:"seller_id"`
	WarehouseID    string             `json:"warehouse_id"`
	Status         string             `json:"status"`
	PaymentMode    string             `json:"payment_mode"`
	PaymentStatus  string             `json:"payment_status"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	TaxTotal       decimal.Decimal    `json:"tax_total"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	GrandTotal     decimal.Decimal    `json:"grand_total"`
	InvoiceNumber  string             `json:"invoice_number,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	Lines          []SaleLineResponse `json:"lines,omitempty"`
}

// SetPaymentStatusRequest body para PATCH /api/sales/:id/payment.
type SetPaymentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid"`
}
