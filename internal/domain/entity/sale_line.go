package entity

import "github.com/shopspring/decimal"

// SaleLine representa una línea de una venta. Inmutable una vez finalizada la
// venta; las correcciones se hacen con líneas compensatorias, no mutando historia.
type SaleLine struct {
	ID          string
	SaleID      string
	ProductID   string
	Quantity    decimal.Decimal // > 0
	UnitPrice   decimal.Decimal // >= 0
	DiscountPct decimal.Decimal // 0..100
	TaxRate     decimal.Decimal // porcentaje TVA, >= 0
	TotalHT     decimal.Decimal // total sin impuesto, redondeado a unidad
	TaxAmount   decimal.Decimal
	TotalTTC    decimal.Decimal // TotalHT + TaxAmount
}
