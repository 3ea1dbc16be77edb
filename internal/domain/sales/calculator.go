// Package sales contiene la aritmética pura de totales de venta.
// Todo el dinero se maneja con decimal de punto fijo (nunca float binario).
// El redondeo a la unidad de la moneda (moneda de cero decimales) ocurre
// solo a nivel de línea; los agregados son la suma exacta de líneas ya
// redondeadas, de modo que no hay deriva de redondeo entre muchas líneas.
package sales

import (
	"github.com/shopspring/decimal"

	"github.com/kmbaye/gestock-api/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// LineTotals resultado del cálculo de una línea.
type LineTotals struct {
	TotalHT   decimal.Decimal // cantidad * precio * (1 - descuento/100), redondeado
	TaxAmount decimal.Decimal // TotalHT * tasa/100, redondeado
	TotalTTC  decimal.Decimal // TotalHT + TaxAmount (suma exacta de redondeados)
}

// SaleTotals agregado de una venta completa.
type SaleTotals struct {
	Subtotal   decimal.Decimal // suma de TotalHT
	TaxTotal   decimal.Decimal // suma de TaxAmount
	GrandTotal decimal.Decimal // Subtotal + TaxTotal - descuento global
}

// ValidateLine valida los parámetros de una línea antes de cualquier efecto.
func ValidateLine(quantity, unitPrice, discountPct, taxRatePct decimal.Decimal) error {
	if !quantity.GreaterThan(decimal.Zero) {
		return &domain.InvalidQuantityError{Quantity: quantity}
	}
	if unitPrice.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if discountPct.LessThan(decimal.Zero) || discountPct.GreaterThan(hundred) {
		return &domain.InvalidDiscountError{Discount: discountPct}
	}
	if taxRatePct.LessThan(decimal.Zero) {
		return &domain.InvalidTaxRateError{Rate: taxRatePct}
	}
	return nil
}

// CalcLineTotals calcula los totales de una línea:
//
//	TotalHT  = quantity * unitPrice * (1 - discountPct/100)
//	TaxAmount = TotalHT * taxRatePct/100
//	TotalTTC = TotalHT + TaxAmount
func CalcLineTotals(quantity, unitPrice, discountPct, taxRatePct decimal.Decimal) (LineTotals, error) {
	if err := ValidateLine(quantity, unitPrice, discountPct, taxRatePct); err != nil {
		return LineTotals{}, err
	}
	factor := decimal.NewFromInt(1).Sub(discountPct.Div(hundred))
	totalHT := quantity.Mul(unitPrice).Mul(factor).Round(0)
	taxAmount := totalHT.Mul(taxRatePct).Div(hundred).Round(0)
	return LineTotals{
		TotalHT:   totalHT,
		TaxAmount: taxAmount,
		TotalTTC:  totalHT.Add(taxAmount),
	}, nil
}

// CalcSaleTotals agrega líneas ya calculadas y aplica el descuento global.
// Falla si el descuento global supera subtotal + impuestos.
func CalcSaleTotals(lines []LineTotals, globalDiscount decimal.Decimal) (SaleTotals, error) {
	if globalDiscount.LessThan(decimal.Zero) {
		return SaleTotals{}, &domain.InvalidDiscountError{Discount: globalDiscount, Global: true}
	}
	var subtotal, taxTotal decimal.Decimal
	for _, l := range lines {
		subtotal = subtotal.Add(l.TotalHT)
		taxTotal = taxTotal.Add(l.TaxAmount)
	}
	full := subtotal.Add(taxTotal)
	if globalDiscount.GreaterThan(full) {
		return SaleTotals{}, &domain.InvalidDiscountError{Discount: globalDiscount, Global: true}
	}
	return SaleTotals{
		Subtotal:   subtotal,
		TaxTotal:   taxTotal,
		GrandTotal: full.Sub(globalDiscount),
	}, nil
}

// WeightedAvgCost implementa el costo promedio ponderado del restock:
// NuevoCosto = ((Física * CostoActual) + (Cantidad * CostoEntrada)) / (Física + Cantidad)
func WeightedAvgCost(physical, currentCost, quantity, unitCost decimal.Decimal) decimal.Decimal {
	sum := physical.Add(quantity)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := physical.Mul(currentCost).Add(quantity.Mul(unitCost))
	return num.Div(sum)
}
