package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (multi-bodega).
// StockCached es una caché derivada de la suma de stock_records; la fuente
// canónica es siempre StockRecord y cualquier divergencia se trata como
// alerta de calidad de datos (ver stock.Ledger.Reconcile).
type Product struct {
	ID            string
	CompanyID     string
	SKU           string // código único por empresa
	Name          string
	Description   string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	TaxRate       decimal.Decimal // TVA en porcentaje: 0, 10, 18
	MinStock      decimal.Decimal
	MaxStock      decimal.Decimal
	StockCached   decimal.Decimal // caché de suma física, nunca fuente de verdad
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
