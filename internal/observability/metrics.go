// Package observability expone las métricas Prometheus del núcleo y el
// servidor sidecar que las publica.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SalesFinalized cuenta ventas finalizadas (número de factura emitido).
	SalesFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gestock_sales_finalized_total",
		Help: "Ventas finalizadas con número de factura emitido.",
	})

	// SalesCancelled cuenta ventas canceladas antes de finalizar (RELEASED).
	SalesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gestock_sales_cancelled_total",
		Help: "Ventas canceladas con liberación de reserva.",
	})

	// InsufficientStock cuenta reservas rechazadas por falta de disponible.
	InsufficientStock = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gestock_stock_insufficient_total",
		Help: "Reservas rechazadas por stock insuficiente.",
	})

	// SequenceExhausted cuenta agotamientos del consecutivo mensual de facturas.
	SequenceExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gestock_invoice_sequence_exhausted_total",
		Help: "Consecutivos de factura agotados (>9999 en un mes).",
	})

	// StockCacheDivergence cuenta divergencias detectadas entre la caché de
	// stock del producto y la suma canónica de stock_records.
	StockCacheDivergence = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gestock_stock_cache_divergence_total",
		Help: "Divergencias caché de producto vs suma de stock_records.",
	})
)
