package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmbaye/gestock-api/internal/domain/entity"
)

// stubQuerier emula la tabla stock_records en memoria y registra cada
// sentencia ejecutada, para verificar el contrato crear-y-bloquear del
// repositorio sin una base de datos real.
type stubQuerier struct {
	rows  map[string]*entity.StockRecord
	stmts []string
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{rows: make(map[string]*entity.StockRecord)}
}

func stubKey(productID, warehouseID string) string {
	return productID + "|" + warehouseID
}

func (q *stubQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.stmts = append(q.stmts, sql)
	if strings.Contains(sql, "DO NOTHING") {
		key := stubKey(args[0].(string), args[1].(string))
		if _, ok := q.rows[key]; !ok {
			q.rows[key] = &entity.StockRecord{
				ProductID:   args[0].(string),
				WarehouseID: args[1].(string),
				Physical:    decimal.Zero,
				Reserved:    decimal.Zero,
				OnOrder:     decimal.Zero,
				AvgUnitCost: decimal.Zero,
				UpdatedAt:   time.Now(),
			}
		}
	}
	return pgconn.CommandTag{}, nil
}

func (q *stubQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("no implementado")
}

func (q *stubQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.stmts = append(q.stmts, sql)
	rec, ok := q.rows[stubKey(args[0].(string), args[1].(string))]
	if !ok {
		return stubStockRow{err: pgx.ErrNoRows}
	}
	return stubStockRow{rec: rec}
}

type stubStockRow struct {
	rec *entity.StockRecord
	err error
}

func (r stubStockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.rec.ProductID
	*dest[1].(*string) = r.rec.WarehouseID
	*dest[2].(*decimal.Decimal) = r.rec.Physical
	*dest[3].(*decimal.Decimal) = r.rec.Reserved
	*dest[4].(*decimal.Decimal) = r.rec.OnOrder
	*dest[5].(*decimal.Decimal) = r.rec.AvgUnitCost
	*dest[6].(*string) = r.rec.ShelfLocation
	*dest[7].(*time.Time) = r.rec.UpdatedAt
	return nil
}

// GetForUpdate sobre una clave sin fila debe materializarla antes del
// SELECT FOR UPDATE: sin la fila no hay nada que bloquear y dos primeros
// movimientos concurrentes leerían ambos el registro en cero, perdiendo
// la cantidad del que confirma primero.
func TestStockRepo_GetForUpdateMaterializaLaFila(t *testing.T) {
	q := newStubQuerier()
	repo := NewStockRepository(q)

	record, err := repo.GetForUpdate("prod-1", "bodega-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Physical.IsZero())
	assert.True(t, record.Reserved.IsZero())

	require.Len(t, q.stmts, 2)
	assert.Contains(t, q.stmts[0], "ON CONFLICT (product_id, warehouse_id) DO NOTHING")
	assert.Contains(t, q.stmts[1], "FOR UPDATE")

	// La fila queda creada: un segundo bloqueo la encuentra (y en PostgreSQL
	// esperaría sobre su candado en vez de leer pgx.ErrNoRows).
	_, ok := q.rows[stubKey("prod-1", "bodega-1")]
	assert.True(t, ok)
}

func TestStockRepo_GetForUpdateConservaFilaExistente(t *testing.T) {
	q := newStubQuerier()
	q.rows[stubKey("prod-1", "bodega-1")] = &entity.StockRecord{
		ProductID:   "prod-1",
		WarehouseID: "bodega-1",
		Physical:    decimal.RequireFromString("5"),
		Reserved:    decimal.RequireFromString("2"),
		OnOrder:     decimal.Zero,
		AvgUnitCost: decimal.RequireFromString("100"),
		UpdatedAt:   time.Now(),
	}
	repo := NewStockRepository(q)

	record, err := repo.GetForUpdate("prod-1", "bodega-1")
	require.NoError(t, err)
	assert.True(t, record.Physical.Equal(decimal.RequireFromString("5")), "la siembra en cero no debe pisar la fila existente")
	assert.True(t, record.Reserved.Equal(decimal.RequireFromString("2")))
	assert.True(t, record.AvgUnitCost.Equal(decimal.RequireFromString("100")))
}

// Get (sin bloqueo) mantiene el contrato perezoso: clave inexistente
// devuelve registro en cero sin tocar la tabla.
func TestStockRepo_GetSinFilaDevuelveCeroSinInsertar(t *testing.T) {
	q := newStubQuerier()
	repo := NewStockRepository(q)

	record, err := repo.Get("prod-1", "bodega-1")
	require.NoError(t, err)
	assert.True(t, record.Physical.IsZero())
	assert.Empty(t, q.rows)
}
