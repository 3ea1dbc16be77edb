package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, warehouse_id, physical, reserved, on_order, avg_unit_cost, shelf_location, updated_at`

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	err := row.Scan(
		&s.ProductID, &s.WarehouseID, &s.Physical, &s.Reserved, &s.OnOrder,
		&s.AvgUnitCost, &s.ShelfLocation, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func zeroStockRecord(productID, warehouseID string) *entity.StockRecord {
	return &entity.StockRecord{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Physical:    decimal.Zero,
		Reserved:    decimal.Zero,
		OnOrder:     decimal.Zero,
		AvgUnitCost: decimal.Zero,
	}
}

// Get obtiene el registro de stock; si no existe, devuelve uno en cero
// (la fila se crea perezosamente en el primer movimiento).
func (r *StockRepo) Get(productID, warehouseID string) (*entity.StockRecord, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock_records WHERE product_id = $1 AND warehouse_id = $2`
	s, err := scanStockRecord(r.q.QueryRow(context.Background(), query, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroStockRecord(productID, warehouseID), nil
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el registro bloqueando la fila (SELECT FOR UPDATE) para
// serializar mutaciones sobre la misma clave (producto, bodega). Si la fila no
// existe todavía se materializa en cero antes de bloquearla: un FOR UPDATE
// sobre una fila inexistente no adquiere ningún bloqueo y dos primeras
// mutaciones concurrentes partirían ambas del registro en cero.
func (r *StockRepo) GetForUpdate(productID, warehouseID string) (*entity.StockRecord, error) {
	seed := `
		INSERT INTO stock_records (product_id, warehouse_id, physical, reserved, on_order, avg_unit_cost, shelf_location, updated_at)
		VALUES ($1, $2, 0, 0, 0, 0, '', now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), seed, productID, warehouseID); err != nil {
		return nil, fmt.Errorf("seed stock record: %w", err)
	}
	query := `
		SELECT ` + stockColumns + `
		FROM stock_records WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	s, err := scanStockRecord(r.q.QueryRow(context.Background(), query, productID, warehouseID))
	if err != nil {
		return nil, fmt.Errorf("get stock record for update: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza el registro de stock (por producto y bodega).
func (r *StockRepo) Upsert(record *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (product_id, warehouse_id, physical, reserved, on_order, avg_unit_cost, shelf_location, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET
			physical = EXCLUDED.physical,
			reserved = EXCLUDED.reserved,
			on_order = EXCLUDED.on_order,
			avg_unit_cost = EXCLUDED.avg_unit_cost,
			shelf_location = EXCLUDED.shelf_location,
			updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		record.ProductID, record.WarehouseID, record.Physical, record.Reserved,
		record.OnOrder, record.AvgUnitCost, record.ShelfLocation,
	)
	if err != nil {
		return fmt.Errorf("upsert stock record: %w", err)
	}
	return nil
}

// ListByProductForCompany devuelve los registros del producto en las bodegas
// de la empresa (disponibilidad multi-bodega).
func (r *StockRepo) ListByProductForCompany(productID, companyID string) ([]*entity.StockRecord, error) {
	query := `
		SELECT s.product_id, s.warehouse_id, s.physical, s.reserved, s.on_order, s.avg_unit_cost, s.shelf_location, s.updated_at
		FROM stock_records s
		JOIN warehouses w ON w.id = s.warehouse_id
		WHERE s.product_id = $1 AND w.company_id = $2
		ORDER BY s.warehouse_id`
	rows, err := r.q.Query(context.Background(), query, productID, companyID)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		var s entity.StockRecord
		if err := rows.Scan(&s.ProductID, &s.WarehouseID, &s.Physical, &s.Reserved, &s.OnOrder, &s.AvgUnitCost, &s.ShelfLocation, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// SumPhysicalByProduct suma la cantidad física del producto en todas las bodegas.
func (r *StockRepo) SumPhysicalByProduct(productID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(physical), 0)
		FROM stock_records WHERE product_id = $1`
	var total decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, productID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum physical stock: %w", err)
	}
	return total, nil
}
