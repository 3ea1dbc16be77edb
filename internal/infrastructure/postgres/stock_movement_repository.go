package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kmbaye/gestock-api/internal/domain/entity"
	"github.com/kmbaye/gestock-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del diario de movimientos sobre PostgreSQL.
// El diario es append-only: no hay Update ni Delete.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create registra una entrada del diario.
func (r *StockMovementRepo) Create(mov *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, warehouse_id, type, quantity, unit_cost, ref_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		mov.ID, mov.ProductID, mov.WarehouseID, mov.Type, mov.Quantity,
		mov.UnitCost, mov.RefID, mov.CreatedBy, mov.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListByProduct lista los movimientos de un producto en una bodega, más reciente primero.
func (r *StockMovementRepo) ListByProduct(productID, warehouseID string, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, warehouse_id, type, quantity, unit_cost, ref_id, created_by, created_at
		FROM stock_movements
		WHERE product_id = $1 AND warehouse_id = $2
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(context.Background(), query, productID, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

// ListByRef lista los movimientos originados por una referencia (la venta).
func (r *StockMovementRepo) ListByRef(refID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, warehouse_id, type, quantity, unit_cost, ref_id, created_by, created_at
		FROM stock_movements WHERE ref_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, refID)
	if err != nil {
		return nil, fmt.Errorf("list stock movements by ref: %w", err)
	}
	defer rows.Close()
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.WarehouseID, &m.Type, &m.Quantity, &m.UnitCost, &m.RefID, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
